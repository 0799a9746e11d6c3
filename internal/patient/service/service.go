// Package service implements the patient registry.
package service

import (
	"context"
	"log/slog"

	"medtransit/internal/audit"
	"medtransit/internal/patient/models"
	"medtransit/internal/registry"
	"medtransit/internal/storage"
	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/requestcontext"
)

const registryName = "patient"

type (
	Store = storage.Store[domain.PatientID, models.Patient]
	Tx    = storage.Tx[domain.PatientID, models.Patient]
)

// Service registers patients. Any authenticated caller may register a record
// and becomes its owner; every later change is owner only. Patients have no
// expiry, so there is no validity query.
type Service struct {
	ledger         *registry.Ledger[domain.PatientID, models.Patient]
	logger         *slog.Logger
	auditPublisher audit.Emitter
	metrics        *registry.Metrics
	tx             Tx
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *registry.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTx(tx Tx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.ledger = registry.NewLedger(registryName, store, s.tx, s.auditPublisher)
	return s
}

func (s *Service) RegisterPatient(ctx context.Context, id domain.PatientID, profile models.Profile) (*models.Patient, error) {
	patient, err := s.registerPatient(ctx, id, profile)
	s.metrics.Observe(registryName, "register", err)
	return patient, err
}

func (s *Service) registerPatient(ctx context.Context, id domain.PatientID, profile models.Profile) (*models.Patient, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "patient id is required")
	}
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "an identified caller must register the patient")
	}

	patient, err := s.ledger.Create(ctx, id, func() models.Patient {
		return models.Patient{
			ID:      id,
			Meta:    registry.NewMeta(caller, now),
			Profile: profile,
		}
	}, s.trail(audit.ActionPatientRegistered, caller, now))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "patient registered",
		"patient_id", id.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &patient, nil
}

// UpdatePatientInfo replaces the profile. Existence is checked before ownership.
func (s *Service) UpdatePatientInfo(ctx context.Context, id domain.PatientID, profile models.Profile) (*models.Patient, error) {
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	patient, err := s.ledger.Execute(ctx, id,
		s.requireOwner(ctx, "update", id, caller),
		func(p models.Patient) models.Patient {
			p.Profile = profile
			p.Touch(now)
			return p
		},
		s.trail(audit.ActionPatientUpdated, caller, now),
	)
	s.metrics.Observe(registryName, "update", err)
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (s *Service) DeactivatePatient(ctx context.Context, id domain.PatientID) (*models.Patient, error) {
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	patient, err := s.ledger.Execute(ctx, id,
		s.requireOwner(ctx, "deactivate", id, caller),
		func(p models.Patient) models.Patient {
			p.Deactivate(now)
			return p
		},
		s.trail(audit.ActionPatientDeactivated, caller, now),
	)
	s.metrics.Observe(registryName, "deactivate", err)
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id domain.PatientID) (*models.Patient, error) {
	patient, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (s *Service) requireOwner(ctx context.Context, op string, id domain.PatientID, caller domain.Principal) func(models.Patient) error {
	return func(p models.Patient) error {
		if p.OwnedBy(caller) {
			return nil
		}
		s.logger.WarnContext(ctx, "patient operation denied",
			"operation", op,
			"patient_id", id.String(),
			"principal", caller.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.New(dErrors.CodeUnauthorized, "only the registering principal may change this patient")
	}
}

func (s *Service) trail(action audit.Action, actor domain.Principal, now domain.Height) registry.Trail[models.Patient] {
	return func(p models.Patient) audit.Event {
		return audit.Event{
			Kind:    audit.KindPatient,
			Subject: p.ID.String(),
			Action:  action,
			Actor:   actor,
			Height:  now,
		}
	}
}
