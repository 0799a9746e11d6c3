// Package service implements the driver certification registry.
package service

import (
	"context"
	"log/slog"
	"slices"

	"medtransit/internal/audit"
	"medtransit/internal/driver/models"
	"medtransit/internal/registry"
	"medtransit/internal/storage"
	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/requestcontext"
)

const registryName = "driver"

// AdminChecker reports membership in the configured admin set.
type AdminChecker interface {
	IsAdmin(p domain.Principal) bool
}

type (
	Store = storage.Store[domain.DriverID, models.Driver]
	Tx    = storage.Tx[domain.DriverID, models.Driver]
)

// Service registers drivers and answers certification queries. Registration and
// certification updates are admin only; deactivation is also open to the
// driver record's own principal.
type Service struct {
	ledger         *registry.Ledger[domain.DriverID, models.Driver]
	admins         AdminChecker
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

// WithTx replaces the default in-process serialization, e.g. with the
// postgres advisory-lock transaction.
func WithTx(tx Tx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func New(store Store, admins AdminChecker, opts ...Option) *Service {
	s := &Service{admins: admins, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.ledger = registry.NewLedger(registryName, store, s.tx, s.auditPublisher)
	return s
}

// RegisterCommand carries the attributes of a new driver.
type RegisterCommand struct {
	DriverID            domain.DriverID
	Name                string
	Certifications      []string
	CertificationExpiry domain.Height
}

func (s *Service) RegisterDriver(ctx context.Context, cmd RegisterCommand) (*models.Driver, error) {
	driver, err := s.registerDriver(ctx, cmd)
	s.metrics.Observe(registryName, "register", err)
	return driver, err
}

func (s *Service) registerDriver(ctx context.Context, cmd RegisterCommand) (*models.Driver, error) {
	if cmd.DriverID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "driver id is required")
	}
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	if !s.admins.IsAdmin(caller) {
		s.logDenied(ctx, "register", cmd.DriverID, caller)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only an admin may register drivers")
	}

	driver, err := s.ledger.Create(ctx, cmd.DriverID, func() models.Driver {
		return models.Driver{
			ID:                  cmd.DriverID,
			Meta:                registry.NewMeta(caller, now),
			Name:                cmd.Name,
			Certifications:      slices.Clone(cmd.Certifications),
			TrainingCompletion:  now,
			CertificationExpiry: cmd.CertificationExpiry,
		}
	}, s.trail(audit.ActionDriverRegistered, caller, now, map[string]string{
		"name": cmd.Name,
	}))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "driver registered",
		"driver_id", cmd.DriverID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &driver, nil
}

// UpdateCertifications replaces the certification list and expiry and refreshes
// trainingCompletion. Existence is checked before authorization.
func (s *Service) UpdateCertifications(ctx context.Context, id domain.DriverID, certifications []string, expiry domain.Height) (*models.Driver, error) {
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	driver, err := s.ledger.Execute(ctx, id,
		func(models.Driver) error {
			if !s.admins.IsAdmin(caller) {
				s.logDenied(ctx, "update_certifications", id, caller)
				return dErrors.New(dErrors.CodeUnauthorized, "only an admin may update certifications")
			}
			return nil
		},
		func(d models.Driver) models.Driver {
			d.Certifications = slices.Clone(certifications)
			d.CertificationExpiry = expiry
			d.TrainingCompletion = now
			d.Touch(now)
			return d
		},
		s.trail(audit.ActionDriverCertificationUpdated, caller, now, nil),
	)
	s.metrics.Observe(registryName, "update_certifications", err)
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// DeactivateDriver flips active off permanently. Repeat calls still check
// existence and authorization and succeed.
func (s *Service) DeactivateDriver(ctx context.Context, id domain.DriverID) (*models.Driver, error) {
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	driver, err := s.ledger.Execute(ctx, id,
		func(d models.Driver) error {
			if !d.OwnedBy(caller) && !s.admins.IsAdmin(caller) {
				s.logDenied(ctx, "deactivate", id, caller)
				return dErrors.New(dErrors.CodeUnauthorized, "caller may not deactivate this driver")
			}
			return nil
		},
		func(d models.Driver) models.Driver {
			d.Deactivate(now)
			return d
		},
		s.trail(audit.ActionDriverDeactivated, caller, now, nil),
	)
	s.metrics.Observe(registryName, "deactivate", err)
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func (s *Service) GetDriver(ctx context.Context, id domain.DriverID) (*models.Driver, error) {
	driver, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// IsCertificationValid is false for unknown ids. Only infrastructure failures
// return an error.
func (s *Service) IsCertificationValid(ctx context.Context, id domain.DriverID) (bool, error) {
	now := requestcontext.Height(ctx)
	driver, err := s.ledger.Get(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return driver.IsCertificationValid(now), nil
}

// trail builds the audit event recorded with a driver write.
func (s *Service) trail(action audit.Action, actor domain.Principal, now domain.Height, detail map[string]string) registry.Trail[models.Driver] {
	return func(d models.Driver) audit.Event {
		return audit.Event{
			Kind:    audit.KindDriver,
			Subject: d.ID.String(),
			Action:  action,
			Actor:   actor,
			Height:  now,
			Detail:  detail,
		}
	}
}

func (s *Service) logDenied(ctx context.Context, op string, id domain.DriverID, caller domain.Principal) {
	s.logger.WarnContext(ctx, "driver operation denied",
		"operation", op,
		"driver_id", id.String(),
		"principal", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
