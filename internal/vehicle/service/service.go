// Package service implements the vehicle verification registry.
package service

import (
	"context"
	"log/slog"
	"slices"

	"medtransit/internal/audit"
	"medtransit/internal/registry"
	"medtransit/internal/storage"
	"medtransit/internal/vehicle/models"
	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/requestcontext"
)

const registryName = "vehicle"

type AdminChecker interface {
	IsAdmin(p domain.Principal) bool
}

type (
	Store = storage.Store[domain.VehicleID, models.Vehicle]
	Tx    = storage.Tx[domain.VehicleID, models.Vehicle]
)

// Service registers vehicles and tracks their inspections. Registration and
// inspections are admin only; equipment changes and deactivation belong to the
// owner.
type Service struct {
	ledger         *registry.Ledger[domain.VehicleID, models.Vehicle]
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

type RegisterCommand struct {
	VehicleID           domain.VehicleID
	VehicleType         string
	Equipment           []string
	CertificationExpiry domain.Height
}

func (s *Service) RegisterVehicle(ctx context.Context, cmd RegisterCommand) (*models.Vehicle, error) {
	vehicle, err := s.registerVehicle(ctx, cmd)
	s.metrics.Observe(registryName, "register", err)
	return vehicle, err
}

func (s *Service) registerVehicle(ctx context.Context, cmd RegisterCommand) (*models.Vehicle, error) {
	if cmd.VehicleID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "vehicle id is required")
	}
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	if !s.admins.IsAdmin(caller) {
		s.logDenied(ctx, "register", cmd.VehicleID, caller)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only an admin may register vehicles")
	}

	vehicle, err := s.ledger.Create(ctx, cmd.VehicleID, func() models.Vehicle {
		return models.Vehicle{
			ID:                  cmd.VehicleID,
			Meta:                registry.NewMeta(caller, now),
			VehicleType:         cmd.VehicleType,
			Equipment:           slices.Clone(cmd.Equipment),
			LastInspectionDate:  now,
			CertificationExpiry: cmd.CertificationExpiry,
		}
	}, s.trail(audit.ActionVehicleRegistered, caller, now, map[string]string{
		"vehicle_type": cmd.VehicleType,
	}))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "vehicle registered",
		"vehicle_id", cmd.VehicleID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &vehicle, nil
}

// UpdateEquipment replaces the equipment list and refreshes lastInspectionDate.
// Only the owner may call it.
func (s *Service) UpdateEquipment(ctx context.Context, id domain.VehicleID, equipment []string) (*models.Vehicle, error) {
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	vehicle, err := s.ledger.Execute(ctx, id,
		func(v models.Vehicle) error {
			if !v.OwnedBy(caller) {
				s.logDenied(ctx, "update_equipment", id, caller)
				return dErrors.New(dErrors.CodeUnauthorized, "only the owner may update equipment")
			}
			return nil
		},
		func(v models.Vehicle) models.Vehicle {
			v.Equipment = slices.Clone(equipment)
			v.LastInspectionDate = now
			v.Touch(now)
			return v
		},
		s.trail(audit.ActionVehicleEquipmentUpdated, caller, now, nil),
	)
	s.metrics.Observe(registryName, "update_equipment", err)
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// RecordInspection sets a new certification expiry. Admin only.
func (s *Service) RecordInspection(ctx context.Context, id domain.VehicleID, expiry domain.Height) (*models.Vehicle, error) {
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	vehicle, err := s.ledger.Execute(ctx, id,
		func(models.Vehicle) error {
			if !s.admins.IsAdmin(caller) {
				s.logDenied(ctx, "record_inspection", id, caller)
				return dErrors.New(dErrors.CodeUnauthorized, "only an admin may record inspections")
			}
			return nil
		},
		func(v models.Vehicle) models.Vehicle {
			v.LastInspectionDate = now
			v.CertificationExpiry = expiry
			v.Touch(now)
			return v
		},
		s.trail(audit.ActionVehicleInspected, caller, now, nil),
	)
	s.metrics.Observe(registryName, "record_inspection", err)
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// DeactivateVehicle flips active off permanently. Only the owner may call it.
func (s *Service) DeactivateVehicle(ctx context.Context, id domain.VehicleID) (*models.Vehicle, error) {
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	vehicle, err := s.ledger.Execute(ctx, id,
		func(v models.Vehicle) error {
			if !v.OwnedBy(caller) {
				s.logDenied(ctx, "deactivate", id, caller)
				return dErrors.New(dErrors.CodeUnauthorized, "only the owner may deactivate this vehicle")
			}
			return nil
		},
		func(v models.Vehicle) models.Vehicle {
			v.Deactivate(now)
			return v
		},
		s.trail(audit.ActionVehicleDeactivated, caller, now, nil),
	)
	s.metrics.Observe(registryName, "deactivate", err)
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (s *Service) GetVehicle(ctx context.Context, id domain.VehicleID) (*models.Vehicle, error) {
	vehicle, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// IsCertificationValid is false for unknown ids.
func (s *Service) IsCertificationValid(ctx context.Context, id domain.VehicleID) (bool, error) {
	now := requestcontext.Height(ctx)
	vehicle, err := s.ledger.Get(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return vehicle.IsCertificationValid(now), nil
}

// trail builds the audit event recorded with a vehicle write.
func (s *Service) trail(action audit.Action, actor domain.Principal, now domain.Height, detail map[string]string) registry.Trail[models.Vehicle] {
	return func(v models.Vehicle) audit.Event {
		return audit.Event{
			Kind:    audit.KindVehicle,
			Subject: v.ID.String(),
			Action:  action,
			Actor:   actor,
			Height:  now,
			Detail:  detail,
		}
	}
}

func (s *Service) logDenied(ctx context.Context, op string, id domain.VehicleID, caller domain.Principal) {
	s.logger.WarnContext(ctx, "vehicle operation denied",
		"operation", op,
		"vehicle_id", id.String(),
		"principal", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
