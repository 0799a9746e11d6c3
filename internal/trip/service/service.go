// Package service implements the trip coordinator: the lifecycle of a patient
// transport from request through assignment to completion or cancellation.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"medtransit/internal/audit"
	"medtransit/internal/registry"
	"medtransit/internal/storage"
	"medtransit/internal/trip/metrics"
	"medtransit/internal/trip/models"
	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/requestcontext"
)

const kind = "trip"

type AdminChecker interface {
	IsAdmin(p domain.Principal) bool
}

// DriverValidator is the slice of the driver registry assignment validation reads.
type DriverValidator interface {
	IsCertificationValid(ctx context.Context, id domain.DriverID) (bool, error)
}

// VehicleValidator is the slice of the vehicle registry assignment validation reads.
type VehicleValidator interface {
	IsCertificationValid(ctx context.Context, id domain.VehicleID) (bool, error)
}

// AuditPublisher records each mutation's event inside its transaction and is
// told once the write has committed.
type AuditPublisher interface {
	Record(ctx context.Context, event audit.Event) (audit.Event, error)
	Committed(ctx context.Context, event audit.Event)
}

type (
	Store = storage.Store[domain.TripID, models.Trip]
	Tx    = storage.Tx[domain.TripID, models.Trip]
)

// Service coordinates trips. Requests are open to any caller; assignment, status
// changes and cancellation are admin only.
type Service struct {
	ledger         *registry.Ledger[domain.TripID, models.Trip]
	admins         AdminChecker
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	tx             Tx

	drivers     DriverValidator
	vehicles    VehicleValidator
	forwardOnly bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func WithTx(tx Tx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithAssignmentValidation makes AssignTrip require that both the driver and
// the vehicle pass their registry's certification check at the call's logical
// time. A failing check is InvalidState.
func WithAssignmentValidation(drivers DriverValidator, vehicles VehicleValidator) Option {
	return func(s *Service) {
		s.drivers = drivers
		s.vehicles = vehicles
	}
}

// WithForwardOnlyStatus makes UpdateTripStatus reject moves out of a terminal
// status and moves that do not advance the status.
func WithForwardOnlyStatus() Option {
	return func(s *Service) {
		s.forwardOnly = true
	}
}

func New(store Store, admins AdminChecker, opts ...Option) *Service {
	s := &Service{
		admins: admins,
		logger: slog.Default(),
		tracer: otel.Tracer("medtransit/trip"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ledger = registry.NewLedger(kind, store, s.tx, s.auditPublisher)
	return s
}

type RequestCommand struct {
	TripID              domain.TripID
	PatientID           domain.PatientID
	PickupLocation      string
	Destination         string
	ScheduledTime       domain.Height
	SpecialRequirements string
}

// RequestTrip creates a trip in StatusRequested. Re-issuing the same id always
// fails with DuplicateID and leaves the original untouched.
func (s *Service) RequestTrip(ctx context.Context, cmd RequestCommand) (trip *models.Trip, err error) {
	ctx, done := s.observe(ctx, "request", cmd.TripID)
	defer func() { done(err) }()

	if cmd.TripID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "trip id is required")
	}
	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)

	created, err := s.ledger.Create(ctx, cmd.TripID, func() models.Trip {
		return models.Trip{
			ID:                  cmd.TripID,
			PatientID:           cmd.PatientID,
			PickupLocation:      cmd.PickupLocation,
			Destination:         cmd.Destination,
			ScheduledTime:       cmd.ScheduledTime,
			Status:              models.StatusRequested,
			SpecialRequirements: cmd.SpecialRequirements,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
	}, s.trail(audit.ActionTripRequested, caller, now, func(models.Trip) map[string]string {
		return map[string]string{"patient_id": cmd.PatientID.String()}
	}))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "trip requested",
		"trip_id", cmd.TripID.String(),
		"patient_id", cmd.PatientID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &created, nil
}

// AssignTrip attaches a driver and vehicle to a trip that is still
// StatusRequested. Failures are reported in the order NotFound, Unauthorized,
// InvalidState; of two concurrent assignments exactly one succeeds.
func (s *Service) AssignTrip(ctx context.Context, id domain.TripID, driver domain.DriverID, vehicle domain.VehicleID) (trip *models.Trip, err error) {
	ctx, done := s.observe(ctx, "assign", id)
	defer func() { done(err) }()

	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)
	var from models.Status

	updated, err := s.ledger.Execute(ctx, id,
		func(t models.Trip) error {
			if err := s.requireAdmin(ctx, "assign", "assign", id, caller); err != nil {
				return err
			}
			if t.Status != models.StatusRequested {
				return dErrors.New(dErrors.CodeInvalidState, "trip is "+t.Status.String()+", only a requested trip can be assigned")
			}
			from = t.Status
			return s.validateAssignment(ctx, driver, vehicle)
		},
		func(t models.Trip) models.Trip {
			t.Assign(driver, vehicle, now)
			return t
		},
		s.trail(audit.ActionTripAssigned, caller, now, func(models.Trip) map[string]string {
			return map[string]string{"driver_id": driver.String(), "vehicle_id": vehicle.String()}
		}),
	)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransition(from.String(), updated.Status.String())
	s.logger.InfoContext(ctx, "trip assigned",
		"trip_id", id.String(),
		"driver_id", driver.String(),
		"vehicle_id", vehicle.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &updated, nil
}

// UpdateTripStatus sets the status to newStatus. Failures are reported in the
// order NotFound, Unauthorized, InvalidStatusValue. Without WithForwardOnlyStatus
// any in-range value is accepted from any current status.
func (s *Service) UpdateTripStatus(ctx context.Context, id domain.TripID, newStatus models.Status) (trip *models.Trip, err error) {
	ctx, done := s.observe(ctx, "update_status", id)
	defer func() { done(err) }()

	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)
	var from models.Status

	updated, err := s.ledger.Execute(ctx, id,
		func(t models.Trip) error {
			if err := s.requireAdmin(ctx, "update_status", "change the status of", id, caller); err != nil {
				return err
			}
			if _, err := models.ParseStatus(uint64(newStatus)); err != nil {
				return err
			}
			if s.forwardOnly && (t.Status.IsTerminal() || newStatus <= t.Status) {
				return dErrors.New(dErrors.CodeInvalidState, "trip cannot move from "+t.Status.String()+" to "+newStatus.String())
			}
			from = t.Status
			return nil
		},
		func(t models.Trip) models.Trip {
			t.SetStatus(newStatus, now)
			return t
		},
		s.trail(audit.ActionTripStatusUpdated, caller, now, func(models.Trip) map[string]string {
			return map[string]string{"from": from.String(), "to": newStatus.String()}
		}),
	)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransition(from.String(), newStatus.String())
	return &updated, nil
}

// CancelTrip moves any trip below StatusCompleted to StatusCancelled.
func (s *Service) CancelTrip(ctx context.Context, id domain.TripID) (trip *models.Trip, err error) {
	ctx, done := s.observe(ctx, "cancel", id)
	defer func() { done(err) }()

	caller := requestcontext.Principal(ctx)
	now := requestcontext.Height(ctx)
	var from models.Status

	updated, err := s.ledger.Execute(ctx, id,
		func(t models.Trip) error {
			if err := s.requireAdmin(ctx, "cancel", "cancel", id, caller); err != nil {
				return err
			}
			if t.Status >= models.StatusCompleted {
				return dErrors.New(dErrors.CodeInvalidState, "trip is "+t.Status.String()+" and can no longer be cancelled")
			}
			from = t.Status
			return nil
		},
		func(t models.Trip) models.Trip {
			t.SetStatus(models.StatusCancelled, now)
			return t
		},
		s.trail(audit.ActionTripCancelled, caller, now, func(models.Trip) map[string]string {
			return map[string]string{"from": from.String()}
		}),
	)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransition(from.String(), models.StatusCancelled.String())
	s.logger.InfoContext(ctx, "trip cancelled",
		"trip_id", id.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &updated, nil
}

func (s *Service) GetTripInfo(ctx context.Context, id domain.TripID) (trip *models.Trip, err error) {
	ctx, done := s.observe(ctx, "get", id)
	defer func() { done(err) }()

	found, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// validateAssignment checks the driver and vehicle concurrently. It is a no-op
// unless WithAssignmentValidation was given.
func (s *Service) validateAssignment(ctx context.Context, driver domain.DriverID, vehicle domain.VehicleID) error {
	if s.drivers == nil || s.vehicles == nil {
		return nil
	}

	var driverOK, vehicleOK bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, err := s.drivers.IsCertificationValid(gctx, driver)
		driverOK = ok
		return err
	})
	g.Go(func() error {
		ok, err := s.vehicles.IsCertificationValid(gctx, vehicle)
		vehicleOK = ok
		return err
	})
	if err := g.Wait(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate assignment")
	}

	switch {
	case !driverOK:
		return dErrors.New(dErrors.CodeInvalidState, "driver "+driver.String()+" is not certified")
	case !vehicleOK:
		return dErrors.New(dErrors.CodeInvalidState, "vehicle "+vehicle.String()+" is not certified")
	}
	return nil
}

// requireAdmin denies non-admin callers. op is the operation label used in logs
// and metrics; verb is how the denial message phrases it.
func (s *Service) requireAdmin(ctx context.Context, op, verb string, id domain.TripID, caller domain.Principal) error {
	if s.admins.IsAdmin(caller) {
		return nil
	}
	s.logger.WarnContext(ctx, "trip operation denied",
		"operation", op,
		"trip_id", id.String(),
		"principal", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.New(dErrors.CodeUnauthorized, "only an admin may "+verb+" a trip")
}

// observe opens a span for op and returns the function that closes it and
// records metrics.
func (s *Service) observe(ctx context.Context, op string, id domain.TripID) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "trip."+op, trace.WithAttributes(
		attribute.String("trip.id", id.String()),
		attribute.Int64("logical_time", int64(requestcontext.Height(ctx))),
	))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		s.metrics.ObserveOperation(op, time.Since(start), err)
	}
}

// trail builds the audit event for a trip write. detail runs inside the
// transaction, after validate has filled in what it reads.
func (s *Service) trail(action audit.Action, actor domain.Principal, now domain.Height, detail func(models.Trip) map[string]string) registry.Trail[models.Trip] {
	return func(t models.Trip) audit.Event {
		d := detail(t)
		d["status"] = t.Status.String()
		return audit.Event{
			Kind:    audit.KindTrip,
			Subject: t.ID.String(),
			Action:  action,
			Actor:   actor,
			Height:  now,
			Detail:  d,
		}
	}
}
