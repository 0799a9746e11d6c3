// Package handler exposes the trip coordinator over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medtransit/internal/trip/models"
	"medtransit/internal/trip/service"
	"medtransit/pkg/domain"
	"medtransit/pkg/platform/httputil"
	"medtransit/pkg/requestcontext"
)

type Service interface {
	RequestTrip(ctx context.Context, cmd service.RequestCommand) (*models.Trip, error)
	AssignTrip(ctx context.Context, id domain.TripID, driver domain.DriverID, vehicle domain.VehicleID) (*models.Trip, error)
	UpdateTripStatus(ctx context.Context, id domain.TripID, status models.Status) (*models.Trip, error)
	CancelTrip(ctx context.Context, id domain.TripID) (*models.Trip, error)
	GetTripInfo(ctx context.Context, id domain.TripID) (*models.Trip, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the read routes on r and the mutating routes on mutating.
func (h *Handler) Register(r chi.Router, mutating chi.Router) {
	r.Get("/trips/{tripID}", h.HandleGet)
	mutating.Post("/trips", h.HandleRequest)
	mutating.Post("/trips/{tripID}/assign", h.HandleAssign)
	mutating.Post("/trips/{tripID}/status", h.HandleUpdateStatus)
	mutating.Post("/trips/{tripID}/cancel", h.HandleCancel)
}

func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.RequestTripRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	trip, err := h.service.RequestTrip(ctx, service.RequestCommand{
		TripID:              domain.TripID(req.TripID),
		PatientID:           domain.PatientID(req.PatientID),
		PickupLocation:      req.PickupLocation,
		Destination:         req.Destination,
		ScheduledTime:       domain.Height(req.ScheduledTime),
		SpecialRequirements: req.SpecialRequirements,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "request trip", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, trip)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.tripID(w, r)
	if !ok {
		return
	}
	trip, err := h.service.GetTripInfo(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get trip", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trip)
}

func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.tripID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.AssignTripRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	trip, err := h.service.AssignTrip(ctx, id, domain.DriverID(req.DriverID), domain.VehicleID(req.VehicleID))
	if err != nil {
		h.writeServiceError(ctx, w, "assign trip", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trip)
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.tripID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	trip, err := h.service.UpdateTripStatus(ctx, id, req.StatusValue())
	if err != nil {
		h.writeServiceError(ctx, w, "update trip status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trip)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.tripID(w, r)
	if !ok {
		return
	}
	trip, err := h.service.CancelTrip(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "cancel trip", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trip)
}

func (h *Handler) tripID(w http.ResponseWriter, r *http.Request) (domain.TripID, bool) {
	id, err := domain.ParseTripID(chi.URLParam(r, "tripID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return id, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.WarnContext(ctx, op+" failed",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
