// Package handler exposes the vehicle registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medtransit/internal/platform/middleware"
	"medtransit/internal/vehicle/models"
	"medtransit/internal/vehicle/service"
	"medtransit/pkg/domain"
	"medtransit/pkg/platform/httputil"
	"medtransit/pkg/requestcontext"
)

type Service interface {
	RegisterVehicle(ctx context.Context, cmd service.RegisterCommand) (*models.Vehicle, error)
	UpdateEquipment(ctx context.Context, id domain.VehicleID, equipment []string) (*models.Vehicle, error)
	RecordInspection(ctx context.Context, id domain.VehicleID, expiry domain.Height) (*models.Vehicle, error)
	DeactivateVehicle(ctx context.Context, id domain.VehicleID) (*models.Vehicle, error)
	GetVehicle(ctx context.Context, id domain.VehicleID) (*models.Vehicle, error)
	IsCertificationValid(ctx context.Context, id domain.VehicleID) (bool, error)
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
	r.Get("/vehicles/{vehicleID}", h.HandleGet)
	r.With(middleware.RequireLogicalClock).Get("/vehicles/{vehicleID}/validity", h.HandleValidity)
	mutating.Post("/vehicles", h.HandleRegister)
	mutating.Put("/vehicles/{vehicleID}/equipment", h.HandleUpdateEquipment)
	mutating.Post("/vehicles/{vehicleID}/inspections", h.HandleRecordInspection)
	mutating.Post("/vehicles/{vehicleID}/deactivate", h.HandleDeactivate)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.RegisterVehicleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	vehicle, err := h.service.RegisterVehicle(ctx, service.RegisterCommand{
		VehicleID:           domain.VehicleID(req.VehicleID),
		VehicleType:         req.VehicleType,
		Equipment:           req.Equipment,
		CertificationExpiry: domain.Height(req.CertificationExpiry),
	})
	if err != nil {
		h.writeServiceError(ctx, w, "register vehicle", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, vehicle)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.vehicleID(w, r)
	if !ok {
		return
	}
	vehicle, err := h.service.GetVehicle(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get vehicle", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handler) HandleValidity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.vehicleID(w, r)
	if !ok {
		return
	}
	valid, err := h.service.IsCertificationValid(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "check vehicle validity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ValidityResponse{
		VehicleID: id.String(),
		Valid:     valid,
		At:        uint64(requestcontext.Height(ctx)),
	})
}

func (h *Handler) HandleUpdateEquipment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.vehicleID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateEquipmentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	vehicle, err := h.service.UpdateEquipment(ctx, id, req.Equipment)
	if err != nil {
		h.writeServiceError(ctx, w, "update vehicle equipment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handler) HandleRecordInspection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.vehicleID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RecordInspectionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	vehicle, err := h.service.RecordInspection(ctx, id, domain.Height(req.CertificationExpiry))
	if err != nil {
		h.writeServiceError(ctx, w, "record vehicle inspection", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.vehicleID(w, r)
	if !ok {
		return
	}
	vehicle, err := h.service.DeactivateVehicle(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "deactivate vehicle", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handler) vehicleID(w http.ResponseWriter, r *http.Request) (domain.VehicleID, bool) {
	id, err := domain.ParseVehicleID(chi.URLParam(r, "vehicleID"))
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
