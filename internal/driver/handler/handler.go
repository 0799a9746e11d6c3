// Package handler exposes the driver registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medtransit/internal/driver/models"
	"medtransit/internal/driver/service"
	"medtransit/internal/platform/middleware"
	"medtransit/pkg/domain"
	"medtransit/pkg/platform/httputil"
	"medtransit/pkg/requestcontext"
)

// Service is the driver registry as the handler sees it.
type Service interface {
	RegisterDriver(ctx context.Context, cmd service.RegisterCommand) (*models.Driver, error)
	UpdateCertifications(ctx context.Context, id domain.DriverID, certifications []string, expiry domain.Height) (*models.Driver, error)
	DeactivateDriver(ctx context.Context, id domain.DriverID) (*models.Driver, error)
	GetDriver(ctx context.Context, id domain.DriverID) (*models.Driver, error)
	IsCertificationValid(ctx context.Context, id domain.DriverID) (bool, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the read routes on r and the mutating routes on mutating,
// which the caller wraps with authentication and clock middleware.
func (h *Handler) Register(r chi.Router, mutating chi.Router) {
	r.Get("/drivers/{driverID}", h.HandleGet)
	r.With(middleware.RequireLogicalClock).Get("/drivers/{driverID}/validity", h.HandleValidity)
	mutating.Post("/drivers", h.HandleRegister)
	mutating.Put("/drivers/{driverID}/certifications", h.HandleUpdateCertifications)
	mutating.Post("/drivers/{driverID}/deactivate", h.HandleDeactivate)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterDriverRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	driver, err := h.service.RegisterDriver(ctx, service.RegisterCommand{
		DriverID:            domain.DriverID(req.DriverID),
		Name:                req.Name,
		Certifications:      req.Certifications,
		CertificationExpiry: domain.Height(req.CertificationExpiry),
	})
	if err != nil {
		h.writeServiceError(ctx, w, "register driver", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, driver)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.driverID(w, r)
	if !ok {
		return
	}
	driver, err := h.service.GetDriver(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get driver", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, driver)
}

func (h *Handler) HandleValidity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.driverID(w, r)
	if !ok {
		return
	}
	valid, err := h.service.IsCertificationValid(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "check driver validity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ValidityResponse{
		DriverID: id.String(),
		Valid:    valid,
		At:       uint64(requestcontext.Height(ctx)),
	})
}

func (h *Handler) HandleUpdateCertifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.driverID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateCertificationsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	driver, err := h.service.UpdateCertifications(ctx, id, req.Certifications, domain.Height(req.CertificationExpiry))
	if err != nil {
		h.writeServiceError(ctx, w, "update driver certifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, driver)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.driverID(w, r)
	if !ok {
		return
	}
	driver, err := h.service.DeactivateDriver(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "deactivate driver", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, driver)
}

func (h *Handler) driverID(w http.ResponseWriter, r *http.Request) (domain.DriverID, bool) {
	id, err := domain.ParseDriverID(chi.URLParam(r, "driverID"))
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
