// Package handler exposes the patient registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medtransit/internal/patient/models"
	"medtransit/pkg/domain"
	"medtransit/pkg/platform/httputil"
	"medtransit/pkg/requestcontext"
)

type Service interface {
	RegisterPatient(ctx context.Context, id domain.PatientID, profile models.Profile) (*models.Patient, error)
	UpdatePatientInfo(ctx context.Context, id domain.PatientID, profile models.Profile) (*models.Patient, error)
	DeactivatePatient(ctx context.Context, id domain.PatientID) (*models.Patient, error)
	GetPatient(ctx context.Context, id domain.PatientID) (*models.Patient, error)
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
	r.Get("/patients/{patientID}", h.HandleGet)
	mutating.Post("/patients", h.HandleRegister)
	mutating.Put("/patients/{patientID}", h.HandleUpdate)
	mutating.Post("/patients/{patientID}/deactivate", h.HandleDeactivate)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.RegisterPatientRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	patient, err := h.service.RegisterPatient(ctx, domain.PatientID(req.PatientID), req.Profile)
	if err != nil {
		h.writeServiceError(ctx, w, "register patient", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, patient)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}
	patient, err := h.service.GetPatient(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get patient", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, patient)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdatePatientRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	patient, err := h.service.UpdatePatientInfo(ctx, id, req.Profile)
	if err != nil {
		h.writeServiceError(ctx, w, "update patient", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, patient)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}
	patient, err := h.service.DeactivatePatient(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "deactivate patient", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, patient)
}

func (h *Handler) patientID(w http.ResponseWriter, r *http.Request) (domain.PatientID, bool) {
	id, err := domain.ParsePatientID(chi.URLParam(r, "patientID"))
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
