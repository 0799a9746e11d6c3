package audit

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/platform/httputil"
	"medtransit/pkg/requestcontext"
)

// Lister reads the trail for one subject.
type Lister interface {
	List(ctx context.Context, subject string) ([]Event, error)
}

// Handler serves the audit trail. Mount it behind the admin gate.
type Handler struct {
	lister Lister
	logger *slog.Logger
}

func NewHandler(lister Lister, logger *slog.Logger) *Handler {
	return &Handler{lister: lister, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/{subject}", h.HandleList)
}

type listResponse struct {
	Subject string  `json:"subject"`
	Events  []Event `json:"events"`
}

// HandleList returns the subject's events, optionally narrowed by ?kind=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := chi.URLParam(r, "subject")
	if subject == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "subject is required"))
		return
	}

	events, err := h.lister.List(ctx, subject)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"error", err,
			"subject", subject,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}

	if kind := Kind(r.URL.Query().Get("kind")); kind != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{Subject: subject, Events: events})
}
