package middleware

import (
	"log/slog"
	"net/http"

	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/platform/httputil"
	"medtransit/pkg/requestcontext"
)

// AdminChecker reports membership in the configured admin set.
type AdminChecker interface {
	IsAdmin(p domain.Principal) bool
}

// RequireAdmin gates routes that are not behind a service-level check.
func RequireAdmin(admins AdminChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := requestcontext.Principal(ctx)
			if principal.IsNil() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "bearer token required"))
				return
			}
			if !admins.IsAdmin(principal) {
				logger.WarnContext(ctx, "admin route denied",
					"principal", principal.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin principal required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
