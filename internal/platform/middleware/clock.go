package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/platform/httputil"
	"medtransit/pkg/requestcontext"
)

// HeaderLogicalTime carries the caller's logical clock reading (block height).
const HeaderLogicalTime = "X-Logical-Time"

// LogicalClock parses X-Logical-Time into the request context. Operations read
// the clock once from there; there is no wall-clock fallback, so routes that
// stamp or compare times mount RequireLogicalClock as well.
func LogicalClock(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderLogicalTime)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			h, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				logger.WarnContext(ctx, "invalid logical time header",
					"value", raw,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, HeaderLogicalTime+" must be an unsigned integer"))
				return
			}
			ctx = requestcontext.WithHeight(ctx, domain.Height(h))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogicalClock rejects requests without a clock reading.
func RequireLogicalClock(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requestcontext.HasHeight(r.Context()) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, HeaderLogicalTime+" header is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
