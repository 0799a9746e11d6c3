package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/platform/httputil"
	"medtransit/pkg/requestcontext"
)

// PrincipalResolver turns a bearer token into the caller it names.
type PrincipalResolver interface {
	PrincipalFromToken(tokenString string) (domain.Principal, error)
}

const bearerPrefix = "Bearer "

// Authenticate attaches the caller when a bearer token is present. A malformed or
// invalid token is rejected; a missing one passes through anonymously so read
// routes stay open.
func Authenticate(resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthenticated - malformed authorization header",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "bearer token required"))
				return
			}

			principal, err := resolver.PrincipalFromToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthenticated - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that reached it without a principal. Mount it
// after Authenticate.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Principal(ctx).IsNil() {
				logger.WarnContext(ctx, "unauthenticated - no bearer token",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "bearer token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
