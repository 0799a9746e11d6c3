// Package httptransport assembles the public HTTP surface: the shared middleware
// chain, the module routes and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"medtransit/internal/platform/metrics"
	"medtransit/internal/platform/middleware"
	"medtransit/pkg/platform/httputil"
)

// Module is a handler that mounts read routes on r and state-changing routes on
// mutating. The mutating router already requires a principal and a clock reading.
type Module interface {
	Register(r chi.Router, mutating chi.Router)
}

// AdminModule is mounted entirely behind the admin gate.
type AdminModule interface {
	Register(r chi.Router)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger   *slog.Logger
	Resolver middleware.PrincipalResolver
	Admins   middleware.AdminChecker
	Registry *prometheus.Registry
	HTTP     *metrics.HTTP
	Health   map[string]HealthCheck
}

// NewRouter wires the middleware chain and mounts every module.
func NewRouter(deps Deps, modules []Module, adminModules ...AdminModule) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.HTTP != nil {
		r.Use(deps.HTTP.Middleware)
	}

	r.Get("/health", healthHandler(deps.Health))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))
	}

	r.Group(func(api chi.Router) {
		api.Use(middleware.Authenticate(deps.Resolver, deps.Logger))
		api.Use(middleware.LogicalClock(deps.Logger))

		mutating := api.With(middleware.RequireAuth(deps.Logger), middleware.RequireLogicalClock)
		for _, m := range modules {
			m.Register(api, mutating)
		}

		admin := api.With(middleware.RequireAdmin(deps.Admins, deps.Logger))
		for _, m := range adminModules {
			m.Register(admin)
		}
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](r.Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
