package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/parkhaus-cloud/parkhaus/internal/auth"
	"github.com/parkhaus-cloud/parkhaus/internal/identity"
	"github.com/parkhaus-cloud/parkhaus/internal/observability"
	"github.com/parkhaus-cloud/parkhaus/internal/tenants"
	"github.com/parkhaus-cloud/parkhaus/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
	UsersHandler   *identity.Handler
	TenantsHandler *tenants.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Parkhaus defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Sign-in and tenant resolution run before authentication and get a
	// tighter per-IP budget than the global limit.
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(20, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Route("/auth", params.AuthHandler.MountRoutes)
		if params.TenantsHandler != nil {
			params.TenantsHandler.MountPublicRoutes(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequirePrincipal)
		r.Route("/users", params.UsersHandler.MountRoutes)
		if params.TenantsHandler != nil {
			r.Route("/tenants", params.TenantsHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
