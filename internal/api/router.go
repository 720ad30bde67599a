package api

import (
	"net/http"

	"github.com/bcnelson/pricing-catalog/internal/api/handler"
	"github.com/bcnelson/pricing-catalog/internal/api/middleware"
	"github.com/bcnelson/pricing-catalog/internal/auth"
	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/metrics"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// OIDCComponents groups what the login routes need. A nil *OIDCComponents
// disables them.
type OIDCComponents struct {
	Provider  handler.OIDCAuthenticator
	Sessions  *auth.SessionManager
	States    *auth.StateStore
	LogoutURL string
}

// Deps holds everything the router wires together.
type Deps struct {
	Catalog      *catalog.Store
	Store        storage.Storage
	BootstrapKey string
	OIDC         *OIDCComponents
	Metrics      *metrics.Collector
	RateLimiter  *middleware.RateLimiter // nil disables rate limiting
	Logger       logrus.FieldLogger
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger, deps.Metrics))

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if deps.Catalog.State() != catalog.StateReady {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	var sessions *auth.SessionManager
	if deps.OIDC != nil {
		sessions = deps.OIDC.Sessions
		authHandler := handler.NewAuthHandler(deps.OIDC.Provider, deps.OIDC.Sessions, deps.OIDC.States, deps.OIDC.LogoutURL, logger)
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", authHandler.Login)
			r.Get("/callback", authHandler.Callback)
			r.Get("/logout", authHandler.Logout)
		})
	}

	// API routes (auth required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthOptions{
			Store:        deps.Store,
			BootstrapKey: deps.BootstrapKey,
			Sessions:     sessions,
			Logger:       logger,
		}))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Handler)
		}

		r.Get("/me", handler.Me)

		// API Keys
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			keyHandler := handler.NewAPIKeyHandler(deps.Store)
			r.Post("/keys", keyHandler.Create)
			r.Get("/keys", keyHandler.List)
			r.Delete("/keys/{id}", keyHandler.Delete)
		})

		// Whole catalog
		catalogHandler := handler.NewCatalogHandler(deps.Catalog)
		r.Get("/catalog", catalogHandler.Get)
		r.Put("/catalog", catalogHandler.Replace)
		r.Get("/catalog/status", catalogHandler.Status)
		r.With(middleware.RequireRole(domain.RoleAdmin, domain.RoleEditor)).
			Delete("/catalog/error", catalogHandler.ClearError)
		r.Post("/catalog/save", catalogHandler.Save)
		r.Post("/catalog/reset", catalogHandler.Reset)
		r.Post("/catalog/reload", catalogHandler.Reload)

		regionHandler := handler.NewRegionHandler(deps.Catalog)
		countryHandler := handler.NewCountryHandler(deps.Catalog)
		serviceHandler := handler.NewServiceHandler(deps.Catalog)

		r.Get("/regions", regionHandler.List)
		r.Post("/regions", regionHandler.Create)

		r.Route("/regions/{region_id}", func(r chi.Router) {
			r.Get("/", regionHandler.Get)
			r.Put("/", regionHandler.Update)
			r.Delete("/", regionHandler.Delete)

			r.Get("/countries", countryHandler.List)
			r.Post("/countries", countryHandler.Create)

			r.Route("/countries/{code}", func(r chi.Router) {
				r.Get("/", countryHandler.Get)
				r.Put("/", countryHandler.Update)
				r.Delete("/", countryHandler.Delete)

				r.Get("/services", serviceHandler.List)
				r.Post("/services", serviceHandler.Create)
				r.Get("/services/{service_id}", serviceHandler.Get)
				r.Put("/services/{service_id}", serviceHandler.Update)
				r.Delete("/services/{service_id}", serviceHandler.Delete)
			})
		})
	})

	return r
}
