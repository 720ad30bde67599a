package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcnelson/pricing-catalog/internal/api"
	"github.com/bcnelson/pricing-catalog/internal/api/middleware"
	"github.com/bcnelson/pricing-catalog/internal/app"
	"github.com/bcnelson/pricing-catalog/internal/auth"
	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/bcnelson/pricing-catalog/internal/config"
	"github.com/bcnelson/pricing-catalog/internal/logging"
	"github.com/bcnelson/pricing-catalog/internal/metrics"
	"github.com/bcnelson/pricing-catalog/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := app.OpenStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	gateway, closeGateway, err := app.OpenGateway(ctx, cfg, store, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize catalog backend: %v", err)
	}
	defer closeGateway()

	collector, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}

	// The autosave service is created before the store so the store's change
	// hook can reach it.
	var autosave *service.AutosaveService
	var onChange func()
	if cfg.Catalog.Autosave {
		onChange = func() { autosave.TriggerSave() }
	}

	catalogStore, err := catalog.New(catalog.Options{
		Guard:          auth.RoleGuard{},
		Gateway:        gateway,
		Logger:         logger.WithField("component", "catalog"),
		Recorder:       collector,
		PersistTimeout: cfg.Catalog.PersistTimeout,
		OnChange:       onChange,
	})
	if err != nil {
		logger.Fatalf("Failed to create catalog store: %v", err)
	}
	if cfg.Catalog.Autosave {
		autosave = service.NewAutosaveService(catalogStore, cfg.Catalog.AutosaveDebounce, cfg.Catalog.PersistTimeout, logger)
	}

	if err := catalogStore.Load(ctx); err != nil {
		// The tree is still usable; the failure is kept in the store's error slot.
		logger.WithError(err).Error("Initial catalog load could not persist the default catalog")
	}

	oidcComponents, err := setupOIDC(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize OIDC: %v", err)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger)
		go cleanupLimiters(ctx, limiter)
	}

	// Create router
	router := api.NewRouter(api.Deps{
		Catalog:      catalogStore,
		Store:        store,
		BootstrapKey: cfg.Auth.BootstrapAPIKey,
		OIDC:         oidcComponents,
		Metrics:      collector,
		RateLimiter:  limiter,
		Logger:       logger,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"addr":    cfg.Server.Addr(),
		"backend": cfg.Catalog.Backend,
		"oidc":    cfg.OIDC.Enabled,
	}).Info("Starting pricing catalog manager")

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if autosave != nil {
		if err := autosave.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Error("Final autosave failed")
		}
	}

	logger.Info("Server stopped")
}

func setupOIDC(ctx context.Context, cfg *config.Config) (*api.OIDCComponents, error) {
	if !cfg.OIDC.Enabled {
		return nil, nil
	}

	secret, err := cfg.OIDC.GetSessionSecretBytes()
	if err != nil {
		return nil, err
	}

	provider, err := auth.NewOIDCProvider(ctx, auth.OIDCOptions{
		IssuerURL:      cfg.OIDC.IssuerURL,
		ClientID:       cfg.OIDC.ClientID,
		ClientSecret:   cfg.OIDC.ClientSecret,
		RedirectURL:    cfg.OIDC.RedirectURL,
		Scopes:         cfg.OIDC.GetScopes(),
		AllowedDomains: cfg.OIDC.GetAllowedDomains(),
		Roles: auth.RolePolicy{
			AdminEmails:   cfg.OIDC.GetAdminEmails(),
			EditorEmails:  cfg.OIDC.GetEditorEmails(),
			EditorDomains: cfg.OIDC.GetEditorDomains(),
		},
	})
	if err != nil {
		return nil, err
	}

	sessions, err := auth.NewSessionManager(secret, cfg.OIDC.SessionDuration, cfg.OIDC.SecureCookies)
	if err != nil {
		return nil, err
	}
	states, err := auth.NewStateStore(secret, cfg.OIDC.SecureCookies)
	if err != nil {
		return nil, err
	}

	return &api.OIDCComponents{
		Provider:  provider,
		Sessions:  sessions,
		States:    states,
		LogoutURL: cfg.OIDC.LogoutURL,
	}, nil
}

func cleanupLimiters(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Cleanup(10 * time.Minute)
		}
	}
}
