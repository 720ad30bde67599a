package commands

import (
	"context"
	"fmt"

	"github.com/bcnelson/pricing-catalog/internal/app"
	"github.com/bcnelson/pricing-catalog/internal/auth"
	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/bcnelson/pricing-catalog/internal/config"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/logging"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Opener opens the catalog gateway. The returned function releases it.
type Opener func(ctx context.Context, logger logrus.FieldLogger) (storage.CatalogGateway, func() error, error)

type runtime struct {
	open     Opener
	logLevel string
	envFile  string
	logger   *logrus.Logger
}

func Execute() error {
	return NewRootCmd(nil).Execute()
}

// NewRootCmd builds the command tree. A nil opener reads the environment
// configuration and opens the configured backend.
func NewRootCmd(open Opener) *cobra.Command {
	rt := &runtime{open: open}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Inspect and maintain the pricing catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt.logger = logging.New(logging.Config{Level: rt.logLevel, Output: cmd.ErrOrStderr()})
			if rt.open == nil {
				rt.open = rt.configOpener
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "optional dotenv file read before the environment")

	root.AddCommand(showCmd(rt), validateCmd(rt), exportCmd(rt), importCmd(rt), resetCmd(rt))
	return root
}

func (rt *runtime) configOpener(ctx context.Context, logger logrus.FieldLogger) (storage.CatalogGateway, func() error, error) {
	cfg, err := config.Load(rt.envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := app.OpenStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	gateway, closeGateway, err := app.OpenGateway(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return gateway, func() error {
		closeGateway()
		return store.Close()
	}, nil
}

// withStore opens the backend, loads the catalog and runs fn with an admin
// context.
func (rt *runtime) withStore(ctx context.Context, fn func(ctx context.Context, store *catalog.Store) error) error {
	gateway, closeFn, err := rt.open(ctx, rt.logger)
	if err != nil {
		return err
	}
	defer closeFn()

	store, err := catalog.New(catalog.Options{
		Guard:   auth.StaticGuard{Role: domain.RoleAdmin},
		Gateway: gateway,
		Logger:  rt.logger,
	})
	if err != nil {
		return err
	}
	if err := store.Load(ctx); err != nil {
		return err
	}

	ctx = auth.WithIdentity(ctx, domain.Identity{Subject: "catalogctl", Role: domain.RoleAdmin, Source: domain.IdentitySourceCLI})
	return fn(ctx, store)
}

// withGateway opens the backend without loading it into a store.
func (rt *runtime) withGateway(ctx context.Context, fn func(ctx context.Context, gateway storage.CatalogGateway) error) error {
	gateway, closeFn, err := rt.open(ctx, rt.logger)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, gateway)
}
