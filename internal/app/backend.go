// Package app wires configuration into storage backends shared by the
// server and the command line tool.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bcnelson/pricing-catalog/internal/config"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/bcnelson/pricing-catalog/internal/storage/file"
	"github.com/bcnelson/pricing-catalog/internal/storage/memory"
	"github.com/bcnelson/pricing-catalog/internal/storage/redis"
	"github.com/bcnelson/pricing-catalog/internal/storage/s3"
	"github.com/bcnelson/pricing-catalog/internal/storage/sql"
	"github.com/sirupsen/logrus"
)

// OpenStorage opens the store that holds API keys, and the catalog document
// for the sql and memory backends.
func OpenStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Catalog.Backend == config.BackendMemory {
		return memory.New(), nil
	}

	if cfg.Database.Driver == "sqlite3" {
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// OpenGateway returns the catalog gateway for the configured backend. The
// returned close function releases backend resources other than store.
func OpenGateway(ctx context.Context, cfg *config.Config, store storage.Storage, logger logrus.FieldLogger) (storage.CatalogGateway, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Catalog.Backend {
	case config.BackendSQL, config.BackendMemory:
		return store, noop, nil

	case config.BackendFile:
		gw, err := file.New(cfg.Catalog.FilePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return gw, noop, nil

	case config.BackendS3:
		gw, err := s3.New(ctx, s3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Key:             cfg.S3.Key,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, noop, nil

	case config.BackendRedis:
		gw, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, gw.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
}
