// Package redis persists the pricing catalog as a single JSON value under one
// Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/go-redis/redis/v8"
)

// Config holds connection parameters for the Redis gateway.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Store reads and writes the catalog document under a single key.
type Store struct {
	client redis.UniversalClient
	key    string
}

// Ensure Store implements storage.CatalogGateway.
var _ storage.CatalogGateway = (*Store)(nil)

// New connects to Redis and verifies the connection with a PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewWithClient(client, cfg.Key), nil
}

// NewWithClient wraps an existing client. An empty key defaults to the
// catalog slot name.
func NewWithClient(client redis.UniversalClient, key string) *Store {
	if key == "" {
		key = storage.CatalogSlot
	}
	return &Store{client: client, key: key}
}

// Key returns the Redis key holding the document.
func (s *Store) Key() string { return s.key }

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) LoadCatalog(ctx context.Context) ([]domain.Region, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting redis key %s: %w", s.key, err)
	}
	return storage.UnmarshalCatalog(data, storage.FormatJSON)
}

func (s *Store) SaveCatalog(ctx context.Context, regions []domain.Region) error {
	data, err := storage.MarshalCatalog(regions, storage.FormatJSON)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("setting redis key %s: %w", s.key, err)
	}
	return nil
}
