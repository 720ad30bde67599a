package storage

import (
	"context"

	"github.com/bcnelson/pricing-catalog/internal/domain"
)

// CatalogSlot is the logical key the pricing catalog document is stored under.
const CatalogSlot = "pricing_catalog"

// CatalogGateway persists the pricing catalog as a single document.
// Implementations must be safe for concurrent use.
type CatalogGateway interface {
	// LoadCatalog returns the stored catalog tree, or domain.ErrNotFound when
	// no document has been saved yet.
	LoadCatalog(ctx context.Context) ([]domain.Region, error)

	// SaveCatalog overwrites the stored document with the whole tree.
	SaveCatalog(ctx context.Context, regions []domain.Region) error
}

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	CatalogGateway

	// Close closes the storage connection.
	Close() error

	// API Keys
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
	CountAPIKeys(ctx context.Context) (int, error)
}
