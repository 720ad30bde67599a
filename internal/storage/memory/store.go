package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/storage"
)

// Store is an in-memory implementation of the storage interface for testing
// and ephemeral runs. The catalog is kept as its serialized document so every
// load returns an independent copy.
type Store struct {
	mu sync.RWMutex

	apiKeys   map[string]*domain.APIKey
	documents map[string][]byte // key: slot
}

// Ensure Store implements storage.Storage.
var _ storage.Storage = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		apiKeys:   make(map[string]*domain.APIKey),
		documents: make(map[string][]byte),
	}
}

func (s *Store) Close() error { return nil }

// ============================================
// Catalog
// ============================================

func (s *Store) LoadCatalog(ctx context.Context) ([]domain.Region, error) {
	s.mu.RLock()
	data, exists := s.documents[storage.CatalogSlot]
	s.mu.RUnlock()
	if !exists {
		return nil, domain.ErrNotFound
	}
	var regions []domain.Region
	if err := json.Unmarshal(data, &regions); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return regions, nil
}

func (s *Store) SaveCatalog(ctx context.Context, regions []domain.Region) error {
	data, err := json.Marshal(regions)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[storage.CatalogSlot] = data
	return nil
}

// ============================================
// API Keys
// ============================================

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apiKeys[key.ID]; exists {
		return domain.ErrDuplicateKey
	}
	for _, existing := range s.apiKeys {
		if existing.KeyHash == key.KeyHash {
			return domain.ErrDuplicateKey
		}
	}
	stored := *key
	s.apiKeys[key.ID] = &stored
	return nil
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.apiKeys {
		if key.KeyHash == keyHash {
			found := *key
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]*domain.APIKey, 0, len(s.apiKeys))
	for _, key := range s.apiKeys {
		k := *key
		keys = append(keys, &k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apiKeys[id]; !exists {
		return domain.ErrNotFound
	}
	delete(s.apiKeys, id)
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, exists := s.apiKeys[id]
	if !exists {
		return domain.ErrNotFound
	}
	now := time.Now()
	key.LastUsedAt = &now
	return nil
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apiKeys), nil
}
