// Package file persists the pricing catalog as a single JSON or YAML file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/sirupsen/logrus"
)

// Store reads and writes the catalog document at a fixed path. The format is
// picked from the file extension.
type Store struct {
	path   string
	format storage.Format
	logger logrus.FieldLogger

	mu sync.RWMutex
}

// Ensure Store implements storage.CatalogGateway.
var _ storage.CatalogGateway = (*Store)(nil)

// New returns a file-backed gateway, creating the parent directory if needed.
func New(path string, logger logrus.FieldLogger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		path:   path,
		format: storage.FormatFromPath(path),
		logger: logger.WithField("gateway", "file"),
	}, nil
}

// Path returns the location of the catalog document.
func (s *Store) Path() string { return s.path }

func (s *Store) LoadCatalog(ctx context.Context) ([]domain.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return storage.UnmarshalCatalog(data, s.format)
}

// SaveCatalog writes to a temp file in the same directory and renames it over
// the target so readers never observe a partial document.
func (s *Store) SaveCatalog(ctx context.Context, regions []domain.Region) error {
	data, err := storage.MarshalCatalog(regions, s.format)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".catalog-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing catalog file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing catalog file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing catalog file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing catalog file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":  s.path,
		"bytes": len(data),
	}).Debug("catalog written")
	return nil
}
