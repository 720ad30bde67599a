package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bcnelson/pricing-catalog/internal/domain"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format for the catalog document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog format %q", s)
	}
}

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// MarshalCatalog encodes a catalog tree in the given format.
func MarshalCatalog(regions []domain.Region, format Format) ([]byte, error) {
	if regions == nil {
		regions = []domain.Region{}
	}
	switch format {
	case FormatYAML:
		return yaml.Marshal(regions)
	default:
		return json.MarshalIndent(regions, "", "  ")
	}
}

// UnmarshalCatalog decodes a catalog tree in the given format.
func UnmarshalCatalog(data []byte, format Format) ([]domain.Region, error) {
	var regions []domain.Region
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &regions)
	default:
		err = json.Unmarshal(data, &regions)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return regions, nil
}
