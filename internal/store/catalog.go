package store

import (
	"embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed stores.yaml
var embeddedCatalog embed.FS

// CatalogEntry is one selectable store for the store-selector control.
type CatalogEntry struct {
	Label string `yaml:"label" json:"label"`
	Code  string `yaml:"code" json:"code"`
}

type catalogFile struct {
	Stores []CatalogEntry `yaml:"stores"`
}

// LoadCatalog tries, in order: the embedded stores.yaml, the file at path,
// and finally DefaultCatalog. It never returns an empty catalog.
func LoadCatalog(path string) []CatalogEntry {
	data, err := embeddedCatalog.ReadFile("stores.yaml")
	if err == nil {
		entries, parseErr := LoadCatalogFromBytes(data)
		if parseErr == nil {
			slog.Debug("Loaded store catalog from embedded config.", "stores", len(entries))
			return entries
		}
		slog.Warn("Embedded store catalog failed to parse. Trying file fallback.", "error", parseErr)
	}

	if path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			entries, parseErr := LoadCatalogFromBytes(raw)
			if parseErr == nil {
				slog.Info("Loaded store catalog from external file", "path", path)
				return entries
			}
			slog.Warn("Failed to parse external store catalog", "path", path, "error", parseErr)
		} else {
			slog.Warn("Failed to read external store catalog, falling back to defaults", "path", path, "error", err)
		}
	}

	slog.Info("Using hardcoded default store catalog")
	return DefaultCatalog()
}

// LoadCatalogFromBytes parses a YAML store catalog.
func LoadCatalogFromBytes(data []byte) ([]CatalogEntry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse store catalog YAML: %w", err)
	}
	if len(file.Stores) == 0 {
		return nil, fmt.Errorf("store catalog has no stores")
	}
	for i, s := range file.Stores {
		if s.Code == "" {
			return nil, fmt.Errorf("store catalog entry %d (%q) has no code", i, s.Label)
		}
	}
	return file.Stores, nil
}

// DefaultCatalog returns the single store monitored when no catalog loads.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{{Label: "United States", Code: "en-us:USD:5438481700"}}
}
