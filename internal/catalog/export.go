// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// ExportDocument is the on-disk catalog written by Export. It round-trips
// through LoadFile and LoadEnhancedFile.
type ExportDocument struct {
	Entries []types.CatalogEntry `json:"entries" yaml:"entries"`
}

// Export writes the store's entries to path as YAML or JSON, chosen by
// extension. When the store has overlays they are written next to it as
// <name>.enhanced<ext>.
func (s *Store) Export(path string) error {
	if err := writeDocument(path, ExportDocument{Entries: s.entries}); err != nil {
		return err
	}

	enh := s.Enhancements()
	if len(enh) == 0 {
		return nil
	}
	return writeDocument(EnhancedPath(path), document[types.EnhancedCatalogEntry]{Entries: enh})
}

// EnhancedPath returns the overlay path Export uses for a catalog path.
func EnhancedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".enhanced" + ext
}

func writeDocument(path string, v any) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	case ".json":
		data, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format %q: use .yaml or .json", ext)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
