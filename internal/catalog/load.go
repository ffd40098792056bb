// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// document is the wrapped on-disk form: {entries: [...]}. A bare list is
// accepted as well.
type document[T any] struct {
	Entries []T `json:"entries" yaml:"entries"`
}

// Open loads the catalog and optional overlay named by cfg and builds a
// Store. Skipped entries are returned rather than failing the load.
func Open(ctx context.Context, cfg types.CatalogConfig) (*Store, []types.SkippedEntry, error) {
	if cfg.Path == "" {
		return nil, nil, fmt.Errorf("catalog path is required")
	}

	entries, enhanced, err := LoadFile(ctx, cfg.Path)
	if err != nil {
		return nil, nil, err
	}

	if cfg.EnhancedPath != "" {
		extra, err := LoadEnhancedFile(cfg.EnhancedPath)
		if err != nil {
			return nil, nil, err
		}
		enhanced = append(enhanced, extra...)
	}

	store, skipped := NewStore(entries, enhanced)
	return store, skipped, nil
}

// LoadFile reads catalog entries from path, choosing the decoder by file
// extension (.yaml, .yml, .json, .db, .sqlite). SQLite artifacts may also
// carry enhancement overlays, which are returned alongside.
func LoadFile(ctx context.Context, path string) ([]types.CatalogEntry, []types.EnhancedCatalogEntry, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".db", ".sqlite", ".sqlite3":
		if _, err := os.Stat(path); err != nil {
			return nil, nil, fmt.Errorf("opening catalog database: %w", err)
		}
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		defer db.Close()
		entries, err := db.Entries(ctx)
		if err != nil {
			return nil, nil, err
		}
		enhanced, err := db.Enhancements(ctx)
		if err != nil {
			return nil, nil, err
		}
		return entries, enhanced, nil
	default:
		entries, err := decodeFile[types.CatalogEntry](path)
		return entries, nil, err
	}
}

// LoadEnhancedFile reads enhancement overlays from a YAML or JSON file.
func LoadEnhancedFile(path string) ([]types.EnhancedCatalogEntry, error) {
	return decodeFile[types.EnhancedCatalogEntry](path)
}

func decodeFile[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var out []T
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		out, err = decodeJSON[T](data)
	case ".yaml", ".yml":
		out, err = decodeYAML[T](data)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q: use .yaml, .json or .db", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}

func decodeJSON[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []T
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}
	var doc document[T]
	err := json.Unmarshal(trimmed, &doc)
	return doc.Entries, err
}

func decodeYAML[T any](data []byte) ([]T, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	node := root.Content[0]
	if node.Kind == yaml.SequenceNode {
		var list []T
		err := node.Decode(&list)
		return list, err
	}
	var doc document[T]
	err := node.Decode(&doc)
	return doc.Entries, err
}
