// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

const lockRetryDelay = 100 * time.Millisecond

// ErrModelMismatch is returned by Load when the artifact was built with a
// different embedding model than the configured provider.
var ErrModelMismatch = errors.New("index built with a different embedding model")

// Artifact is the persisted index document.
type Artifact struct {
	Entries        []Record  `json:"entries"`
	EmbeddingModel string    `json:"embeddingModel"`
	MaxResults     int       `json:"maxResults"`
	CreatedAt      time.Time `json:"createdAt"`
	TotalEntries   int       `json:"totalEntries"`
}

// Info summarizes an index artifact without its vectors.
type Info struct {
	Path           string
	EmbeddingModel string
	MaxResults     int
	CreatedAt      time.Time
	TotalEntries   int
	Dimension      int
}

// Save writes the index to path. The document is written to a temporary
// file in the same directory and renamed into place while an exclusive
// lock on path+".lock" is held.
func (ix *Index) Save(ctx context.Context, path string) error {
	ix.mu.RLock()
	if !ix.ready {
		ix.mu.RUnlock()
		return types.ErrNotInitialized
	}
	doc := Artifact{
		Entries:        ix.records,
		EmbeddingModel: ix.model,
		MaxResults:     ix.opts.MaxResults,
		CreatedAt:      ix.createdAt,
		TotalEntries:   len(ix.records),
	}
	data, err := json.Marshal(doc)
	ix.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	unlock, err := lock(ctx, path, false)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing index: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing index: %w", err)
	}

	ix.log.Info("embedding index saved", "path", path, "entries", doc.TotalEntries)
	return nil
}

// Load restores an index saved at path without calling the provider. The
// artifact's model must match opts.Provider. Records whose id is not in
// lookup, or whose dimension differs from the first record, are skipped
// and reported.
func Load(ctx context.Context, path string, opts Options, lookup Lookup) (*Index, []types.SkippedEntry, error) {
	doc, err := readArtifact(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if opts.Provider != nil && doc.EmbeddingModel != opts.Provider.ModelID() {
		return nil, nil, fmt.Errorf("%s has %s, provider is %s: %w",
			path, doc.EmbeddingModel, opts.Provider.ModelID(), ErrModelMismatch)
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = doc.MaxResults
	}

	ix := New(opts)

	var (
		skipped []types.SkippedEntry
		records = make([]Record, 0, len(doc.Entries))
		byID    = make(map[string]*types.CatalogEntry, len(doc.Entries))
		dim     int
	)
	for _, r := range doc.Entries {
		entry, ok := lookup.Get(r.ID)
		switch {
		case !ok:
			skipped = append(skipped, types.SkippedEntry{ID: r.ID, Reason: "not in catalog"})
			continue
		case len(r.Vector) == 0:
			skipped = append(skipped, types.SkippedEntry{ID: r.ID, Reason: "empty vector"})
			continue
		case byID[r.ID] != nil:
			skipped = append(skipped, types.SkippedEntry{ID: r.ID, Reason: "duplicate id"})
			continue
		}
		if dim == 0 {
			dim = len(r.Vector)
		} else if len(r.Vector) != dim {
			skipped = append(skipped, types.SkippedEntry{ID: r.ID, Reason: fmt.Sprintf("dimension %d, want %d", len(r.Vector), dim)})
			continue
		}
		records = append(records, r)
		byID[r.ID] = entry
	}
	for _, s := range skipped {
		ix.log.Warn("skipping index record", "id", s.ID, "reason", s.Reason)
	}

	ix.swap(records, byID, dim, doc.EmbeddingModel, doc.CreatedAt)
	ix.log.Info("embedding index loaded", "path", path, "entries", len(records), "dim", dim)
	return ix, skipped, nil
}

// ReadInfo returns the header of the artifact at path.
func ReadInfo(ctx context.Context, path string) (Info, error) {
	doc, err := readArtifact(ctx, path)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Path:           path,
		EmbeddingModel: doc.EmbeddingModel,
		MaxResults:     doc.MaxResults,
		CreatedAt:      doc.CreatedAt,
		TotalEntries:   doc.TotalEntries,
	}
	if len(doc.Entries) > 0 {
		info.Dimension = len(doc.Entries[0].Vector)
	}
	return info, nil
}

func readArtifact(ctx context.Context, path string) (*Artifact, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	unlock, err := lock(ctx, path, true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	var doc Artifact
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing index %s: %w", path, err)
	}
	return &doc, nil
}

// lock takes the artifact's sidecar lock, shared for readers and exclusive
// for writers, waiting until ctx is done.
func lock(ctx context.Context, path string, shared bool) (func(), error) {
	l := flock.New(path + ".lock")
	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = l.TryRLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = l.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return func() {}, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return func() {}, fmt.Errorf("index %s is locked", path)
	}
	return func() { _ = l.Unlock() }, nil
}
