// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vector implements the embedding index: one dense vector per
// catalog entry, ranked against a query by exact cosine similarity.
package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/catalog-engine/internal/embedding"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Defaults applied by New for zero-valued Options fields.
const (
	DefaultMaxResults = 20
	DefaultBatchSize  = 10
	DefaultBatchDelay = time.Second
)

// ErrDimensionMismatch is returned when vectors in one index, or a query
// and the index, differ in length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Options configures an Index.
type Options struct {
	Provider   embedding.Provider
	MaxResults int
	BatchSize  int
	// BatchDelay is the pause between embedding batches. Negative disables it.
	BatchDelay time.Duration
	Logger     *slog.Logger
}

// Record is one embedded catalog entry.
type Record struct {
	ID         string    `json:"id"`
	Vector     []float32 `json:"vector"`
	SourceText string    `json:"sourceText"`
}

// BuildReport describes a completed build.
type BuildReport struct {
	Embedded  int
	Dimension int
	Model     string
	Skipped   []types.SkippedEntry
}

// Lookup resolves catalog entries by id. *catalog.Store satisfies it.
type Lookup interface {
	Get(id string) (*types.CatalogEntry, bool)
}

// Index is an exact-scan embedding index. It is empty until Build or Load
// succeeds and read-only afterwards; concurrent searches are safe.
type Index struct {
	opts Options
	log  *slog.Logger

	mu        sync.RWMutex
	ready     bool
	records   []Record
	entries   map[string]*types.CatalogEntry
	dim       int
	model     string
	createdAt time.Time
}

// New returns an empty index bound to opts.Provider.
func New(opts Options) *Index {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay == 0 {
		opts.BatchDelay = DefaultBatchDelay
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Index{opts: opts, log: log}
}

// Name identifies the backend in search responses.
func (ix *Index) Name() string { return types.BackendEmbedding }

// Len returns the number of embedded entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Dimension returns the vector length shared by all records.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

// MaxResults returns the configured result cap.
func (ix *Index) MaxResults() int { return ix.opts.MaxResults }

// Uncovered returns the ids of entries that Build would embed but the
// index holds no current record for: the id is absent, or the record was
// embedded from different text. Ids keep their input order.
func (ix *Index) Uncovered(entries []types.CatalogEntry) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	source := make(map[string]string, len(ix.records))
	for _, r := range ix.records {
		source[r.ID] = r.SourceText
	}
	var ids []string
	for _, e := range entries {
		text := CanonicalText(e)
		if e.ID == "" || text == "" {
			continue
		}
		if got, ok := source[e.ID]; !ok || got != text {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

type pending struct {
	entry *types.CatalogEntry
	text  string
}

// Build embeds every usable entry and replaces the index contents. Entries
// without an id or canonical text are skipped and reported. Requests run
// concurrently within a batch and batches are separated by BatchDelay.
// Any provider failure aborts the build and leaves the index unchanged.
func (ix *Index) Build(ctx context.Context, entries []types.CatalogEntry) (BuildReport, error) {
	report := BuildReport{}
	if ix.opts.Provider == nil {
		return report, embedding.ErrNoProvider
	}
	report.Model = ix.opts.Provider.ModelID()

	var (
		work []pending
		seen = make(map[string]bool, len(entries))
	)
	for i := range entries {
		e := &entries[i]
		text := CanonicalText(*e)
		switch {
		case e.ID == "":
			report.Skipped = append(report.Skipped, types.SkippedEntry{Reason: "missing id"})
		case seen[e.ID]:
			report.Skipped = append(report.Skipped, types.SkippedEntry{ID: e.ID, Reason: "duplicate id"})
		case text == "":
			report.Skipped = append(report.Skipped, types.SkippedEntry{ID: e.ID, Reason: "empty canonical text"})
		default:
			seen[e.ID] = true
			work = append(work, pending{entry: e, text: text})
			continue
		}
		ix.log.Warn("skipping catalog entry", "id", e.ID, "reason", report.Skipped[len(report.Skipped)-1].Reason)
	}

	vectors := make([][]float32, len(work))
	batches := 0
	for start := 0; start < len(work); start += ix.opts.BatchSize {
		if start > 0 && ix.opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(ix.opts.BatchDelay):
			}
		}
		end := min(start+ix.opts.BatchSize, len(work))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				v, err := ix.opts.Provider.Embed(gctx, work[i].text)
				if err != nil {
					if !embedding.IsProviderError(err) {
						err = &embedding.ProviderError{Provider: report.Model, Err: err}
					}
					return fmt.Errorf("embedding %s: %w", work[i].entry.ID, err)
				}
				if len(v) == 0 {
					return &embedding.ProviderError{Provider: report.Model, Err: fmt.Errorf("empty vector for %s", work[i].entry.ID)}
				}
				vectors[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return report, fmt.Errorf("building index batch %d: %w", batches, err)
		}
		batches++
		ix.log.Debug("embedded batch", "batch", batches, "entries", end-start)
	}

	dim := 0
	records := make([]Record, len(work))
	byID := make(map[string]*types.CatalogEntry, len(work))
	for i, p := range work {
		if dim == 0 {
			dim = len(vectors[i])
		} else if len(vectors[i]) != dim {
			return report, fmt.Errorf("entry %s has %d dimensions, want %d: %w", p.entry.ID, len(vectors[i]), dim, ErrDimensionMismatch)
		}
		records[i] = Record{ID: p.entry.ID, Vector: vectors[i], SourceText: p.text}
		byID[p.entry.ID] = p.entry
	}

	ix.swap(records, byID, dim, report.Model, time.Now().UTC())

	report.Embedded = len(records)
	report.Dimension = dim
	ix.log.Info("embedding index built", "entries", report.Embedded, "skipped", len(report.Skipped), "dim", dim, "model", report.Model)
	return report, nil
}

func (ix *Index) swap(records []Record, byID map[string]*types.CatalogEntry, dim int, model string, createdAt time.Time) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records = records
	ix.entries = byID
	ix.dim = dim
	ix.model = model
	ix.createdAt = createdAt
	ix.ready = true
}

// Search embeds query and returns up to min(k, MaxResults) entries by
// descending cosine similarity, ties broken by id. When domain is set only
// entries in that domain are ranked.
func (ix *Index) Search(ctx context.Context, query string, k int, domain string) ([]types.RankedResult, error) {
	ix.mu.RLock()
	ready := ix.ready
	ix.mu.RUnlock()
	if !ready {
		return nil, types.ErrNotInitialized
	}
	if ix.opts.Provider == nil {
		return nil, embedding.ErrNoProvider
	}

	q, err := ix.opts.Provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.dim > 0 && len(q) != ix.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(q), ix.dim, ErrDimensionMismatch)
	}

	results := make([]types.RankedResult, 0, len(ix.records))
	for _, r := range ix.records {
		entry := ix.entries[r.ID]
		if domain != "" && entry.Domain != domain {
			continue
		}
		score, err := Cosine(q, r.Vector)
		if err != nil {
			return nil, fmt.Errorf("scoring %s: %w", r.ID, err)
		}
		results = append(results, types.RankedResult{
			EntryID: r.ID,
			Score:   score,
			Backend: types.BackendEmbedding,
			Entry:   entry,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].EntryID < results[j].EntryID
	})

	if limit := min(k, ix.opts.MaxResults); len(results) > limit {
		results = results[:max(limit, 0)]
	}
	return results, nil
}
