// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search selects a ranking backend for the catalog, overlays
// enhancement metadata on the ranked entries, filters them by quality and
// complexity, and summarizes the result set.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/catalog-engine/internal/embedding"
	"github.com/pdiddy/catalog-engine/internal/keyword"
	"github.com/pdiddy/catalog-engine/internal/vector"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Defaults for zero-valued request and config fields.
const (
	DefaultTopK             = 5
	DefaultQualityThreshold = 0.7
)

// Searcher ranks catalog entries for a query. The embedding and keyword
// indexes both implement it.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, k int, domain string) ([]types.RankedResult, error)
}

// Catalog is the read side of the catalog store the service needs.
// *catalog.Store satisfies it.
type Catalog interface {
	All() []types.CatalogEntry
	Get(id string) (*types.CatalogEntry, bool)
	Enhancement(id string) (types.EnhancedCatalogEntry, bool)
}

// Options configures a Service.
type Options struct {
	Catalog Catalog

	// Provider is the embedding provider; nil selects keyword search.
	Provider embedding.Provider

	Index  types.IndexConfig
	Search types.SearchConfig
	Logger *slog.Logger
}

// Request is one orchestrated search.
type Request struct {
	Query  string
	TopK   int
	Domain string

	// Complexity keeps only entries of this tier when set.
	Complexity types.Complexity

	// QualityThreshold is the minimum completeness. Nil selects the
	// configured default; 0 accepts every entry.
	QualityThreshold *float64
}

// Threshold returns v as a Request.QualityThreshold.
func Threshold(v float64) *float64 { return &v }

// Service owns the active search backend. Create one per catalog with
// NewService and call Initialize before searching.
type Service struct {
	opts Options
	log  *slog.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	backend Searcher
}

// NewService returns an uninitialized service.
func NewService(opts Options) *Service {
	if opts.Search.TopK <= 0 {
		opts.Search.TopK = DefaultTopK
	}
	if opts.Search.QualityThreshold == nil {
		opts.Search.QualityThreshold = Threshold(DefaultQualityThreshold)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{opts: opts, log: log}
}

// Backend returns the active backend name, or "" before Initialize.
func (s *Service) Backend() string {
	if b := s.current(); b != nil {
		return b.Name()
	}
	return ""
}

func (s *Service) current() Searcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// Initialize selects and prepares the backend once. Concurrent callers
// share a single attempt. With a provider it loads the persisted index when
// it matches the provider's model, otherwise builds and saves a new one;
// embedding failures fall back to keyword search. A cancelled context is
// returned and the next call tries again.
func (s *Service) Initialize(ctx context.Context) error {
	if s.current() != nil {
		return nil
	}
	_, err, _ := s.group.Do("initialize", func() (any, error) {
		if s.current() != nil {
			return nil, nil
		}
		b, err := s.selectBackend(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.backend = b
		s.mu.Unlock()
		s.log.Info("search backend ready", slog.String("backend", b.Name()))
		return nil, nil
	})
	return err
}

func (s *Service) selectBackend(ctx context.Context) (Searcher, error) {
	if s.opts.Catalog == nil {
		return nil, fmt.Errorf("search service has no catalog")
	}
	if s.opts.Provider == nil {
		s.log.Info("no embedding provider configured, using keyword search")
		return s.keywordBackend(), nil
	}

	vopts := vector.Options{
		Provider:   s.opts.Provider,
		MaxResults: s.opts.Index.MaxResults,
		BatchSize:  s.opts.Index.BatchSize,
		BatchDelay: s.opts.Index.BatchDelay,
		Logger:     s.log,
	}

	if path := s.opts.Index.Path; path != "" {
		if _, err := os.Stat(path); err == nil {
			ix, skipped, err := vector.Load(ctx, path, vopts, s.opts.Catalog)
			switch {
			case err == nil:
				if len(skipped) > 0 {
					s.log.Warn("index records skipped on load", slog.Int("count", len(skipped)))
				}
				uncovered := ix.Uncovered(s.opts.Catalog.All())
				if len(uncovered) == 0 {
					return ix, nil
				}
				s.log.Warn("persisted index does not cover the catalog, rebuilding",
					slog.String("path", path), slog.Int("uncovered", len(uncovered)))
			case ctx.Err() != nil:
				return nil, ctx.Err()
			default:
				s.log.Warn("persisted index unusable, rebuilding", slog.String("path", path), slog.Any("error", err))
			}
		}
	}

	ix := vector.New(vopts)
	if _, err := ix.Build(ctx, s.opts.Catalog.All()); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("embedding index build failed, falling back to keyword search", slog.Any("error", err))
		return s.keywordBackend(), nil
	}

	if path := s.opts.Index.Path; path != "" {
		if err := ix.Save(ctx, path); err != nil {
			s.log.Warn("saving embedding index", slog.String("path", path), slog.Any("error", err))
		}
	}
	return ix, nil
}

func (s *Service) keywordBackend() Searcher {
	ix := keyword.New(keyword.Options{MaxResults: s.opts.Index.MaxResults})
	ix.Build(s.opts.Catalog.All())
	return ix
}

// Search ranks the catalog for req.Query, overlays enhancements, applies
// the quality and complexity filters and summarizes what remains. No
// matches, including a blank query, is not an error.
func (s *Service) Search(ctx context.Context, req Request) (*types.SearchResponse, error) {
	b := s.current()
	if b == nil {
		return nil, types.ErrNotInitialized
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.opts.Search.TopK
	}
	threshold := *s.opts.Search.QualityThreshold
	if req.QualityThreshold != nil {
		threshold = *req.QualityThreshold
	}

	resp := &types.SearchResponse{
		Query:         req.Query,
		Backend:       b.Name(),
		Entries:       []types.EnrichedEntry{},
		RankedResults: []types.RankedResult{},
	}
	if strings.TrimSpace(req.Query) == "" {
		resp.Summary = Summarize(resp.Entries)
		return resp, nil
	}

	ranked, err := b.Search(ctx, req.Query, 2*topK, req.Domain)
	if err != nil {
		return nil, fmt.Errorf("searching %s backend: %w", b.Name(), err)
	}
	for _, r := range ranked {
		if len(resp.Entries) == topK {
			break
		}
		entry := r.Entry
		if entry == nil {
			var ok bool
			if entry, ok = s.opts.Catalog.Get(r.EntryID); !ok {
				continue
			}
		}
		enh, ok := s.opts.Catalog.Enhancement(entry.ID)
		enriched := Enrich(entry, enh, ok)

		if enriched.Enhancement.DataQuality.Completeness < threshold {
			continue
		}
		if req.Complexity != "" && enriched.Enhancement.UsageContext.Complexity != req.Complexity {
			continue
		}
		resp.Entries = append(resp.Entries, enriched)
		resp.RankedResults = append(resp.RankedResults, r)
	}

	resp.Summary = Summarize(resp.Entries)
	s.log.Debug("search complete",
		slog.String("query", req.Query),
		slog.String("backend", b.Name()),
		slog.Int("candidates", len(ranked)),
		slog.Int("returned", len(resp.Entries)))
	return resp, nil
}
