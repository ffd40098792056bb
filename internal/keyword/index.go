// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keyword implements the token-overlap fallback ranking used when
// no embedding index is available.
package keyword

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// DefaultMaxResults caps result lists when Options.MaxResults is zero.
const DefaultMaxResults = 20

// Score weights.
const (
	exactWeight   = 1.0
	partialWeight = 0.5
	domainBonus   = 0.5
	keywordWeight = 0.3
)

// Options configures an Index.
type Options struct {
	MaxResults int
}

type document struct {
	entry    *types.CatalogEntry
	blob     string
	tokens   []string
	domain   string
	keywords []string
}

// Index scores entries by query-token overlap. It makes no external calls.
type Index struct {
	maxResults int

	mu    sync.RWMutex
	ready bool
	docs  []document
}

// New returns an empty index.
func New(opts Options) *Index {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	return &Index{maxResults: opts.MaxResults}
}

// Name identifies the backend in search responses.
func (ix *Index) Name() string { return types.BackendKeyword }

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Build stores entries and precomputes their text blobs. It always succeeds.
func (ix *Index) Build(entries []types.CatalogEntry) {
	docs := make([]document, len(entries))
	for i := range entries {
		e := &entries[i]
		blob := Blob(*e)
		kws := make([]string, len(e.Keywords))
		for j, k := range e.Keywords {
			kws[j] = strings.ToLower(k)
		}
		docs[i] = document{
			entry:    e,
			blob:     blob,
			tokens:   splitWords(blob),
			domain:   strings.ToLower(e.Domain),
			keywords: kws,
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs = docs
	ix.ready = true
}

// Search returns up to min(k, MaxResults) entries with a positive score,
// by descending score and then id. When domain is set only entries in that
// domain are scored.
func (ix *Index) Search(ctx context.Context, query string, k int, domain string) ([]types.RankedResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.ready {
		return nil, types.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []types.RankedResult{}, nil
	}

	results := make([]types.RankedResult, 0)
	for _, d := range ix.docs {
		if domain != "" && d.entry.Domain != domain {
			continue
		}
		score := d.score(tokens)
		if score <= 0 {
			continue
		}
		results = append(results, types.RankedResult{
			EntryID: d.entry.ID,
			Score:   score,
			Backend: types.BackendKeyword,
			Entry:   d.entry,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].EntryID < results[j].EntryID
	})

	if limit := min(k, ix.maxResults); len(results) > limit {
		results = results[:max(limit, 0)]
	}
	return results, nil
}

// score applies the overlap rule to one document. Partial matches are not
// weighted by token length, so short tokens can match many blob words.
func (d document) score(tokens []string) float64 {
	var total float64
	for _, tok := range tokens {
		if strings.Contains(d.blob, tok) {
			total += exactWeight
		} else {
			for _, w := range d.tokens {
				if partial(tok, w) {
					total += partialWeight
				}
			}
		}
		if strings.Contains(d.domain, tok) {
			total += domainBonus
		}
		for _, kw := range d.keywords {
			if partial(tok, kw) {
				total += keywordWeight
			}
		}
	}
	return total / float64(len(tokens))
}

func partial(a, b string) bool {
	return b != "" && (strings.Contains(a, b) || strings.Contains(b, a))
}

// Tokenize lower-cases s and returns its words longer than two characters.
func Tokenize(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if len([]rune(w)) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// Blob is the lower-cased text an entry is matched against: title,
// description, domain, keywords, column names and chart-type tags.
func Blob(e types.CatalogEntry) string {
	parts := []string{e.Title, e.Description, e.Domain}
	parts = append(parts, e.Keywords...)
	parts = append(parts, e.ResponseSchema.Names()...)
	parts = append(parts, e.ChartTypes...)
	return strings.ToLower(strings.Join(parts, " "))
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
