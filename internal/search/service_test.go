// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catalog-engine/internal/catalog"
	"github.com/pdiddy/catalog-engine/internal/embedding"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// --- test helpers ---

type hashProvider struct {
	model string
	fail  bool
	calls atomic.Int32
}

func (p *hashProvider) ModelID() string { return p.model }

func (p *hashProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, &embedding.ProviderError{Provider: p.model, Err: err}
	}
	if p.fail {
		return nil, &embedding.ProviderError{Provider: p.model, Err: errors.New("503 service unavailable")}
	}
	v := make([]float32, 32)
	for _, w := range strings.Fields(text) {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%32]++
	}
	return v, nil
}

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	entries := []types.CatalogEntry{
		{ID: "dex-volume", Domain: "dex", Title: "DEX Trading Volume Over Time", Keywords: []string{"dex", "volume"},
			ResponseSchema: types.Schema{{Name: "block_date", Type: types.SemanticTime}, {Name: "volume_usd", Type: types.SemanticVolume}}},
		{ID: "dex-traders", Domain: "dex", Title: "DEX Unique Traders", Keywords: []string{"dex", "traders"},
			ResponseSchema: types.Schema{{Name: "day", Type: types.SemanticTime}, {Name: "traders", Type: types.SemanticCount}}},
		{ID: "stablecoin-supply", Domain: "stablecoins", Title: "Stablecoin Supply", Keywords: []string{"stablecoin", "supply"},
			ResponseSchema: types.Schema{{Name: "day", Type: types.SemanticTime}, {Name: "total_supply", Type: types.SemanticSupply}}},
		{ID: "lending-tvl", Domain: "lending", Title: "Lending Protocol TVL", Keywords: []string{"lending", "tvl"},
			ResponseSchema: types.Schema{{Name: "month", Type: types.SemanticTime}, {Name: "tvl_usd", Type: types.SemanticTVL}}},
	}
	enhanced := []types.EnhancedCatalogEntry{
		{
			ID:           "dex-traders",
			DataQuality:  types.DataQuality{Completeness: 0.95, Accuracy: 0.9, Freshness: 0.99, Reliability: 0.9, Volatility: "high"},
			UsageContext: types.UsageContext{Complexity: types.ComplexityBeginner, BusinessInsights: []string{"Trader counts lead volume"}},
			Visualization: types.Visualization{Recommendations: []types.ChartRecommendation{
				{ChartType: "line", Confidence: 0.9}, {ChartType: "bar", Confidence: 0.6},
			}},
			Performance: types.Performance{AvgResponseTimeMs: 150, DataVolume: "high"},
		},
		{
			ID:          "lending-tvl",
			DataQuality: types.DataQuality{Completeness: 0.5, Accuracy: 0.9, Freshness: 0.9, Reliability: 0.9},
		},
	}
	store, skipped := catalog.NewStore(entries, enhanced)
	require.Empty(t, skipped)
	return store
}

func newTestService(t *testing.T, p embedding.Provider, indexPath string) *Service {
	t.Helper()
	return NewService(Options{
		Catalog:  testStore(t),
		Provider: p,
		Index:    types.IndexConfig{Path: indexPath, BatchSize: 2, BatchDelay: -1},
	})
}

// --- initialization ---

func TestSearchBeforeInitialize(t *testing.T) {
	s := newTestService(t, nil, "")
	_, err := s.Search(context.Background(), Request{Query: "dex"})
	assert.ErrorIs(t, err, types.ErrNotInitialized)
	assert.Equal(t, "", s.Backend())
}

func TestInitializeWithoutProviderUsesKeyword(t *testing.T) {
	s := newTestService(t, nil, "")
	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, types.BackendKeyword, s.Backend())

	resp, err := s.Search(context.Background(), Request{Query: "dex trading volume"})
	require.NoError(t, err)
	assert.Equal(t, types.BackendKeyword, resp.Backend)
	require.NotEmpty(t, resp.Entries)
	assert.Equal(t, "dex-volume", resp.Entries[0].Entry.ID)
}

func TestInitializeBuildsSavesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "embeddings.json")
	p := &hashProvider{model: "test:hash"}

	s := newTestService(t, p, path)
	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, types.BackendEmbedding, s.Backend())
	assert.Equal(t, int32(4), p.calls.Load())
	_, err := os.Stat(path)
	require.NoError(t, err)

	// A second service with the same model loads the artifact instead of
	// re-embedding the catalog.
	p2 := &hashProvider{model: "test:hash"}
	s2 := newTestService(t, p2, path)
	require.NoError(t, s2.Initialize(context.Background()))
	assert.Equal(t, types.BackendEmbedding, s2.Backend())
	assert.Equal(t, int32(0), p2.calls.Load())

	// A different model rebuilds.
	p3 := &hashProvider{model: "test:other"}
	s3 := newTestService(t, p3, path)
	require.NoError(t, s3.Initialize(context.Background()))
	assert.Equal(t, int32(4), p3.calls.Load())
}

func TestInitializeRebuildsIndexNotCoveringCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	require.NoError(t, newTestService(t, &hashProvider{model: "test:hash"}, path).Initialize(context.Background()))

	nft := []types.CatalogEntry{{
		ID: "nft-sales", Domain: "nft", Title: "NFT Sales Volume", Keywords: []string{"nft", "sales"},
		ResponseSchema: types.Schema{{Name: "day", Type: types.SemanticTime}, {Name: "sales_volume", Type: types.SemanticVolume}},
	}}
	store, skipped := catalog.NewStore(nft, nil)
	require.Empty(t, skipped)

	p := &hashProvider{model: "test:hash"}
	s := NewService(Options{
		Catalog:  store,
		Provider: p,
		Index:    types.IndexConfig{Path: path, BatchDelay: -1},
	})
	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, types.BackendEmbedding, s.Backend())
	assert.Equal(t, int32(1), p.calls.Load())

	resp, err := s.Search(context.Background(), Request{Query: "nft sales volume"})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "nft-sales", resp.Entries[0].Entry.ID)

	// The rebuilt index replaced the stale artifact.
	p2 := &hashProvider{model: "test:hash"}
	s2 := NewService(Options{Catalog: store, Provider: p2, Index: types.IndexConfig{Path: path}})
	require.NoError(t, s2.Initialize(context.Background()))
	assert.Equal(t, int32(0), p2.calls.Load())
}

func TestInitializeRebuildsIndexWithChangedEntryText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	require.NoError(t, newTestService(t, &hashProvider{model: "test:hash"}, path).Initialize(context.Background()))

	entries := testStore(t).All()
	changed := make([]types.CatalogEntry, len(entries))
	copy(changed, entries)
	changed[0].Title = "DEX Trading Volume By Chain"
	store, _ := catalog.NewStore(changed, nil)

	p := &hashProvider{model: "test:hash"}
	s := NewService(Options{Catalog: store, Provider: p, Index: types.IndexConfig{Path: path, BatchDelay: -1}})
	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, int32(len(changed)), p.calls.Load())
}

func TestInitializeFallsBackOnProviderError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	s := newTestService(t, &hashProvider{model: "test:hash", fail: true}, path)

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, types.BackendKeyword, s.Backend())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "a failed build must not be persisted")

	resp, err := s.Search(context.Background(), Request{Query: "stablecoin supply"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Entries)
	assert.Equal(t, "stablecoin-supply", resp.Entries[0].Entry.ID)
}

func TestInitializeConcurrentCallsBuildOnce(t *testing.T) {
	p := &hashProvider{model: "test:hash"}
	s := newTestService(t, p, "")

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Initialize(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(4), p.calls.Load())

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, int32(4), p.calls.Load())
}

func TestInitializeCancelledIsNotMemoized(t *testing.T) {
	p := &hashProvider{model: "test:hash"}
	s := newTestService(t, p, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Initialize(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "", s.Backend())

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, types.BackendEmbedding, s.Backend())
}

// --- search ---

func initialized(t *testing.T) *Service {
	t.Helper()
	s := newTestService(t, nil, "")
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestQualityThreshold(t *testing.T) {
	s := initialized(t)

	// stablecoin-supply has no overlay, so its completeness is the 0.85 default.
	resp, err := s.Search(context.Background(), Request{Query: "stablecoin supply", QualityThreshold: Threshold(0.7)})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "stablecoin-supply", resp.Entries[0].Entry.ID)
	assert.False(t, resp.Entries[0].Enhanced)
	assert.Equal(t, 0.85, resp.Entries[0].Enhancement.DataQuality.Completeness)

	resp, err = s.Search(context.Background(), Request{Query: "stablecoin supply", QualityThreshold: Threshold(0.9)})
	require.NoError(t, err)
	assert.Empty(t, resp.Entries)
}

func TestDefaultThresholdDropsLowCompleteness(t *testing.T) {
	s := initialized(t)

	resp, err := s.Search(context.Background(), Request{Query: "lending tvl"})
	require.NoError(t, err)
	for _, e := range resp.Entries {
		assert.NotEqual(t, "lending-tvl", e.Entry.ID)
	}

	resp, err = s.Search(context.Background(), Request{Query: "lending tvl", QualityThreshold: Threshold(0)})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Entries)
	assert.Equal(t, "lending-tvl", resp.Entries[0].Entry.ID)
	assert.True(t, resp.Entries[0].Enhanced)
}

func TestComplexityFilter(t *testing.T) {
	s := initialized(t)

	resp, err := s.Search(context.Background(), Request{Query: "dex traders volume", Complexity: types.ComplexityBeginner})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "dex-traders", resp.Entries[0].Entry.ID)
	assert.Equal(t, map[string]int{"beginner": 1}, resp.Summary.ComplexityDistribution)
}

func TestSearchDomainAndTopK(t *testing.T) {
	s := initialized(t)

	resp, err := s.Search(context.Background(), Request{Query: "dex volume traders supply day", TopK: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Entries, 1)
	assert.Len(t, resp.RankedResults, 1)

	resp, err = s.Search(context.Background(), Request{Query: "dex volume traders supply day", Domain: "dex"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Entries)
	for _, e := range resp.Entries {
		assert.Equal(t, "dex", e.Entry.Domain)
	}
	for i := 0; i+1 < len(resp.RankedResults); i++ {
		assert.GreaterOrEqual(t, resp.RankedResults[i].Score, resp.RankedResults[i+1].Score)
	}
}

func TestSearchNoResults(t *testing.T) {
	s := initialized(t)

	resp, err := s.Search(context.Background(), Request{Query: "zzzzzz qqqqqq"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Entries)
	assert.Empty(t, resp.Entries)
	assert.Empty(t, resp.RankedResults)
	assert.Equal(t, types.QualityAverages{}, resp.Summary.AverageQuality)
	assert.Empty(t, resp.Summary.ComplexityDistribution)
	assert.Empty(t, resp.Summary.RecommendedChartTypes)
	assert.Zero(t, resp.Summary.AvgResponseTimeMs)
}

func TestSearchBlankQueryReturnsEmptyResponse(t *testing.T) {
	for _, q := range []string{"", "   ", "a b"} {
		s := initialized(t)
		resp, err := s.Search(context.Background(), Request{Query: q})
		require.NoError(t, err, q)
		assert.NotNil(t, resp.Entries)
		assert.Empty(t, resp.Entries)
		assert.Empty(t, resp.RankedResults)
		assert.Equal(t, types.BackendKeyword, resp.Backend)
		assert.Equal(t, types.QualityAverages{}, resp.Summary.AverageQuality)
	}
}

func TestConfiguredThresholdZeroAcceptsAll(t *testing.T) {
	s := NewService(Options{
		Catalog: testStore(t),
		Search:  types.SearchConfig{QualityThreshold: Threshold(0)},
	})
	require.NoError(t, s.Initialize(context.Background()))

	resp, err := s.Search(context.Background(), Request{Query: "lending tvl"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Entries)
	assert.Equal(t, "lending-tvl", resp.Entries[0].Entry.ID)
}

func TestSearchWithEmbeddingBackend(t *testing.T) {
	s := newTestService(t, &hashProvider{model: "test:hash"}, "")
	require.NoError(t, s.Initialize(context.Background()))

	resp, err := s.Search(context.Background(), Request{Query: "stablecoin supply stablecoins", QualityThreshold: Threshold(0)})
	require.NoError(t, err)
	assert.Equal(t, types.BackendEmbedding, resp.Backend)
	require.NotEmpty(t, resp.Entries)
	assert.Equal(t, "stablecoin-supply", resp.Entries[0].Entry.ID)
	assert.LessOrEqual(t, len(resp.Entries), DefaultTopK)
}
