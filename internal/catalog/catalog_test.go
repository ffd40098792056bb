// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// --- test helpers ---

func sampleEntries() []types.CatalogEntry {
	return []types.CatalogEntry{
		{
			ID: "dex-volume", Domain: "dex", Title: "DEX Trading Volume Over Time",
			Description: "Daily trading volume across decentralized exchanges",
			Endpoint:    types.Endpoint{URL: "https://api.example.com/dex/volume", Method: "GET"},
			ResponseSchema: types.Schema{
				{Name: "block_date", Type: types.SemanticTime},
				{Name: "volume_usd", Type: types.SemanticVolume},
				{Name: "trades", Type: types.SemanticCount},
			},
			Keywords:   []string{"dex", "volume", "trading"},
			ChartTypes: []string{"line", "area"},
		},
		{
			ID: "stablecoin-supply", Domain: "stablecoins", Title: "Stablecoin Supply",
			ResponseSchema: types.Schema{
				{Name: "day", Type: types.SemanticTime},
				{Name: "total_supply", Type: types.SemanticSupply},
			},
			Keywords: []string{"stablecoin", "supply"},
		},
		{
			ID: "nft-holders", Domain: "nft", Title: "NFT Holder Counts",
			ResponseSchema: types.Schema{
				{Name: "collection", Type: types.SemanticMetric},
				{Name: "holders", Type: types.SemanticCount},
			},
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// --- Store ---

func TestNewStoreLookups(t *testing.T) {
	store, skipped := NewStore(sampleEntries(), []types.EnhancedCatalogEntry{
		{ID: "dex-volume", UsageContext: types.UsageContext{Complexity: types.ComplexityBeginner}},
	})
	assert.Empty(t, skipped)
	assert.Equal(t, 3, store.Len())

	e, ok := store.Get("stablecoin-supply")
	require.True(t, ok)
	assert.Equal(t, "Stablecoin Supply", e.Title)

	_, ok = store.Get("missing")
	assert.False(t, ok)

	dex := store.ByDomain("dex")
	require.Len(t, dex, 1)
	assert.Equal(t, "dex-volume", dex[0].ID)
	assert.Empty(t, store.ByDomain("lending"))

	assert.Equal(t, []string{"dex", "nft", "stablecoins"}, store.Domains())

	enh, ok := store.Enhancement("dex-volume")
	require.True(t, ok)
	assert.Equal(t, types.ComplexityBeginner, enh.UsageContext.Complexity)
	_, ok = store.Enhancement("nft-holders")
	assert.False(t, ok)
}

func TestNewStoreSkipsInvalidEntries(t *testing.T) {
	entries := append(sampleEntries(),
		types.CatalogEntry{ID: "", Title: "No ID"},
		types.CatalogEntry{ID: "dex-volume", Title: "Duplicate"},
		types.CatalogEntry{ID: "no-title"},
		types.CatalogEntry{ID: "no-domain", Title: "No Domain"},
		types.CatalogEntry{ID: "bad-type", Domain: "x", Title: "Bad", ResponseSchema: types.Schema{{Name: "x", Type: "weird"}}},
		types.CatalogEntry{ID: "dup-col", Domain: "x", Title: "Dup", ResponseSchema: types.Schema{{Name: "x"}, {Name: "x"}}},
	)
	store, skipped := NewStore(entries, []types.EnhancedCatalogEntry{{ID: "ghost"}})

	assert.Equal(t, 3, store.Len())
	reasons := make(map[string]string)
	for _, s := range skipped {
		reasons[s.ID] = s.Reason
	}
	assert.Equal(t, "missing id", reasons[""])
	assert.Equal(t, "duplicate id", reasons["dex-volume"])
	assert.Equal(t, "missing title", reasons["no-title"])
	assert.Equal(t, "missing domain", reasons["no-domain"])
	assert.Contains(t, reasons["bad-type"], "unknown semantic type")
	assert.Contains(t, reasons["dup-col"], "repeats column")
	assert.Equal(t, "enhancement for unknown entry", reasons["ghost"])

	// The first dex-volume is kept.
	e, ok := store.Get("dex-volume")
	require.True(t, ok)
	assert.Equal(t, "DEX Trading Volume Over Time", e.Title)
}

// --- loading ---

const catalogYAML = `entries:
  - id: dex-volume
    domain: dex
    title: DEX Trading Volume Over Time
    endpoint:
      url: https://api.example.com/dex/volume
      method: GET
    response_schema:
      volume_usd: volume
      block_date: time
      trades: count
    keywords: [dex, volume]
`

func TestLoadFileYAMLPreservesSchemaOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeFile(t, path, catalogYAML)

	entries, enhanced, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, enhanced)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"volume_usd", "block_date", "trades"}, entries[0].ResponseSchema.Names())
	assert.Equal(t, types.SemanticTime, entries[0].ResponseSchema[1].Type)
	assert.Equal(t, "GET", entries[0].Endpoint.Method)
}

func TestLoadFileBareListJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	writeFile(t, path, `[
		{"id": "a", "domain": "dex", "title": "A", "response_schema": {"z_col": "metric", "a_col": "time"}},
		{"id": "b", "domain": "nft", "title": "B", "response_schema": null}
	]`)

	entries, _, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"z_col", "a_col"}, entries[0].ResponseSchema.Names())
	assert.Empty(t, entries[1].ResponseSchema)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadFile(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading")

	txt := filepath.Join(dir, "catalog.txt")
	writeFile(t, txt, "x")
	_, _, err = LoadFile(context.Background(), txt)
	assert.ErrorContains(t, err, "unsupported catalog format")

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "entries:\n  - id: x\n    response_schema: [a, b]\n")
	_, _, err = LoadFile(context.Background(), bad)
	assert.ErrorContains(t, err, "must be a mapping")

	_, _, err = LoadFile(context.Background(), filepath.Join(dir, "missing.db"))
	assert.ErrorContains(t, err, "opening catalog database")
}

func TestOpenWithEnhancedOverlay(t *testing.T) {
	dir := t.TempDir()
	catPath := filepath.Join(dir, "catalog.yaml")
	writeFile(t, catPath, catalogYAML)
	enhPath := filepath.Join(dir, "enhanced.yaml")
	writeFile(t, enhPath, `- id: dex-volume
  data_quality:
    completeness: 0.95
    accuracy: 0.9
    freshness: 0.99
    reliability: 0.9
    volatility: high
  usage_context:
    complexity: advanced
    business_insights: ["DEX share is rising"]
- id: unknown-entry
`)

	store, skipped, err := Open(context.Background(), types.CatalogConfig{Path: catPath, EnhancedPath: enhPath})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	require.Len(t, skipped, 1)
	assert.Equal(t, "unknown-entry", skipped[0].ID)

	enh, ok := store.Enhancement("dex-volume")
	require.True(t, ok)
	assert.Equal(t, 0.95, enh.DataQuality.Completeness)
	assert.Equal(t, types.ComplexityAdvanced, enh.UsageContext.Complexity)
}

func TestOpenRequiresPath(t *testing.T) {
	_, _, err := Open(context.Background(), types.CatalogConfig{})
	assert.Error(t, err)
}

// --- SQLite artifact ---

func TestSQLiteImportAndLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index", "catalog.db")
	db, err := OpenSQLite(dbPath)
	require.NoError(t, err)

	enh := []types.EnhancedCatalogEntry{{
		ID:          "dex-volume",
		DataQuality: types.DataQuality{Completeness: 0.91},
		Performance: types.Performance{AvgResponseTimeMs: 120, DataVolume: "high"},
	}}
	summary, err := db.Import(context.Background(), sampleEntries(), enh)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Inserted: 3, Enhancements: 1}, summary)

	// Re-import updates in place.
	summary, err = db.Import(context.Background(), sampleEntries()[:1], nil)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Updated: 1}, summary)
	require.NoError(t, db.Close())

	entries, enhanced, err := LoadFile(context.Background(), dbPath)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Ordered by id.
	assert.Equal(t, "dex-volume", entries[0].ID)
	assert.Equal(t, []string{"block_date", "volume_usd", "trades"}, entries[0].ResponseSchema.Names())
	assert.Equal(t, []string{"dex", "volume", "trading"}, entries[0].Keywords)
	assert.Equal(t, []string{"line", "area"}, entries[0].ChartTypes)
	assert.Equal(t, "https://api.example.com/dex/volume", entries[0].Endpoint.URL)

	require.Len(t, enhanced, 1)
	assert.Equal(t, 0.91, enhanced[0].DataQuality.Completeness)
	assert.Equal(t, "high", enhanced[0].Performance.DataVolume)
}

func TestSQLiteCorruptListColumns(t *testing.T) {
	tests := []struct {
		column string
		want   string
	}{
		{"keywords", "parsing keywords of dex-volume"},
		{"chart_types", "parsing chart types of dex-volume"},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			db, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
			require.NoError(t, err)
			defer db.Close()

			_, err = db.Import(context.Background(), sampleEntries()[:1], nil)
			require.NoError(t, err)
			_, err = db.db.Exec(`UPDATE entries SET `+tt.column+` = '["dex",' WHERE id = 'dex-volume'`)
			require.NoError(t, err)

			_, err = db.Entries(context.Background())
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

// --- export ---

func TestExportRoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			store, _ := NewStore(sampleEntries(), []types.EnhancedCatalogEntry{
				{ID: "nft-holders", Performance: types.Performance{DataVolume: "low"}},
			})
			path := filepath.Join(t.TempDir(), "out", "catalog"+ext)
			require.NoError(t, store.Export(path))

			entries, _, err := LoadFile(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, sampleEntries(), entries)

			enhanced, err := LoadEnhancedFile(EnhancedPath(path))
			require.NoError(t, err)
			require.Len(t, enhanced, 1)
			assert.Equal(t, "low", enhanced[0].Performance.DataVolume)
		})
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	store, _ := NewStore(sampleEntries(), nil)
	err := store.Export(filepath.Join(t.TempDir(), "catalog.csv"))
	assert.ErrorContains(t, err, "unsupported export format")
}
