// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"github.com/pdiddy/catalog-engine/internal/chart"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Synthesized overlay values for entries without an enhancement.
const (
	defaultCompleteness      = 0.85
	defaultAccuracy          = 0.9
	defaultFreshness         = 0.8
	defaultReliability       = 0.85
	defaultVolatility        = "medium"
	defaultComplexity        = types.ComplexityIntermediate
	defaultAvgResponseTimeMs = 250
	defaultDataVolume        = "medium"
	defaultChartConfidence   = 0.7
)

// DefaultEnhancement synthesizes the overlay used when none was supplied.
// Its single chart recommendation comes from the entry's column layout.
func DefaultEnhancement(e *types.CatalogEntry) types.EnhancedCatalogEntry {
	rec := types.ChartRecommendation{
		ChartType:  string(chart.SuggestChartType(e, "")),
		Confidence: defaultChartConfidence,
	}
	for _, c := range e.ResponseSchema {
		typ := chart.ResolveType(c)
		if typ == types.SemanticTime && rec.XAxis == "" {
			rec.XAxis = c.Name
		} else if typ.IsMetric() && rec.YAxis == "" {
			rec.YAxis = c.Name
		}
	}

	return types.EnhancedCatalogEntry{
		ID: e.ID,
		DataQuality: types.DataQuality{
			Completeness: defaultCompleteness,
			Accuracy:     defaultAccuracy,
			Freshness:    defaultFreshness,
			Reliability:  defaultReliability,
			Volatility:   defaultVolatility,
		},
		UsageContext: types.UsageContext{Complexity: defaultComplexity},
		Visualization: types.Visualization{
			Recommendations: []types.ChartRecommendation{rec},
		},
		Performance: types.Performance{
			AvgResponseTimeMs: defaultAvgResponseTimeMs,
			DataVolume:        defaultDataVolume,
		},
	}
}

// Enrich pairs e with its overlay. Without one (ok false) the defaults are
// used and Enhanced is false. A supplied overlay keeps its values; blocks
// it leaves empty are filled from the defaults.
func Enrich(e *types.CatalogEntry, enh types.EnhancedCatalogEntry, ok bool) types.EnrichedEntry {
	def := DefaultEnhancement(e)
	if !ok {
		return types.EnrichedEntry{Entry: *e, Enhancement: def}
	}

	enh.ID = e.ID
	if enh.DataQuality == (types.DataQuality{}) {
		enh.DataQuality = def.DataQuality
	} else if enh.DataQuality.Volatility == "" {
		enh.DataQuality.Volatility = def.DataQuality.Volatility
	}
	if enh.UsageContext.Complexity == "" {
		enh.UsageContext.Complexity = def.UsageContext.Complexity
	}
	if len(enh.Visualization.Recommendations) == 0 {
		enh.Visualization = def.Visualization
	}
	if enh.Performance.AvgResponseTimeMs == 0 {
		enh.Performance.AvgResponseTimeMs = def.Performance.AvgResponseTimeMs
	}
	if enh.Performance.DataVolume == "" {
		enh.Performance.DataVolume = def.Performance.DataVolume
	}
	return types.EnrichedEntry{Entry: *e, Enhancement: enh, Enhanced: true}
}
