// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// ErrNotInitialized is returned when a search is issued before any backend
// has been built or loaded.
var ErrNotInitialized = errors.New("search backend not initialized")

// Backend names reported on ranked results.
const (
	BackendEmbedding = "embedding"
	BackendKeyword   = "keyword"
)

// RankedResult is one scored catalog entry. Within a result list scores are
// non-increasing by position.
type RankedResult struct {
	EntryID string `json:"entry_id" yaml:"entry_id"`

	// Score is a cosine similarity in [-1,1] for the embedding backend and a
	// positive normalized token-overlap ratio for the keyword backend.
	Score float64 `json:"score" yaml:"score"`

	Backend string        `json:"backend" yaml:"backend"`
	Entry   *CatalogEntry `json:"-" yaml:"-"`
}

// QualityAverages holds the mean of each data-quality dimension.
type QualityAverages struct {
	Completeness float64 `json:"completeness" yaml:"completeness"`
	Accuracy     float64 `json:"accuracy" yaml:"accuracy"`
	Freshness    float64 `json:"freshness" yaml:"freshness"`
	Reliability  float64 `json:"reliability" yaml:"reliability"`
}

// IntelligenceSummary aggregates metadata across a result set.
type IntelligenceSummary struct {
	AverageQuality         QualityAverages `json:"average_quality" yaml:"average_quality"`
	ComplexityDistribution map[string]int  `json:"complexity_distribution" yaml:"complexity_distribution"`
	RecommendedChartTypes  []string        `json:"recommended_chart_types" yaml:"recommended_chart_types"`
	BusinessInsights       []string        `json:"business_insights" yaml:"business_insights"`
	AvgResponseTimeMs      float64         `json:"avg_response_time_ms" yaml:"avg_response_time_ms"`
	DataVolumeDistribution map[string]int  `json:"data_volume_distribution" yaml:"data_volume_distribution"`
}

// SearchResponse is the result of one orchestrated search.
type SearchResponse struct {
	Query         string              `json:"query" yaml:"query"`
	Backend       string              `json:"backend" yaml:"backend"`
	Entries       []EnrichedEntry     `json:"entries" yaml:"entries"`
	RankedResults []RankedResult      `json:"ranked_results" yaml:"ranked_results"`
	Summary       IntelligenceSummary `json:"intelligence_summary" yaml:"intelligence_summary"`
}
