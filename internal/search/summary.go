// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import "github.com/pdiddy/catalog-engine/pkg/types"

const maxInsights = 5

// Summarize aggregates quality, complexity, chart recommendations, insights
// and performance across entries. An empty input yields zero averages and
// empty, non-nil collections.
func Summarize(entries []types.EnrichedEntry) types.IntelligenceSummary {
	sum := types.IntelligenceSummary{
		ComplexityDistribution: map[string]int{},
		RecommendedChartTypes:  []string{},
		BusinessInsights:       []string{},
		DataVolumeDistribution: map[string]int{},
	}
	if len(entries) == 0 {
		return sum
	}

	seenCharts := make(map[string]bool)
	seenInsights := make(map[string]bool)
	var q types.QualityAverages
	var responseTime float64

	for _, e := range entries {
		enh := e.Enhancement
		q.Completeness += enh.DataQuality.Completeness
		q.Accuracy += enh.DataQuality.Accuracy
		q.Freshness += enh.DataQuality.Freshness
		q.Reliability += enh.DataQuality.Reliability

		sum.ComplexityDistribution[string(enh.UsageContext.Complexity)]++

		for _, rec := range enh.Visualization.Recommendations {
			if rec.ChartType != "" && !seenCharts[rec.ChartType] {
				seenCharts[rec.ChartType] = true
				sum.RecommendedChartTypes = append(sum.RecommendedChartTypes, rec.ChartType)
			}
		}

		for _, insight := range enh.UsageContext.BusinessInsights {
			if len(sum.BusinessInsights) == maxInsights {
				break
			}
			if insight != "" && !seenInsights[insight] {
				seenInsights[insight] = true
				sum.BusinessInsights = append(sum.BusinessInsights, insight)
			}
		}

		responseTime += enh.Performance.AvgResponseTimeMs
		sum.DataVolumeDistribution[enh.Performance.DataVolume]++
	}

	n := float64(len(entries))
	sum.AverageQuality = types.QualityAverages{
		Completeness: q.Completeness / n,
		Accuracy:     q.Accuracy / n,
		Freshness:    q.Freshness / n,
		Reliability:  q.Reliability / n,
	}
	sum.AvgResponseTimeMs = responseTime / n
	return sum
}
