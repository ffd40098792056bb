// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chart

import (
	"slices"
	"strings"
	"unicode"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// intentRules is checked in order; the first rule with a matching phrase
// wins. Phrases match as substrings, except "vs", which must be a whole
// word.
var intentRules = []struct {
	chart   types.ChartType
	phrases []string
}{
	{types.ChartBar, []string{"compare", "vs"}},
	{types.ChartLine, []string{"trend", "over time"}},
	{types.ChartArea, []string{"volume", "fill"}},
	{types.ChartScatter, []string{"correlation", "relationship"}},
	{types.ChartStackedBar, []string{"composition", "breakdown"}},
}

// SuggestChartType picks a chart type from the intent text when it names
// one, otherwise from the entry's time and metric columns.
func SuggestChartType(e *types.CatalogEntry, intent string) types.ChartType {
	if t, ok := fromIntent(intent); ok {
		return t
	}
	return fromShape(analyze(e))
}

func fromIntent(intent string) (types.ChartType, bool) {
	lower := strings.ToLower(intent)
	if strings.TrimSpace(lower) == "" {
		return "", false
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, rule := range intentRules {
		for _, p := range rule.phrases {
			if p == "vs" {
				if slices.Contains(words, p) {
					return rule.chart, true
				}
				continue
			}
			if strings.Contains(lower, p) {
				return rule.chart, true
			}
		}
	}
	return "", false
}

func fromShape(s shape) types.ChartType {
	hasTime := s.timeCol != nil
	switch {
	case hasTime && len(s.metrics) > 1:
		return types.ChartLine
	case hasTime && s.hasVolume:
		return types.ChartArea
	case hasTime:
		return types.ChartLine
	case len(s.metrics) > 1:
		return types.ChartBar
	case s.hasVolume:
		return types.ChartArea
	default:
		return types.ChartBar
	}
}
