// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chart turns catalog entries and a free-text intent into chart
// specifications: column classification, chart-type inference, axis and
// series bindings, and a confidence score.
package chart

import (
	"strings"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// columnPatterns is checked in order; the first type with a matching
// substring wins.
var columnPatterns = []struct {
	typ      types.SemanticType
	patterns []string
}{
	{types.SemanticTime, []string{"date", "month", "week", "quarter", "year"}},
	{types.SemanticVolume, []string{"volume", "transfer_volume"}},
	{types.SemanticPrice, []string{"price"}},
	{types.SemanticCount, []string{"count", "trades", "holders"}},
	{types.SemanticPercentage, []string{"pct", "percent"}},
	{types.SemanticSupply, []string{"supply", "minted", "burned"}},
	{types.SemanticTVL, []string{"tvl", "locked"}},
	{types.SemanticRevenue, []string{"revenue", "fees", "earnings"}},
}

// ClassifyColumn infers a semantic type from a column name by
// case-insensitive substring match. Unmatched names are metrics.
func ClassifyColumn(name string) types.SemanticType {
	lower := strings.ToLower(name)
	for _, p := range columnPatterns {
		for _, sub := range p.patterns {
			if strings.Contains(lower, sub) {
				return p.typ
			}
		}
	}
	return types.SemanticMetric
}

// ResolveType returns the column's declared type, or its classified type
// when the declaration is missing or the generic metric.
func ResolveType(c types.Column) types.SemanticType {
	if c.Type != "" && c.Type != types.SemanticMetric {
		return c.Type
	}
	return ClassifyColumn(c.Name)
}

// shape is the resolved column layout of one entry.
type shape struct {
	entryID   string
	timeCol   *types.Column
	metrics   []types.Column
	hasVolume bool
}

func analyze(e *types.CatalogEntry) shape {
	s := shape{entryID: e.ID}
	for _, c := range e.ResponseSchema {
		col := types.Column{Name: c.Name, Type: ResolveType(c)}
		switch {
		case col.Type == types.SemanticTime:
			if s.timeCol == nil {
				s.timeCol = &col
			}
		case col.Type.IsMetric():
			s.metrics = append(s.metrics, col)
			if col.Type == types.SemanticVolume {
				s.hasVolume = true
			}
		}
	}
	return s
}
