// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// ChartType selects how a chart spec is rendered.
type ChartType string

const (
	ChartLine       ChartType = "line"
	ChartBar        ChartType = "bar"
	ChartArea       ChartType = "area"
	ChartScatter    ChartType = "scatter"
	ChartStackedBar ChartType = "stacked_bar"
	ChartPie        ChartType = "pie"
)

// ParseChartType validates s as a chart type. An empty string yields an
// empty ChartType and no error.
func ParseChartType(s string) (ChartType, error) {
	switch t := ChartType(s); t {
	case "", ChartLine, ChartBar, ChartArea, ChartScatter, ChartStackedBar, ChartPie:
		return t, nil
	}
	return "", fmt.Errorf("unknown chart type %q: use line, bar, area, scatter, stacked_bar or pie", s)
}

// AxisBinding binds a chart axis to a response column.
type AxisBinding struct {
	Column       string       `json:"column" yaml:"column"`
	SemanticType SemanticType `json:"semantic_type" yaml:"semantic_type"`
	Label        string       `json:"label" yaml:"label"`
}

// Series is one plotted metric column.
type Series struct {
	Column       string       `json:"column" yaml:"column"`
	SemanticType SemanticType `json:"semantic_type" yaml:"semantic_type"`
	Label        string       `json:"label" yaml:"label"`
	Color        string       `json:"color" yaml:"color"`

	// EntryID is the catalog entry the column belongs to.
	EntryID string `json:"entry_id" yaml:"entry_id"`
}

// ChartMetadata carries scoring and provenance for a chart spec.
type ChartMetadata struct {
	// ConfidenceScore is a heuristic in [0,1] of how well the chart fits the data.
	ConfidenceScore float64   `json:"confidence_score" yaml:"confidence_score"`
	Domain          string    `json:"domain" yaml:"domain"`
	Intent          string    `json:"intent,omitempty" yaml:"intent,omitempty"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// ChartSpec is a concrete, renderer-agnostic chart description built from
// one or two catalog entries.
type ChartSpec struct {
	ID                   string        `json:"id" yaml:"id"`
	Title                string        `json:"title" yaml:"title"`
	PrimaryEntryID       string        `json:"primary_entry_id" yaml:"primary_entry_id"`
	SecondaryEntryID     string        `json:"secondary_entry_id,omitempty" yaml:"secondary_entry_id,omitempty"`
	TransformDescription string        `json:"transform_description,omitempty" yaml:"transform_description,omitempty"`
	ChartType            ChartType     `json:"chart_type" yaml:"chart_type"`
	XAxis                *AxisBinding  `json:"x_axis,omitempty" yaml:"x_axis,omitempty"`
	YAxis                *AxisBinding  `json:"y_axis,omitempty" yaml:"y_axis,omitempty"`
	Series               []Series      `json:"series" yaml:"series"`
	Metadata             ChartMetadata `json:"metadata" yaml:"metadata"`
}
