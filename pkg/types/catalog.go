// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the catalog engine:
// catalog entries and their enhancement overlay, ranked search results,
// chart specifications, and configuration.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// SemanticType tags the meaning of a response column.
type SemanticType string

const (
	SemanticTime       SemanticType = "time"
	SemanticVolume     SemanticType = "volume"
	SemanticPrice      SemanticType = "price"
	SemanticCount      SemanticType = "count"
	SemanticPercentage SemanticType = "percentage"
	SemanticSupply     SemanticType = "supply"
	SemanticTVL        SemanticType = "tvl"
	SemanticRevenue    SemanticType = "revenue"
	SemanticMetric     SemanticType = "metric"
)

// Valid reports whether t is one of the known semantic types.
func (t SemanticType) Valid() bool {
	switch t {
	case SemanticTime, SemanticVolume, SemanticPrice, SemanticCount, SemanticPercentage,
		SemanticSupply, SemanticTVL, SemanticRevenue, SemanticMetric:
		return true
	}
	return false
}

// IsMetric reports whether a column of this type can be plotted as a series:
// volume, price, count, percentage, supply, tvl or metric. Time and revenue
// columns are not.
func (t SemanticType) IsMetric() bool {
	switch t {
	case SemanticVolume, SemanticPrice, SemanticCount, SemanticPercentage,
		SemanticSupply, SemanticTVL, SemanticMetric:
		return true
	}
	return false
}

// Endpoint locates the data endpoint a catalog entry describes.
type Endpoint struct {
	URL    string `json:"url" yaml:"url"`
	Method string `json:"method" yaml:"method"`
}

// Column is one named column of an endpoint's response.
type Column struct {
	Name string       `json:"name" yaml:"name"`
	Type SemanticType `json:"type" yaml:"type"`
}

// Schema is an ordered mapping of column name to semantic type. On disk it is
// written as a plain mapping; decoding preserves document order.
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// UnmarshalYAML decodes a YAML mapping while keeping key order.
func (s *Schema) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("response schema must be a mapping, got %v", value.Tag)
	}
	out := make(Schema, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name, typ string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("decoding column name: %w", err)
		}
		if err := value.Content[i+1].Decode(&typ); err != nil {
			return fmt.Errorf("decoding type of column %q: %w", name, err)
		}
		out = append(out, Column{Name: name, Type: SemanticType(typ)})
	}
	*s = out
	return nil
}

// MarshalYAML encodes the schema as an ordered mapping.
func (s Schema) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: c.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(c.Type)},
		)
	}
	return node, nil
}

// UnmarshalJSON decodes a JSON object while keeping key order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("response schema must be an object")
	}
	var out Schema
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var typ string
		if err := dec.Decode(&typ); err != nil {
			return fmt.Errorf("decoding type of column %q: %w", name, err)
		}
		out = append(out, Column{Name: name, Type: SemanticType(typ)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// MarshalJSON encodes the schema as an ordered JSON object.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(string(c.Type))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CatalogEntry describes one queryable analytics data endpoint. Entries are
// loaded once at startup and never mutated afterwards.
type CatalogEntry struct {
	// ID is unique and stable across the catalog.
	ID string `json:"id" yaml:"id"`

	// Domain is the category tag (e.g. "dex", "stablecoins").
	Domain string `json:"domain" yaml:"domain"`

	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Endpoint Endpoint `json:"endpoint" yaml:"endpoint"`

	// ResponseSchema maps each response column to its semantic type, in
	// response order.
	ResponseSchema Schema `json:"response_schema" yaml:"response_schema"`

	// Keywords are normalized search tokens.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// ChartTypes are chart-type tags the producer associated with the entry.
	ChartTypes []string `json:"chart_types,omitempty" yaml:"chart_types,omitempty"`
}

// Complexity is the usage tier of an endpoint.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// DataQuality holds 0-1 quality scores plus a volatility tier.
type DataQuality struct {
	Completeness float64 `json:"completeness" yaml:"completeness"`
	Accuracy     float64 `json:"accuracy" yaml:"accuracy"`
	Freshness    float64 `json:"freshness" yaml:"freshness"`
	Reliability  float64 `json:"reliability" yaml:"reliability"`
	Volatility   string  `json:"volatility" yaml:"volatility"`
}

// UsageContext describes who uses an endpoint and for what.
type UsageContext struct {
	UseCases         []string   `json:"use_cases,omitempty" yaml:"use_cases,omitempty"`
	Complexity       Complexity `json:"complexity" yaml:"complexity"`
	BusinessInsights []string   `json:"business_insights,omitempty" yaml:"business_insights,omitempty"`
}

// ChartRecommendation is one ranked chart suggestion from the enhancement producer.
type ChartRecommendation struct {
	ChartType  string  `json:"chart_type" yaml:"chart_type"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	XAxis      string  `json:"x_axis,omitempty" yaml:"x_axis,omitempty"`
	YAxis      string  `json:"y_axis,omitempty" yaml:"y_axis,omitempty"`
}

// Visualization holds ranked chart recommendations.
type Visualization struct {
	Recommendations []ChartRecommendation `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// Relationships lists ids of related catalog entries.
type Relationships struct {
	Similar       []string `json:"similar,omitempty" yaml:"similar,omitempty"`
	Complementary []string `json:"complementary,omitempty" yaml:"complementary,omitempty"`
}

// Performance describes expected endpoint latency and payload size.
type Performance struct {
	AvgResponseTimeMs float64 `json:"avg_response_time_ms" yaml:"avg_response_time_ms"`
	// DataVolume is a tier: low, medium or high.
	DataVolume string `json:"data_volume" yaml:"data_volume"`
}

// EnhancedCatalogEntry is the optional overlay produced offline for an entry.
type EnhancedCatalogEntry struct {
	ID            string        `json:"id" yaml:"id"`
	DataQuality   DataQuality   `json:"data_quality" yaml:"data_quality"`
	UsageContext  UsageContext  `json:"usage_context" yaml:"usage_context"`
	Visualization Visualization `json:"visualization" yaml:"visualization"`
	Relationships Relationships `json:"relationships" yaml:"relationships"`
	Performance   Performance   `json:"performance" yaml:"performance"`
}

// EnrichedEntry pairs a catalog entry with its overlay. Enhanced is false
// when the overlay was synthesized from defaults.
type EnrichedEntry struct {
	Entry       CatalogEntry         `json:"entry" yaml:"entry"`
	Enhancement EnhancedCatalogEntry `json:"enhancement" yaml:"enhancement"`
	Enhanced    bool                 `json:"enhanced" yaml:"enhanced"`
}

// SkippedEntry records a catalog entry that was dropped while loading or
// indexing, and why.
type SkippedEntry struct {
	ID     string `json:"id" yaml:"id"`
	Reason string `json:"reason" yaml:"reason"`
}
