// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// QueryFile is the on-disk representation of a search request and its
// results, so a search can be reviewed or replayed without the backend.
type QueryFile struct {
	Query   QueryParams               `yaml:"query"`
	Backend string                    `yaml:"backend"`
	Results []QueryResult             `yaml:"results"`
	Summary types.IntelligenceSummary `yaml:"summary"`

	Timestamp time.Time `yaml:"timestamp"`
}

// QueryParams stores the request in a serializable form.
type QueryParams struct {
	Text             string   `yaml:"text"`
	TopK             int      `yaml:"top_k,omitempty"`
	Domain           string   `yaml:"domain,omitempty"`
	Complexity       string   `yaml:"complexity,omitempty"`
	QualityThreshold *float64 `yaml:"quality_threshold,omitempty"`
}

// QueryResult is one returned entry with its score.
type QueryResult struct {
	EntryID      string  `yaml:"entry_id"`
	Title        string  `yaml:"title"`
	Domain       string  `yaml:"domain"`
	Score        float64 `yaml:"score"`
	Completeness float64 `yaml:"completeness"`
	Complexity   string  `yaml:"complexity"`
	Enhanced     bool    `yaml:"enhanced"`
}

// WriteQueryFile saves the request and response to a YAML file.
func WriteQueryFile(path string, req Request, resp *types.SearchResponse) error {
	qf := QueryFile{
		Query: QueryParams{
			Text:             req.Query,
			TopK:             req.TopK,
			Domain:           req.Domain,
			Complexity:       string(req.Complexity),
			QualityThreshold: req.QualityThreshold,
		},
		Backend:   resp.Backend,
		Results:   make([]QueryResult, len(resp.Entries)),
		Summary:   resp.Summary,
		Timestamp: time.Now().UTC(),
	}
	for i, e := range resp.Entries {
		qf.Results[i] = QueryResult{
			EntryID:      e.Entry.ID,
			Title:        e.Entry.Title,
			Domain:       e.Entry.Domain,
			Completeness: e.Enhancement.DataQuality.Completeness,
			Complexity:   string(e.Enhancement.UsageContext.Complexity),
			Enhanced:     e.Enhanced,
		}
		if i < len(resp.RankedResults) {
			qf.Results[i].Score = resp.RankedResults[i].Score
		}
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating query file directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToRequest converts stored parameters back into a Request.
func (p QueryParams) ToRequest() (Request, error) {
	req := Request{
		Query:            p.Text,
		TopK:             p.TopK,
		Domain:           p.Domain,
		QualityThreshold: p.QualityThreshold,
	}
	switch c := types.Complexity(p.Complexity); c {
	case "", types.ComplexityBeginner, types.ComplexityIntermediate, types.ComplexityAdvanced:
		req.Complexity = c
	default:
		return req, fmt.Errorf("invalid complexity %q", p.Complexity)
	}
	return req, nil
}
