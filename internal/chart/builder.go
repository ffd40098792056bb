// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Palette is the cyclic series color sequence.
var Palette = []string{
	"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#F97316", "#84CC16", "#EC4899", "#6366F1",
}

// highRelevanceDomains earn a confidence bonus.
var highRelevanceDomains = map[string]bool{
	"dex":         true,
	"defi":        true,
	"lending":     true,
	"stablecoins": true,
}

// Lookup resolves catalog entries by id. *catalog.Store satisfies it.
type Lookup interface {
	Get(id string) (*types.CatalogEntry, bool)
}

// Request describes the chart to build. ChartType and Intent are optional;
// an empty ChartType is inferred.
type Request struct {
	Title       string
	PrimaryID   string
	SecondaryID string
	ChartType   string
	Intent      string
}

// Builder builds chart specs from catalog entries.
type Builder struct {
	lookup Lookup
	now    func() time.Time
}

// NewBuilder returns a Builder resolving entries through lookup.
func NewBuilder(lookup Lookup) *Builder {
	return &Builder{lookup: lookup, now: time.Now}
}

// Build resolves the request's entries and returns a chart spec. The x axis
// is the primary entry's first time column; series are the metric columns
// of the primary then the secondary entry, and the y axis is the first
// series.
func (b *Builder) Build(ctx context.Context, req Request) (*types.ChartSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	primary, ok := b.lookup.Get(req.PrimaryID)
	if !ok {
		return nil, &UnknownEntryError{ID: req.PrimaryID}
	}
	var secondary *types.CatalogEntry
	if req.SecondaryID != "" {
		secondary, ok = b.lookup.Get(req.SecondaryID)
		if !ok {
			return nil, &UnknownEntryError{ID: req.SecondaryID}
		}
	}

	chartType, err := types.ParseChartType(req.ChartType)
	if err != nil {
		return nil, err
	}
	if chartType == "" {
		chartType = SuggestChartType(primary, req.Intent)
	}

	title := req.Title
	if title == "" {
		title = primary.Title
	}

	caser := cases.Title(language.English)
	label := func(column string) string {
		return caser.String(strings.ReplaceAll(column, "_", " "))
	}

	ps := analyze(primary)
	spec := &types.ChartSpec{
		ID:             uuid.NewString(),
		Title:          title,
		PrimaryEntryID: primary.ID,
		ChartType:      chartType,
	}

	if ps.timeCol != nil {
		spec.XAxis = &types.AxisBinding{
			Column:       ps.timeCol.Name,
			SemanticType: ps.timeCol.Type,
			Label:        label(ps.timeCol.Name),
		}
	}

	shapes := []shape{ps}
	if secondary != nil {
		ss := analyze(secondary)
		shapes = append(shapes, ss)
		spec.SecondaryEntryID = secondary.ID
		spec.TransformDescription = transform(primary, ps, secondary, ss)
	}

	hasVolume := false
	for _, s := range shapes {
		for _, c := range s.metrics {
			spec.Series = append(spec.Series, types.Series{
				Column:       c.Name,
				SemanticType: c.Type,
				Label:        label(c.Name),
				Color:        Palette[len(spec.Series)%len(Palette)],
				EntryID:      s.entryID,
			})
		}
		hasVolume = hasVolume || s.hasVolume
	}
	if len(spec.Series) > 0 {
		first := spec.Series[0]
		spec.YAxis = &types.AxisBinding{
			Column:       first.Column,
			SemanticType: first.SemanticType,
			Label:        first.Label,
		}
	}

	spec.Metadata = types.ChartMetadata{
		ConfidenceScore: Confidence(chartType, ps.timeCol != nil, len(spec.Series), hasVolume, primary.Domain),
		Domain:          primary.Domain,
		Intent:          req.Intent,
		CreatedAt:       b.now().UTC(),
	}
	return spec, nil
}

// Confidence scores how well a chart type fits the data shape. It starts
// at 0.5 and is clamped to [0,1].
func Confidence(chartType types.ChartType, hasTime bool, metricCount int, hasVolume bool, domain string) float64 {
	score := 0.5
	if hasTime {
		score += 0.2
	}
	score += min(0.3, 0.1*float64(metricCount))

	switch chartType {
	case types.ChartLine:
		if hasTime {
			score += 0.1
		}
	case types.ChartArea:
		if hasTime && hasVolume {
			score += 0.1
		}
	case types.ChartBar:
		if metricCount > 0 {
			score += 0.1
		}
	}

	if highRelevanceDomains[domain] {
		score += 0.1
	}
	return max(0, min(1, score))
}

func transform(primary *types.CatalogEntry, ps shape, secondary *types.CatalogEntry, ss shape) string {
	if ps.timeCol != nil && ss.timeCol != nil {
		return fmt.Sprintf("Join %s and %s on time (%s = %s)",
			primary.ID, secondary.ID, ps.timeCol.Name, ss.timeCol.Name)
	}
	return fmt.Sprintf("Plot metrics of %s alongside %s without a shared time axis",
		secondary.ID, primary.ID)
}
