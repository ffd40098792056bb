// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/chart"
	"github.com/pdiddy/catalog-engine/internal/search"
)

var chartCmd = &cobra.Command{
	Use:   "chart [primary-id] [secondary-id]",
	Short: "Build a chart specification from catalog entries",
	Long: `Chart builds a chart specification for one catalog entry, or two entries
plotted together. The chart type is taken from --type, inferred from the
--intent text, or inferred from the entry's time and metric columns.

With --query instead of ids, the top search result is charted and the query
is used as the intent.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runChart,
}

func runChart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	flags := cmd.Flags()
	title, _ := flags.GetString("title")
	chartType, _ := flags.GetString("type")
	intent, _ := flags.GetString("intent")
	query, _ := flags.GetString("query")

	req := chart.Request{Title: title, ChartType: chartType, Intent: intent}
	if len(args) > 0 {
		req.PrimaryID = args[0]
	}
	if len(args) > 1 {
		req.SecondaryID = args[1]
	}

	cfg := engineConfig()
	var lookup chart.Lookup
	switch {
	case req.PrimaryID != "":
		store, err := openCatalog(ctx, cfg.Catalog)
		if err != nil {
			return err
		}
		lookup = store
	case query != "":
		store, svc, closer, err := openService(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()
		resp, err := svc.Search(ctx, search.Request{Query: query, TopK: 1})
		if err != nil {
			return err
		}
		if len(resp.Entries) == 0 {
			return fmt.Errorf("no catalog entry matches %q", query)
		}
		req.PrimaryID = resp.Entries[0].Entry.ID
		if req.Intent == "" {
			req.Intent = query
		}
		lookup = store
	default:
		return fmt.Errorf("primary entry id or --query required")
	}

	spec, err := chart.NewBuilder(lookup).Build(ctx, req)
	if err != nil {
		return err
	}

	if jsonOutput, _ := flags.GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, spec)
	}
	return writeYAML(os.Stdout, spec)
}

func init() {
	chartCmd.Flags().String("title", "", "chart title (default: the primary entry's title)")
	chartCmd.Flags().String("type", "", "chart type: line, bar, area, scatter, stacked_bar, pie")
	chartCmd.Flags().String("intent", "", "what the chart should show, e.g. \"compare dex volume\"")
	chartCmd.Flags().String("query", "", "chart the top search result for this request")
	chartCmd.Flags().Bool("json", false, "output the spec as JSON instead of YAML")

	rootCmd.AddCommand(chartCmd)
}
