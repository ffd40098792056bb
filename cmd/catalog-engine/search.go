// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/search"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the catalog entries most relevant to a request",
	Long: `Search ranks catalog entries against a natural-language request. Results
are enriched with quality and usage metadata, filtered by completeness and
complexity, and summarized.

Use --save to write the request and results to a YAML query file, and
--from to replay a saved query file.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	req, err := searchRequestFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query required: pass it as arguments, with --query, or --from a query file")
	}

	ctx := context.Background()
	_, svc, closer, err := openService(ctx, engineConfig())
	if err != nil {
		return err
	}
	defer closer()

	resp, err := svc.Search(ctx, req)
	if err != nil {
		return err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := search.WriteQueryFile(savePath, req, resp); err != nil {
			return err
		}
		okColor.Fprintf(os.Stderr, "Saved query to %s\n", savePath)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return writeJSON(os.Stdout, resp)
	}
	printSearchResponse(resp)
	return nil
}

func searchRequestFromFlags(cmd *cobra.Command, args []string) (search.Request, error) {
	var req search.Request
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		qf, err := search.ReadQueryFile(from)
		if err != nil {
			return req, err
		}
		if req, err = qf.Query.ToRequest(); err != nil {
			return req, err
		}
	}

	if q, _ := cmd.Flags().GetString("query"); q != "" {
		req.Query = q
	} else if len(args) > 0 {
		req.Query = strings.Join(args, " ")
	}

	flags := cmd.Flags()
	if flags.Changed("top-k") {
		req.TopK, _ = flags.GetInt("top-k")
	}
	if flags.Changed("domain") {
		req.Domain, _ = flags.GetString("domain")
	}
	if flags.Changed("complexity") {
		c, _ := flags.GetString("complexity")
		switch types.Complexity(c) {
		case "", types.ComplexityBeginner, types.ComplexityIntermediate, types.ComplexityAdvanced:
			req.Complexity = types.Complexity(c)
		default:
			return req, fmt.Errorf("invalid --complexity %q: use beginner, intermediate or advanced", c)
		}
	}
	if flags.Changed("quality-threshold") {
		v, _ := flags.GetFloat64("quality-threshold")
		req.QualityThreshold = search.Threshold(v)
	}
	return req, nil
}

func printSearchResponse(resp *types.SearchResponse) {
	headerColor.Printf("Results for %q", resp.Query)
	dimColor.Printf(" (%s backend)\n", resp.Backend)

	if len(resp.Entries) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-7s  %-28s  %-12s  %-40s  %s\n",
		"Rank", "Score", "ID", "Domain", "Title", "Quality")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for i, e := range resp.Entries {
		title := e.Entry.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		id := e.Entry.ID
		if len(id) > 28 {
			id = id[:25] + "..."
		}
		marker := ""
		if !e.Enhanced {
			marker = " (default)"
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-7.3f  %-28s  %-12s  %-40s  %.2f%s\n",
			i+1, resp.RankedResults[i].Score, id, e.Entry.Domain, title,
			e.Enhancement.DataQuality.Completeness, marker)
	}

	s := resp.Summary
	fmt.Println()
	headerColor.Println("Summary")
	fmt.Printf("  quality       completeness %.2f  accuracy %.2f  freshness %.2f  reliability %.2f\n",
		s.AverageQuality.Completeness, s.AverageQuality.Accuracy, s.AverageQuality.Freshness, s.AverageQuality.Reliability)
	fmt.Printf("  complexity    %s\n", formatHistogram(s.ComplexityDistribution))
	fmt.Printf("  charts        %s\n", strings.Join(s.RecommendedChartTypes, ", "))
	fmt.Printf("  response      %.0f ms avg\n", s.AvgResponseTimeMs)
	fmt.Printf("  data volume   %s\n", formatHistogram(s.DataVolumeDistribution))
	for _, insight := range s.BusinessInsights {
		fmt.Printf("  - %s\n", insight)
	}
}

func formatHistogram(h map[string]int) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, h[k])
	}
	return strings.Join(parts, " ")
}

func init() {
	searchCmd.Flags().String("query", "", "search request (alternative to positional arguments)")
	searchCmd.Flags().Int("top-k", 0, "number of entries to return (0 = search.top_k from config)")
	searchCmd.Flags().String("domain", "", "only rank entries in this domain")
	searchCmd.Flags().String("complexity", "", "only keep entries of this tier: beginner, intermediate, advanced")
	searchCmd.Flags().Float64("quality-threshold", 0, "minimum data completeness (default search.quality_threshold from config, 0 accepts all)")
	searchCmd.Flags().String("save", "", "write the request and results to this YAML query file")
	searchCmd.Flags().String("from", "", "replay the request stored in a query file")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
