// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/vector"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or inspect the embedding index",
	Long: `Index manages the persisted embedding index. Search loads it at startup
when its model matches the configured provider, so building it ahead of
time avoids embedding the catalog on the first search.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed every catalog entry and save the index",
	RunE:  runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := engineConfig()

	store, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	provider, closer, err := openProvider(cfg.Embedding)
	if err != nil {
		return err
	}
	defer closer()
	if provider == nil {
		return fmt.Errorf("no embedding provider configured: set --provider or embedding.provider")
	}

	ix := vector.New(vector.Options{
		Provider:   provider,
		MaxResults: cfg.Index.MaxResults,
		BatchSize:  cfg.Index.BatchSize,
		BatchDelay: cfg.Index.BatchDelay,
	})

	start := time.Now()
	report, err := ix.Build(ctx, store.All())
	if err != nil {
		return err
	}
	printSkipped(report.Skipped)

	if err := ix.Save(ctx, cfg.Index.Path); err != nil {
		return err
	}
	okColor.Fprintf(os.Stdout, "Embedded %d entries (%d dims, %s) in %s\n",
		report.Embedded, report.Dimension, report.Model, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Saved index to %s\n", cfg.Index.Path)
	return nil
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the persisted index header",
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := vector.ReadInfo(context.Background(), engineConfig().Index.Path)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(os.Stdout, info)
		}
		headerColor.Println(info.Path)
		fmt.Printf("  model        %s\n", info.EmbeddingModel)
		fmt.Printf("  entries      %d\n", info.TotalEntries)
		fmt.Printf("  dimension    %d\n", info.Dimension)
		fmt.Printf("  max results  %d\n", info.MaxResults)
		fmt.Printf("  created      %s\n", info.CreatedAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	indexInfoCmd.Flags().Bool("json", false, "output as JSON")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexInfoCmd)

	rootCmd.AddCommand(indexCmd)
}
