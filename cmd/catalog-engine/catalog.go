// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate, import and export the catalog",
	Long: `Catalog works with the catalog artifact itself: validate it, import it
into a SQLite database, export it to YAML or JSON, or list its domains.`,
}

// --- validate subcommand ---

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the catalog and report skipped entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig()
		store, skipped, err := catalog.Open(context.Background(), cfg.Catalog)
		if err != nil {
			return err
		}
		printSkipped(skipped)

		fmt.Printf("%d entries, %d overlays, %d domains\n",
			store.Len(), len(store.Enhancements()), len(store.Domains()))
		if len(skipped) > 0 {
			return fmt.Errorf("%d catalog entries skipped", len(skipped))
		}
		okColor.Println("Catalog is valid")
		return nil
	},
}

// --- import subcommand ---

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the catalog and overlays into a SQLite database",
	Long: `Import validates the configured catalog and writes the usable entries
and overlays into a SQLite database. Re-importing updates entries in place.
The database can then be used as the catalog path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		ctx := context.Background()

		store, skipped, err := catalog.Open(ctx, engineConfig().Catalog)
		if err != nil {
			return err
		}
		printSkipped(skipped)

		db, err := catalog.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		summary, err := db.Import(ctx, store.All(), store.Enhancements())
		if err != nil {
			return err
		}
		okColor.Fprintf(os.Stdout, "Imported into %s: %d inserted, %d updated, %d overlays\n",
			dbPath, summary.Inserted, summary.Updated, summary.Enhancements)
		return nil
	},
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML or JSON",
	Long: `Export writes the usable catalog entries to --out. The format follows
the file extension. Overlays are written next to it as <name>.enhanced<ext>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		store, skipped, err := catalog.Open(context.Background(), engineConfig().Catalog)
		if err != nil {
			return err
		}
		printSkipped(skipped)

		if err := store.Export(out); err != nil {
			return err
		}
		fmt.Printf("Exported %d entries to %s\n", store.Len(), out)
		return nil
	},
}

// --- domains subcommand ---

var catalogDomainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List catalog domains with entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(context.Background(), engineConfig().Catalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%-20s  %s\n", "Domain", "Entries")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 30))
		for _, d := range store.Domains() {
			fmt.Fprintf(os.Stdout, "%-20s  %d\n", d, len(store.ByDomain(d)))
		}
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().String("db", "data/catalog.db", "SQLite database to import into")
	catalogExportCmd.Flags().String("out", "data/export/catalog.yaml", "export file (.yaml or .json)")

	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(catalogDomainsCmd)

	rootCmd.AddCommand(catalogCmd)
}
