// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the catalog-engine CLI. It wires the
// catalog store, embedding provider, search service and chart builder
// behind search, chart, index and catalog subcommands.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/catalog-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ and .env at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the catalog-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "catalog-engine",
	Short: "Semantic catalog search and chart recommendations",
	Long: `catalog-engine maps a natural-language analytics request to the most
relevant data endpoints in a catalog and recommends a chart for them.

Search ranks catalog entries with an embedding index when a provider is
configured and falls back to keyword matching otherwise. Chart builds a
chart specification from one or two entries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		s, err := secrets.LoadWithEnv(".secrets/", ".env")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./catalog-engine.yaml or ~/.config/catalog-engine/catalog-engine.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("catalog", "", "catalog file (.yaml, .json or .db)")
	rootCmd.PersistentFlags().String("enhanced", "", "enhancement overlay file (.yaml or .json)")
	rootCmd.PersistentFlags().String("index", "", "embedding index artifact path")
	rootCmd.PersistentFlags().String("provider", "", "embedding provider: openai, hugot, or none")

	bindFlag("catalog.path", "catalog")
	bindFlag("catalog.enhanced_path", "enhanced")
	bindFlag("index.path", "index")
	bindFlag("embedding.provider", "provider")

	setDefaults()
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("catalog-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "catalog-engine"))
		}
	}

	viper.SetEnvPrefix("CATALOG_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
