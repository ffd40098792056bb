// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/catalog-engine/internal/catalog"
	"github.com/pdiddy/catalog-engine/internal/embedding"
	"github.com/pdiddy/catalog-engine/internal/search"
	"github.com/pdiddy/catalog-engine/internal/secrets"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

func setDefaults() {
	viper.SetDefault("catalog.path", "data/catalog.yaml")
	viper.SetDefault("embedding.model_dir", "models")
	viper.SetDefault("embedding.timeout", 30*time.Second)
	viper.SetDefault("embedding.max_retries", 5)
	viper.SetDefault("index.path", "data/index/embeddings.json")
	viper.SetDefault("index.max_results", 20)
	viper.SetDefault("index.batch_size", 10)
	viper.SetDefault("index.batch_delay", time.Second)
	viper.SetDefault("search.top_k", search.DefaultTopK)
	viper.SetDefault("search.quality_threshold", search.DefaultQualityThreshold)
}

// engineConfig assembles the typed configuration from viper.
func engineConfig() types.EngineConfig {
	provider := viper.GetString("embedding.provider")
	if provider == "none" {
		provider = ""
	}
	return types.EngineConfig{
		Catalog: types.CatalogConfig{
			Path:         viper.GetString("catalog.path"),
			EnhancedPath: viper.GetString("catalog.enhanced_path"),
		},
		Embedding: types.EmbeddingConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:    viper.GetDuration("embedding.timeout"),
				MaxRetries: viper.GetInt("embedding.max_retries"),
			},
			Provider: provider,
			Model:    viper.GetString("embedding.model"),
			BaseURL:  viper.GetString("embedding.base_url"),
			APIKey:   secretDefault(secrets.KeyOpenAI, viper.GetString("embedding.api_key")),
			ModelDir: viper.GetString("embedding.model_dir"),
		},
		Index: types.IndexConfig{
			Path:       viper.GetString("index.path"),
			MaxResults: viper.GetInt("index.max_results"),
			BatchSize:  viper.GetInt("index.batch_size"),
			BatchDelay: viper.GetDuration("index.batch_delay"),
		},
		Search: types.SearchConfig{
			TopK:             viper.GetInt("search.top_k"),
			QualityThreshold: search.Threshold(viper.GetFloat64("search.quality_threshold")),
		},
	}
}

// openCatalog loads the configured catalog and reports skipped entries.
func openCatalog(ctx context.Context, cfg types.CatalogConfig) (*catalog.Store, error) {
	store, skipped, err := catalog.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		slog.Warn("skipped catalog entry", "id", s.ID, "reason", s.Reason)
	}
	slog.Debug("catalog loaded", "path", cfg.Path, "entries", store.Len(), "skipped", len(skipped))
	return store, nil
}

// openProvider returns the configured embedding provider, or nil when none
// is configured. The returned closer releases local model sessions.
func openProvider(cfg types.EmbeddingConfig) (embedding.Provider, func(), error) {
	p, err := embedding.New(cfg)
	if errors.Is(err, embedding.ErrNoProvider) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	closer := func() {}
	if c, ok := p.(io.Closer); ok {
		closer = func() {
			if err := c.Close(); err != nil {
				slog.Warn("closing embedding provider", "err", err)
			}
		}
	}
	return p, closer, nil
}

// openService loads the catalog, opens the provider and initializes a
// search service.
func openService(ctx context.Context, cfg types.EngineConfig) (*catalog.Store, *search.Service, func(), error) {
	store, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return nil, nil, nil, err
	}
	provider, closer, err := openProvider(cfg.Embedding)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("configuring embedding provider: %w", err)
	}

	svc := search.NewService(search.Options{
		Catalog:  store,
		Provider: provider,
		Index:    cfg.Index,
		Search:   cfg.Search,
		Logger:   slog.Default(),
	})
	if err := svc.Initialize(ctx); err != nil {
		closer()
		return nil, nil, nil, err
	}
	return store, svc, closer, nil
}
