// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding defines the embedding provider boundary and its
// OpenAI-compatible and local (hugot) implementations.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model
// and safe for concurrent use. Failures are returned as *ProviderError;
// an implementation never returns an empty vector with a nil error.
type Provider interface {
	ModelID() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderError reports a failed embedding request.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err carries a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// ErrNoProvider is returned by New when no provider is configured.
var ErrNoProvider = errors.New("no embedding provider configured")

// New returns the provider selected by cfg. An empty cfg.Provider yields
// ErrNoProvider so callers can fall back to keyword search.
func New(cfg types.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, ErrNoProvider
	case "openai":
		return NewOpenAI(cfg)
	case "hugot":
		return NewHugot(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
