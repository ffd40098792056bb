// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/catalog-engine/internal/httputil"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-3-small"
)

// OpenAI calls an OpenAI-compatible REST endpoint:
//
//	POST {baseURL}/embeddings
//	{"model": "...", "input": "..."}
type OpenAI struct {
	model      string
	apiKey     string
	baseURL    string
	client     *http.Client
	maxRetries int
}

// NewOpenAI constructs an OpenAI-compatible embeddings provider.
func NewOpenAI(cfg types.EmbeddingConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embeddings API key is not configured (set CATALOG_ENGINE_EMBEDDING_API_KEY or .secrets/openai-api-key)")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAI{
		model:      model,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

// ModelID returns "openai:<model>".
func (p *OpenAI) ModelID() string {
	return "openai:" + p.model
}

// Embed requests one embedding vector for text.
func (p *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.embed(ctx, text)
	if err != nil {
		return nil, &ProviderError{Provider: p.ModelID(), Err: err}
	}
	return vec, nil
}

func (p *OpenAI) embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	b, err := json.Marshal(map[string]any{
		"model": p.model,
		"input": text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := httputil.DoWithRetry(ctx, p.client, req, p.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing embeddings response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response missing embedding")
	}

	emb64 := parsed.Data[0].Embedding
	out := make([]float32, len(emb64))
	for i, v := range emb64 {
		out[i] = float32(v)
	}
	return out, nil
}
