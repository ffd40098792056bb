// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catalog-engine/internal/httputil"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	p, err := NewOpenAI(types.EmbeddingConfig{
		Provider:   "openai",
		Model:      "test-model",
		BaseURL:    ts.URL + "/",
		APIKey:     "sk_test",
		HTTPConfig: types.HTTPConfig{MaxRetries: 2},
	})
	require.NoError(t, err)
	return p
}

func TestOpenAIEmbed(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		assert.Equal(t, "dex volume", body["input"])

		w.Write([]byte(`{"data":[{"embedding":[0.5,-0.25,1]}]}`))
	})

	vec, err := p.Embed(context.Background(), "dex volume")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, vec)
	assert.Equal(t, "openai:test-model", p.ModelID())
}

func TestOpenAIEmbedErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		errPart string
	}{
		{"http error", http.StatusUnauthorized, `{"error":"bad key"}`, "HTTP 401"},
		{"missing embedding", http.StatusOK, `{"data":[]}`, "missing embedding"},
		{"bad json", http.StatusOK, `not json`, "parsing embeddings response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			vec, err := p.Embed(context.Background(), "text")
			require.Error(t, err)
			assert.Nil(t, vec)
			assert.Contains(t, err.Error(), tt.errPart)

			var pe *ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "openai:test-model", pe.Provider)
		})
	}
}

func TestOpenAIEmbedRetriesRateLimit(t *testing.T) {
	var calls int32
	p := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":[{"embedding":[1,0]}]}`))
	})

	vec, err := p.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIEmbedEmptyText(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for empty text")
	})
	_, err := p.Embed(context.Background(), "   ")
	assert.True(t, IsProviderError(err))
}

func TestNew(t *testing.T) {
	_, err := New(types.EmbeddingConfig{})
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = New(types.EmbeddingConfig{Provider: "openai"})
	require.Error(t, err, "openai requires an API key")

	p, err := New(types.EmbeddingConfig{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai:"+defaultOpenAIModel, p.ModelID())

	h, err := New(types.EmbeddingConfig{Provider: "hugot"})
	require.NoError(t, err)
	assert.Equal(t, "hugot:"+defaultHugotModel, h.ModelID())

	_, err = New(types.EmbeddingConfig{Provider: "cohere"})
	assert.ErrorContains(t, err, "unsupported embedding provider")
}
