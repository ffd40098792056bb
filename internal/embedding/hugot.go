// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

const defaultHugotModel = "sentence-transformers/all-MiniLM-L6-v2"

// Hugot embeds text locally with a sentence-transformer model run by the
// hugot pure-Go backend. The model is downloaded into ModelDir on first use.
type Hugot struct {
	model    string
	modelDir string

	mu       sync.Mutex
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// NewHugot constructs a local embeddings provider. No model is loaded
// until the first call to Embed.
func NewHugot(cfg types.EmbeddingConfig) (*Hugot, error) {
	model := cfg.Model
	if model == "" {
		model = defaultHugotModel
	}
	dir := cfg.ModelDir
	if dir == "" {
		dir = "./models"
	}
	return &Hugot{model: model, modelDir: dir}, nil
}

// ModelID returns "hugot:<model>".
func (h *Hugot) ModelID() string {
	return "hugot:" + h.model
}

// Embed runs the feature-extraction pipeline on text. Calls are serialized;
// the pipeline is not shared across goroutines.
func (h *Hugot) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ProviderError{Provider: h.ModelID(), Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ProviderError{Provider: h.ModelID(), Err: fmt.Errorf("cannot embed empty text")}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.ensurePipeline(); err != nil {
		return nil, &ProviderError{Provider: h.ModelID(), Err: err}
	}

	result, err := h.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, &ProviderError{Provider: h.ModelID(), Err: fmt.Errorf("generating embedding: %w", err)}
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, &ProviderError{Provider: h.ModelID(), Err: fmt.Errorf("no embedding generated")}
	}
	return result.Embeddings[0], nil
}

// Close releases the hugot session.
func (h *Hugot) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil
	}
	err := h.session.Destroy()
	h.session = nil
	h.pipeline = nil
	return err
}

func (h *Hugot) ensurePipeline() error {
	if h.pipeline != nil {
		return nil
	}

	modelPath, err := h.prepareModel()
	if err != nil {
		return err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return fmt.Errorf("creating hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "catalog-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return fmt.Errorf("creating feature extraction pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return fmt.Errorf("creating feature extraction pipeline: %w", err)
	}

	h.session = session
	h.pipeline = pipeline
	return nil
}

// prepareModel downloads the model into modelDir unless it is already there.
func (h *Hugot) prepareModel() (string, error) {
	modelPath := filepath.Join(h.modelDir, strings.ReplaceAll(h.model, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking model directory: %w", err)
	}

	if err := os.MkdirAll(h.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("creating model directory: %w", err)
	}
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	downloaded, err := hugot.DownloadModel(h.model, h.modelDir, opts)
	if err != nil {
		return "", fmt.Errorf("downloading model %s: %w", h.model, err)
	}
	return downloaded, nil
}
