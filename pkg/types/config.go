package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries bounds retries on HTTP 429 and 5xx responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider is "openai", "hugot", or empty for no provider (keyword search only).
	Provider string `json:"provider" yaml:"provider"`

	// Model is the embedding model identifier (e.g. "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the OpenAI-compatible API root (default https://api.openai.com/v1).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates against the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// ModelDir is where local models are downloaded (hugot provider).
	ModelDir string `json:"model_dir" yaml:"model_dir"`
}

// IndexConfig holds settings for the embedding index.
type IndexConfig struct {
	// Path is the persisted index artifact (JSON).
	Path string `json:"path" yaml:"path"`

	// MaxResults caps the number of results any search returns (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// BatchSize is the number of embedding requests sent concurrently (default 10).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// BatchDelay is the pause between batches (default 1s).
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay"`
}

// SearchConfig holds defaults for orchestrated searches.
type SearchConfig struct {
	// TopK is the default number of entries returned (default 5).
	TopK int `json:"top_k" yaml:"top_k"`

	// QualityThreshold is the default minimum completeness. Nil selects
	// 0.7; 0 accepts every entry.
	QualityThreshold *float64 `json:"quality_threshold,omitempty" yaml:"quality_threshold,omitempty"`
}

// CatalogConfig locates the catalog artifacts loaded at startup.
type CatalogConfig struct {
	// Path is a YAML, JSON or SQLite catalog file.
	Path string `json:"path" yaml:"path"`

	// EnhancedPath is an optional YAML or JSON overlay file.
	EnhancedPath string `json:"enhanced_path,omitempty" yaml:"enhanced_path,omitempty"`
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Index     IndexConfig     `json:"index" yaml:"index"`
	Search    SearchConfig    `json:"search" yaml:"search"`
}
