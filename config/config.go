package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"newsvec/internal/adapter/splitter"
)

// Config holds all configuration for the news embedding pipeline.
type Config struct {
	Splitter  SplitterConfig  `yaml:"splitter"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Store     StoreConfig     `yaml:"store"`
	Run       RunConfig       `yaml:"run"`
}

// SplitterConfig controls chunking. Disabling splitting embeds each item
// as a single chunk truncated to max_content_length.
type SplitterConfig struct {
	Enabled          bool     `yaml:"enabled"`
	ChunkSize        int      `yaml:"chunk_size"`
	ChunkOverlap     int      `yaml:"chunk_overlap"`
	Separators       []string `yaml:"separators,omitempty"`
	MaxContentLength int      `yaml:"max_content_length"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider      string `yaml:"provider"` // "openai", "gemini", "ollama", "mock"
	Model         string `yaml:"model"`
	APIKeyEnv     string `yaml:"api_key_env"` // environment variable holding the API key
	BaseURL       string `yaml:"base_url,omitempty"`
	Dimension     int    `yaml:"dimension"` // used by the mock provider only
	BatchSize     int    `yaml:"batch_size"`
	MaxRetries    int    `yaml:"max_retries"`
	BaseDelaySecs int    `yaml:"base_delay_secs"`
}

// IndexConfig points at the remote vector index.
type IndexConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig locates the local item database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// RunConfig bounds a single processing run.
type RunConfig struct {
	ItemBatchSize  int `yaml:"item_batch_size"`
	MaxItemsPerRun int `yaml:"max_items_per_run"`
	PauseSecs      int `yaml:"pause_secs"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Splitter: SplitterConfig{
			Enabled:          true,
			ChunkSize:        1000,
			ChunkOverlap:     200,
			MaxContentLength: 2000,
		},
		Embedding: EmbeddingConfig{
			Provider:      "gemini",
			Model:         "models/text-embedding-004",
			APIKeyEnv:     "GEMINI_API_KEY",
			Dimension:     768,
			BatchSize:     100,
			MaxRetries:    3,
			BaseDelaySecs: 5,
		},
		Index: IndexConfig{
			URL:         "http://localhost:6333",
			APIKeyEnv:   "QDRANT_API_KEY",
			Collection:  "news",
			TimeoutSecs: 15,
		},
		Store: StoreConfig{
			Path: "newsvec.db",
		},
		Run: RunConfig{
			ItemBatchSize:  50,
			MaxItemsPerRun: 1000,
			PauseSecs:      5,
		},
	}
}

// Validate rejects configurations that would fail mid-run. Malformed
// splitter settings in particular must never be discovered during a split.
func (c *Config) Validate() error {
	splitCfg := splitter.Config{
		ChunkSize:    c.Splitter.ChunkSize,
		ChunkOverlap: c.Splitter.ChunkOverlap,
		Separators:   c.Splitter.Separators,
	}
	if err := splitCfg.Validate(); err != nil {
		return fmt.Errorf("splitter: %w", err)
	}

	switch c.Embedding.Provider {
	case "openai", "gemini", "ollama", "mock":
	default:
		return fmt.Errorf("embedding: unknown provider %q", c.Embedding.Provider)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding: batch size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.MaxRetries <= 0 {
		return fmt.Errorf("embedding: max retries must be positive, got %d", c.Embedding.MaxRetries)
	}
	if c.Embedding.Provider == "mock" && c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding: mock provider needs a positive dimension, got %d", c.Embedding.Dimension)
	}

	if c.Index.URL == "" {
		return fmt.Errorf("index: url is required")
	}
	if c.Index.Collection == "" {
		return fmt.Errorf("index: collection is required")
	}

	if c.Run.ItemBatchSize <= 0 {
		return fmt.Errorf("run: item batch size must be positive, got %d", c.Run.ItemBatchSize)
	}

	return nil
}

// Load loads configuration from a YAML file, over defaults. A missing file
// is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for newsvec.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "newsvec.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".newsvec", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StorePath resolves the item database path against dir when relative.
func (c *Config) StorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}
