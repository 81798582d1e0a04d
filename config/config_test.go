package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Splitter.Enabled {
		t.Error("splitting disabled by default")
	}
	if cfg.Splitter.ChunkSize != 1000 || cfg.Splitter.ChunkOverlap != 200 {
		t.Errorf("splitter defaults = %d/%d, want 1000/200",
			cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
	}
	if cfg.Embedding.Provider != "gemini" {
		t.Errorf("default provider = %q, want gemini", cfg.Embedding.Provider)
	}
	if cfg.Index.Collection != "news" {
		t.Errorf("default collection = %q, want news", cfg.Index.Collection)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Splitter.ChunkSize != 1000 {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsvec.yaml")
	content := `splitter:
  enabled: true
  chunk_size: 500
  chunk_overlap: 50
embedding:
  provider: mock
  dimension: 16
index:
  collection: custom
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Splitter.ChunkSize != 500 || cfg.Splitter.ChunkOverlap != 50 {
		t.Errorf("splitter = %d/%d, want 500/50", cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimension != 16 {
		t.Errorf("embedding = %+v, want mock/16", cfg.Embedding)
	}
	if cfg.Index.Collection != "custom" {
		t.Errorf("collection = %q, want custom", cfg.Index.Collection)
	}
	// Untouched sections keep their defaults.
	if cfg.Run.ItemBatchSize != 50 {
		t.Errorf("run defaults lost: %+v", cfg.Run)
	}
	if cfg.Index.URL != "http://localhost:6333" {
		t.Errorf("index url default lost: %q", cfg.Index.URL)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	content := "embedding:\n  provider: mock\n  dimension: 4\n"
	if err := os.WriteFile(filepath.Join(dir, "newsvec.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if cfg.Embedding.Provider != "mock" {
		t.Errorf("provider = %q, want mock", cfg.Embedding.Provider)
	}

	empty, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromDir on empty dir: %v", err)
	}
	if empty.Embedding.Provider != "gemini" {
		t.Errorf("empty dir did not yield defaults: %+v", empty.Embedding)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Index.Collection = "roundtrip"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Index.Collection != "roundtrip" {
		t.Errorf("collection = %q, want roundtrip", loaded.Index.Collection)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"overlap >= chunk size", func(c *Config) { c.Splitter.ChunkOverlap = 1000 }, true},
		{"zero chunk size", func(c *Config) { c.Splitter.ChunkSize = 0 }, true},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }, true},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = 0 }, true},
		{"zero retries", func(c *Config) { c.Embedding.MaxRetries = 0 }, true},
		{"mock without dimension", func(c *Config) {
			c.Embedding.Provider = "mock"
			c.Embedding.Dimension = 0
		}, true},
		{"missing index url", func(c *Config) { c.Index.URL = "" }, true},
		{"missing collection", func(c *Config) { c.Index.Collection = "" }, true},
		{"zero item batch", func(c *Config) { c.Run.ItemBatchSize = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.StorePath("/data"); got != filepath.Join("/data", "newsvec.db") {
		t.Errorf("StorePath = %q", got)
	}
	cfg.Store.Path = "/abs/items.db"
	if got := cfg.StorePath("/data"); got != "/abs/items.db" {
		t.Errorf("StorePath with absolute path = %q", got)
	}
}
