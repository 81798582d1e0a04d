package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"newsvec/config"
	"newsvec/internal/adapter/embedding"
	"newsvec/internal/adapter/vectorindex"
	"newsvec/internal/port"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "newsvec",
	Short: "News embedding pipeline - chunk, embed and index news for retrieval",
	Long: `newsvec ingests news articles, splits them into overlapping chunks with
line/char provenance, embeds each chunk via a remote provider and upserts
the vectors into a vector index for similarity search.

Example usage:
  newsvec ingest ./articles      # Load news files as pending items
  newsvec run                    # Embed and index all pending items
  newsvec query -q "chip export" # Search indexed chunks
  newsvec stats                  # Item statuses and index size`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./newsvec.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "openai":
		if e.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL)
		}
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model)
	case "gemini":
		return embedding.NewGeminiEmbedder(e.APIKeyEnv, e.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL)
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", e.Provider)
	}
}

func buildIndex(cfg *config.Config) (port.VectorIndex, error) {
	return vectorindex.NewQdrantIndex(vectorindex.Config{
		URL:        cfg.Index.URL,
		APIKey:     os.Getenv(cfg.Index.APIKeyEnv),
		Collection: cfg.Index.Collection,
		Timeout:    time.Duration(cfg.Index.TimeoutSecs) * time.Second,
	})
}
