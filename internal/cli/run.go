package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"newsvec/internal/adapter/splitter"
	"newsvec/internal/adapter/store"
	"newsvec/internal/usecase"
)

var runEstimateOnly bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Embed and index all pending items",
	Long: `Fetch pending items from the store, split them into chunks, generate
embeddings and upsert the vectors into the index. Items move to completed
or failed; a failed chunk never aborts its siblings.

Examples:
  newsvec run
  newsvec run --estimate   # Show cost estimate without calling the API`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runEstimateOnly, "estimate", false, "estimate cost only, make no remote calls")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := store.NewBoltStore(cfg.StorePath(rootDir))
	if err != nil {
		return fmt.Errorf("failed to open item store: %w", err)
	}
	defer st.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	index, err := buildIndex(cfg)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	docSplitter, err := splitter.NewDocumentSplitter(splitter.Config{
		ChunkSize:    cfg.Splitter.ChunkSize,
		ChunkOverlap: cfg.Splitter.ChunkOverlap,
		Separators:   cfg.Splitter.Separators,
	})
	if err != nil {
		return fmt.Errorf("failed to create splitter: %w", err)
	}

	var bar *progressbar.ProgressBar
	batch := usecase.NewBatchEmbedder(embedder, usecase.BatchEmbedderConfig{
		BatchSize:  cfg.Embedding.BatchSize,
		MaxRetries: cfg.Embedding.MaxRetries,
		BaseDelay:  time.Duration(cfg.Embedding.BaseDelaySecs) * time.Second,
		Progress: func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Embedding chunks"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWriter(os.Stderr),
				)
			}
			_ = bar.Set(done)
		},
	})

	processor := usecase.NewProcessor(st, docSplitter, embedder, index, batch, usecase.ProcessorConfig{
		ItemBatchSize:    cfg.Run.ItemBatchSize,
		MaxItemsPerRun:   cfg.Run.MaxItemsPerRun,
		Pause:            time.Duration(cfg.Run.PauseSecs) * time.Second,
		DisableSplitting: !cfg.Splitter.Enabled,
		MaxContentLength: cfg.Splitter.MaxContentLength,
	})

	if runEstimateOnly {
		items, err := st.FetchPending(cfg.Run.MaxItemsPerRun)
		if err != nil {
			return err
		}
		est := processor.EstimateCost(items)
		fmt.Printf("Pending items:    %d\n", est.TotalItems)
		fmt.Printf("Characters:       %d\n", est.TotalCharacters)
		fmt.Printf("Estimated tokens: %d\n", est.EstimatedTokens)
		fmt.Printf("Estimated cost:   $%.6f (%s, %dd)\n", est.EstimatedCostUSD, est.Model, est.Dimension)
		return nil
	}

	if err := index.EnsureCollection(ctx, embedder.Dimension()); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	start := time.Now()
	result, err := processor.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d items in %s\n", result.ItemsFetched, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  completed: %d, failed: %d\n", result.ItemsCompleted, result.ItemsFailed)
	fmt.Printf("  chunks embedded: %d, chunks failed: %d, vectors upserted: %d\n",
		result.ChunksEmbedded, result.ChunksFailed, result.VectorsUpserted)
	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}
	return nil
}
