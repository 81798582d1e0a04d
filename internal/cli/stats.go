package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"newsvec/internal/adapter/store"
	"newsvec/internal/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show item statuses and index size",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := store.NewBoltStore(cfg.StorePath(rootDir))
	if err != nil {
		return fmt.Errorf("failed to open item store: %w", err)
	}
	defer st.Close()

	counts, err := st.CountByStatus()
	if err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}

	fmt.Println("Items:")
	total := 0
	for _, status := range []domain.EmbedStatus{
		domain.StatusPending,
		domain.StatusProcessing,
		domain.StatusCompleted,
		domain.StatusFailed,
	} {
		fmt.Printf("  %-12s %d\n", status, counts[status])
		total += counts[status]
	}
	fmt.Printf("  %-12s %d\n", "total", total)

	index, err := buildIndex(cfg)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	stats, err := index.Stats(cmd.Context())
	if err != nil {
		fmt.Printf("Index: unavailable (%v)\n", err)
		return nil
	}
	fmt.Printf("Index: %d vectors, dimension %d\n", stats.VectorCount, stats.Dimension)
	return nil
}
