package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"newsvec/internal/adapter/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity of the store, embedder and vector index",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()
	failures := 0

	st, err := store.NewBoltStore(cfg.StorePath(rootDir))
	if err != nil {
		fmt.Printf("%s item store: %v\n", fail("✗"), err)
		failures++
	} else {
		counts, err := st.CountByStatus()
		st.Close()
		if err != nil {
			fmt.Printf("%s item store: %v\n", fail("✗"), err)
			failures++
		} else {
			total := 0
			for _, n := range counts {
				total += n
			}
			fmt.Printf("%s item store: %d items\n", ok("✓"), total)
		}
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		fmt.Printf("%s embedder: %v\n", fail("✗"), err)
		failures++
	} else {
		vector, err := embedder.EmbedOne(ctx, "connection test")
		switch {
		case err != nil:
			fmt.Printf("%s embedder (%s): %v\n", fail("✗"), embedder.ModelName(), err)
			failures++
		case len(vector) != embedder.Dimension():
			fmt.Printf("%s embedder (%s): got %d dimensions, want %d\n",
				fail("✗"), embedder.ModelName(), len(vector), embedder.Dimension())
			failures++
		default:
			fmt.Printf("%s embedder (%s): %d dimensions\n", ok("✓"), embedder.ModelName(), len(vector))
		}
	}

	index, err := buildIndex(cfg)
	if err != nil {
		fmt.Printf("%s vector index: %v\n", fail("✗"), err)
		failures++
	} else {
		stats, err := index.Stats(ctx)
		if err != nil {
			fmt.Printf("%s vector index: %v\n", fail("✗"), err)
			failures++
		} else {
			fmt.Printf("%s vector index (%s): %d vectors, dimension %d\n",
				ok("✓"), cfg.Index.Collection, stats.VectorCount, stats.Dimension)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	return nil
}
