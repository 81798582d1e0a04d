package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	queryText   string
	queryTopK   int
	querySource string
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search indexed chunks by similarity",
	Long: `Embed the query text and search the vector index for the most similar
chunks, printing article titles and line provenance.

Examples:
  newsvec query -q "semiconductor export controls"
  newsvec query -q "ipo filing" --top-k 5 --source 36kr --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 10, "number of results")
	queryCmd.Flags().StringVar(&querySource, "source", "", "only match chunks from this source")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	index, err := buildIndex(cfg)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	vector, err := embedder.EmbedOne(ctx, queryText)
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	var filter map[string]any
	if querySource != "" {
		filter = map[string]any{"source": querySource}
	}

	matches, err := index.Query(ctx, vector, queryTopK, filter)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, m := range matches {
		title, _ := m.Payload["article_title"].(string)
		text, _ := m.Payload["text"].(string)
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Printf("%2d. [%.4f] %s (lines %v-%v)\n", i+1, m.Score, title,
			m.Payload["loc.lines.from"], m.Payload["loc.lines.to"])
		fmt.Printf("    %s\n", text)
	}
	return nil
}
