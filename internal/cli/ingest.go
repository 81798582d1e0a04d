package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"newsvec/internal/adapter/fs"
	"newsvec/internal/adapter/store"
	"newsvec/internal/usecase"
)

var (
	ingestSource   string
	ingestIncludes []string
	ingestExcludes []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Load news files as pending items",
	Long: `Scan a directory for news files and store each one as a pending item.
Items are embedded and indexed later by 'newsvec run'.

Examples:
  newsvec ingest ./articles
  newsvec ingest ./dump --source 36kr --include '**/*.txt'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source label stored with each item")
	ingestCmd.Flags().StringSliceVar(&ingestIncludes, "include", nil, "glob patterns of files to ingest")
	ingestCmd.Flags().StringSliceVar(&ingestExcludes, "exclude", nil, "glob patterns of files to skip")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	st, err := store.NewBoltStore(cfg.StorePath(rootDir))
	if err != nil {
		return fmt.Errorf("failed to open item store: %w", err)
	}
	defer st.Close()

	walker := fs.NewWalker(ingestIncludes, ingestExcludes)
	ingestor := usecase.NewIngestor(st, walker, ingestSource)

	fmt.Printf("Scanning %s...\n", path)
	result, err := ingestor.Ingest(path)
	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d files: %d new items, %d skipped\n",
		result.FilesScanned, result.ItemsCreated, result.FilesSkipped)
	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}
	return nil
}
