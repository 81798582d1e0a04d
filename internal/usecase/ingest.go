package usecase

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"newsvec/internal/adapter/fs"
	"newsvec/internal/adapter/splitter"
	"newsvec/internal/domain"
	"newsvec/internal/port"
)

// Ingestor loads news files from disk into the item store as pending items.
type Ingestor struct {
	store  port.ItemStore
	walker *fs.Walker
	source string
}

func NewIngestor(store port.ItemStore, walker *fs.Walker, source string) *Ingestor {
	return &Ingestor{
		store:  store,
		walker: walker,
		source: source,
	}
}

type IngestResult struct {
	FilesScanned int
	ItemsCreated int
	FilesSkipped int
	Errors       []string
}

// Ingest walks root and stores one pending item per non-empty file. The
// item title comes from the file's first non-blank line; the file path is
// kept as the item URL for provenance. Files already ingested (same URL)
// are skipped.
func (g *Ingestor) Ingest(root string) (*IngestResult, error) {
	result := &IngestResult{}

	files, err := g.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	result.FilesScanned = len(files)
	if len(files) == 0 {
		return result, nil
	}

	existing, err := g.store.ListItems()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing items: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		if item.URL != "" {
			seen[item.URL] = true
		}
	}

	for _, file := range files {
		url := "file://" + file.Path
		if seen[url] {
			result.FilesSkipped++
			continue
		}

		content, err := fs.ReadFile(file.Path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read %s: %v", file.Path, err))
			continue
		}
		if strings.TrimSpace(content) == "" {
			result.FilesSkipped++
			continue
		}

		item := domain.NewsItem{
			ID:          uuid.NewString(),
			Title:       titleOf(content, file.Path),
			URL:         url,
			Source:      g.source,
			Content:     content,
			PublishedAt: time.Unix(file.ModTime, 0),
			CreatedAt:   time.Now(),
			Status:      domain.StatusPending,
		}
		if err := g.store.PutItem(item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to store %s: %v", file.Path, err))
			continue
		}
		seen[url] = true
		result.ItemsCreated++
	}

	return result, nil
}

// titleOf uses the first non-blank line as the title, capped at 120 bytes,
// falling back to the file name.
func titleOf(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(splitter.CleanForEmbedding(line))
		if line == "" {
			continue
		}
		if len(line) > 120 {
			cut := 120
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			line = strings.TrimSpace(line[:cut])
		}
		return line
	}
	return filepath.Base(path)
}
