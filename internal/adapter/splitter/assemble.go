package splitter

import (
	"fmt"
	"strings"

	"newsvec/internal/domain"
)

// DocumentSplitter turns a news item's content into chunk records with
// stable IDs and line/char provenance.
type DocumentSplitter struct {
	rec *RecursiveSplitter
}

func NewDocumentSplitter(cfg Config) (*DocumentSplitter, error) {
	rec, err := NewRecursiveSplitter(cfg)
	if err != nil {
		return nil, err
	}
	return &DocumentSplitter{rec: rec}, nil
}

// Split normalizes content, splits it and assembles ordered chunks.
// Blank segments are dropped; indices are dense over the kept chunks and
// chunk IDs are "{itemID}_{index}". Offsets refer to the normalized text
// and never include the overlap prefix.
func (d *DocumentSplitter) Split(item domain.NewsItem, content string) ([]domain.Chunk, error) {
	text := Normalize(content)
	if text == "" {
		return nil, nil
	}

	lines := newLineMap(text)
	segments, fromStride := d.rec.segment(text, d.rec.separators)

	var chunks []domain.Chunk
	searchFrom := 0
	prevStart := -1
	for _, seg := range segments {
		trimmed := strings.TrimSpace(seg)
		if trimmed == "" {
			continue
		}
		start := locate(text, trimmed, searchFrom, prevStart)
		if start < 0 {
			continue
		}
		end := start + len(trimmed) - 1

		idx := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ChunkID:   fmt.Sprintf("%s_%d", item.ID, idx),
			ItemID:    item.ID,
			Index:     idx,
			Text:      trimmed,
			CharStart: start,
			CharEnd:   end,
			LineStart: lines.lineOf(start),
			LineEnd:   lines.lineOf(end),
		})
		prevStart = start
		searchFrom = end + 1
	}

	// Overlap is injected once, after location, so a chunk's offsets stay
	// those of its own span. Stride windows already overlap by construction.
	if !fromStride && d.rec.chunkOverlap > 0 && len(chunks) > 1 {
		for i := len(chunks) - 1; i >= 1; i-- {
			chunks[i].Text = overlapTail(chunks[i-1].Text, d.rec.chunkOverlap) + chunks[i].Text
		}
	}

	return chunks, nil
}

// locate finds the first occurrence of seg at or after from. Searching
// forward from the previous chunk's end keeps a repeated sentence from
// matching an earlier duplicate. Stride windows start inside the previous
// span, so a miss retries from just past the previous start.
func locate(text, seg string, from, prevStart int) int {
	if from <= len(text) {
		if i := strings.Index(text[from:], seg); i >= 0 {
			return from + i
		}
	}
	if prevStart >= 0 && prevStart+1 < from {
		if i := strings.Index(text[prevStart+1:], seg); i >= 0 {
			return prevStart + 1 + i
		}
	}
	return -1
}
