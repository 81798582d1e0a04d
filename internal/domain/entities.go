package domain

import "time"

// EmbedStatus tracks where a news item is in the embedding workflow.
type EmbedStatus string

const (
	StatusPending    EmbedStatus = "pending"
	StatusProcessing EmbedStatus = "processing"
	StatusCompleted  EmbedStatus = "completed"
	StatusFailed     EmbedStatus = "failed"
)

// NewsItem is one source text unit supplied by the caller.
type NewsItem struct {
	ID          string
	Title       string
	URL         string
	Source      string
	Content     string
	PublishedAt time.Time
	CreatedAt   time.Time
	Status      EmbedStatus
	VectorID    string
	Model       string
	EmbeddedAt  time.Time
}

// Chunk is a bounded span of normalized text with provenance offsets.
// CharStart/CharEnd are byte offsets into the normalized text, CharEnd
// inclusive. LineStart/LineEnd are 1-based. With overlap enabled the Text
// carries a prefix copied from the previous chunk; the offsets always
// describe the chunk's own pre-overlap span.
type Chunk struct {
	ChunkID   string
	ItemID    string
	Index     int
	Text      string
	CharStart int
	CharEnd   int
	LineStart int
	LineEnd   int
}

// EmbeddingResult pairs a chunk with its embedding vector.
type EmbeddingResult struct {
	Chunk  Chunk
	Vector []float32
}

// VectorRecord is what gets upserted into the vector index.
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchMatch is one ranked result from a similarity query.
type SearchMatch struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// IndexStats summarizes the remote vector index.
type IndexStats struct {
	VectorCount int
	Dimension   int
}
