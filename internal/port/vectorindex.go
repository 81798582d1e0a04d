package port

import (
	"context"

	"newsvec/internal/domain"
)

// VectorIndex is a remote store supporting nearest-neighbor search over
// embeddings plus associated metadata.
type VectorIndex interface {
	// EnsureCollection creates the backing collection if it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert adds or updates vectors and returns the accepted IDs.
	Upsert(ctx context.Context, records []domain.VectorRecord) ([]string, error)

	// Query finds the topK nearest vectors to the query vector.
	Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]domain.SearchMatch, error)

	// Delete removes vectors by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Stats returns vector count and dimension of the collection.
	Stats(ctx context.Context) (domain.IndexStats, error)
}
