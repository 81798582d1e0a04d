package usecase

import (
	"context"
	"time"

	"newsvec/internal/domain"
	"newsvec/internal/port"
)

// BatchEmbedder partitions chunks into fixed-size batches and embeds each
// chunk with per-chunk retry. A chunk that exhausts its retries is dropped
// from the results; it never aborts its batch or the run.
type BatchEmbedder struct {
	embedder   port.Embedder
	batchSize  int
	maxRetries int
	baseDelay  time.Duration
	sleep      func(time.Duration)
	progress   func(done, total int)
}

// BatchEmbedderConfig configures retry and batching policy. Sleep defaults
// to time.Sleep; tests inject their own to avoid real delays.
type BatchEmbedderConfig struct {
	BatchSize  int
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      func(time.Duration)
	Progress   func(done, total int)
}

func NewBatchEmbedder(embedder port.Embedder, cfg BatchEmbedderConfig) *BatchEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &BatchEmbedder{
		embedder:   embedder,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		sleep:      cfg.Sleep,
		progress:   cfg.Progress,
	}
}

// EmbedOutcome carries partial success as data: successful results in
// input order plus the IDs of chunks that failed every retry.
type EmbedOutcome struct {
	Results []domain.EmbeddingResult
	Failed  []string
}

func (o *EmbedOutcome) FailedCount() int {
	return len(o.Failed)
}

// EmbedChunks embeds the chunks in order. Empty input makes no remote
// calls. Cancellation stops between calls and returns the partial outcome
// alongside the context error.
func (b *BatchEmbedder) EmbedChunks(ctx context.Context, chunks []domain.Chunk) (*EmbedOutcome, error) {
	outcome := &EmbedOutcome{}
	if len(chunks) == 0 {
		return outcome, nil
	}

	done := 0
	for start := 0; start < len(chunks); start += b.batchSize {
		end := start + b.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		for _, chunk := range chunks[start:end] {
			if err := ctx.Err(); err != nil {
				return outcome, err
			}

			vector, err := b.embedWithRetry(ctx, chunk.Text)
			if err != nil {
				outcome.Failed = append(outcome.Failed, chunk.ChunkID)
			} else {
				outcome.Results = append(outcome.Results, domain.EmbeddingResult{
					Chunk:  chunk,
					Vector: vector,
				})
			}

			done++
			if b.progress != nil {
				b.progress(done, len(chunks))
			}
		}
	}

	return outcome, nil
}

// embedWithRetry makes up to maxRetries attempts with exponential backoff:
// baseDelay + 2^attempt seconds, attempt 0-based.
func (b *BatchEmbedder) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < b.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vector, err := b.embedder.EmbedOne(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		if attempt < b.maxRetries-1 {
			b.sleep(b.baseDelay + time.Duration(1<<attempt)*time.Second)
		}
	}
	return nil, lastErr
}
