package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"newsvec/internal/adapter/splitter"
	"newsvec/internal/domain"
	"newsvec/internal/port"
)

// Processor drives one embedding run: fetch pending items, split, embed,
// upsert vectors and move each item to completed or failed. Failures are
// per item; one bad item never aborts its siblings.
type Processor struct {
	store    port.ItemStore
	splitter port.Splitter
	embedder port.Embedder
	index    port.VectorIndex
	batch    *BatchEmbedder
	cfg      ProcessorConfig
}

type ProcessorConfig struct {
	// ItemBatchSize is how many items move to processing together.
	ItemBatchSize  int
	MaxItemsPerRun int
	// Pause between item batches, to stay under provider rate limits.
	Pause time.Duration
	// DisableSplitting embeds each item as a single truncated chunk.
	DisableSplitting bool
	// MaxContentLength bounds the whole-item chunk when splitting is
	// disabled. 0 means no bound.
	MaxContentLength int
	Sleep            func(time.Duration)
}

func NewProcessor(
	store port.ItemStore,
	spl port.Splitter,
	embedder port.Embedder,
	index port.VectorIndex,
	batch *BatchEmbedder,
	cfg ProcessorConfig,
) *Processor {
	if cfg.ItemBatchSize <= 0 {
		cfg.ItemBatchSize = 50
	}
	if cfg.MaxItemsPerRun <= 0 {
		cfg.MaxItemsPerRun = 1000
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Processor{
		store:    store,
		splitter: spl,
		embedder: embedder,
		index:    index,
		batch:    batch,
		cfg:      cfg,
	}
}

// RunResult reports aggregate success and failure counts for one run.
type RunResult struct {
	ItemsFetched    int
	ItemsCompleted  int
	ItemsFailed     int
	ChunksEmbedded  int
	ChunksFailed    int
	VectorsUpserted int
	Errors          []string
}

func (p *Processor) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	items, err := p.store.FetchPending(p.cfg.MaxItemsPerRun)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending items: %w", err)
	}
	result.ItemsFetched = len(items)
	if len(items) == 0 {
		return result, nil
	}

	for start := 0; start < len(items); start += p.cfg.ItemBatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := start + p.cfg.ItemBatchSize
		if end > len(items) {
			end = len(items)
		}

		p.processBatch(ctx, items[start:end], result)

		if end < len(items) && p.cfg.Pause > 0 {
			p.cfg.Sleep(p.cfg.Pause)
		}
	}

	return result, nil
}

func (p *Processor) processBatch(ctx context.Context, items []domain.NewsItem, result *RunResult) {
	ids := make([]string, len(items))
	byID := make(map[string]domain.NewsItem, len(items))
	for i, item := range items {
		ids[i] = item.ID
		byID[item.ID] = item
	}

	if err := p.store.UpdateStatus(ids, domain.StatusProcessing, nil); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to mark batch processing: %v", err))
		return
	}

	var chunks []domain.Chunk
	var activeIDs []string
	var emptyIDs []string
	for _, item := range items {
		cs, err := p.chunksFor(item)
		if err != nil || len(cs) == 0 {
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to split item %s: %v", item.ID, err))
			}
			emptyIDs = append(emptyIDs, item.ID)
			continue
		}
		chunks = append(chunks, cs...)
		activeIDs = append(activeIDs, item.ID)
	}

	if len(emptyIDs) > 0 {
		if err := p.store.UpdateStatus(emptyIDs, domain.StatusFailed, nil); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to mark empty items failed: %v", err))
		}
		result.ItemsFailed += len(emptyIDs)
	}
	if len(chunks) == 0 {
		return
	}

	outcome, embedErr := p.batch.EmbedChunks(ctx, chunks)
	result.ChunksEmbedded += len(outcome.Results)
	result.ChunksFailed += outcome.FailedCount()
	if embedErr != nil {
		// Cancelled mid-batch: whatever was not finished goes back to pending.
		p.revert(activeIDs, result)
		return
	}
	if len(outcome.Results) == 0 {
		p.revert(activeIDs, result)
		return
	}

	records := make([]domain.VectorRecord, 0, len(outcome.Results))
	for _, res := range outcome.Results {
		records = append(records, vectorRecord(byID[res.Chunk.ItemID], res))
	}

	accepted, err := p.index.Upsert(ctx, records)
	if err != nil || len(accepted) == 0 {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("vector upsert failed: %v", err))
		}
		p.revert(activeIDs, result)
		return
	}
	result.VectorsUpserted += len(accepted)

	acceptedSet := make(map[string]bool, len(accepted))
	for _, id := range accepted {
		acceptedSet[id] = true
	}

	// The first accepted chunk of each item becomes its representative
	// vector ID.
	repByItem := make(map[string]string)
	for _, res := range outcome.Results {
		if !acceptedSet[res.Chunk.ChunkID] {
			continue
		}
		if _, ok := repByItem[res.Chunk.ItemID]; !ok {
			repByItem[res.Chunk.ItemID] = res.Chunk.ChunkID
		}
	}

	var completedIDs, vectorIDs, failedIDs []string
	for _, id := range activeIDs {
		if rep, ok := repByItem[id]; ok {
			completedIDs = append(completedIDs, id)
			vectorIDs = append(vectorIDs, rep)
		} else {
			failedIDs = append(failedIDs, id)
		}
	}

	if len(completedIDs) > 0 {
		if err := p.store.UpdateStatus(completedIDs, domain.StatusCompleted, vectorIDs); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to mark items completed: %v", err))
		}
		if err := p.store.SetModel(completedIDs, p.embedder.ModelName()); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to record model: %v", err))
		}
		result.ItemsCompleted += len(completedIDs)
	}
	if len(failedIDs) > 0 {
		if err := p.store.UpdateStatus(failedIDs, domain.StatusFailed, nil); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to mark items failed: %v", err))
		}
		result.ItemsFailed += len(failedIDs)
	}
}

func (p *Processor) revert(ids []string, result *RunResult) {
	if len(ids) == 0 {
		return
	}
	if err := p.store.UpdateStatus(ids, domain.StatusPending, nil); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to revert items to pending: %v", err))
	}
}

func (p *Processor) chunksFor(item domain.NewsItem) ([]domain.Chunk, error) {
	if !p.cfg.DisableSplitting {
		return p.splitter.Split(item, item.Content)
	}

	content := p.prepareWhole(item)
	if content == "" {
		return nil, nil
	}
	return []domain.Chunk{{
		ChunkID:   item.ID + "_full",
		ItemID:    item.ID,
		Index:     0,
		Text:      content,
		CharStart: 0,
		CharEnd:   len(content) - 1,
		LineStart: 1,
		LineEnd:   strings.Count(content, "\n") + 1,
	}}, nil
}

// prepareWhole flattens an item's content into a single embedding text,
// truncated to MaxContentLength with a trailing ellipsis.
func (p *Processor) prepareWhole(item domain.NewsItem) string {
	content := splitter.CleanForEmbedding(item.Content)
	if content == "" {
		return ""
	}
	if max := p.cfg.MaxContentLength; max > 0 && len(content) > max {
		for max > 0 && !utf8.RuneStart(content[max]) {
			max--
		}
		content = strings.TrimSpace(content[:max]) + "..."
	}
	return content
}

func vectorRecord(item domain.NewsItem, res domain.EmbeddingResult) domain.VectorRecord {
	published := ""
	if !item.PublishedAt.IsZero() {
		published = item.PublishedAt.UTC().Format(time.RFC3339)
	}
	return domain.VectorRecord{
		ID:     res.Chunk.ChunkID,
		Vector: res.Vector,
		Payload: map[string]any{
			"article_title":          item.Title,
			"article_url":            item.URL,
			"article_published_time": published,
			"news_id":                item.ID,

			"text":        res.Chunk.Text,
			"chunk_index": res.Chunk.Index,

			"loc.lines.from": res.Chunk.LineStart,
			"loc.lines.to":   res.Chunk.LineEnd,
			"loc.chars.from": res.Chunk.CharStart,
			"loc.chars.to":   res.Chunk.CharEnd,

			"chunk_length": len(res.Chunk.Text),
			"source":       item.Source,
		},
	}
}

// CostEstimate approximates the embedding cost of a set of items.
type CostEstimate struct {
	TotalItems       int
	TotalCharacters  int
	EstimatedTokens  int
	EstimatedCostUSD float64
	Model            string
	Dimension        int
}

// EstimateCost sizes a run before making any remote calls. Roughly 1.5
// tokens per character, priced per thousand tokens.
func (p *Processor) EstimateCost(items []domain.NewsItem) CostEstimate {
	const pricePer1kTokens = 0.00001

	totalChars := 0
	for _, item := range items {
		totalChars += len(p.prepareWhole(item))
	}
	tokens := int(float64(totalChars) * 1.5)

	return CostEstimate{
		TotalItems:       len(items),
		TotalCharacters:  totalChars,
		EstimatedTokens:  tokens,
		EstimatedCostUSD: float64(tokens) / 1000 * pricePer1kTokens,
		Model:            p.embedder.ModelName(),
		Dimension:        p.embedder.Dimension(),
	}
}
