package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"newsvec/internal/domain"
)

// maxPayloadText bounds the chunk text stored in a point payload. Hosted
// vector stores cap metadata fields around 40KB per field.
const maxPayloadText = 40000

const upsertBatchSize = 100

// QdrantIndex is a minimal REST client to a Qdrant collection using cosine
// distance. Point IDs are UUIDs derived from the chunk ID; the original
// chunk ID is kept in the payload.
type QdrantIndex struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewQdrantIndex(cfg Config) (*QdrantIndex, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant URL is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection name is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantIndex{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension: %d", dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant answers 200 when the collection already exists with the same
	// schema, 409 when it exists with a different one.
	return q.putJSON(ctx, fmt.Sprintf("%s/collections/%s", q.url, q.collection), body)
}

// Upsert writes records in batches and returns the IDs of accepted records.
// A failed batch is skipped, not fatal; remaining batches still go through.
func (q *QdrantIndex) Upsert(ctx context.Context, records []domain.VectorRecord) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var accepted []string
	var lastErr error
	for i := 0; i < len(records); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		points := make([]map[string]any, len(batch))
		for j, rec := range batch {
			payload := make(map[string]any, len(rec.Payload)+1)
			for k, v := range rec.Payload {
				if k == "text" {
					if s, ok := v.(string); ok {
						v = truncateText(s, maxPayloadText)
					}
				}
				payload[k] = v
			}
			payload["chunk_id"] = rec.ID

			points[j] = map[string]any{
				"id":      pointID(rec.ID),
				"vector":  rec.Vector,
				"payload": payload,
			}
		}

		body := map[string]any{"points": points}
		url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, q.collection)
		if err := q.putJSON(ctx, url, body); err != nil {
			lastErr = err
			continue
		}
		for _, rec := range batch {
			accepted = append(accepted, rec.ID)
		}
	}

	if len(accepted) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return accepted, nil
}

func (q *QdrantIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]domain.SearchMatch, error) {
	if topK <= 0 {
		topK = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if len(filter) > 0 {
		must := make([]map[string]any, 0, len(filter))
		for key, value := range filter {
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			})
		}
		req["filter"] = map[string]any{"must": must}
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", q.url, q.collection)
	if err := q.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}

	matches := make([]domain.SearchMatch, 0, len(resp.Result))
	for _, r := range resp.Result {
		id := ""
		if v, ok := r.Payload["chunk_id"].(string); ok {
			id = v
		}
		matches = append(matches, domain.SearchMatch{
			ID:      id,
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return matches, nil
}

func (q *QdrantIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = pointID(id)
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", q.url, q.collection)
	return q.postJSON(ctx, url, body, nil)
}

func (q *QdrantIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s", q.url, q.collection)
	if err := q.getJSON(ctx, url, &resp); err != nil {
		return domain.IndexStats{}, err
	}
	return domain.IndexStats{
		VectorCount: resp.Result.PointsCount,
		Dimension:   resp.Result.Config.Params.Vectors.Size,
	}, nil
}

// pointID derives a stable UUID from a chunk ID, since Qdrant point IDs
// must be integers or UUIDs.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// truncateText bounds s to limit bytes without cutting a multi-byte rune.
func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func (q *QdrantIndex) putJSON(ctx context.Context, url string, body any) error {
	return q.send(ctx, http.MethodPut, url, body, nil)
}

func (q *QdrantIndex) postJSON(ctx context.Context, url string, body any, out any) error {
	return q.send(ctx, http.MethodPost, url, body, out)
}

func (q *QdrantIndex) getJSON(ctx context.Context, url string, out any) error {
	return q.send(ctx, http.MethodGet, url, nil, out)
}

func (q *QdrantIndex) send(ctx context.Context, method, url string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
