package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"newsvec/internal/domain"
)

var (
	bucketItems  = []byte("items")
	bucketStatus = []byte("status")
)

// BoltStore keeps news items and their embedding status in a local bbolt
// file. The status bucket is an index keyed "{status}/{id}" for cheap
// per-status scans.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketItems, bucketStatus} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type itemMeta struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Content     string `json:"content"`
	PublishedAt int64  `json:"published_at"`
	CreatedAt   int64  `json:"created_at"`
	Status      string `json:"status"`
	VectorID    string `json:"vector_id,omitempty"`
	Model       string `json:"model,omitempty"`
	EmbeddedAt  int64  `json:"embedded_at,omitempty"`
}

func statusKey(status domain.EmbedStatus, id string) []byte {
	return []byte(string(status) + "/" + id)
}

func (s *BoltStore) PutItem(item domain.NewsItem) error {
	if item.ID == "" {
		return fmt.Errorf("item ID is required")
	}
	if item.Status == "" {
		item.Status = domain.StatusPending
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if prev := tx.Bucket(bucketItems).Get([]byte(item.ID)); prev != nil {
			var old itemMeta
			if err := json.Unmarshal(prev, &old); err == nil {
				if err := tx.Bucket(bucketStatus).Delete(statusKey(domain.EmbedStatus(old.Status), item.ID)); err != nil {
					return err
				}
			}
		}
		data, err := json.Marshal(toMeta(item))
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketItems).Put([]byte(item.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketStatus).Put(statusKey(item.Status, item.ID), nil)
	})
}

func (s *BoltStore) GetItem(id string) (domain.NewsItem, error) {
	var item domain.NewsItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketItems).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("item not found: %s", id)
		}
		var meta itemMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		item = fromMeta(id, meta)
		return nil
	})
	return item, err
}

func (s *BoltStore) ListItems() ([]domain.NewsItem, error) {
	var items []domain.NewsItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketItems).ForEach(func(k, v []byte) error {
			var meta itemMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			items = append(items, fromMeta(string(k), meta))
			return nil
		})
	})
	return items, err
}

// FetchPending returns up to limit pending items, oldest first.
func (s *BoltStore) FetchPending(limit int) ([]domain.NewsItem, error) {
	var items []domain.NewsItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		itemsBucket := tx.Bucket(bucketItems)
		c := tx.Bucket(bucketStatus).Cursor()
		prefix := []byte(string(domain.StatusPending) + "/")
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			id := string(k[len(prefix):])
			data := itemsBucket.Get([]byte(id))
			if data == nil {
				continue
			}
			var meta itemMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				return err
			}
			items = append(items, fromMeta(id, meta))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// UpdateStatus moves the given items to status. vectorIDs, when non-empty,
// is applied positionally as each item's representative vector ID. Moving
// to completed records the embedding timestamp.
func (s *BoltStore) UpdateStatus(ids []string, status domain.EmbedStatus, vectorIDs []string) error {
	now := time.Now().Unix()
	return s.db.Update(func(tx *bbolt.Tx) error {
		itemsBucket := tx.Bucket(bucketItems)
		statusBucket := tx.Bucket(bucketStatus)
		for i, id := range ids {
			data := itemsBucket.Get([]byte(id))
			if data == nil {
				continue
			}
			var meta itemMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				return err
			}

			if err := statusBucket.Delete(statusKey(domain.EmbedStatus(meta.Status), id)); err != nil {
				return err
			}

			meta.Status = string(status)
			if i < len(vectorIDs) {
				meta.VectorID = vectorIDs[i]
			}
			if status == domain.StatusCompleted {
				meta.EmbeddedAt = now
			}

			updated, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := itemsBucket.Put([]byte(id), updated); err != nil {
				return err
			}
			if err := statusBucket.Put(statusKey(status, id), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetModel records the embedding model name on the given items.
func (s *BoltStore) SetModel(ids []string, model string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		itemsBucket := tx.Bucket(bucketItems)
		for _, id := range ids {
			data := itemsBucket.Get([]byte(id))
			if data == nil {
				continue
			}
			var meta itemMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				return err
			}
			meta.Model = model
			updated, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := itemsBucket.Put([]byte(id), updated); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) CountByStatus() (map[domain.EmbedStatus]int, error) {
	counts := make(map[domain.EmbedStatus]int)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketStatus).ForEach(func(k, _ []byte) error {
			for i := 0; i < len(k); i++ {
				if k[i] == '/' {
					counts[domain.EmbedStatus(k[:i])]++
					break
				}
			}
			return nil
		})
	})
	return counts, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func toMeta(item domain.NewsItem) itemMeta {
	meta := itemMeta{
		Title:     item.Title,
		URL:       item.URL,
		Source:    item.Source,
		Content:   item.Content,
		CreatedAt: item.CreatedAt.Unix(),
		Status:    string(item.Status),
		VectorID:  item.VectorID,
		Model:     item.Model,
	}
	if !item.PublishedAt.IsZero() {
		meta.PublishedAt = item.PublishedAt.Unix()
	}
	if !item.EmbeddedAt.IsZero() {
		meta.EmbeddedAt = item.EmbeddedAt.Unix()
	}
	return meta
}

func fromMeta(id string, meta itemMeta) domain.NewsItem {
	item := domain.NewsItem{
		ID:        id,
		Title:     meta.Title,
		URL:       meta.URL,
		Source:    meta.Source,
		Content:   meta.Content,
		CreatedAt: time.Unix(meta.CreatedAt, 0),
		Status:    domain.EmbedStatus(meta.Status),
		VectorID:  meta.VectorID,
		Model:     meta.Model,
	}
	if meta.PublishedAt != 0 {
		item.PublishedAt = time.Unix(meta.PublishedAt, 0)
	}
	if meta.EmbeddedAt != 0 {
		item.EmbeddedAt = time.Unix(meta.EmbeddedAt, 0)
	}
	return item
}
