package store

import (
	"path/filepath"
	"testing"
	"time"

	"newsvec/internal/domain"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGetItem(t *testing.T) {
	s := newTestStore(t)

	item := domain.NewsItem{
		ID:          "n1",
		Title:       "A headline",
		URL:         "https://example.com/a",
		Source:      "wire",
		Content:     "Body text.",
		PublishedAt: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		CreatedAt:   time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := s.PutItem(item); err != nil {
		t.Fatalf("PutItem: %v", err)
	}

	got, err := s.GetItem("n1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Title != item.Title || got.URL != item.URL || got.Content != item.Content {
		t.Errorf("GetItem = %+v, want fields of %+v", got, item)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("status = %s, want default pending", got.Status)
	}
	if !got.PublishedAt.Equal(item.PublishedAt) {
		t.Errorf("PublishedAt = %v, want %v", got.PublishedAt, item.PublishedAt)
	}
}

func TestPutItemRequiresID(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutItem(domain.NewsItem{Title: "no id"}); err == nil {
		t.Error("PutItem accepted an item without ID")
	}
}

func TestGetItemNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetItem("missing"); err == nil {
		t.Error("GetItem returned no error for a missing item")
	}
}

func TestFetchPendingOldestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		err := s.PutItem(domain.NewsItem{
			ID:        id,
			Content:   "body",
			CreatedAt: base.Add(time.Duration(2-i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("PutItem(%s): %v", id, err)
		}
	}

	items, err := s.FetchPending(10)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	// c was created last, so the order is b, a, c.
	wantOrder := []string{"b", "a", "c"}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Errorf("item %d = %s, want %s", i, items[i].ID, want)
		}
	}

	limited, err := s.FetchPending(2)
	if err != nil {
		t.Fatalf("FetchPending(2): %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "b" || limited[1].ID != "a" {
		t.Errorf("FetchPending(2) = %v, want [b a]", limited)
	}
}

func TestFetchPendingSkipsOtherStatuses(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutItem(domain.NewsItem{ID: "p", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutItem(domain.NewsItem{ID: "d", Content: "x", Status: domain.StatusCompleted}); err != nil {
		t.Fatal(err)
	}

	items, err := s.FetchPending(10)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	if len(items) != 1 || items[0].ID != "p" {
		t.Errorf("FetchPending = %v, want only the pending item", items)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"a", "b"} {
		if err := s.PutItem(domain.NewsItem{ID: id, Content: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	err := s.UpdateStatus([]string{"a", "b"}, domain.StatusCompleted, []string{"a_0", "b_0"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	for _, id := range []string{"a", "b"} {
		item, err := s.GetItem(id)
		if err != nil {
			t.Fatalf("GetItem(%s): %v", id, err)
		}
		if item.Status != domain.StatusCompleted {
			t.Errorf("item %s status = %s, want completed", id, item.Status)
		}
		if item.VectorID != id+"_0" {
			t.Errorf("item %s VectorID = %q, want %s_0", id, item.VectorID, id)
		}
		if item.EmbeddedAt.IsZero() {
			t.Errorf("item %s EmbeddedAt not set", id)
		}
	}

	// The status index moved along with the items.
	pending, err := s.FetchPending(10)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("still %d pending items after completion", len(pending))
	}

	counts, err := s.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domain.StatusCompleted] != 2 || counts[domain.StatusPending] != 0 {
		t.Errorf("counts = %v, want 2 completed", counts)
	}
}

func TestUpdateStatusIgnoresMissingIDs(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutItem(domain.NewsItem{ID: "a", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateStatus([]string{"a", "ghost"}, domain.StatusFailed, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	item, err := s.GetItem("a")
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != domain.StatusFailed {
		t.Errorf("status = %s, want failed", item.Status)
	}
}

func TestSetModel(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutItem(domain.NewsItem{ID: "a", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetModel([]string{"a"}, "text-embedding-004"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	item, err := s.GetItem("a")
	if err != nil {
		t.Fatal(err)
	}
	if item.Model != "text-embedding-004" {
		t.Errorf("Model = %q, want text-embedding-004", item.Model)
	}
}

func TestPutItemReplacesStatusKey(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutItem(domain.NewsItem{ID: "a", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateStatus([]string{"a"}, domain.StatusCompleted, nil); err != nil {
		t.Fatal(err)
	}
	// Re-ingesting the item resets it to pending without a stale index entry.
	if err := s.PutItem(domain.NewsItem{ID: "a", Content: "updated"}); err != nil {
		t.Fatal(err)
	}

	counts, err := s.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domain.StatusPending] != 1 || counts[domain.StatusCompleted] != 0 {
		t.Errorf("counts = %v, want a single pending entry", counts)
	}
}

func TestListItems(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.PutItem(domain.NewsItem{ID: id, Content: "x"}); err != nil {
			t.Fatal(err)
		}
	}
	items, err := s.ListItems()
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("got %d items, want 3", len(items))
	}
}
