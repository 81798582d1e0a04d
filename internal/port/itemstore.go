package port

import "newsvec/internal/domain"

// ItemStore persists news items and their embedding status.
type ItemStore interface {
	PutItem(item domain.NewsItem) error

	GetItem(id string) (domain.NewsItem, error)

	ListItems() ([]domain.NewsItem, error)

	// FetchPending returns up to limit pending items, oldest first.
	FetchPending(limit int) ([]domain.NewsItem, error)

	// UpdateStatus sets the status for the given item IDs. When vectorIDs
	// is non-empty it is applied positionally as the representative vector
	// ID for each item.
	UpdateStatus(ids []string, status domain.EmbedStatus, vectorIDs []string) error

	// SetModel records the embedding model name on the given items.
	SetModel(ids []string, model string) error

	CountByStatus() (map[domain.EmbedStatus]int, error)

	Close() error
}
