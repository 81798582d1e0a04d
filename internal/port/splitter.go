package port

import "newsvec/internal/domain"

type Splitter interface {
	Split(item domain.NewsItem, content string) ([]domain.Chunk, error)
}
