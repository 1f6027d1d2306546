package storage

import (
	"context"
	"rssaggregator/internal/domain"
)

// SnapshotStore определяет общий интерфейс для сохранения снимков агрегированной ленты.
// Хранит только последний сгенерированный документ.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, doc *domain.Document) error
	Close()
}
