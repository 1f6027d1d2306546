package usecase

import (
	"context"
	"io"
	"rssaggregator/internal/domain"
)

// FeedFetcher определяет интерфейс для загрузки данных RSS-лент из внешних источников.
// Возвращает io.ReadCloser который должен быть закрыт после использования.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// FeedParser определяет интерфейс для парсинга RSS-данных в доменную модель.
type FeedParser interface {
	Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error)
}

// FeedFormatter сериализует упорядоченные новости в итоговый документ.
type FeedFormatter interface {
	Format(items []domain.Item) ([]byte, error)
}

// FeedAggregator выполняет один цикл агрегации по списку источников.
type FeedAggregator interface {
	Aggregate(ctx context.Context, sources []domain.Source) domain.Aggregation
}

// SnapshotSaver сохраняет последний опубликованный документ (файл, база данных).
// Вызывается после атомарной замены документа в кэше и не влияет на её результат.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, doc *domain.Document) error
}
