package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"rssaggregator/internal/domain"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxConcurrentFetches = 4
	defaultSourceTimeout        = 10 * time.Second
)

// AggregatorOptions задает параллелизм и таймаут обработки одного источника.
type AggregatorOptions struct {
	MaxConcurrentFetches int
	SourceTimeout        time.Duration
}

// Aggregator реализует бизнес-логику сбора новостей из нескольких лент.
// Загружает и разбирает источники параллельно (не более MaxConcurrentFetches одновременно),
// пропускает упавшие источники и возвращает новости, упорядоченные по дате публикации.
type Aggregator struct {
	fetcher       FeedFetcher
	parser        FeedParser
	log           *slog.Logger
	maxConcurrent int
	sourceTimeout time.Duration
}

// NewAggregator создает новый экземпляр агрегатора.
// Нулевые значения в opts заменяются значениями по умолчанию.
func NewAggregator(fetcher FeedFetcher, parser FeedParser, opts AggregatorOptions, log *slog.Logger) *Aggregator {
	if opts.MaxConcurrentFetches <= 0 {
		opts.MaxConcurrentFetches = defaultMaxConcurrentFetches
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = defaultSourceTimeout
	}
	return &Aggregator{
		fetcher:       fetcher,
		parser:        parser,
		log:           log,
		maxConcurrent: opts.MaxConcurrentFetches,
		sourceTimeout: opts.SourceTimeout,
	}
}

type sourceResult struct {
	feed *domain.Feed
	err  error
}

// Aggregate выполняет полный цикл агрегации: загрузка и разбор каждого источника,
// нормализация новостей и сортировка по убыванию даты публикации.
// Ошибка отдельного источника записывается в Failures и не прерывает цикл;
// если упали все источники, возвращается пустой список новостей.
// Итоговый порядок не зависит от порядка завершения загрузок.
func (a *Aggregator) Aggregate(ctx context.Context, sources []domain.Source) domain.Aggregation {
	start := time.Now()
	log := a.log.With(slog.String("component", "aggregator"))
	log.Info("Aggregation cycle started", slog.Int("sources", len(sources)))

	results := make([]sourceResult, len(sources))
	var g errgroup.Group
	g.SetLimit(a.maxConcurrent)
	for i, src := range sources {
		g.Go(func() error {
			feed, err := a.collectSource(ctx, src)
			results[i] = sourceResult{feed: feed, err: err}
			return nil
		})
	}
	_ = g.Wait()

	agg := domain.Aggregation{Items: []domain.Item{}}
	for i, res := range results {
		if res.err != nil {
			agg.Failures = append(agg.Failures, domain.SourceFailure{Source: sources[i], Err: res.err})
			continue
		}
		for _, raw := range res.feed.Items {
			agg.Items = append(agg.Items, normalizeItem(raw, res.feed.Title))
		}
	}
	SortByPublishTime(agg.Items)

	log.Info("Aggregation cycle completed",
		slog.Int("successful", len(sources)-len(agg.Failures)),
		slog.Int("failed", len(agg.Failures)),
		slog.Int("items", len(agg.Items)),
		slog.Duration("duration", time.Since(start)),
	)
	return agg
}

// collectSource загружает и разбирает один источник.
// Паника внутри парсера превращается в ошибку источника.
func (a *Aggregator) collectSource(ctx context.Context, src domain.Source) (feed *domain.Feed, err error) {
	start := time.Now()
	log := a.log.With(
		slog.String("component", "aggregator"),
		slog.String("source", src.Name),
		slog.String("url", src.URL),
	)
	defer func() {
		if r := recover(); r != nil {
			feed = nil
			err = fmt.Errorf("processing %s panicked: %v", src.Name, r)
			log.Error("Source processing panicked", slog.Any("error", err))
		}
	}()

	opCtx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	reader, err := a.fetcher.Fetch(opCtx, src.URL)
	if err != nil {
		log.Error("Feed fetch failed",
			slog.String("stage", "fetch"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("fetch failed for %s: %w", src.Name, err)
	}
	defer reader.Close()

	feed, err = a.parser.Parse(opCtx, reader)
	if err != nil {
		log.Error("Feed parsing failed",
			slog.String("stage", "parse"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("parse failed for %s: %w", src.Name, err)
	}

	log.Debug("Feed processed",
		slog.String("feed_title", feed.Title),
		slog.Int("items", len(feed.Items)),
		slog.Duration("duration", time.Since(start)),
	)
	return feed, nil
}

// normalizeItem превращает RawItem в нормализованную новость.
// Пустые (или состоящие из пробелов) заголовки и названия источника считаются отсутствующими.
func normalizeItem(raw domain.RawItem, sourceTitle string) domain.Item {
	item := domain.Item{
		Title:       strings.TrimSpace(raw.Title),
		Link:        strings.TrimSpace(raw.Link),
		SourceTitle: strings.TrimSpace(sourceTitle),
		PublishedAt: publishTime(raw),
	}
	if item.Title == "" {
		item.Title = domain.UntitledItem
	}
	if item.Link == "" {
		item.Link = domain.MissingLink
	}
	if item.SourceTitle == "" {
		item.SourceTitle = domain.UntitledFeed
	}
	if raw.Enclosure != nil && raw.Enclosure.URL != "" {
		enc := *raw.Enclosure
		item.Enclosure = &enc
	}
	return item
}
