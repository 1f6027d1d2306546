package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"rssaggregator/internal/domain"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultSnapshotTimeout = 30 * time.Second

// Status описывает результаты последних циклов обновления. Используется для health-check,
// поскольку сам документ при сбоях не меняется и устаревание видно только здесь.
type Status struct {
	LastAttempt     time.Time `json:"last_attempt"`
	LastSuccess     time.Time `json:"last_success"`
	LastError       string    `json:"last_error,omitempty"`
	Refreshes       int64     `json:"refreshes"`
	FailedRefreshes int64     `json:"failed_refreshes"`
	ItemCount       int       `json:"item_count"`
	FailedSources   int       `json:"failed_sources"`
}

// Stale сообщает, что успешного обновления не было дольше maxAge.
func (s Status) Stale(now time.Time, maxAge time.Duration) bool {
	if s.LastSuccess.IsZero() {
		return true
	}
	return now.Sub(s.LastSuccess) > maxAge
}

// CacheService хранит последний сериализованный документ агрегированной ленты.
// Read никогда не блокируется обновлением и всегда видит целый документ:
// замена выполняется одной атомарной записью указателя. Одновременные вызовы Refresh
// объединяются в один цикл. После успешной замены документ асинхронно передается
// в SnapshotSaver-ы; их сбои только логируются.
type CacheService struct {
	aggregator FeedAggregator
	formatter  FeedFormatter
	sources    []domain.Source
	savers     []SnapshotSaver
	log        *slog.Logger

	current atomic.Pointer[domain.Document]
	group   singleflight.Group

	statusMu sync.RWMutex
	status   Status

	pendingMu sync.Mutex
	pending   chan *domain.Document
	closed    bool
	done      chan struct{}
}

// NewCacheService создает сервис кэша и запускает фоновую запись снапшотов.
// До первого успешного обновления Read возвращает пустой канал с Valid=false.
// Пустой список источников - ошибка domain.ErrNoSources.
func NewCacheService(
	aggregator FeedAggregator,
	formatter FeedFormatter,
	sources []domain.Source,
	log *slog.Logger,
	savers ...SnapshotSaver,
) (*CacheService, error) {
	if len(sources) == 0 {
		return nil, domain.ErrNoSources
	}
	s := &CacheService{
		aggregator: aggregator,
		formatter:  formatter,
		sources:    append([]domain.Source(nil), sources...),
		savers:     savers,
		log:        log.With(slog.String("component", "cache")),
		pending:    make(chan *domain.Document, 1),
		done:       make(chan struct{}),
	}
	placeholder, err := formatter.Format(nil)
	if err != nil {
		s.log.Warn("Failed to format placeholder document", slog.Any("error", err))
		placeholder = nil
	}
	s.current.Store(&domain.Document{Body: placeholder, Sources: len(sources)})
	go s.persistLoop()
	return s, nil
}

// Read возвращает текущий документ. Результат нельзя изменять.
func (s *CacheService) Read() *domain.Document {
	return s.current.Load()
}

// Status возвращает копию статуса последних обновлений.
func (s *CacheService) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Refresh выполняет цикл агрегации и форматирования и атомарно заменяет документ.
// Если цикл уже идет, вызов дожидается его и возвращает его результат.
// При ошибке предыдущий документ остается в кэше.
func (s *CacheService) Refresh(ctx context.Context) error {
	_, err, shared := s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	if shared {
		s.log.Debug("Refresh request joined an in-flight cycle")
	}
	return err
}

func (s *CacheService) refresh(ctx context.Context) (err error) {
	start := time.Now()
	var doc *domain.Document
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh panicked: %v", r)
		}
		s.recordAttempt(start, doc, err)
		if err != nil {
			s.log.Error("Feed refresh failed, keeping previous document",
				slog.Any("error", err),
				slog.Duration("duration", time.Since(start)),
			)
		}
	}()

	agg := s.aggregator.Aggregate(ctx, s.sources)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("refresh cancelled: %w", err)
	}
	body, err := s.formatter.Format(agg.Items)
	if err != nil {
		return fmt.Errorf("format aggregated feed: %w", err)
	}
	doc = &domain.Document{
		Body:          body,
		Valid:         true,
		GeneratedAt:   time.Now(),
		ItemCount:     len(agg.Items),
		Sources:       len(s.sources),
		FailedSources: len(agg.Failures),
	}
	s.current.Store(doc)
	s.log.Info("Feed document updated",
		slog.Int("items", doc.ItemCount),
		slog.Int("failed", doc.FailedSources),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)),
	)
	s.publish(doc)
	return nil
}

func (s *CacheService) recordAttempt(start time.Time, doc *domain.Document, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastAttempt = start
	if err != nil {
		s.status.FailedRefreshes++
		s.status.LastError = err.Error()
		return
	}
	s.status.Refreshes++
	s.status.LastError = ""
	s.status.LastSuccess = doc.GeneratedAt
	s.status.ItemCount = doc.ItemCount
	s.status.FailedSources = doc.FailedSources
}

// publish ставит документ в очередь на сохранение. Очередь хранит только самый свежий
// документ: несохраненный устаревший снапшот вытесняется новым.
func (s *CacheService) publish(doc *domain.Document) {
	if len(s.savers) == 0 {
		return
	}
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.pending <- doc:
		return
	default:
	}
	select {
	case <-s.pending:
	default:
	}
	s.pending <- doc
}

func (s *CacheService) persistLoop() {
	defer close(s.done)
	for doc := range s.pending {
		for _, saver := range s.savers {
			ctx, cancel := context.WithTimeout(context.Background(), defaultSnapshotTimeout)
			if err := saver.SaveSnapshot(ctx, doc); err != nil {
				s.log.Error("Failed to save feed snapshot",
					slog.String("saver", fmt.Sprintf("%T", saver)),
					slog.Any("error", err),
				)
			}
			cancel()
		}
	}
}

// Close дожидается сохранения уже опубликованных снапшотов и останавливает фоновую запись.
func (s *CacheService) Close() error {
	s.pendingMu.Lock()
	if s.closed {
		s.pendingMu.Unlock()
		return errors.New("cache service already closed")
	}
	s.closed = true
	close(s.pending)
	s.pendingMu.Unlock()
	<-s.done
	return nil
}
