package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"rssaggregator/internal/adapter/fetcher"
	"rssaggregator/internal/adapter/formatter"
	"rssaggregator/internal/adapter/parser"
	"rssaggregator/internal/config"
	"rssaggregator/internal/domain"
	"rssaggregator/internal/logger"
	"rssaggregator/internal/migrations"
	server "rssaggregator/internal/transport/http"
	"rssaggregator/internal/usecase"
	"rssaggregator/internal/worker"
	"rssaggregator/storage"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 10 * time.Second

// App представляет приложение RSS-агрегатора.
// Координирует работу HTTP-сервера, воркера обновления ленты, кэша,
// хранилищ снапшотов и системы логирования. Обеспечивает graceful startup и shutdown.
type App struct {
	config      *config.Config
	logger      *slog.Logger
	closeLogger func() error
	cache       *usecase.CacheService
	stores      []storage.SnapshotStore
	server      *http.Server
	worker      *worker.Worker
	stopChan    chan os.Signal
	wg          sync.WaitGroup
}

// New создает и инициализирует приложение по проверенной конфигурации.
// Настраивает логгер, при необходимости подключается к базе данных и применяет миграции,
// собирает конвейер загрузки, разбора и форматирования лент.
func New(cfg *config.Config) (*App, error) {
	appLogger, closeLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)

	a := &App{
		config:      cfg,
		logger:      appLogger,
		closeLogger: closeLogger,
		stopChan:    make(chan os.Signal, 1),
	}
	a.stores, err = openStores(context.Background(), cfg, appLogger)
	if err != nil {
		a.release()
		return nil, err
	}
	a.cache, err = newCache(cfg, appLogger, a.stores)
	if err != nil {
		a.release()
		return nil, err
	}
	a.worker, err = worker.New(a.cache, cfg.RefreshEvery(), cfg.RefreshEvery(), appLogger)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("bad init app: %w", err)
	}

	handler := server.NewHandler(appLogger, a.cache, 2*cfg.RefreshEvery())
	router := server.NewServer(appLogger, handler, server.ServerOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: cfg.Server.AllowedMethods,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	})
	a.server = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// Run запускает воркер и HTTP-сервер, затем блокируется до сигнала завершения
// или падения сервера и выполняет graceful shutdown.
func (a *App) Run() error {
	a.logger.Info("Starting RSS aggregator",
		slog.String("component", "app"),
		slog.Int("feed_count", len(a.config.App.FeedURLs)),
		slog.String("refresh_interval", a.worker.GetInterval().String()),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		_ = a.Shutdown()
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.worker.Start()
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	serverErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serverErr <- err
		}
	}()
	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)

	var runErr error
	select {
	case sig := <-a.stopChan:
		a.logger.Info("Shutdown signal received",
			slog.String("component", "app"),
			slog.String("signal", sig.String()),
		)
	case runErr = <-serverErr:
	}
	if err := a.Shutdown(); err != nil {
		return err
	}
	return runErr
}

// Shutdown выполняет graceful shutdown приложения.
// Останавливает воркер (текущий цикл обновления отменяется), завершает HTTP-сервер,
// дожидается записи последнего снапшота и закрывает хранилища.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	if a.worker != nil {
		if err := a.worker.Stop(); err != nil {
			a.logger.Error("Worker shutdown failed", slog.String("component", "worker"), slog.Any("error", err))
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var shutdownErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.String("component", "server"), slog.Any("error", err))
		shutdownErr = fmt.Errorf("http server shutdown: %w", err)
	}
	a.wg.Wait()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	a.release()
	return shutdownErr
}

func (a *App) release() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Cache close failed", slog.Any("error", err))
		}
	}
	for _, store := range a.stores {
		store.Close()
	}
	if a.closeLogger != nil {
		_ = a.closeLogger()
	}
}

// RenderOnce выполняет один цикл обновления и пишет полученный документ в out.
// Если все источники недоступны, в out попадает пустой канал, а ошибки нет.
func RenderOnce(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return render(ctx, cfg, func(doc *domain.Document, _ *slog.Logger) error {
		if _, err := out.Write(doc.Body); err != nil {
			return fmt.Errorf("failed to write feed: %w", err)
		}
		return nil
	})
}

// RenderToFile выполняет один цикл обновления и атомарно заменяет файл path документом.
// При неудачном обновлении прежнее содержимое файла сохраняется.
func RenderToFile(ctx context.Context, cfg *config.Config, path string) error {
	return render(ctx, cfg, func(doc *domain.Document, log *slog.Logger) error {
		return storage.NewFileSnapshotStore(path, log).SaveSnapshot(ctx, doc)
	})
}

func render(ctx context.Context, cfg *config.Config, emit func(*domain.Document, *slog.Logger) error) error {
	appLogger, closeLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer closeLogger()

	stores, err := openStores(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		for _, store := range stores {
			store.Close()
		}
	}()
	cache, err := newCache(cfg, appLogger, stores)
	if err != nil {
		return err
	}
	refreshErr := cache.Refresh(ctx)
	if err := cache.Close(); err != nil {
		appLogger.Warn("Cache close failed", slog.Any("error", err))
	}
	if refreshErr != nil {
		return fmt.Errorf("refresh failed: %w", refreshErr)
	}
	return emit(cache.Read(), appLogger)
}

func newCache(cfg *config.Config, log *slog.Logger, stores []storage.SnapshotStore) (*usecase.CacheService, error) {
	location, err := time.LoadLocation(cfg.App.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load display timezone: %w", err)
	}
	httpFetcher := fetcher.NewHTTPFetcher(fetcher.Options{
		Timeout:            cfg.FetchTimeoutDuration(),
		UserAgent:          cfg.App.UserAgent,
		InsecureSkipVerify: cfg.App.InsecureSkipVerify,
		MaxBodyBytes:       cfg.App.MaxBodyBytes,
	}, log)
	feedParser := parser.NewFeedParser(log)
	aggregator := usecase.NewAggregator(httpFetcher, feedParser, usecase.AggregatorOptions{
		MaxConcurrentFetches: cfg.App.MaxConcurrentFetches,
		SourceTimeout:        cfg.FetchTimeoutDuration(),
	}, log)
	rssFormatter := formatter.NewRSSFormatter(location, formatter.Channel{
		Title:       cfg.App.Channel.Title,
		Link:        cfg.App.Channel.Link,
		Description: cfg.App.Channel.Description,
	})
	savers := make([]usecase.SnapshotSaver, 0, len(stores))
	for _, store := range stores {
		savers = append(savers, store)
	}
	cache, err := usecase.NewCacheService(aggregator, rssFormatter, cfg.Sources(), log, savers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return cache, nil
}

// openStores открывает настроенные хранилища снапшотов: файл и/или Postgres.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) ([]storage.SnapshotStore, error) {
	var stores []storage.SnapshotStore
	if cfg.App.OutputFile != "" {
		stores = append(stores, storage.NewFileSnapshotStore(cfg.App.OutputFile, log))
	}
	if !cfg.Database.Enabled {
		return stores, nil
	}
	dbPool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("Database connection established", slog.String("component", "database"))
	if err := migrations.Apply(ctx, log, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return append(stores, storage.NewPostgresSnapshotStore(dbPool, log)), nil
}
