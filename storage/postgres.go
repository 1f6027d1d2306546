package storage

import (
	"context"
	"fmt"
	"log/slog"
	"rssaggregator/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSnapshotStore хранит последний документ ленты в таблице feed_snapshot.
// Таблица всегда содержит не более одной строки (id = 1).
type PostgresSnapshotStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresSnapshotStore(pool *pgxpool.Pool, log *slog.Logger) *PostgresSnapshotStore {
	log = log.With(slog.String("component", "storage.postgres"))
	log.Info("Initializing Postgres snapshot storage")
	return &PostgresSnapshotStore{
		pool: pool,
		log:  log,
	}
}

func (db *PostgresSnapshotStore) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

// SaveSnapshot заменяет сохраненный документ новым.
func (db *PostgresSnapshotStore) SaveSnapshot(ctx context.Context, doc *domain.Document) error {
	const op = "storage.postgres.SaveSnapshot"
	log := db.log.With(slog.String("op", op))
	query := `
	INSERT INTO feed_snapshot (id, body, item_count, source_count, failed_sources, generated_at)
	VALUES (1, $1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		body = EXCLUDED.body,
		item_count = EXCLUDED.item_count,
		source_count = EXCLUDED.source_count,
		failed_sources = EXCLUDED.failed_sources,
		generated_at = EXCLUDED.generated_at;
	`
	_, err := db.pool.Exec(ctx, query,
		doc.Body,
		doc.ItemCount,
		doc.Sources,
		doc.FailedSources,
		doc.GeneratedAt,
	)
	if err != nil {
		log.Error("Failed to save snapshot", slog.Any("error", err))
		return fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	log.Debug("Snapshot saved", slog.Int("items", doc.ItemCount))
	return nil
}
