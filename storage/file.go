package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"rssaggregator/internal/domain"
)

// FileSnapshotStore записывает каждый новый документ в файл на диске.
// Запись идет во временный файл с последующим переименованием, поэтому
// читатели файла никогда не видят частично записанный документ.
type FileSnapshotStore struct {
	path string
	log  *slog.Logger
}

func NewFileSnapshotStore(path string, log *slog.Logger) *FileSnapshotStore {
	log = log.With(slog.String("component", "storage.file"))
	log.Info("Initializing file snapshot storage", slog.String("path", path))
	return &FileSnapshotStore{
		path: path,
		log:  log,
	}
}

func (s *FileSnapshotStore) SaveSnapshot(ctx context.Context, doc *domain.Document) error {
	const op = "storage.file.SaveSnapshot"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%s: failed to create directory: %w", op, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%s: failed to create temp file: %w", op, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(doc.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: failed to write snapshot: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: failed to close temp file: %w", op, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%s: failed to chmod snapshot: %w", op, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%s: failed to replace snapshot: %w", op, err)
	}
	s.log.Debug("Snapshot written",
		slog.String("op", op),
		slog.Int("bytes", len(doc.Body)),
		slog.Int("items", doc.ItemCount),
	)
	return nil
}

func (s *FileSnapshotStore) Close() {}
