package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Refresher определяет интерфейс обновления агрегированной ленты.
// Используется для внедрения зависимости в воркер.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Worker реализует фоновое периодическое обновление ленты.
// Задача планируется gocron в singleton-режиме: если цикл еще идет к моменту
// следующего срабатывания, новый запуск переносится, а не выполняется параллельно.
type Worker struct {
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	log       *slog.Logger
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// New создает воркер. timeout ограничивает один цикл обновления; при нуле используется interval.
func New(refresher Refresher, interval, timeout time.Duration, log *slog.Logger) (*Worker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", interval)
	}
	if timeout <= 0 {
		timeout = interval
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	w := &Worker{
		refresher: refresher,
		interval:  interval,
		timeout:   timeout,
		log:       log.With(slog.String("component", "worker")),
		scheduler: scheduler,
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.refresh),
		gocron.WithName("Refresh aggregated feed"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to schedule refresh job: %w", err)
	}
	return w, nil
}

// Start запускает планировщик. Первый цикл выполняется сразу.
func (w *Worker) Start() {
	w.log.Info("Feed refresh worker started", slog.String("interval", w.interval.String()))
	w.scheduler.Start()
	for _, job := range w.scheduler.Jobs() {
		if next, err := job.NextRun(); err == nil {
			w.log.Debug("Job scheduled", slog.String("job", job.Name()), slog.Time("next_run", next))
		}
	}
}

// Stop отменяет текущий цикл и останавливает планировщик, дожидаясь завершения задачи.
func (w *Worker) Stop() error {
	w.cancel()
	if err := w.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	w.log.Info("Worker stopped")
	return nil
}

func (w *Worker) refresh() {
	if w.ctx.Err() != nil {
		return
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()
	if err := w.refresher.Refresh(ctx); err != nil {
		w.log.Warn("Scheduled refresh failed",
			slog.Any("error", err),
			slog.Duration("duration", time.Since(start)),
		)
		return
	}
	w.log.Debug("Scheduled refresh completed", slog.Duration("duration", time.Since(start)))
}

// GetInterval возвращает интервал обновления ленты.
func (w *Worker) GetInterval() time.Duration { return w.interval }
