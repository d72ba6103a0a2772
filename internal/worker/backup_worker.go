// Package worker runs queued backup requests.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ggonsajang/comcard/internal/amqp"
	"github.com/ggonsajang/comcard/internal/export"
	"github.com/ggonsajang/comcard/internal/metrics"
)

// Runner performs one backup of the current month.
type Runner interface {
	Run(ctx context.Context) (*export.BackupResult, error)
}

// BackupWorker coalesces backup requests: a request made before the last
// completed run started is already covered by it and is skipped.
type BackupWorker struct {
	runner Runner
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	lastRun time.Time
}

func NewBackupWorker(runner Runner, logger *slog.Logger) *BackupWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupWorker{runner: runner, now: time.Now, logger: logger}
}

// HandleBackupRequest processes a single request from the queue. A returned
// error asks the queue to redeliver.
func (w *BackupWorker) HandleBackupRequest(ctx context.Context, msg *amqp.BackupRequest) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !msg.RequestedAt.After(w.lastRun) {
		metrics.BackupsTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		w.logger.DebugContext(ctx, "Backup request already covered",
			"request_id", msg.RequestID,
			"requested_at", msg.RequestedAt,
			"last_run", w.lastRun)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing backup request", "request_id", msg.RequestID)
	started := w.now()
	if _, err := w.runner.Run(ctx); err != nil && !errors.Is(err, export.ErrNoData) {
		return err
	}
	w.lastRun = started
	return nil
}

// LastRun returns the start time of the last completed backup.
func (w *BackupWorker) LastRun() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRun
}
