package core

// scheduler.go runs the mailbox sync in the background.
//
// The scheduler is long-running and stops with its context. A failed sync is
// logged and the next tick tries again; already-processed messages are
// skipped so retries never duplicate records.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultSyncInterval is used when the configured interval is not positive.
const DefaultSyncInterval = 15 * time.Minute

// StartSyncScheduler syncs the mailbox immediately and then every interval
// until ctx is cancelled. It returns at once if no mail source is set.
func (s *Service) StartSyncScheduler(ctx context.Context, interval time.Duration) {
	if s.source == nil {
		slog.Info("sync scheduler disabled: no mail source")
		return
	}
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	slog.Info("sync scheduler started", "interval", interval.String())

	// Run immediately on startup
	s.runSyncJob(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync scheduler stopped")
			return
		case <-ticker.C:
			s.runSyncJob(ctx)
		}
	}
}

// runSyncJob performs one sync and logs the outcome.
func (s *Service) runSyncJob(ctx context.Context) {
	start := time.Now()

	summary, err := s.SyncMailbox(ctx)
	switch {
	case errors.Is(err, ErrSyncRunning):
		slog.Debug("sync skipped: previous sync still running")
	case errors.Is(err, context.Canceled):
		slog.Info("sync interrupted by shutdown", "processed", summary.Processed)
	case err != nil:
		slog.Error("sync failed",
			"error", err,
			"code", ErrorCode(err),
			"run_id", summary.RunID,
			"processed", summary.Processed,
		)
	default:
		slog.Info("sync job completed",
			"run_id", summary.RunID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
