// Package maintenance runs periodic background tasks as Go tickers inside
// the API process: audit-log retention and the in-season weekly sweep that
// enqueues stat sync jobs for the external worker.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/startsit/startsit-data/internal/model"
	"github.com/startsit/startsit-data/internal/sync"
)

// Store is the subset of persistence the tickers need.
type Store interface {
	DeleteOldSyncLogs(ctx context.Context, olderThan time.Duration) (int64, error)
	EnqueueJob(ctx context.Context, job model.SyncJob) error
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // completed sync_logs retention
	SweepInterval   time.Duration // weekly stat sync enqueue
	LogRetention    time.Duration // how long completed audit rows are kept
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 6 * time.Hour,
		SweepInterval:   1 * time.Hour,
		LogRetention:    14 * 24 * time.Hour,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, store Store, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"sweep", cfg.SweepInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { cleanup(ctx, store, cfg.LogRetention, logger) })
	}

	if cfg.SweepInterval > 0 {
		t := time.NewTicker(cfg.SweepInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { weeklySweep(ctx, store, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// cleanup removes completed audit rows past the retention window.
func cleanup(ctx context.Context, store Store, retention time.Duration, logger *slog.Logger) {
	deleted, err := store.DeleteOldSyncLogs(ctx, retention)
	if err != nil {
		logger.Error("sync log cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		logger.Info("sync log cleanup", "deleted", deleted)
	}
}

// weeklySweep enqueues a stat sync job for the current scoring week during
// the season. The external worker dedupes pending jobs by name and week.
func weeklySweep(ctx context.Context, store Store, logger *slog.Logger) {
	season, week := currentScoringWeek(time.Now().UTC())
	if week == 0 {
		return // offseason
	}
	job := model.SyncJob{
		Name:     sync.TypeStats,
		Priority: 3,
		Status:   "pending",
		Season:   season,
		Week:     &week,
	}
	if err := store.EnqueueJob(ctx, job); err != nil {
		logger.Error("weekly sweep enqueue failed", "error", err)
		return
	}
	logger.Info("weekly sweep enqueued", "season", season, "week", week)
}

// currentScoringWeek maps a timestamp to (season, week). Week 1 starts the
// first Thursday of September; 18 regular-season weeks. Returns week 0 out
// of season.
func currentScoringWeek(now time.Time) (int, int) {
	season := now.Year()
	if now.Month() < time.September {
		season--
	}

	kickoff := firstThursdayOfSeptember(season)
	if now.Before(kickoff) {
		return season, 0
	}
	week := int(now.Sub(kickoff)/(7*24*time.Hour)) + 1
	if week > 18 {
		return season, 0
	}
	return season, week
}

func firstThursdayOfSeptember(year int) time.Time {
	d := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
