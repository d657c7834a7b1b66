package store

import (
	"context"
	"fmt"
	"time"

	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/model"
)

// OpenSyncLog appends a started audit row and returns its id.
func (s *Store) OpenSyncLog(ctx context.Context, syncType string, leagueID *int64) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO `+config.SyncLogsTable+` (sync_type, league_id, status, started_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id`,
		syncType, leagueID, model.SyncStarted,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("open sync log: %w", err)
	}
	return id, nil
}

// CloseSyncLog transitions a sync log to completed or failed.
func (s *Store) CloseSyncLog(ctx context.Context, id int64, status string, processed int, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE `+config.SyncLogsTable+`
		SET status = $1, records_processed = $2, error_message = $3, finished_at = NOW()
		WHERE id = $4`,
		status, processed, nilEmpty(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("close sync log %d: %w", id, err)
	}
	return nil
}

// DeleteOldSyncLogs removes completed audit rows older than the cutoff.
// Failed rows are kept for inspection.
func (s *Store) DeleteOldSyncLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM `+config.SyncLogsTable+`
		WHERE status = $1 AND finished_at < NOW() - $2::interval`,
		model.SyncCompleted, fmt.Sprintf("%d seconds", int(olderThan.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("delete old sync logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// EnqueueJob inserts a pending sync job for the external heavy-sync worker.
// Responsibility ends at insertion.
func (s *Store) EnqueueJob(ctx context.Context, job model.SyncJob) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+config.SyncJobsTable+` (name, priority, status, season, week)
		VALUES ($1, $2, $3, $4, $5)`,
		job.Name, job.Priority, job.Status, job.Season, job.Week,
	)
	if err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.Name, err)
	}
	return nil
}
