package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/model"
)

// Provider is the upstream data source. Implemented by gridiron.Client.
type Provider interface {
	Players(ctx context.Context, position string, fn func(model.Player) error) error
	WeeklyStats(ctx context.Context, season, week int, source string, fn func(model.PlayerStats) error) error
	Matchups(ctx context.Context, season, week int, fn func(model.Matchup) error) error
}

// Store is the persistence surface the orchestrator writes through.
// Implemented by store.Store; tests substitute an in-memory fake.
type Store interface {
	UpsertPlayers(ctx context.Context, players []model.Player) error
	UpsertInjuries(ctx context.Context, season, week int, players []model.Player) error
	UpsertPlayerStats(ctx context.Context, rows []model.PlayerStats) error
	UpsertMatchups(ctx context.Context, matchups []model.Matchup) error
	UpsertDefensePoints(ctx context.Context, rows []model.DefensePointsAgainst) error
	RecomputeRollingAverages(ctx context.Context, season, week int) (int, error)

	StatsMissingOpponent(ctx context.Context, season, week int) ([]model.PlayerStats, error)
	MatchupForTeam(ctx context.Context, team string, season, week int) (model.Matchup, error)
	DefenseByTeam(ctx context.Context, team string) (int, error)
	SetOpponentDefense(ctx context.Context, playerID, season, week int, source string, defenseID int) error
	DefensePlayers(ctx context.Context) ([]model.Player, error)
	LeagueIDs(ctx context.Context, season int) ([]int64, error)
	PointsAgainstTotals(ctx context.Context, leagueID int64, defenseID, season, week int) (model.DefensePointsAgainst, error)

	OpenSyncLog(ctx context.Context, syncType string, leagueID *int64) (int64, error)
	CloseSyncLog(ctx context.Context, id int64, status string, processed int, errMsg string) error
	EnqueueJob(ctx context.Context, job model.SyncJob) error
}

// Syncer orchestrates all ingestion flows.
type Syncer struct {
	provider Provider
	store    Store
	logger   *slog.Logger
}

// New creates a Syncer.
func New(provider Provider, store Store, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{provider: provider, store: store, logger: logger}
}

// SyncPlayers ingests the full player population and records weekly injury
// rows for the given (season, week).
func (s *Syncer) SyncPlayers(ctx context.Context, season, week int) Result {
	return s.run(ctx, TypePlayers, nil, func(ctx context.Context, result *Result) error {
		var players []model.Player
		err := s.provider.Players(ctx, "", func(p model.Player) error {
			players = append(players, p)
			return nil
		})
		if err != nil {
			return fmt.Errorf("fetch players: %w", err)
		}
		result.Fetched = len(players)

		persistBatches(ctx, players, config.PlayerBatchSize, s.store.UpsertPlayers, s.logger, result, "players")

		if err := s.store.UpsertInjuries(ctx, season, week, players); err != nil {
			result.AddErrorf("upsert injuries: %v", err)
		}
		return nil
	})
}

// SyncStats ingests weekly stat rows for both sources and refreshes the
// trailing 3-week averages.
func (s *Syncer) SyncStats(ctx context.Context, season, week int) Result {
	return s.run(ctx, TypeStats, nil, func(ctx context.Context, result *Result) error {
		for _, source := range []string{model.SourceActual, model.SourceProjected} {
			var rows []model.PlayerStats
			err := s.provider.WeeklyStats(ctx, season, week, source, func(ps model.PlayerStats) error {
				rows = append(rows, ps)
				return nil
			})
			if err != nil {
				return fmt.Errorf("fetch %s stats week %d: %w", source, week, err)
			}
			result.Fetched += len(rows)

			persistBatches(ctx, rows, config.StatsBatchSize, s.store.UpsertPlayerStats, s.logger, result, source+" stats")
		}

		updated, err := s.store.RecomputeRollingAverages(ctx, season, week)
		if err != nil {
			result.AddErrorf("recompute rolling averages: %v", err)
		} else {
			s.logger.Info("rolling averages refreshed", "season", season, "week", week, "rows", updated)
		}
		return nil
	})
}

// SyncMatchups ingests the NFL schedule for a season (or a single week when
// week > 0).
func (s *Syncer) SyncMatchups(ctx context.Context, season, week int) Result {
	return s.run(ctx, TypeMatchups, nil, func(ctx context.Context, result *Result) error {
		var matchups []model.Matchup
		err := s.provider.Matchups(ctx, season, week, func(m model.Matchup) error {
			matchups = append(matchups, m)
			return nil
		})
		if err != nil {
			return fmt.Errorf("fetch matchups: %w", err)
		}
		result.Fetched = len(matchups)

		persistBatches(ctx, matchups, config.MatchupBatchSize, s.store.UpsertMatchups, s.logger, result, "matchups")
		return nil
	})
}

// EnqueueFullResync hands a season resync off to the external worker via the
// job queue. The heavy sync itself never runs inline.
func (s *Syncer) EnqueueFullResync(ctx context.Context, season, priority int) error {
	return s.store.EnqueueJob(ctx, model.SyncJob{
		Name:     TypeFull,
		Priority: priority,
		Status:   "pending",
		Season:   season,
	})
}

// run wraps a sync flow in the audit lifecycle: started → completed|failed.
// The closing write is best-effort and never masks the flow's own error.
func (s *Syncer) run(ctx context.Context, syncType string, leagueID *int64, fn func(context.Context, *Result) error) Result {
	var result Result
	start := time.Now()

	logID, err := s.store.OpenSyncLog(ctx, syncType, leagueID)
	if err != nil {
		result.AddErrorf("open sync log: %v", err)
		return result
	}
	s.logger.Info("sync started", "type", syncType, "log_id", logID)

	if err := fn(ctx, &result); err != nil {
		result.AddErrorf("%v", err)
		if closeErr := s.store.CloseSyncLog(ctx, logID, model.SyncFailed, result.Processed, err.Error()); closeErr != nil {
			s.logger.Error("close sync log failed", "log_id", logID, "error", closeErr)
		}
		s.logger.Error("sync failed", "type", syncType, "error", err, "duration", time.Since(start).Round(time.Millisecond))
		return result
	}

	if closeErr := s.store.CloseSyncLog(ctx, logID, model.SyncCompleted, result.Processed, ""); closeErr != nil {
		s.logger.Error("close sync log failed", "log_id", logID, "error", closeErr)
	}
	s.logger.Info("sync completed", "type", syncType,
		"summary", result.Summary(), "duration", time.Since(start).Round(time.Millisecond))
	return result
}

// persistBatches upserts items in bounded sequential batches. A failed batch
// is logged and skipped; the remaining batches still run.
func persistBatches[T any](
	ctx context.Context,
	items []T,
	size int,
	upsert func(context.Context, []T) error,
	logger *slog.Logger,
	result *Result,
	label string,
) {
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]
		if err := upsert(ctx, batch); err != nil {
			result.BatchesSkipped++
			result.AddErrorf("upsert %s batch %d-%d: %v", label, start, end, err)
			logger.Warn("batch skipped", "label", label, "start", start, "size", len(batch), "error", err)
			continue
		}
		result.Processed += len(batch)
	}
}
