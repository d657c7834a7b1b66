package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/model"
)

// normColumns maps normalizer metric keys to their player_stats columns.
// The normalizer is the only writer of these columns.
var normColumns = map[string]string{
	"opportunity":        "opportunity_norm",
	"td_production":      "td_norm",
	"receptions":         "reception_norm",
	"yards_per_touch":    "yards_per_touch_norm",
	"targets_per_game":   "targets_norm",
	"catch_rate":         "catch_rate_norm",
	"yards_per_target":   "yards_per_target_norm",
	"pass_attempts":      "pass_attempts_norm",
	"yards_per_attempt":  "yards_per_attempt_norm",
	"pass_td_production": "pass_td_norm",
	"rush_yards":         "rush_yards_norm",
}

// UpsertPlayerStats writes a batch of weekly stat rows keyed by
// (player, season, week, source). Normalized columns are left untouched.
func (s *Store) UpsertPlayerStats(ctx context.Context, rows []model.PlayerStats) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO `+config.PlayerStatsTable+` (
				player_id, season, week, source, team,
				pass_attempts, pass_completions, pass_yards, pass_tds, interceptions,
				carries, rush_yards, rush_tds,
				targets, receptions, rec_yards, rec_tds, fantasy_points
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
			ON CONFLICT (player_id, season, week, source) DO UPDATE SET
				team = EXCLUDED.team,
				pass_attempts = EXCLUDED.pass_attempts,
				pass_completions = EXCLUDED.pass_completions,
				pass_yards = EXCLUDED.pass_yards,
				pass_tds = EXCLUDED.pass_tds,
				interceptions = EXCLUDED.interceptions,
				carries = EXCLUDED.carries,
				rush_yards = EXCLUDED.rush_yards,
				rush_tds = EXCLUDED.rush_tds,
				targets = EXCLUDED.targets,
				receptions = EXCLUDED.receptions,
				rec_yards = EXCLUDED.rec_yards,
				rec_tds = EXCLUDED.rec_tds,
				fantasy_points = EXCLUDED.fantasy_points,
				updated_at = NOW()`,
			r.PlayerID, r.Season, r.Week, r.Source, r.Team,
			r.Line.PassAttempts, r.Line.PassCompletions, r.Line.PassYards, r.Line.PassTDs, r.Line.Interceptions,
			r.Line.Carries, r.Line.RushYards, r.Line.RushTDs,
			r.Line.Targets, r.Line.Receptions, r.Line.RecYards, r.Line.RecTDs, r.Line.FantasyPoints,
		)
	}
	return s.sendBatch(ctx, batch, "player stats")
}

// RecomputeRollingAverages invokes the Postgres function that refreshes the
// trailing 3-week average columns for every actual stat row of the week.
// Returns the number of rows updated.
func (s *Store) RecomputeRollingAverages(ctx context.Context, season, week int) (int, error) {
	var updated int
	err := s.pool.QueryRow(ctx, "recompute_rolling_averages", season, week).Scan(&updated)
	if err != nil {
		return 0, fmt.Errorf("recompute rolling averages: %w", err)
	}
	return updated, nil
}

// AveragesPage returns one page of the normalization population: rolling
// averages of every player at a position for a given actual week, ordered by
// player id for deterministic pagination.
func (s *Store) AveragesPage(ctx context.Context, position string, season, week, limit, offset int) ([]model.PlayerAverages, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ps.player_id,
			ps.avg_pass_attempts, ps.avg_pass_yards, ps.avg_pass_tds,
			ps.avg_carries, ps.avg_rush_yards, ps.avg_rush_tds,
			ps.avg_targets, ps.avg_receptions, ps.avg_rec_yards, ps.avg_rec_tds
		FROM `+config.PlayerStatsTable+` ps
		JOIN `+config.PlayersTable+` p ON p.external_id = ps.player_id
		WHERE p.position = $1 AND ps.season = $2 AND ps.week = $3 AND ps.source = $4
		ORDER BY ps.player_id
		LIMIT $5 OFFSET $6`,
		position, season, week, model.SourceActual, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query averages page: %w", err)
	}
	defer rows.Close()

	var out []model.PlayerAverages
	for rows.Next() {
		var pa model.PlayerAverages
		a := &pa.Averages
		if err := rows.Scan(&pa.PlayerID,
			&a.PassAttempts, &a.PassYards, &a.PassTDs,
			&a.Carries, &a.RushYards, &a.RushTDs,
			&a.Targets, &a.Receptions, &a.RecYards, &a.RecTDs,
		); err != nil {
			return nil, fmt.Errorf("scan averages row: %w", err)
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}

// WriteNormalized persists normalized metric values for previously fetched
// population rows, mapping metric keys to their *_norm columns.
func (s *Store) WriteNormalized(ctx context.Context, rows []model.NormalizedRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		for key, val := range r.Norms {
			col, ok := normColumns[key]
			if !ok {
				return fmt.Errorf("unknown metric key %q", key)
			}
			batch.Queue(
				`UPDATE `+config.PlayerStatsTable+` SET `+col+` = $1, updated_at = NOW()
				WHERE player_id = $2 AND season = $3 AND week = $4 AND source = $5`,
				val, r.PlayerID, r.Season, r.Week, model.SourceActual,
			)
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	return s.sendBatch(ctx, batch, "normalized metrics")
}
