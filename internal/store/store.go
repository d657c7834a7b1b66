// Package store is the Postgres persistence layer. Every write is an upsert
// on a natural composite key, so re-running a sync with unchanged upstream
// data leaves the tables in the same state (only updated_at moves).
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/db"
	"github.com/startsit/startsit-data/internal/model"
)

// Store wraps the connection pool with typed repository methods.
type Store struct {
	pool *db.Pool
}

// New creates a Store backed by the given pool.
func New(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertPlayers writes a batch of players keyed by external id.
func (s *Store) UpsertPlayers(ctx context.Context, players []model.Player) error {
	batch := &pgx.Batch{}
	for _, p := range players {
		batch.Queue(`
			INSERT INTO `+config.PlayersTable+` (
				external_id, name, position, team, injury_status
			) VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (external_id) DO UPDATE SET
				name = EXCLUDED.name,
				position = EXCLUDED.position,
				team = EXCLUDED.team,
				injury_status = EXCLUDED.injury_status,
				updated_at = NOW()`,
			p.ExternalID, p.Name, p.Position, p.Team, nilEmpty(p.InjuryStatus),
		)
	}
	return s.sendBatch(ctx, batch, "players")
}

// UpsertInjuries records weekly injury rows for players carrying an injury
// designation. Healthy players produce no row.
func (s *Store) UpsertInjuries(ctx context.Context, season, week int, players []model.Player) error {
	batch := &pgx.Batch{}
	for _, p := range players {
		if p.InjuryStatus == "" {
			continue
		}
		batch.Queue(`
			INSERT INTO `+config.InjuriesTable+` (
				player_id, season, week, status
			) VALUES ($1,$2,$3,$4)
			ON CONFLICT (player_id, season, week) DO UPDATE SET
				status = EXCLUDED.status,
				updated_at = NOW()`,
			p.ExternalID, season, week, p.InjuryStatus,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	return s.sendBatch(ctx, batch, "injuries")
}

// UpsertMatchups writes schedule rows keyed by (home, away, season, week).
func (s *Store) UpsertMatchups(ctx context.Context, matchups []model.Matchup) error {
	batch := &pgx.Batch{}
	for _, m := range matchups {
		batch.Queue(`
			INSERT INTO `+config.MatchupsTable+` (
				home_team, away_team, season, week, kickoff
			) VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (home_team, away_team, season, week) DO UPDATE SET
				kickoff = EXCLUDED.kickoff,
				updated_at = NOW()`,
			m.HomeTeam, m.AwayTeam, m.Season, m.Week, m.Kickoff,
		)
	}
	return s.sendBatch(ctx, batch, "matchups")
}

// UpsertDefensePoints writes defense points-against rows keyed by
// (league, defense, season, week).
func (s *Store) UpsertDefensePoints(ctx context.Context, rows []model.DefensePointsAgainst) error {
	batch := &pgx.Batch{}
	for _, d := range rows {
		batch.Queue(`
			INSERT INTO `+config.DefensePointsTable+` (
				league_id, defense_player_id, season, week,
				qb_points, rb_points, wr_points, te_points, k_points, total_points
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (league_id, defense_player_id, season, week) DO UPDATE SET
				qb_points = EXCLUDED.qb_points,
				rb_points = EXCLUDED.rb_points,
				wr_points = EXCLUDED.wr_points,
				te_points = EXCLUDED.te_points,
				k_points = EXCLUDED.k_points,
				total_points = EXCLUDED.total_points,
				updated_at = NOW()`,
			d.LeagueID, d.DefensePlayerID, d.Season, d.Week,
			d.QBPoints, d.RBPoints, d.WRPoints, d.TEPoints, d.KPoints, d.TotalPoints,
		)
	}
	return s.sendBatch(ctx, batch, "defense points")
}

// sendBatch executes a pgx batch, surfacing the first failed statement.
func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, label string) error {
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert %s row %d: %w", label, i, err)
		}
	}
	return nil
}

// nilEmpty returns nil for empty strings (maps to SQL NULL).
func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
