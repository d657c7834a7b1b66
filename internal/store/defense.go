package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/model"
)

// ErrNoMatchup indicates no schedule row exists for a team/week; the caller
// skips opponent backfill for that row.
var ErrNoMatchup = errors.New("no matchup for team/week")

// StatsMissingOpponent returns the stat rows of a week that have no opponent
// defense resolved yet.
func (s *Store) StatsMissingOpponent(ctx context.Context, season, week int) ([]model.PlayerStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, season, week, source, team
		FROM `+config.PlayerStatsTable+`
		WHERE season = $1 AND week = $2 AND opponent_defense_id IS NULL
		ORDER BY player_id`,
		season, week,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats missing opponent: %w", err)
	}
	defer rows.Close()

	var out []model.PlayerStats
	for rows.Next() {
		var ps model.PlayerStats
		if err := rows.Scan(&ps.PlayerID, &ps.Season, &ps.Week, &ps.Source, &ps.Team); err != nil {
			return nil, fmt.Errorf("scan stat row: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// MatchupForTeam looks up the scheduled game a team plays in a given week.
func (s *Store) MatchupForTeam(ctx context.Context, team string, season, week int) (model.Matchup, error) {
	var m model.Matchup
	err := s.pool.QueryRow(ctx, "matchup_for_team", team, season, week).
		Scan(&m.HomeTeam, &m.AwayTeam, &m.Season, &m.Week, &m.Kickoff)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Matchup{}, ErrNoMatchup
	}
	if err != nil {
		return model.Matchup{}, fmt.Errorf("matchup for %s week %d: %w", team, week, err)
	}
	return m, nil
}

// DefenseByTeam resolves the DEF player entity for a team abbreviation.
func (s *Store) DefenseByTeam(ctx context.Context, team string) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx, "defense_by_team", team).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("no defense entity for team %s", team)
	}
	if err != nil {
		return 0, fmt.Errorf("defense for %s: %w", team, err)
	}
	return id, nil
}

// SetOpponentDefense records the resolved defense on one stat row.
func (s *Store) SetOpponentDefense(ctx context.Context, playerID, season, week int, source string, defenseID int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE `+config.PlayerStatsTable+`
		SET opponent_defense_id = $1, updated_at = NOW()
		WHERE player_id = $2 AND season = $3 AND week = $4 AND source = $5`,
		defenseID, playerID, season, week, source,
	)
	return err
}

// DefensePlayers returns every DEF entity.
func (s *Store) DefensePlayers(ctx context.Context) ([]model.Player, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT external_id, name, position, team
		FROM `+config.PlayersTable+`
		WHERE position = 'DEF'
		ORDER BY external_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query defenses: %w", err)
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ExternalID, &p.Name, &p.Position, &p.Team); err != nil {
			return nil, fmt.Errorf("scan defense row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LeagueIDs returns the external ids of every league in a season.
func (s *Store) LeagueIDs(ctx context.Context, season int) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT external_id FROM `+config.LeaguesTable+` WHERE season = $1 ORDER BY external_id`,
		season,
	)
	if err != nil {
		return nil, fmt.Errorf("query leagues: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan league id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// PointsAgainstTotals runs the stored aggregation that sums fantasy points
// scored against one defense in one league-scored week, split by position.
func (s *Store) PointsAgainstTotals(ctx context.Context, leagueID int64, defenseID, season, week int) (model.DefensePointsAgainst, error) {
	d := model.DefensePointsAgainst{
		LeagueID:        leagueID,
		DefensePlayerID: defenseID,
		Season:          season,
		Week:            week,
	}
	err := s.pool.QueryRow(ctx, "points_against_totals", leagueID, defenseID, season, week).
		Scan(&d.QBPoints, &d.RBPoints, &d.WRPoints, &d.TEPoints, &d.KPoints, &d.TotalPoints)
	if err != nil {
		return model.DefensePointsAgainst{}, fmt.Errorf("points against totals: %w", err)
	}
	return d, nil
}
