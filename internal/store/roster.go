package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/model"
)

// RosterEntries loads every roster entry for the given fantasy teams, joined
// to player and team identity.
func (s *Store) RosterEntries(ctx context.Context, teamIDs []int64) ([]model.RosterEntry, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT re.team_id, t.name, re.player_id, p.name, p.position, re.slot
		FROM `+config.RosterEntriesTable+` re
		JOIN `+config.TeamsTable+` t ON t.id = re.team_id
		JOIN `+config.PlayersTable+` p ON p.external_id = re.player_id
		WHERE re.team_id = ANY($1)
		ORDER BY re.team_id, p.position, re.player_id`,
		teamIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query roster entries: %w", err)
	}
	defer rows.Close()

	var out []model.RosterEntry
	for rows.Next() {
		var e model.RosterEntry
		if err := rows.Scan(&e.TeamID, &e.TeamName, &e.PlayerID, &e.PlayerName, &e.Position, &e.Slot); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LeagueSlotCapacity returns the league's starting-slot configuration, or an
// empty map when the league carries none (callers fall back to defaults).
func (s *Store) LeagueSlotCapacity(ctx context.Context, leagueID int64) (map[string]int, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, "league_slot_config", leagueID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && len(raw) == 0) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("league slot config %d: %w", leagueID, err)
	}
	capacity := map[string]int{}
	if err := json.Unmarshal(raw, &capacity); err != nil {
		return nil, fmt.Errorf("decode slot config %d: %w", leagueID, err)
	}
	return capacity, nil
}

// WeightedScores loads the externally computed per-league ranking inputs for
// a set of players.
func (s *Store) WeightedScores(ctx context.Context, leagueID int64, season, week int, playerIDs []int) (map[int]model.PlayerScore, error) {
	if len(playerIDs) == 0 {
		return map[int]model.PlayerScore{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, weighted_score, fantasy_points
		FROM `+config.LeaguePlayerScoresTable+`
		WHERE league_id = $1 AND season = $2 AND week = $3 AND player_id = ANY($4)
		ORDER BY weighted_score DESC, player_id`,
		leagueID, season, week, playerIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query weighted scores: %w", err)
	}
	defer rows.Close()

	out := make(map[int]model.PlayerScore, len(playerIDs))
	for rows.Next() {
		var sc model.PlayerScore
		if err := rows.Scan(&sc.PlayerID, &sc.WeightedScore, &sc.FantasyPoints); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		out[sc.PlayerID] = sc
	}
	return out, rows.Err()
}

// WeeklyStats loads per-category stat rows for a week, preferring a
// projected row over an actual one when both exist for a player.
func (s *Store) WeeklyStats(ctx context.Context, season, week int, playerIDs []int) (map[int]model.PlayerStats, error) {
	if len(playerIDs) == 0 {
		return map[int]model.PlayerStats{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, season, week, source, team,
			pass_attempts, pass_completions, pass_yards, pass_tds, interceptions,
			carries, rush_yards, rush_tds,
			targets, receptions, rec_yards, rec_tds, fantasy_points
		FROM `+config.PlayerStatsTable+`
		WHERE season = $1 AND week = $2 AND player_id = ANY($3)
		ORDER BY player_id`,
		season, week, playerIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query weekly stats: %w", err)
	}
	defer rows.Close()

	out := make(map[int]model.PlayerStats, len(playerIDs))
	for rows.Next() {
		var ps model.PlayerStats
		l := &ps.Line
		if err := rows.Scan(&ps.PlayerID, &ps.Season, &ps.Week, &ps.Source, &ps.Team,
			&l.PassAttempts, &l.PassCompletions, &l.PassYards, &l.PassTDs, &l.Interceptions,
			&l.Carries, &l.RushYards, &l.RushTDs,
			&l.Targets, &l.Receptions, &l.RecYards, &l.RecTDs, &l.FantasyPoints,
		); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		// Projected wins over actual; otherwise first row stands.
		if existing, ok := out[ps.PlayerID]; ok && existing.Source == model.SourceProjected {
			continue
		}
		out[ps.PlayerID] = ps
	}
	return out, rows.Err()
}

// UnavailablePlayers returns the ids of players carrying an injury status in
// the unavailable set for the week, mapped to that status.
func (s *Store) UnavailablePlayers(ctx context.Context, season, week int) (map[int]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, status
		FROM `+config.InjuriesTable+`
		WHERE season = $1 AND week = $2`,
		season, week,
	)
	if err != nil {
		return nil, fmt.Errorf("query injuries: %w", err)
	}
	defer rows.Close()

	out := map[int]string{}
	for rows.Next() {
		var id int
		var status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scan injury row: %w", err)
		}
		if model.UnavailableStatuses[status] {
			out[id] = status
		}
	}
	return out, rows.Err()
}
