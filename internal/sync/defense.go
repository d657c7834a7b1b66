package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/model"
	"github.com/startsit/startsit-data/internal/store"
)

// SyncDefensePoints computes defense points-against for every (league,
// defense) pair of the week. Opponent backfill runs first: aggregation only
// sees stat rows with a resolved defense.
func (s *Syncer) SyncDefensePoints(ctx context.Context, season, week int) Result {
	return s.run(ctx, TypeDefense, nil, func(ctx context.Context, result *Result) error {
		backfilled, skipped, err := s.backfillOpponents(ctx, season, week)
		if err != nil {
			return err
		}
		s.logger.Info("opponent backfill done", "resolved", backfilled, "skipped", skipped)

		leagues, err := s.store.LeagueIDs(ctx, season)
		if err != nil {
			return fmt.Errorf("list leagues: %w", err)
		}
		defenses, err := s.store.DefensePlayers(ctx)
		if err != nil {
			return fmt.Errorf("list defenses: %w", err)
		}

		var rows []model.DefensePointsAgainst
		for _, leagueID := range leagues {
			for _, def := range defenses {
				d, err := s.store.PointsAgainstTotals(ctx, leagueID, def.ExternalID, season, week)
				if err != nil {
					result.AddErrorf("totals league=%d defense=%d: %v", leagueID, def.ExternalID, err)
					continue
				}
				rows = append(rows, d)
			}
		}
		result.Fetched = len(rows)

		persistBatches(ctx, rows, config.DefenseBatchSize, s.store.UpsertDefensePoints, s.logger, result, "defense points")
		return nil
	})
}

// backfillOpponents resolves the opposing defense for every stat row of the
// week that lacks one. Rows whose team has no schedule entry are skipped
// individually; anything else fails the run.
func (s *Syncer) backfillOpponents(ctx context.Context, season, week int) (resolved, skipped int, err error) {
	pending, err := s.store.StatsMissingOpponent(ctx, season, week)
	if err != nil {
		return 0, 0, fmt.Errorf("load stats missing opponent: %w", err)
	}

	// One schedule lookup per team, not per row.
	defenseByTeam := map[string]int{}
	noSchedule := map[string]bool{}

	for _, ps := range pending {
		if noSchedule[ps.Team] {
			skipped++
			continue
		}
		defenseID, ok := defenseByTeam[ps.Team]
		if !ok {
			m, err := s.store.MatchupForTeam(ctx, ps.Team, season, week)
			if errors.Is(err, store.ErrNoMatchup) {
				s.logger.Warn("no schedule entry, skipping opponent backfill", "team", ps.Team, "week", week)
				noSchedule[ps.Team] = true
				skipped++
				continue
			}
			if err != nil {
				return resolved, skipped, err
			}
			opponent := m.Opponent(ps.Team)
			defenseID, err = s.store.DefenseByTeam(ctx, opponent)
			if err != nil {
				return resolved, skipped, fmt.Errorf("resolve defense for %s: %w", opponent, err)
			}
			defenseByTeam[ps.Team] = defenseID
		}

		if err := s.store.SetOpponentDefense(ctx, ps.PlayerID, season, week, ps.Source, defenseID); err != nil {
			return resolved, skipped, fmt.Errorf("set opponent for player %d: %w", ps.PlayerID, err)
		}
		resolved++
	}
	return resolved, skipped, nil
}
