// Package recommend ranks rostered players within position groups and emits
// START/BENCH recommendations where a roster's current placement disagrees
// with the computed ranking. Recommendations are transient: nothing is
// persisted, every request recomputes from scratch.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/model"
)

// Actions.
const (
	ActionStart = "START"
	ActionBench = "BENCH"
)

// Store is the read-only persistence surface the engine consumes.
type Store interface {
	RosterEntries(ctx context.Context, teamIDs []int64) ([]model.RosterEntry, error)
	LeagueSlotCapacity(ctx context.Context, leagueID int64) (map[string]int, error)
	WeightedScores(ctx context.Context, leagueID int64, season, week int, playerIDs []int) (map[int]model.PlayerScore, error)
	WeeklyStats(ctx context.Context, season, week int, playerIDs []int) (map[int]model.PlayerStats, error)
	UnavailablePlayers(ctx context.Context, season, week int) (map[int]string, error)
}

// Request identifies the league, week, and the user's teams to evaluate.
type Request struct {
	LeagueID   int64
	LeagueName string
	Season     int
	Week       int
	TeamIDs    []int64
}

// Recommendation is one actionable start/bench disagreement.
type Recommendation struct {
	PlayerID   int     `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Position   string  `json:"position"`
	TeamID     int64   `json:"team_id"`
	TeamName   string  `json:"team_name"`
	Action     string  `json:"action"`
	Rank       int     `json:"rank"` // 1-based within the position group
	GroupSize  int     `json:"group_size"`
	Capacity   int     `json:"capacity"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
}

// Engine computes recommendations.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New creates an Engine.
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// rankedPlayer is a roster entry joined to its ranking inputs.
type rankedPlayer struct {
	entry model.RosterEntry
	score model.PlayerScore
	stats model.PlayerStats
}

// Recommend evaluates every roster entry of the requested teams. An empty
// team set yields an empty result, not an error.
func (e *Engine) Recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	if req.LeagueID == 0 || req.Season == 0 || req.Week == 0 {
		return nil, fmt.Errorf("league, season, and week are required")
	}

	entries, err := e.store.RosterEntries(ctx, req.TeamIDs)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if len(entries) == 0 {
		return []Recommendation{}, nil
	}

	playerIDs := make([]int, 0, len(entries))
	for _, entry := range entries {
		playerIDs = append(playerIDs, entry.PlayerID)
	}

	scores, err := e.store.WeightedScores(ctx, req.LeagueID, req.Season, req.Week, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	// Stats and injuries are independent read-only fetches.
	var (
		wg        sync.WaitGroup
		stats     map[int]model.PlayerStats
		injured   map[int]string
		statsErr  error
		injuryErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		stats, statsErr = e.store.WeeklyStats(ctx, req.Season, req.Week, playerIDs)
	}()
	go func() {
		defer wg.Done()
		injured, injuryErr = e.store.UnavailablePlayers(ctx, req.Season, req.Week)
	}()
	wg.Wait()
	if statsErr != nil {
		return nil, fmt.Errorf("load stats: %w", statsErr)
	}
	if injuryErr != nil {
		return nil, fmt.Errorf("load injuries: %w", injuryErr)
	}

	capacities, err := e.store.LeagueSlotCapacity(ctx, req.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("load league config: %w", err)
	}

	// Group by (position, fantasy team): flex and bench decisions are
	// team-local, never league-wide.
	type groupKey struct {
		Position string
		TeamID   int64
	}
	groups := make(map[groupKey][]rankedPlayer)
	var keys []groupKey
	for _, entry := range entries {
		key := groupKey{entry.Position, entry.TeamID}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], rankedPlayer{
			entry: entry,
			score: scores[entry.PlayerID],
			stats: stats[entry.PlayerID],
		})
	}

	var recs []Recommendation
	for _, key := range keys {
		group := groups[key]

		// Descending by weighted score; stable keeps fetch order on ties.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].score.WeightedScore > group[j].score.WeightedScore
		})

		capacity := slotCapacity(capacities, key.Position)

		for rank, rp := range group {
			shouldStart := rank < capacity
			isStarting := rp.entry.Starting()

			if status, hurt := injured[rp.entry.PlayerID]; hurt && shouldStart {
				if isStarting {
					recs = append(recs, recommendation(rp, ActionBench, rank, len(group), capacity,
						injuryReason(rp, status)))
				}
				continue
			}

			if isStarting == shouldStart {
				continue
			}

			action := ActionBench
			if shouldStart {
				action = ActionStart
			}
			recs = append(recs, recommendation(rp, action, rank, len(group), capacity,
				rankReason(rp, group, rank, capacity)))
		}
	}

	e.logger.Info("recommendations computed",
		"league", req.LeagueID, "week", req.Week,
		"players", len(entries), "recommendations", len(recs))
	return recs, nil
}

// slotCapacity resolves a position's starting capacity from the league
// configuration, falling back to the fixed defaults when absent.
func slotCapacity(capacities map[string]int, position string) int {
	if c, ok := capacities[position]; ok && c > 0 {
		return c
	}
	if pc, ok := config.PositionRegistry[position]; ok {
		return pc.DefaultStarters
	}
	return 1
}

func recommendation(rp rankedPlayer, action string, rank, groupSize, capacity int, reason string) Recommendation {
	return Recommendation{
		PlayerID:   rp.entry.PlayerID,
		PlayerName: rp.entry.PlayerName,
		Position:   rp.entry.Position,
		TeamID:     rp.entry.TeamID,
		TeamName:   rp.entry.TeamName,
		Action:     action,
		Rank:       rank + 1,
		GroupSize:  groupSize,
		Capacity:   capacity,
		Score:      rp.score.WeightedScore,
		Reason:     reason,
	}
}
