// Package model defines the canonical domain entities shared by the provider,
// store, sync, normalize, and recommend layers.
package model

import "time"

// Positions recognized by the pipeline.
const (
	PositionQB  = "QB"
	PositionRB  = "RB"
	PositionWR  = "WR"
	PositionTE  = "TE"
	PositionK   = "K"
	PositionDEF = "DEF"
)

// Stat sources. At most one row exists per (player, season, week, source).
const (
	SourceActual    = "actual"
	SourceProjected = "projected"
)

// Bench-type roster slot labels. Anything else counts as a starting slot.
const (
	SlotBench = "BN"
	SlotIR    = "IR"
)

// Player is an NFL player keyed by the upstream provider's id.
type Player struct {
	ExternalID   int
	Name         string
	Position     string
	Team         string // team abbreviation, e.g. "KC"
	InjuryStatus string // empty when healthy
}

// StatLine holds raw per-category counts for one week.
type StatLine struct {
	PassAttempts    float64
	PassCompletions float64
	PassYards       float64
	PassTDs         float64
	Interceptions   float64
	Carries         float64
	RushYards       float64
	RushTDs         float64
	Targets         float64
	Receptions      float64
	RecYards        float64
	RecTDs          float64
	FantasyPoints   float64
}

// WeeklyAverages holds trailing 3-week rolling means of the raw categories.
// Nil means the average could not be computed (no qualifying weeks).
type WeeklyAverages struct {
	PassAttempts *float64
	PassYards    *float64
	PassTDs      *float64
	Carries      *float64
	RushYards    *float64
	RushTDs      *float64
	Targets      *float64
	Receptions   *float64
	RecYards     *float64
	RecTDs       *float64
}

// PlayerStats is one stat row: (player, season, week, source).
type PlayerStats struct {
	PlayerID          int
	Season            int
	Week              int
	Source            string // actual | projected
	Team              string
	OpponentDefenseID *int // backfilled from the week's schedule
	Line              StatLine
	Averages          WeeklyAverages
}

// PlayerAverages is a normalization population member: one player's rolling
// averages at a fixed (position, season, week).
type PlayerAverages struct {
	PlayerID int
	Averages WeeklyAverages
}

// NormalizedRow carries min-max normalized metric values, keyed by metric
// name, destined for the *_norm columns of player_stats. A nil value keeps
// the column NULL.
type NormalizedRow struct {
	PlayerID int
	Season   int
	Week     int
	Norms    map[string]*float64
}

// League is a fantasy league.
type League struct {
	ExternalID  int64
	Name        string
	Season      int
	ScoringType string
	// SlotCapacity maps a starting slot label (QB, RB, WR, TE, K, DEF, FLEX)
	// to its capacity. Empty when the league has no stored configuration.
	SlotCapacity map[string]int
}

// RosterEntry is one (team, player, slot) assignment joined to player and
// team identity for ranking.
type RosterEntry struct {
	TeamID     int64
	TeamName   string
	PlayerID   int
	PlayerName string
	Position   string
	Slot       string
}

// Starting reports whether the entry occupies a starting slot.
func (r RosterEntry) Starting() bool {
	return r.Slot != SlotBench && r.Slot != SlotIR
}

// PlayerScore is the externally computed per-league ranking input.
type PlayerScore struct {
	PlayerID      int
	WeightedScore float64
	FantasyPoints float64 // raw projection
}

// Matchup is one scheduled NFL game.
type Matchup struct {
	HomeTeam string
	AwayTeam string
	Season   int
	Week     int
	Kickoff  time.Time
}

// Opponent returns the opposing team abbreviation, or "" if team is not a
// participant.
func (m Matchup) Opponent(team string) string {
	switch team {
	case m.HomeTeam:
		return m.AwayTeam
	case m.AwayTeam:
		return m.HomeTeam
	}
	return ""
}

// DefensePointsAgainst aggregates fantasy points allowed by one defense in
// one league-scored week, split by position.
type DefensePointsAgainst struct {
	LeagueID        int64
	DefensePlayerID int
	Season          int
	Week            int
	QBPoints        float64
	RBPoints        float64
	WRPoints        float64
	TEPoints        float64
	KPoints         float64
	TotalPoints     float64
}

// Sync log status values.
const (
	SyncStarted   = "started"
	SyncCompleted = "completed"
	SyncFailed    = "failed"
)

// SyncJob describes a pending heavy sync handed off to the external worker.
type SyncJob struct {
	Name     string
	Priority int
	Status   string
	Season   int
	Week     *int
}

// UnavailableStatuses are injury designations that suppress START
// recommendations regardless of rank.
var UnavailableStatuses = map[string]bool{
	"Out":       true,
	"IR":        true,
	"Doubtful":  true,
	"Suspended": true,
	"PUP":       true,
	"NFI":       true,
}
