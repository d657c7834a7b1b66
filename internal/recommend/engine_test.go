package recommend

import (
	"context"
	"strings"
	"testing"

	"github.com/startsit/startsit-data/internal/model"
)

// fakeStore serves fixtures for one league/week.
type fakeStore struct {
	entries    []model.RosterEntry
	capacities map[string]int
	scores     map[int]model.PlayerScore
	stats      map[int]model.PlayerStats
	injured    map[int]string
}

func (s *fakeStore) RosterEntries(_ context.Context, teamIDs []int64) ([]model.RosterEntry, error) {
	want := map[int64]bool{}
	for _, id := range teamIDs {
		want[id] = true
	}
	var out []model.RosterEntry
	for _, e := range s.entries {
		if want[e.TeamID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) LeagueSlotCapacity(context.Context, int64) (map[string]int, error) {
	if s.capacities == nil {
		return map[string]int{}, nil
	}
	return s.capacities, nil
}

func (s *fakeStore) WeightedScores(_ context.Context, _ int64, _, _ int, _ []int) (map[int]model.PlayerScore, error) {
	return s.scores, nil
}

func (s *fakeStore) WeeklyStats(_ context.Context, _, _ int, _ []int) (map[int]model.PlayerStats, error) {
	if s.stats == nil {
		return map[int]model.PlayerStats{}, nil
	}
	return s.stats, nil
}

func (s *fakeStore) UnavailablePlayers(context.Context, int, int) (map[int]string, error) {
	if s.injured == nil {
		return map[int]string{}, nil
	}
	return s.injured, nil
}

func entry(teamID int64, playerID int, name, position, slot string) model.RosterEntry {
	return model.RosterEntry{
		TeamID: teamID, TeamName: "Team", PlayerID: playerID,
		PlayerName: name, Position: position, Slot: slot,
	}
}

func score(id int, weighted float64) model.PlayerScore {
	return model.PlayerScore{PlayerID: id, WeightedScore: weighted}
}

func request() Request {
	return Request{LeagueID: 42, Season: 2025, Week: 3, TeamIDs: []int64{7}}
}

func recommendOrFail(t *testing.T, store *fakeStore, req Request) []Recommendation {
	t.Helper()
	recs, err := New(store, nil).Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	return recs
}

func TestRecommend_EmptyTeamSet(t *testing.T) {
	store := &fakeStore{entries: []model.RosterEntry{
		entry(7, 1, "A", "RB", "RB"),
	}}
	req := request()
	req.TeamIDs = nil

	recs := recommendOrFail(t, store, req)
	if len(recs) != 0 {
		t.Errorf("recommendations = %d, want 0 for empty team set", len(recs))
	}
}

func TestRecommend_SilenceOnAgreement(t *testing.T) {
	// Two RBs, capacity 2, both starting: nothing to say.
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "Starter One", "RB", "RB"),
			entry(7, 2, "Starter Two", "RB", "RB"),
		},
		scores: map[int]model.PlayerScore{1: score(1, 20), 2: score(2, 15)},
	}

	recs := recommendOrFail(t, store, request())
	if len(recs) != 0 {
		t.Errorf("recommendations = %d, want 0 when placement agrees", len(recs))
	}
}

func TestRecommend_SwapOnDisagreement(t *testing.T) {
	// Bench player outscores a starter at RB (capacity 2 default):
	// one START and one BENCH recommendation.
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "Weak Starter", "RB", "RB"),
			entry(7, 2, "Strong Starter", "RB", "RB"),
			entry(7, 3, "Hot Bench", "RB", model.SlotBench),
		},
		scores: map[int]model.PlayerScore{1: score(1, 8), 2: score(2, 20), 3: score(3, 15)},
	}

	recs := recommendOrFail(t, store, request())
	if len(recs) != 2 {
		t.Fatalf("recommendations = %d, want 2", len(recs))
	}

	byPlayer := map[int]Recommendation{}
	for _, r := range recs {
		byPlayer[r.PlayerID] = r
	}
	if byPlayer[3].Action != ActionStart {
		t.Errorf("player 3 action = %s, want START", byPlayer[3].Action)
	}
	if byPlayer[1].Action != ActionBench {
		t.Errorf("player 1 action = %s, want BENCH", byPlayer[1].Action)
	}
	if _, ok := byPlayer[2]; ok {
		t.Error("player 2 is correctly placed and should be silent")
	}
}

func TestRecommend_ShouldStartCountEqualsCapacity(t *testing.T) {
	// Five WRs on one team, capacity 2: exactly 2 rank within capacity.
	// All are benched, so exactly 2 START recommendations appear.
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "W1", "WR", model.SlotBench),
			entry(7, 2, "W2", "WR", model.SlotBench),
			entry(7, 3, "W3", "WR", model.SlotBench),
			entry(7, 4, "W4", "WR", model.SlotBench),
			entry(7, 5, "W5", "WR", model.SlotBench),
		},
		scores: map[int]model.PlayerScore{
			1: score(1, 10), 2: score(2, 30), 3: score(3, 20), 4: score(4, 5), 5: score(5, 1),
		},
	}

	recs := recommendOrFail(t, store, request())

	starts := 0
	for _, r := range recs {
		if r.Action == ActionStart {
			starts++
		}
	}
	if starts != 2 {
		t.Errorf("START recommendations = %d, want 2 (capacity)", starts)
	}
}

func TestRecommend_CapacityExceedsGroupSize(t *testing.T) {
	// One benched RB, capacity 2: should-start count is min(capacity, size).
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "Lone RB", "RB", model.SlotBench),
		},
		scores: map[int]model.PlayerScore{1: score(1, 10)},
	}

	recs := recommendOrFail(t, store, request())
	if len(recs) != 1 || recs[0].Action != ActionStart {
		t.Fatalf("recs = %+v, want one START", recs)
	}
}

func TestRecommend_InjuredNeverStarts(t *testing.T) {
	// Top-ranked starter is Out: forced BENCH regardless of rank.
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "Hurt Star", "RB", "RB"),
			entry(7, 2, "Backup", "RB", model.SlotBench),
		},
		scores:  map[int]model.PlayerScore{1: score(1, 25), 2: score(2, 10)},
		injured: map[int]string{1: "Out"},
	}

	recs := recommendOrFail(t, store, request())

	var hurt *Recommendation
	for i := range recs {
		if recs[i].PlayerID == 1 {
			hurt = &recs[i]
		}
		if recs[i].PlayerID == 1 && recs[i].Action == ActionStart {
			t.Fatal("injured player recommended START")
		}
	}
	if hurt == nil {
		t.Fatal("injured starter produced no recommendation")
	}
	if hurt.Action != ActionBench {
		t.Errorf("injured action = %s, want BENCH", hurt.Action)
	}
	if !strings.Contains(hurt.Reason, "Out") {
		t.Errorf("injury reason %q does not cite the status", hurt.Reason)
	}
}

func TestRecommend_InjuredAlreadyBenchedIsSilent(t *testing.T) {
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "Hurt Bench", "QB", model.SlotBench),
		},
		scores:  map[int]model.PlayerScore{1: score(1, 25)},
		injured: map[int]string{1: "IR"},
	}

	recs := recommendOrFail(t, store, request())
	if len(recs) != 0 {
		t.Errorf("recommendations = %d, want 0 for injured player already benched", len(recs))
	}
}

func TestRecommend_LeagueCapacityOverridesDefault(t *testing.T) {
	// League configures 3 WR starters; the rank-3 bench WR should start.
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "W1", "WR", "WR"),
			entry(7, 2, "W2", "WR", "WR"),
			entry(7, 3, "W3", "WR", model.SlotBench),
		},
		capacities: map[string]int{"WR": 3},
		scores:     map[int]model.PlayerScore{1: score(1, 30), 2: score(2, 20), 3: score(3, 10)},
	}

	recs := recommendOrFail(t, store, request())
	if len(recs) != 1 || recs[0].PlayerID != 3 || recs[0].Action != ActionStart {
		t.Fatalf("recs = %+v, want player 3 START under capacity 3", recs)
	}
}

func TestRecommend_GroupsAreTeamLocal(t *testing.T) {
	// The same position on two teams ranks independently: each team's
	// best QB should start even though one scores lower league-wide.
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "Big QB", "QB", model.SlotBench),
			entry(9, 2, "Small QB", "QB", model.SlotBench),
		},
		scores: map[int]model.PlayerScore{1: score(1, 30), 2: score(2, 5)},
	}
	req := request()
	req.TeamIDs = []int64{7, 9}

	recs := recommendOrFail(t, store, req)
	if len(recs) != 2 {
		t.Fatalf("recommendations = %d, want 2 (one per team)", len(recs))
	}
	for _, r := range recs {
		if r.Action != ActionStart {
			t.Errorf("player %d action = %s, want START in its own group", r.PlayerID, r.Action)
		}
		if r.Rank != 1 {
			t.Errorf("player %d rank = %d, want 1 within its team group", r.PlayerID, r.Rank)
		}
	}
}

func TestRecommend_StableTieBreakKeepsFetchOrder(t *testing.T) {
	// Equal scores: the earlier-fetched player keeps the higher rank.
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "First Fetched", "TE", "TE"),
			entry(7, 2, "Second Fetched", "TE", model.SlotBench),
		},
		scores: map[int]model.PlayerScore{1: score(1, 12), 2: score(2, 12)},
	}

	recs := recommendOrFail(t, store, request())
	if len(recs) != 0 {
		t.Errorf("recommendations = %d, want 0 (tie keeps starter in place)", len(recs))
	}
}

func TestRecommend_ReasonMentionsRankAndBoundary(t *testing.T) {
	store := &fakeStore{
		entries: []model.RosterEntry{
			entry(7, 1, "Weak Starter", "WR", "WR"),
			entry(7, 2, "Other Starter", "WR", "WR"),
			entry(7, 3, "Hot Bench", "WR", model.SlotBench),
		},
		scores: map[int]model.PlayerScore{1: score(1, 5), 2: score(2, 20), 3: score(3, 18)},
		stats: map[int]model.PlayerStats{
			3: {PlayerID: 3, Source: model.SourceProjected,
				Line: model.StatLine{Targets: 8, Receptions: 6, RecYards: 75}},
		},
	}

	recs := recommendOrFail(t, store, request())

	var start *Recommendation
	for i := range recs {
		if recs[i].PlayerID == 3 {
			start = &recs[i]
		}
	}
	if start == nil {
		t.Fatal("no START recommendation for player 3")
	}
	for _, want := range []string{"ranks 2 of 3", "targets", "Weak Starter"} {
		if !strings.Contains(start.Reason, want) {
			t.Errorf("reason %q missing %q", start.Reason, want)
		}
	}
}
