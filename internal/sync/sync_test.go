package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/startsit/startsit-data/internal/model"
	"github.com/startsit/startsit-data/internal/store"
)

// fakeProvider serves canned upstream data.
type fakeProvider struct {
	players  []model.Player
	stats    map[string][]model.PlayerStats // keyed by source
	matchups []model.Matchup

	playersErr error
	statsErr   error
}

func (p *fakeProvider) Players(_ context.Context, _ string, fn func(model.Player) error) error {
	if p.playersErr != nil {
		return p.playersErr
	}
	for _, pl := range p.players {
		if err := fn(pl); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakeProvider) WeeklyStats(_ context.Context, _, _ int, source string, fn func(model.PlayerStats) error) error {
	if p.statsErr != nil {
		return p.statsErr
	}
	for _, ps := range p.stats[source] {
		if err := fn(ps); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakeProvider) Matchups(_ context.Context, _, _ int, fn func(model.Matchup) error) error {
	for _, m := range p.matchups {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// closedLog records one CloseSyncLog call.
type closedLog struct {
	ID        int64
	Status    string
	Processed int
	ErrMsg    string
}

// opponentCall records one SetOpponentDefense call.
type opponentCall struct {
	PlayerID  int
	DefenseID int
}

// fakeStore is an in-memory Store. Upserts are keyed so re-runs overwrite
// instead of duplicating.
type fakeStore struct {
	players  map[int]model.Player
	injuries map[int]string
	stats    map[string]model.PlayerStats // key player/week/source
	matchups map[string]model.Matchup
	defense  map[string]model.DefensePointsAgainst

	openedTypes []string
	closed      []closedLog
	jobs        []model.SyncJob

	recomputeCalls int
	recomputeErr   error

	// failPlayerBatchStart fails the player upsert batch beginning at this
	// offset; -1 disables.
	failPlayerBatchStart int
	upsertedSoFar        int

	pending        []model.PlayerStats
	schedule       map[string]model.Matchup // team -> matchup
	defenseIDs     map[string]int           // team -> defense player id
	opponentCalls  []opponentCall
	leagues        []int64
	defensePlayers []model.Player
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:              map[int]model.Player{},
		injuries:             map[int]string{},
		stats:                map[string]model.PlayerStats{},
		matchups:             map[string]model.Matchup{},
		defense:              map[string]model.DefensePointsAgainst{},
		schedule:             map[string]model.Matchup{},
		defenseIDs:           map[string]int{},
		failPlayerBatchStart: -1,
	}
}

func (s *fakeStore) UpsertPlayers(_ context.Context, players []model.Player) error {
	start := s.upsertedSoFar
	s.upsertedSoFar += len(players)
	if s.failPlayerBatchStart == start {
		return errors.New("deadlock detected")
	}
	for _, p := range players {
		s.players[p.ExternalID] = p
	}
	return nil
}

func (s *fakeStore) UpsertInjuries(_ context.Context, _, _ int, players []model.Player) error {
	for _, p := range players {
		if p.InjuryStatus != "" {
			s.injuries[p.ExternalID] = p.InjuryStatus
		}
	}
	return nil
}

func (s *fakeStore) UpsertPlayerStats(_ context.Context, rows []model.PlayerStats) error {
	for _, r := range rows {
		key := fmt.Sprintf("%d/%d/%s", r.PlayerID, r.Week, r.Source)
		s.stats[key] = r
	}
	return nil
}

func (s *fakeStore) UpsertMatchups(_ context.Context, matchups []model.Matchup) error {
	for _, m := range matchups {
		key := fmt.Sprintf("%s@%s/%d", m.AwayTeam, m.HomeTeam, m.Week)
		s.matchups[key] = m
	}
	return nil
}

func (s *fakeStore) UpsertDefensePoints(_ context.Context, rows []model.DefensePointsAgainst) error {
	for _, r := range rows {
		key := fmt.Sprintf("%d/%d/%d", r.LeagueID, r.DefensePlayerID, r.Week)
		s.defense[key] = r
	}
	return nil
}

func (s *fakeStore) RecomputeRollingAverages(context.Context, int, int) (int, error) {
	if s.recomputeErr != nil {
		return 0, s.recomputeErr
	}
	s.recomputeCalls++
	return len(s.stats), nil
}

func (s *fakeStore) StatsMissingOpponent(context.Context, int, int) ([]model.PlayerStats, error) {
	return s.pending, nil
}

func (s *fakeStore) MatchupForTeam(_ context.Context, team string, _, _ int) (model.Matchup, error) {
	m, ok := s.schedule[team]
	if !ok {
		return model.Matchup{}, store.ErrNoMatchup
	}
	return m, nil
}

func (s *fakeStore) DefenseByTeam(_ context.Context, team string) (int, error) {
	id, ok := s.defenseIDs[team]
	if !ok {
		return 0, fmt.Errorf("no defense for %s", team)
	}
	return id, nil
}

func (s *fakeStore) SetOpponentDefense(_ context.Context, playerID, _, _ int, _ string, defenseID int) error {
	s.opponentCalls = append(s.opponentCalls, opponentCall{PlayerID: playerID, DefenseID: defenseID})
	return nil
}

func (s *fakeStore) DefensePlayers(context.Context) ([]model.Player, error) {
	return s.defensePlayers, nil
}

func (s *fakeStore) LeagueIDs(context.Context, int) ([]int64, error) {
	return s.leagues, nil
}

func (s *fakeStore) PointsAgainstTotals(_ context.Context, leagueID int64, defenseID, season, week int) (model.DefensePointsAgainst, error) {
	return model.DefensePointsAgainst{
		LeagueID:        leagueID,
		DefensePlayerID: defenseID,
		Season:          season,
		Week:            week,
		TotalPoints:     10,
	}, nil
}

func (s *fakeStore) OpenSyncLog(_ context.Context, syncType string, _ *int64) (int64, error) {
	s.openedTypes = append(s.openedTypes, syncType)
	return int64(len(s.openedTypes)), nil
}

func (s *fakeStore) CloseSyncLog(_ context.Context, id int64, status string, processed int, errMsg string) error {
	s.closed = append(s.closed, closedLog{ID: id, Status: status, Processed: processed, ErrMsg: errMsg})
	return nil
}

func (s *fakeStore) EnqueueJob(_ context.Context, job model.SyncJob) error {
	s.jobs = append(s.jobs, job)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func somePlayers(n int) []model.Player {
	players := make([]model.Player, n)
	for i := range players {
		players[i] = model.Player{ExternalID: i + 1, Name: fmt.Sprintf("Player %d", i+1), Position: "RB", Team: "KC"}
	}
	return players
}

func TestSyncPlayers_AuditLifecycle(t *testing.T) {
	players := somePlayers(3)
	players[1].InjuryStatus = "Questionable"
	st := newFakeStore()
	syncer := New(&fakeProvider{players: players}, st, quietLogger())

	result := syncer.SyncPlayers(context.Background(), 2025, 4)

	if result.Fetched != 3 || result.Processed != 3 {
		t.Errorf("fetched/processed = %d/%d, want 3/3", result.Fetched, result.Processed)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v, want none", result.Errors)
	}
	if got := st.openedTypes; len(got) != 1 || got[0] != TypePlayers {
		t.Errorf("opened sync logs = %v, want [%s]", got, TypePlayers)
	}
	if len(st.closed) != 1 {
		t.Fatalf("closed sync logs = %d, want 1", len(st.closed))
	}
	if c := st.closed[0]; c.Status != model.SyncCompleted || c.Processed != 3 || c.ErrMsg != "" {
		t.Errorf("close = %+v, want completed/3/no error", c)
	}
	if st.injuries[2] != "Questionable" {
		t.Errorf("injury for player 2 = %q, want Questionable", st.injuries[2])
	}
}

func TestSyncPlayers_FetchFailureClosesFailed(t *testing.T) {
	st := newFakeStore()
	provider := &fakeProvider{playersErr: errors.New("upstream 503")}
	syncer := New(provider, st, quietLogger())

	result := syncer.SyncPlayers(context.Background(), 2025, 4)

	if result.Processed != 0 {
		t.Errorf("processed = %d, want 0", result.Processed)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected a recorded error")
	}
	if len(st.closed) != 1 || st.closed[0].Status != model.SyncFailed {
		t.Fatalf("closed = %+v, want one failed close", st.closed)
	}
	if !strings.Contains(st.closed[0].ErrMsg, "upstream 503") {
		t.Errorf("close error %q does not carry the cause", st.closed[0].ErrMsg)
	}
}

func TestSyncPlayers_BatchFailureSkipsAndContinues(t *testing.T) {
	// 250 players at batch size 100: batches at 0, 100, 200. Failing the
	// middle batch must not stop the third.
	st := newFakeStore()
	st.failPlayerBatchStart = 100
	syncer := New(&fakeProvider{players: somePlayers(250)}, st, quietLogger())

	result := syncer.SyncPlayers(context.Background(), 2025, 4)

	if result.Processed != 150 {
		t.Errorf("processed = %d, want 150 (first and last batch)", result.Processed)
	}
	if result.BatchesSkipped != 1 {
		t.Errorf("batches skipped = %d, want 1", result.BatchesSkipped)
	}
	if len(st.players) != 150 {
		t.Errorf("stored players = %d, want 150", len(st.players))
	}
	// A skipped batch degrades the run, it does not fail it.
	if st.closed[0].Status != model.SyncCompleted {
		t.Errorf("close status = %s, want completed", st.closed[0].Status)
	}
}

func TestSyncPlayers_RerunIsIdempotent(t *testing.T) {
	st := newFakeStore()
	syncer := New(&fakeProvider{players: somePlayers(5)}, st, quietLogger())

	syncer.SyncPlayers(context.Background(), 2025, 4)
	syncer.SyncPlayers(context.Background(), 2025, 4)

	if len(st.players) != 5 {
		t.Errorf("stored players after re-run = %d, want 5", len(st.players))
	}
	if len(st.closed) != 2 {
		t.Errorf("sync log closes = %d, want 2 (one per run)", len(st.closed))
	}
}

func TestSyncStats_BothSourcesAndAverages(t *testing.T) {
	st := newFakeStore()
	provider := &fakeProvider{stats: map[string][]model.PlayerStats{
		model.SourceActual: {
			{PlayerID: 1, Season: 2025, Week: 4, Source: model.SourceActual},
			{PlayerID: 2, Season: 2025, Week: 4, Source: model.SourceActual},
		},
		model.SourceProjected: {
			{PlayerID: 1, Season: 2025, Week: 4, Source: model.SourceProjected},
		},
	}}
	syncer := New(provider, st, quietLogger())

	result := syncer.SyncStats(context.Background(), 2025, 4)

	if result.Fetched != 3 || result.Processed != 3 {
		t.Errorf("fetched/processed = %d/%d, want 3/3", result.Fetched, result.Processed)
	}
	if len(st.stats) != 3 {
		t.Errorf("stored stat rows = %d, want 3 (sources kept separate)", len(st.stats))
	}
	if st.recomputeCalls != 1 {
		t.Errorf("rolling average recomputes = %d, want 1", st.recomputeCalls)
	}
}

func TestSyncStats_AverageFailureIsNonFatal(t *testing.T) {
	st := newFakeStore()
	st.recomputeErr = errors.New("function timeout")
	provider := &fakeProvider{stats: map[string][]model.PlayerStats{
		model.SourceActual: {{PlayerID: 1, Season: 2025, Week: 4, Source: model.SourceActual}},
	}}
	syncer := New(provider, st, quietLogger())

	result := syncer.SyncStats(context.Background(), 2025, 4)

	if result.Processed != 1 {
		t.Errorf("processed = %d, want 1", result.Processed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v, want exactly the recompute failure", result.Errors)
	}
	if st.closed[0].Status != model.SyncCompleted {
		t.Errorf("close status = %s, want completed", st.closed[0].Status)
	}
}

func TestSyncMatchups(t *testing.T) {
	st := newFakeStore()
	provider := &fakeProvider{matchups: []model.Matchup{
		{HomeTeam: "KC", AwayTeam: "BUF", Season: 2025, Week: 4},
		{HomeTeam: "SF", AwayTeam: "DAL", Season: 2025, Week: 4},
	}}
	syncer := New(provider, st, quietLogger())

	result := syncer.SyncMatchups(context.Background(), 2025, 4)

	if result.Processed != 2 || len(st.matchups) != 2 {
		t.Errorf("processed/stored = %d/%d, want 2/2", result.Processed, len(st.matchups))
	}
	if st.openedTypes[0] != TypeMatchups {
		t.Errorf("sync type = %s, want %s", st.openedTypes[0], TypeMatchups)
	}
}

func TestEnqueueFullResync(t *testing.T) {
	st := newFakeStore()
	syncer := New(&fakeProvider{}, st, quietLogger())

	if err := syncer.EnqueueFullResync(context.Background(), 2025, 5); err != nil {
		t.Fatalf("EnqueueFullResync() error = %v", err)
	}
	if len(st.jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(st.jobs))
	}
	job := st.jobs[0]
	if job.Name != TypeFull || job.Season != 2025 || job.Priority != 5 || job.Status != "pending" {
		t.Errorf("job = %+v, want full-resync/2025/priority 5/pending", job)
	}
}

func TestSyncDefensePoints_BackfillAndTotals(t *testing.T) {
	st := newFakeStore()
	// Two pending KC rows and one for a team with no schedule entry.
	st.pending = []model.PlayerStats{
		{PlayerID: 1, Team: "KC", Season: 2025, Week: 4, Source: model.SourceActual},
		{PlayerID: 2, Team: "KC", Season: 2025, Week: 4, Source: model.SourceProjected},
		{PlayerID: 3, Team: "ZZZ", Season: 2025, Week: 4, Source: model.SourceActual},
	}
	st.schedule["KC"] = model.Matchup{HomeTeam: "KC", AwayTeam: "BUF", Season: 2025, Week: 4}
	st.defenseIDs["BUF"] = 9001
	st.leagues = []int64{10, 20}
	st.defensePlayers = []model.Player{
		{ExternalID: 9001, Position: model.PositionDEF, Team: "BUF"},
		{ExternalID: 9002, Position: model.PositionDEF, Team: "KC"},
	}
	syncer := New(&fakeProvider{}, st, quietLogger())

	result := syncer.SyncDefensePoints(context.Background(), 2025, 4)

	// Both KC rows resolve to the BUF defense; the unscheduled team is
	// skipped without failing the run.
	if len(st.opponentCalls) != 2 {
		t.Fatalf("opponent backfills = %d, want 2", len(st.opponentCalls))
	}
	for _, call := range st.opponentCalls {
		if call.DefenseID != 9001 {
			t.Errorf("player %d resolved defense %d, want 9001", call.PlayerID, call.DefenseID)
		}
	}

	// 2 leagues x 2 defenses.
	if result.Processed != 4 || len(st.defense) != 4 {
		t.Errorf("processed/stored = %d/%d, want 4/4", result.Processed, len(st.defense))
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v, want none", result.Errors)
	}
	if st.closed[0].Status != model.SyncCompleted {
		t.Errorf("close status = %s, want completed", st.closed[0].Status)
	}
}
