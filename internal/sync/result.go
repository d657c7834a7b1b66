// Package sync drives ingestion from the upstream provider into Postgres:
// players, weekly stats, NFL matchups, and defense points-against. Every run
// opens an audit row, persists in bounded batches, and closes the audit row
// as completed or failed.
package sync

import "fmt"

// Sync type names recorded in the audit trail and job queue.
const (
	TypePlayers  = "players"
	TypeStats    = "player-stats"
	TypeMatchups = "nfl-matchups"
	TypeDefense  = "defense-points"
	TypeFull     = "full-resync"
)

// Result tracks counts and errors from a sync run. Processed reflects only
// rows persisted by successful batches.
type Result struct {
	Fetched        int
	Processed      int
	BatchesSkipped int
	Errors         []string
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("fetched=%d processed=%d batches_skipped=%d errors=%d",
		r.Fetched, r.Processed, r.BatchesSkipped, len(r.Errors))
}
