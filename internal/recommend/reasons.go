package recommend

import (
	"fmt"
	"strings"

	"github.com/startsit/startsit-data/internal/model"
)

// injuryReason explains a forced bench for an unavailable player.
func injuryReason(rp rankedPlayer, status string) string {
	return fmt.Sprintf("%s is %s and should not start despite a %.1f score. Bench until cleared.",
		rp.entry.PlayerName, status, rp.score.WeightedScore)
}

// rankReason builds a position-aware justification: rank within the group,
// the player's relevant projection line, and the nearest player across the
// start/bench boundary.
func rankReason(rp rankedPlayer, group []rankedPlayer, rank, capacity int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s ranks %d of %d at %s (%d starting slot",
		rp.entry.PlayerName, rank+1, len(group), rp.entry.Position, capacity)
	if capacity != 1 {
		b.WriteString("s")
	}
	b.WriteString(")")

	if line := projectionLine(rp.entry.Position, rp.stats.Line); line != "" {
		fmt.Fprintf(&b, " with %s", line)
	}
	b.WriteString(".")

	// Nearest player on the other side of the boundary: the last starter
	// when benching, the first benched rank when starting.
	var neighbor *rankedPlayer
	if rank < capacity && capacity < len(group) {
		neighbor = &group[capacity]
	} else if rank >= capacity && capacity > 0 && capacity <= len(group) {
		neighbor = &group[capacity-1]
	}
	if neighbor != nil && neighbor.entry.PlayerID != rp.entry.PlayerID {
		diff := rp.score.WeightedScore - neighbor.score.WeightedScore
		if diff >= 0 {
			fmt.Fprintf(&b, " Scores %.1f, ahead of %s by %.1f.",
				rp.score.WeightedScore, neighbor.entry.PlayerName, diff)
		} else {
			fmt.Fprintf(&b, " Scores %.1f, behind %s by %.1f.",
				rp.score.WeightedScore, neighbor.entry.PlayerName, -diff)
		}
	}

	return b.String()
}

// projectionLine formats the per-category projections relevant to a position.
func projectionLine(position string, line model.StatLine) string {
	switch position {
	case model.PositionQB:
		return fmt.Sprintf("%.0f pass yds, %.1f pass TD, %.0f rush yds projected",
			line.PassYards, line.PassTDs, line.RushYards)
	case model.PositionRB:
		return fmt.Sprintf("%.1f carries, %.0f rush yds, %.1f rec projected",
			line.Carries, line.RushYards, line.Receptions)
	case model.PositionWR, model.PositionTE:
		return fmt.Sprintf("%.1f targets, %.1f rec, %.0f rec yds projected",
			line.Targets, line.Receptions, line.RecYards)
	case model.PositionK, model.PositionDEF:
		return fmt.Sprintf("%.1f fantasy points projected", line.FantasyPoints)
	default:
		return ""
	}
}
