// Package normalize computes per-position, per-week min-max normalization of
// rolling efficiency metrics across the full player population.
package normalize

import "github.com/startsit/startsit-data/internal/model"

// Metric is one position-scoped efficiency metric derived from rolling
// averages. Value returns nil when the underlying averages are missing.
type Metric struct {
	Key   string
	Value func(model.WeeklyAverages) *float64
}

// MetricsForPosition returns the metric set normalized for a position.
// K and DEF have none.
func MetricsForPosition(position string) []Metric {
	switch position {
	case model.PositionQB:
		return qbMetrics
	case model.PositionRB:
		return rbMetrics
	case model.PositionWR, model.PositionTE:
		return receiverMetrics
	default:
		return nil
	}
}

var qbMetrics = []Metric{
	{Key: "pass_attempts", Value: func(a model.WeeklyAverages) *float64 {
		return a.PassAttempts
	}},
	{Key: "yards_per_attempt", Value: func(a model.WeeklyAverages) *float64 {
		return ratio(a.PassYards, a.PassAttempts)
	}},
	{Key: "pass_td_production", Value: func(a model.WeeklyAverages) *float64 {
		return a.PassTDs
	}},
	{Key: "rush_yards", Value: func(a model.WeeklyAverages) *float64 {
		return a.RushYards
	}},
}

var rbMetrics = []Metric{
	// Weighted opportunity: carries plus targets at 1.5x, since a target is
	// worth more than a carry in PPR formats.
	{Key: "opportunity", Value: func(a model.WeeklyAverages) *float64 {
		if a.Carries == nil && a.Targets == nil {
			return nil
		}
		v := deref(a.Carries) + 1.5*deref(a.Targets)
		return &v
	}},
	{Key: "td_production", Value: func(a model.WeeklyAverages) *float64 {
		if a.RushTDs == nil && a.RecTDs == nil {
			return nil
		}
		v := deref(a.RushTDs) + deref(a.RecTDs)
		return &v
	}},
	{Key: "receptions", Value: func(a model.WeeklyAverages) *float64 {
		return a.Receptions
	}},
	{Key: "yards_per_touch", Value: func(a model.WeeklyAverages) *float64 {
		if a.Carries == nil && a.Receptions == nil {
			return nil
		}
		touches := deref(a.Carries) + deref(a.Receptions)
		if touches == 0 {
			return nil
		}
		v := (deref(a.RushYards) + deref(a.RecYards)) / touches
		return &v
	}},
}

var receiverMetrics = []Metric{
	{Key: "targets_per_game", Value: func(a model.WeeklyAverages) *float64 {
		return a.Targets
	}},
	{Key: "catch_rate", Value: func(a model.WeeklyAverages) *float64 {
		return ratio(a.Receptions, a.Targets)
	}},
	{Key: "yards_per_target", Value: func(a model.WeeklyAverages) *float64 {
		return ratio(a.RecYards, a.Targets)
	}},
}

// ratio returns num/den, or nil when either input is missing or den is zero.
func ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	v := *num / *den
	return &v
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
