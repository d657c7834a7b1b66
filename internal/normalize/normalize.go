package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/startsit/startsit-data/internal/model"
)

// defaultPageSize bounds each population fetch. The loop is exhaustive: all
// players at the position/week are included regardless of how many pages
// that takes.
const defaultPageSize = 200

// Store is the persistence surface the normalizer reads and writes.
type Store interface {
	AveragesPage(ctx context.Context, position string, season, week, limit, offset int) ([]model.PlayerAverages, error)
	WriteNormalized(ctx context.Context, rows []model.NormalizedRow) error
}

// Normalizer rescales position-scoped efficiency metrics to [0,1] across the
// full player population of a week.
type Normalizer struct {
	store    Store
	pageSize int
	logger   *slog.Logger
}

// New creates a Normalizer.
func New(store Store, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{store: store, pageSize: defaultPageSize, logger: logger}
}

// Normalize recomputes every metric of a position for one week. Each metric
// is normalized independently: min maps to 0, max to 1, zero variance maps
// everyone to 0, and a missing input leaves that metric nil without
// disqualifying the player's other metrics. Outputs are rounded to 3
// decimals. The full recomputation is idempotent.
func (n *Normalizer) Normalize(ctx context.Context, position string, season, week int) error {
	metrics := MetricsForPosition(position)
	if len(metrics) == 0 {
		n.logger.Info("position has no normalized metrics", "position", position)
		return nil
	}

	population, err := n.loadPopulation(ctx, position, season, week)
	if err != nil {
		return err
	}
	if len(population) == 0 {
		n.logger.Info("empty population", "position", position, "season", season, "week", week)
		return nil
	}

	rows := NormalizePopulation(population, metrics, season, week)

	if err := n.store.WriteNormalized(ctx, rows); err != nil {
		return fmt.Errorf("write normalized %s week %d: %w", position, week, err)
	}
	n.logger.Info("normalization complete",
		"position", position, "season", season, "week", week, "players", len(rows))
	return nil
}

// loadPopulation pages through the full position population.
func (n *Normalizer) loadPopulation(ctx context.Context, position string, season, week int) ([]model.PlayerAverages, error) {
	var all []model.PlayerAverages
	offset := 0
	for {
		page, err := n.store.AveragesPage(ctx, position, season, week, n.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("load %s population at offset %d: %w", position, offset, err)
		}
		all = append(all, page...)
		if len(page) < n.pageSize {
			return all, nil
		}
		offset += len(page)
	}
}

// NormalizePopulation computes min-max normalized values for every metric
// over the given population. Pure function, shared with tests.
func NormalizePopulation(population []model.PlayerAverages, metrics []Metric, season, week int) []model.NormalizedRow {
	// Raw metric values per player, nil preserved.
	values := make([][]*float64, len(population))
	for i, pa := range population {
		values[i] = make([]*float64, len(metrics))
		for j, m := range metrics {
			values[i][j] = m.Value(pa.Averages)
		}
	}

	rows := make([]model.NormalizedRow, len(population))
	for i, pa := range population {
		rows[i] = model.NormalizedRow{
			PlayerID: pa.PlayerID,
			Season:   season,
			Week:     week,
			Norms:    make(map[string]*float64, len(metrics)),
		}
	}

	for j, m := range metrics {
		min, max, any := minMax(values, j)
		for i := range population {
			v := values[i][j]
			if v == nil {
				rows[i].Norms[m.Key] = nil
				continue
			}
			var norm float64
			if !any || max == min {
				norm = 0
			} else {
				norm = (*v - min) / (max - min)
			}
			norm = round3(norm)
			rows[i].Norms[m.Key] = &norm
		}
	}
	return rows
}

// minMax scans column j of the value matrix, ignoring nils.
func minMax(values [][]*float64, j int) (min, max float64, any bool) {
	for i := range values {
		v := values[i][j]
		if v == nil {
			continue
		}
		if !any || *v < min {
			min = *v
		}
		if !any || *v > max {
			max = *v
		}
		any = true
	}
	return min, max, any
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
