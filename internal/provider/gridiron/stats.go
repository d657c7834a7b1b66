package gridiron

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/startsit/startsit-data/internal/model"
)

// statsRaw is one weekly stat record. The stats payload is a loosely typed
// map of category name to value; the provider nests some values inside
// {"total": n} objects, so every read goes through ExtractValue.
type statsRaw struct {
	PlayerID int                    `json:"player_id"`
	Team     string                 `json:"team"`
	Week     int                    `json:"week"`
	Stats    map[string]interface{} `json:"stats"`
}

// WeeklyStats iterates all player stat rows for a (season, week, source),
// calling fn for each. source is "actual" or "projected".
func (c *Client) WeeklyStats(ctx context.Context, season, week int, source string, fn func(model.PlayerStats) error) error {
	params := url.Values{
		"season": {strconv.Itoa(season)},
		"week":   {strconv.Itoa(week)},
		"source": {source},
	}

	return c.paginate(ctx, "/stats/weekly", params, func(records json.RawMessage) (int, error) {
		var raw []statsRaw
		if err := json.Unmarshal(records, &raw); err != nil {
			return 0, err
		}
		for _, r := range raw {
			if err := fn(normalizeStats(r, season, source)); err != nil {
				return 0, err
			}
		}
		return len(raw), nil
	})
}

func normalizeStats(raw statsRaw, season int, source string) model.PlayerStats {
	stat := func(key string) float64 {
		v, _ := ExtractValue(raw.Stats[key])
		return v
	}
	return model.PlayerStats{
		PlayerID: raw.PlayerID,
		Season:   season,
		Week:     raw.Week,
		Source:   source,
		Team:     raw.Team,
		Line: model.StatLine{
			PassAttempts:    stat("pass_attempts"),
			PassCompletions: stat("pass_completions"),
			PassYards:       stat("pass_yards"),
			PassTDs:         stat("pass_tds"),
			Interceptions:   stat("interceptions"),
			Carries:         stat("carries"),
			RushYards:       stat("rush_yards"),
			RushTDs:         stat("rush_tds"),
			Targets:         stat("targets"),
			Receptions:      stat("receptions"),
			RecYards:        stat("rec_yards"),
			RecTDs:          stat("rec_tds"),
			FantasyPoints:   stat("fantasy_points"),
		},
	}
}
