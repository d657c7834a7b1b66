package gridiron

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/startsit/startsit-data/internal/model"
)

type matchupRaw struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Week     int    `json:"week"`
	Kickoff  string `json:"kickoff"` // RFC 3339
}

// Matchups iterates the NFL schedule for a season, calling fn for each game.
// Pass week 0 to fetch the full season.
func (c *Client) Matchups(ctx context.Context, season, week int, fn func(model.Matchup) error) error {
	params := url.Values{"season": {strconv.Itoa(season)}}
	if week > 0 {
		params.Set("week", strconv.Itoa(week))
	}

	return c.paginate(ctx, "/schedule", params, func(records json.RawMessage) (int, error) {
		var raw []matchupRaw
		if err := json.Unmarshal(records, &raw); err != nil {
			return 0, err
		}
		for _, m := range raw {
			kickoff, _ := time.Parse(time.RFC3339, m.Kickoff)
			if err := fn(model.Matchup{
				HomeTeam: m.HomeTeam,
				AwayTeam: m.AwayTeam,
				Season:   season,
				Week:     m.Week,
				Kickoff:  kickoff,
			}); err != nil {
				return 0, err
			}
		}
		return len(raw), nil
	})
}
