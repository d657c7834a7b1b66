package gridiron

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/startsit/startsit-data/internal/model"
)

type playerRaw struct {
	PlayerID     int    `json:"player_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Position     string `json:"position"`
	Team         string `json:"team"`
	InjuryStatus string `json:"injury_status"`
}

// Players iterates every NFL player via offset pagination, calling fn for
// each. An optional position filter narrows the fetch.
func (c *Client) Players(ctx context.Context, position string, fn func(model.Player) error) error {
	params := url.Values{}
	if position != "" {
		params.Set("position", position)
	}

	return c.paginate(ctx, "/players", params, func(records json.RawMessage) (int, error) {
		var raw []playerRaw
		if err := json.Unmarshal(records, &raw); err != nil {
			return 0, err
		}
		for _, p := range raw {
			if err := fn(normalizePlayer(p)); err != nil {
				return 0, err
			}
		}
		return len(raw), nil
	})
}

func normalizePlayer(raw playerRaw) model.Player {
	name := raw.FirstName + " " + raw.LastName
	if name == " " {
		name = fmt.Sprintf("Player %d", raw.PlayerID)
	}
	return model.Player{
		ExternalID:   raw.PlayerID,
		Name:         name,
		Position:     raw.Position,
		Team:         raw.Team,
		InjuryStatus: raw.InjuryStatus,
	}
}
