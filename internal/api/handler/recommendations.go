package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/startsit/startsit-data/internal/api/respond"
	"github.com/startsit/startsit-data/internal/cache"
	"github.com/startsit/startsit-data/internal/recommend"
)

// GetRecommendations computes start/bench recommendations for a user's teams.
// Query params: league_id, season, week (required), team_ids (csv).
// Missing league configuration falls back to default capacities; missing
// identifiers are an explicit 400.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	leagueID, err := strconv.ParseInt(q.Get("league_id"), 10, 64)
	if err != nil || leagueID == 0 {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_LEAGUE", "league_id is required")
		return
	}
	season, _ := strconv.Atoi(q.Get("season"))
	week, _ := strconv.Atoi(q.Get("week"))
	if season == 0 || week == 0 {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_WEEK", "season and week are required")
		return
	}

	teamIDs, err := parseTeamIDs(q.Get("team_ids"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_TEAM_IDS", err.Error())
		return
	}

	cacheKey := fmt.Sprintf("recs:%d:%d:%d:%s", leagueID, season, week, q.Get("team_ids"))
	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLRecommendations, true)
		return
	}

	recs, err := h.engine.Recommend(r.Context(), recommend.Request{
		LeagueID: leagueID,
		Season:   season,
		Week:     week,
		TeamIDs:  teamIDs,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "RECOMMEND_FAILED", err.Error())
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"league_id":       leagueID,
		"season":          season,
		"week":            week,
		"recommendations": recs,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", err.Error())
		return
	}

	etag := h.cache.Set(cacheKey, body, cache.TTLRecommendations)
	respond.WriteJSON(w, body, etag, cache.TTLRecommendations, false)
}

func parseTeamIDs(csv string) ([]int64, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid team id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
