package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/startsit/startsit-data/internal/api/respond"
	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/sync"
)

// TriggerSync runs a sync inline for cron-triggered requests. {type} is one
// of players|stats|matchups|defense; "full" enqueues a job for the external
// heavy-sync worker instead of running inline.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	syncType := chi.URLParam(r, "type")
	season := intQuery(r, "season", config.CurrentSeason)
	week := intQuery(r, "week", 0)

	if week == 0 && syncType != "matchups" && syncType != "full" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_WEEK", "week query parameter is required")
		return
	}

	var result sync.Result
	switch syncType {
	case "players":
		result = h.syncer.SyncPlayers(r.Context(), season, week)
	case "stats":
		result = h.syncer.SyncStats(r.Context(), season, week)
	case "matchups":
		result = h.syncer.SyncMatchups(r.Context(), season, week)
	case "defense":
		result = h.syncer.SyncDefensePoints(r.Context(), season, week)
	case "full":
		if err := h.syncer.EnqueueFullResync(r.Context(), season, intQuery(r, "priority", 5)); err != nil {
			respond.WriteError(w, http.StatusInternalServerError, "ENQUEUE_FAILED", err.Error())
			return
		}
		respond.WriteJSONObject(w, http.StatusAccepted, map[string]interface{}{
			"status": "enqueued", "season": season,
		})
		return
	default:
		respond.WriteError(w, http.StatusNotFound, "UNKNOWN_SYNC_TYPE", "unknown sync type: "+syncType)
		return
	}

	status := http.StatusOK
	if result.Processed == 0 && len(result.Errors) > 0 {
		status = http.StatusBadGateway
	}
	respond.WriteJSONObject(w, status, map[string]interface{}{
		"type":            syncType,
		"season":          season,
		"week":            week,
		"fetched":         result.Fetched,
		"processed":       result.Processed,
		"batches_skipped": result.BatchesSkipped,
		"errors":          result.Errors,
	})
}

// intQuery parses an integer query parameter with a fallback.
func intQuery(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
