package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/asset-registry/internal/audit"
)

// handleListHistory returns the asset change history, newest first.
//
// Query parameters: asset_id, action (create|update|delete), limit, offset.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "Asset history is not available")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		EntityID: q.Get("asset_id"),
		Action:   q.Get("action"),
	}

	switch filter.Action {
	case "", audit.ActionCreate, audit.ActionUpdate, audit.ActionDelete:
	default:
		writeError(w, http.StatusBadRequest, "Invalid action. Must be create, update, or delete")
		return
	}

	var ok bool
	if filter.Limit, ok = parseNonNegative(q.Get("limit")); !ok {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, ok = parseNonNegative(q.Get("offset")); !ok {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	result, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, "Internal server error while retrieving history", err)
		return
	}
	writeList(w, result.Logs, result.Total)
}

// parseNonNegative parses an optional integer query value; empty yields 0.
func parseNonNegative(v string) (int, bool) {
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
