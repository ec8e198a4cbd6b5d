package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ztnlabs/nexus/pkg/policy"
)

// adminRequest is the mutation payload of the admin surface. Action selects
// the operation; the remaining fields apply per action.
type adminRequest struct {
	Action      string `json:"action"`
	PerformedBy string `json:"performedBy"`
	Enabled     bool   `json:"enabled"`
	SessionID   string `json:"sessionId"`
	GameID      string `json:"gameId"`
	Reason      string `json:"reason"`
}

// handleAdminQuery serves the read side of the admin surface.
func (s *Server) handleAdminQuery(w http.ResponseWriter, r *http.Request) {
	switch view := r.URL.Query().Get("view"); view {
	case "", "status":
		writeJSON(w, http.StatusOK, map[string]any{
			"apiStatus": s.status.Snapshot(),
		})
	case "logs":
		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				limit = n
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"logs": s.usage.RecentLog(limit),
		})
	case "admin-logs":
		writeJSON(w, http.StatusOK, map[string]any{
			"logs": s.actions.Entries(),
		})
	case "blocked-sessions":
		writeJSON(w, http.StatusOK, map[string]any{
			"blocked": s.blocks.List(),
		})
	default:
		writeError(w, http.StatusBadRequest, "Invalid view")
	}
}

// handleAdminAction serves the mutation side of the admin surface.
func (s *Server) handleAdminAction(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PerformedBy == "" {
		req.PerformedBy = "unknown"
	}

	switch req.Action {
	case "toggle-api":
		s.status.Toggle(req.Enabled, req.PerformedBy)
		s.actions.Record("toggle_api", req.PerformedBy, fmt.Sprintf("enabled=%t", req.Enabled))
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"apiStatus": s.status.Snapshot(),
		})

	case "block-session":
		key := req.SessionID
		if req.GameID != "" {
			key = policy.GameKey(req.GameID)
		}
		if key == "" {
			writeError(w, http.StatusBadRequest, "sessionId or gameId is required")
			return
		}
		s.blocks.Block(key, req.Reason, req.PerformedBy)
		s.actions.Record("block_session", req.PerformedBy, key)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "key": key})

	case "unblock-session":
		key := req.SessionID
		if req.GameID != "" {
			key = policy.GameKey(req.GameID)
		}
		if key == "" {
			writeError(w, http.StatusBadRequest, "sessionId or gameId is required")
			return
		}
		s.blocks.Unblock(key)
		s.actions.Record("unblock_session", req.PerformedBy, key)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "key": key})

	default:
		writeError(w, http.StatusBadRequest, "Invalid action")
	}
}
