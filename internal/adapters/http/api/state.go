// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// StateDependencies defines the interface for match-state reads.
type StateDependencies interface {
	SessionState(ctx context.Context, sessionID string) (StateView, error)
}

// StateHandler handles match-state read requests.
type StateHandler struct {
	deps StateDependencies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps StateDependencies) *StateHandler {
	return &StateHandler{deps: deps}
}

// HandleGetState handles GET /sessions/{id}/state requests.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.SessionState(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
