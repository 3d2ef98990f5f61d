// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tactabot/regista/internal/domain/event"
)

// ChainDependencies defines the interface for possession-chain reads.
type ChainDependencies interface {
	Chains(ctx context.Context, sessionID string, team event.Team) (ChainsView, error)
}

// ChainsHandler handles possession-chain read requests.
type ChainsHandler struct {
	deps ChainDependencies
}

// NewChainsHandler creates a new chains handler.
func NewChainsHandler(deps ChainDependencies) *ChainsHandler {
	return &ChainsHandler{deps: deps}
}

// HandleGetChains handles GET /sessions/{id}/chains requests. The optional
// team query parameter narrows completed chains and stats to one side.
func (h *ChainsHandler) HandleGetChains(w http.ResponseWriter, r *http.Request) {
	team := event.Team(r.URL.Query().Get("team"))
	if team != event.TeamNone && !team.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: unknown team %q", ErrBadRequest, team))
		return
	}

	view, err := h.deps.Chains(r.Context(), r.PathValue("id"), team)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
