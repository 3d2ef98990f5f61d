// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/pitch"
	"github.com/tactabot/regista/pkg/metrics"
)

// EventDependencies defines the interface for event processing.
type EventDependencies interface {
	ProcessEvent(ctx context.Context, sessionID string, ev event.TaggedEvent) (Result, error)
}

// EventsHandler handles tagged-event ingest requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /sessions/{id}/events requests. Processing
// is synchronous; the response carries the state the event produced, so a
// duplicate delivery simply returns the current snapshot.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	var ev event.TaggedEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		metrics.RecordEventRejected()
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if err := validateEvent(ev); err != nil {
		metrics.RecordEventRejected()
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	res, err := h.deps.ProcessEvent(r.Context(), r.PathValue("id"), ev)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func validateEvent(ev event.TaggedEvent) error {
	switch {
	case ev.ID == 0:
		return errors.New("missing id")
	case strings.TrimSpace(ev.EventName) == "":
		return errors.New("missing eventName")
	}
	if ev.Team != event.TeamNone && !ev.Team.Valid() {
		return fmt.Errorf("unknown team %q", ev.Team)
	}
	if ev.Zone < 0 || ev.Zone > pitch.BoxZoneNumber {
		return fmt.Errorf("zone out of range 1..%d", pitch.BoxZoneNumber)
	}
	if ev.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, ev.Timestamp); err != nil {
			return errors.New("invalid timestamp; must be RFC3339")
		}
	}
	return nil
}
