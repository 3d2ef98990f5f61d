// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tactabot/regista/internal/adapters/broadcast"
)

// streamPingInterval keeps idle proxies from reaping quiet connections.
const streamPingInterval = 30 * time.Second

// StreamDependencies defines the interface for live stream subscriptions.
type StreamDependencies interface {
	Subscribe(sessionID string) (chan broadcast.Message, error)
	Unsubscribe(sessionID string, ch chan broadcast.Message)
}

// StreamHandler serves the server-sent-events feed of snapshots and alerts.
type StreamHandler struct {
	deps StreamDependencies
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps StreamDependencies) *StreamHandler {
	return &StreamHandler{deps: deps}
}

// HandleStream handles GET /sessions/{id}/stream requests. Every processed
// event produces a snapshot frame; tactical alerts follow as separate
// frames. The connection stays open until the client leaves or the session
// is deleted.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", errors.New("streaming unsupported"))
		return
	}

	sessionID := r.PathValue("id")
	ch, err := h.deps.Subscribe(sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer h.deps.Unsubscribe(sessionID, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
