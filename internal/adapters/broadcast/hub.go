// Package broadcast fans processed-event envelopes out to session stream
// subscribers. Slow subscribers lose frames, never the ingest path.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tactabot/regista/pkg/logger"
	"github.com/tactabot/regista/pkg/metrics"
)

// Stream event names carried on each frame.
const (
	EventSnapshot = "snapshot"
	EventAlert    = "alert"
)

const defaultClientBuffer = 16

// Message is one frame pushed to a subscriber.
type Message struct {
	Event string
	Data  []byte
}

// Hub is an in-process pub/sub keyed by session id.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[chan Message]struct{}
	clients int
	closed  bool

	buffer int
	log    logger.Logger
}

// NewHub creates a hub with configuration options.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[string]map[chan Message]struct{}),
		buffer: defaultClientBuffer,
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.log == nil {
		h.log = logger.Get().Named("broadcast")
	}

	return h
}

// Subscribe registers a buffered channel receiving frames for the session.
// The channel closes when the session is dropped or the hub shuts down.
func (h *Hub) Subscribe(sessionID string) chan Message {
	ch := make(chan Message, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch
	}

	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan Message]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.clients++
	metrics.UpdateBroadcastClients(h.clients)

	return ch
}

// Unsubscribe removes a channel from the session's subscribers. Safe to
// call after DropSession or Close already removed it.
func (h *Hub) Unsubscribe(sessionID string, ch chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[sessionID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}

	delete(set, ch)
	if len(set) == 0 {
		delete(h.subs, sessionID)
	}
	h.clients--
	metrics.UpdateBroadcastClients(h.clients)
}

// Publish encodes v and sends it to every subscriber of the session.
// Subscribers with a full buffer are skipped.
func (h *Hub) Publish(ctx context.Context, sessionID, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error(ctx, "encode broadcast payload",
			logger.String("session", sessionID),
			logger.String("event", event),
			logger.Error(err),
		)
		return
	}

	msg := Message{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for ch := range h.subs[sessionID] {
		select {
		case ch <- msg:
			metrics.RecordBroadcastSent()
		default:
			metrics.RecordBroadcastDrop()
		}
	}
}

// DropSession closes every subscriber channel of one session.
func (h *Hub) DropSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[sessionID]
	if !ok {
		return
	}

	for ch := range set {
		close(ch)
	}
	h.clients -= len(set)
	delete(h.subs, sessionID)
	metrics.UpdateBroadcastClients(h.clients)
}

// Clients reports the current subscriber count across all sessions.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients
}

// Close shuts the hub down and closes every subscriber channel. Publish
// and Subscribe become no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
	h.clients = 0
	metrics.UpdateBroadcastClients(0)
}
