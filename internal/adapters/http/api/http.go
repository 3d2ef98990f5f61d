// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/tactabot/regista/internal/app"
)

// Read and write shapes reused from the service layer. Using an interface
// bundle plus aliases keeps the handler layer loosely coupled to
// implementations in other packages.
type (
	Result      = service.Result
	SessionInfo = service.SessionInfo
	StateView   = service.StateView
	ChainsView  = service.ChainsView
)

// Dependencies bundles everything the HTTP handlers need from the match
// service.
type Dependencies interface {
	SessionDependencies
	EventDependencies
	StateDependencies
	ChainDependencies
	PredictorDependencies
	StreamDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	sessionsHandler  *SessionsHandler
	eventsHandler    *EventsHandler
	stateHandler     *StateHandler
	chainsHandler    *ChainsHandler
	predictorHandler *PredictorHandler
	streamHandler    *StreamHandler
	statsHandler     *StatsHandler
	healthHandler    *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		sessionsHandler:  NewSessionsHandler(deps),
		eventsHandler:    NewEventsHandler(deps),
		stateHandler:     NewStateHandler(deps),
		chainsHandler:    NewChainsHandler(deps),
		predictorHandler: NewPredictorHandler(deps),
		streamHandler:    NewStreamHandler(deps),
		statsHandler:     NewStatsHandler(statsProvider),
		healthHandler:    NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreateSession, "sessions"))
	mux.HandleFunc("GET /sessions", MetricsMiddleware(s.sessionsHandler.HandleListSessions, "sessions"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDeleteSession, "sessions"))

	mux.HandleFunc("POST /sessions/{id}/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("GET /sessions/{id}/state", MetricsMiddleware(s.stateHandler.HandleGetState, "state"))
	mux.HandleFunc("GET /sessions/{id}/chains", MetricsMiddleware(s.chainsHandler.HandleGetChains, "chains"))
	mux.HandleFunc("GET /sessions/{id}/predictions", MetricsMiddleware(s.predictorHandler.HandleGetPredictions, "predictions"))
	mux.HandleFunc("GET /sessions/{id}/patterns", MetricsMiddleware(s.predictorHandler.HandleGetPatterns, "patterns"))
	mux.HandleFunc("POST /sessions/{id}/predictor/reset", MetricsMiddleware(s.predictorHandler.HandleResetPredictor, "predictor_reset"))

	// The stream stays unwrapped: one connection lives for the whole match
	// and would distort the request histograms.
	mux.HandleFunc("GET /sessions/{id}/stream", s.streamHandler.HandleStream)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, service.ErrSessionExists):
		writeError(w, http.StatusConflict, "session_exists", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
