// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/tactabot/regista/internal/domain/predictor"
)

// PredictorDependencies defines the interface for pattern-learner reads
// and resets.
type PredictorDependencies interface {
	Predictions(ctx context.Context, sessionID string) ([]predictor.Prediction, error)
	Patterns(ctx context.Context, sessionID string) (predictor.LearningStats, error)
	ResetPredictor(ctx context.Context, sessionID string) error
}

// PredictorHandler handles pattern-learner requests.
type PredictorHandler struct {
	deps PredictorDependencies
}

// NewPredictorHandler creates a new predictor handler.
func NewPredictorHandler(deps PredictorDependencies) *PredictorHandler {
	return &PredictorHandler{deps: deps}
}

// HandleGetPredictions handles GET /sessions/{id}/predictions requests.
func (h *PredictorHandler) HandleGetPredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := h.deps.Predictions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

// HandleGetPatterns handles GET /sessions/{id}/patterns requests.
func (h *PredictorHandler) HandleGetPatterns(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Patterns(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleResetPredictor handles POST /sessions/{id}/predictor/reset requests.
// The learned table, the recent window and the persisted snapshot are all
// cleared.
func (h *PredictorHandler) HandleResetPredictor(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ResetPredictor(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
