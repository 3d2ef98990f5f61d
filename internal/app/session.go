package service

import (
	"context"
	"sync"
	"time"

	"github.com/tactabot/regista/internal/adapters/broadcast"
	"github.com/tactabot/regista/internal/domain/dedupe"
	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/possession"
	"github.com/tactabot/regista/internal/domain/predictor"
	"github.com/tactabot/regista/internal/domain/state"
	"github.com/tactabot/regista/internal/domain/xg"
	"github.com/tactabot/regista/pkg/logger"
	"github.com/tactabot/regista/pkg/metrics"
)

// Clock supplies the processing timestamp. Injected so tests and replays
// drive time explicitly.
type Clock func() time.Time

// Alert names published on the stream.
const (
	AlertTransitionWindow = "transition_window_opened"
	AlertSetPiece         = "set_piece"
	AlertHighThreat       = "high_threat"
	AlertBigChance        = "big_chance_quality"
)

// Result is what one processed event returns to the tagging client.
type Result struct {
	SessionID          string                 `json:"sessionId"`
	Duplicate          bool                   `json:"duplicate"`
	State              state.MatchState       `json:"state"`
	OpenChainID        int64                  `json:"openChainId,omitempty"`
	Predictions        []predictor.Prediction `json:"predictions"`
	InTransitionWindow bool                   `json:"inTransitionWindow"`
	Transition         state.Transition       `json:"transition"`
}

// SessionInfo summarizes one session for listings.
type SessionInfo struct {
	ID               string      `json:"id"`
	CreatedAt        int64       `json:"createdAt"`
	StateVersion     uint64      `json:"stateVersion"`
	Phase            state.Phase `json:"phase"`
	TeamInPossession event.Team  `json:"teamInPossession,omitempty"`
}

// StateView is the read model behind the state endpoint.
type StateView struct {
	SessionID             string           `json:"sessionId"`
	State                 state.MatchState `json:"state"`
	Label                 string           `json:"label"`
	InTransitionWindow    bool             `json:"inTransitionWindow"`
	TransitionRemainingMs int64            `json:"transitionRemainingMs"`
}

// RatedChain is a completed chain with its chance-quality estimate.
type RatedChain struct {
	possession.Chain
	ChanceQuality xg.Result `json:"chanceQuality"`
}

// ChainsView is the read model behind the chains endpoint.
type ChainsView struct {
	SessionID string            `json:"sessionId"`
	Open      *possession.Chain `json:"openChain,omitempty"`
	Completed []RatedChain      `json:"completedChains"`
	Stats     possession.Stats  `json:"stats"`
}

// snapshotEnvelope is the stream frame observers replace their local state
// with after every processed event.
type snapshotEnvelope struct {
	Type         string                 `json:"type"`
	SessionID    string                 `json:"sessionId"`
	StateVersion uint64                 `json:"stateVersion"`
	State        state.MatchState       `json:"state"`
	Possession   possession.Manager     `json:"possession"`
	Predictions  []predictor.Prediction `json:"predictions"`
}

// alertEnvelope is the stream frame for tactical alerts. Observers render
// them; the engine never acts on them.
type alertEnvelope struct {
	Type       string               `json:"type"`
	SessionID  string               `json:"sessionId"`
	Alert      string               `json:"alert"`
	Team       event.Team           `json:"team,omitempty"`
	WindowType state.TransitionType `json:"windowType,omitempty"`
	Kind       event.Kind           `json:"kind,omitempty"`
	Quality    float64              `json:"quality,omitempty"`
	Band       xg.Band              `json:"band,omitempty"`
	At         int64                `json:"at"`
}

// Session owns one match's state, chains, predictor and deduper, and
// serializes event processing behind a single mutex.
type Session struct {
	id        string
	createdAt int64

	mu      sync.Mutex
	match   state.MatchState
	chains  possession.Manager
	learner *predictor.Predictor
	deduper dedupe.Deduper

	clock    Clock
	hub      *broadcast.Hub
	model    *xg.Model
	alertMin float64

	log logger.Logger
}

// Process applies one tagged event and returns the combined result.
// Duplicate deliveries return the current snapshot untouched.
func (s *Session) Process(ctx context.Context, ev event.TaggedEvent) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	now := s.clock()

	if s.deduper.SeenAndRecord(ctx, ev.ID) {
		metrics.RecordEventDuplicate()
		s.log.Debug(ctx, "duplicate event dropped", logger.Int64("eventId", ev.ID))
		return s.resultLocked(now, state.Transition{}, true)
	}

	prevThreat := s.match.ThreatLevel
	prevCompleted := len(s.chains.Completed)

	next, tr := state.Process(s.match, ev, now)
	s.match = next
	s.chains = possession.Apply(s.chains, ev, next, now)
	s.learner.Record(ctx, ev.EventName)

	res := s.resultLocked(now, tr, false)

	closed := s.chains.Completed[prevCompleted:]
	s.publishLocked(ctx, res)
	s.alertsLocked(ctx, ev, tr, prevThreat, closed, now)

	metrics.RecordEventProcessed(kindLabel(ev), teamLabel(ev.Team))
	metrics.RecordProcessingDuration(float64(time.Since(started).Microseconds()) / 1000)
	if tr.FromPhase != tr.ToPhase {
		metrics.RecordPhaseChange(string(tr.ToPhase))
	}
	if tr.WindowOpened != state.TransitionNone {
		metrics.RecordWindowOpened(string(tr.WindowOpened))
	}
	for _, c := range closed {
		metrics.RecordChainClosed(string(c.Team), string(c.Outcome))
	}
	metrics.UpdatePredictorPatterns(s.learner.PatternCount())

	s.log.Debug(ctx, "event processed",
		logger.Int64("eventId", ev.ID),
		logger.String("kind", kindLabel(ev)),
		logger.String("phase", string(s.match.Phase)),
		logger.Uint64("stateVersion", s.match.StateVersion),
	)

	return res
}

// resultLocked assembles the caller-facing tuple from the current state.
func (s *Session) resultLocked(now time.Time, tr state.Transition, duplicate bool) Result {
	return Result{
		SessionID:          s.id,
		Duplicate:          duplicate,
		State:              s.match,
		OpenChainID:        s.chains.OpenChainID(),
		Predictions:        s.learner.Predictions(),
		InTransitionWindow: state.InTransitionWindow(s.match, now),
		Transition:         tr,
	}
}

// publishLocked pushes the replication snapshot to stream subscribers.
func (s *Session) publishLocked(ctx context.Context, res Result) {
	s.hub.Publish(ctx, s.id, broadcast.EventSnapshot, snapshotEnvelope{
		Type:         broadcast.EventSnapshot,
		SessionID:    s.id,
		StateVersion: s.match.StateVersion,
		State:        s.match,
		Possession:   s.chains,
		Predictions:  res.Predictions,
	})
}

// alertsLocked derives tactical alerts from what the event changed and
// publishes them.
func (s *Session) alertsLocked(ctx context.Context, ev event.TaggedEvent, tr state.Transition,
	prevThreat state.ThreatLevel, closed []possession.Chain, now time.Time) {
	at := now.UnixMilli()

	if tr.WindowOpened != state.TransitionNone {
		s.emitLocked(ctx, alertEnvelope{
			Alert:      AlertTransitionWindow,
			Team:       s.match.TeamInPossession,
			WindowType: tr.WindowOpened,
			At:         at,
		})
	}

	if kind := ev.Kind(); isSetPieceKind(kind) {
		s.emitLocked(ctx, alertEnvelope{
			Alert: AlertSetPiece,
			Team:  s.match.TeamInPossession,
			Kind:  kind,
			At:    at,
		})
	}

	if prevThreat != state.ThreatHigh && s.match.ThreatLevel == state.ThreatHigh {
		s.emitLocked(ctx, alertEnvelope{
			Alert: AlertHighThreat,
			Team:  s.match.TeamInPossession,
			At:    at,
		})
	}

	for _, c := range closed {
		quality := s.model.Estimate(xg.FromChain(c))
		if quality.Value < s.alertMin {
			continue
		}
		s.emitLocked(ctx, alertEnvelope{
			Alert:   AlertBigChance,
			Team:    c.Team,
			Quality: quality.Value,
			Band:    quality.Band,
			At:      at,
		})
	}
}

func (s *Session) emitLocked(ctx context.Context, a alertEnvelope) {
	a.Type = broadcast.EventAlert
	a.SessionID = s.id
	s.hub.Publish(ctx, s.id, broadcast.EventAlert, a)
	metrics.RecordAlert(a.Alert)
}

// isSetPieceKind covers the tags that put the match into a set-piece
// phase. Offside closes the chain as a set piece but leaves the phase to
// the next tag, so it raises no alert here.
func isSetPieceKind(k event.Kind) bool {
	switch k {
	case event.KindFreeKick, event.KindPenalty, event.KindCornerStart, event.KindFoul:
		return true
	default:
		return false
	}
}

func (s *Session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:               s.id,
		CreatedAt:        s.createdAt,
		StateVersion:     s.match.StateVersion,
		Phase:            s.match.Phase,
		TeamInPossession: s.match.TeamInPossession,
	}
}

func (s *Session) stateView() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	return StateView{
		SessionID:             s.id,
		State:                 s.match,
		Label:                 state.Label(s.match),
		InTransitionWindow:    state.InTransitionWindow(s.match, now),
		TransitionRemainingMs: state.TransitionRemaining(s.match, now),
	}
}

// chainsView rates completed chains and aggregates them, optionally
// filtered to one team.
func (s *Session) chainsView(team event.Team) ChainsView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := ChainsView{
		SessionID: s.id,
		Completed: []RatedChain{},
	}
	if open, ok := s.chains.OpenChain(); ok && (!team.Valid() || open.Team == team) {
		view.Open = &open
	}

	for _, c := range s.chains.Completed {
		if team.Valid() && c.Team != team {
			continue
		}
		view.Completed = append(view.Completed, RatedChain{
			Chain:         c,
			ChanceQuality: s.model.Estimate(xg.FromChain(c)),
		})
	}
	view.Stats = possession.ComputeStats(s.chains.Completed, team)
	return view
}

func (s *Session) predictions() []predictor.Prediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.learner.Predictions()
}

func (s *Session) patterns() predictor.LearningStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.learner.Stats()
}

func (s *Session) resetPredictor(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learner.Reset(ctx)
	metrics.UpdatePredictorPatterns(0)
}

// persist flushes the predictor snapshot, best-effort.
func (s *Session) persist(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learner.Persist(ctx)
}

// kindLabel keeps metric label values readable for names outside the
// vocabulary.
func kindLabel(ev event.TaggedEvent) string {
	if k := ev.Kind(); k != event.KindUnrecognized {
		return string(k)
	}
	return "unrecognized"
}

func teamLabel(t event.Team) string {
	if t.Valid() {
		return string(t)
	}
	return "none"
}
