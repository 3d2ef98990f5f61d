// Package state holds the live match-state model and the deterministic
// per-event transition function.
//
// The state is a value: processing never mutates in place, it returns a
// replacement. Time enters as an explicit parameter so identical inputs
// always produce identical outputs. Window and pressing expiry is evaluated
// lazily at the start of the next processed event, never by timers.
package state

import (
	"fmt"
	"time"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/pitch"
)

// Phase is the current tactical phase of play.
type Phase string

// Phases of play.
const (
	PhaseNeutral       Phase = "NEUTRAL"
	PhaseBuildUp       Phase = "BUILD_UP"
	PhaseConsolidation Phase = "CONSOLIDATION"
	PhaseFinalThird    Phase = "FINAL_THIRD"
	PhaseTransitionOff Phase = "TRANSITION_OFF"
	PhaseTransitionDef Phase = "TRANSITION_DEF"
	PhaseSetPiece      Phase = "SET_PIECE"
)

// PressureLevel grades how intensely the ball carrier is pressed.
type PressureLevel string

// Pressure levels.
const (
	PressureLow    PressureLevel = "LOW"
	PressureMedium PressureLevel = "MEDIUM"
	PressureHigh   PressureLevel = "HIGH"
)

// ThreatLevel grades how dangerous the current situation is for the
// defending side.
type ThreatLevel string

// Threat levels.
const (
	ThreatLow    ThreatLevel = "LOW"
	ThreatMedium ThreatLevel = "MEDIUM"
	ThreatHigh   ThreatLevel = "HIGH"
)

// TransitionType is the direction of an open transition window.
type TransitionType string

// Window directions. TransitionNone marks a closed window.
const (
	TransitionOffensive TransitionType = "OFFENSIVE"
	TransitionDefensive TransitionType = "DEFENSIVE"
	TransitionNone      TransitionType = ""
)

// PressingOutcome is how a pressing context resolved.
type PressingOutcome string

// Pressing outcomes. PressingNone marks an unresolved context.
const (
	PressingRecovery PressingOutcome = "RECOVERY"
	PressingLoss     PressingOutcome = "LOSS"
	PressingClear    PressingOutcome = "CLEAR"
	PressingNone     PressingOutcome = ""
)

// Timing defaults in milliseconds.
const (
	// DefaultWindowMs is the transition-window length opened by
	// interceptions, turnovers and explicit transition tags.
	DefaultWindowMs int64 = 5000
	// pressingTimeoutMs is how long a pressing context stays open without
	// resolution.
	pressingTimeoutMs int64 = 8000
)

// TransitionWindow is the short spell after a possession change during
// which transition-specific analytics apply.
type TransitionWindow struct {
	Active    bool           `json:"active"`
	Type      TransitionType `json:"type,omitempty"`
	StartTime int64          `json:"startTime,omitempty"`
	Duration  int64          `json:"duration"`
}

// PressingContext tracks an announced pressing action until it resolves or
// times out.
type PressingContext struct {
	Active      bool            `json:"active"`
	TriggerTime int64           `json:"triggerTime,omitempty"`
	Location    *pitch.Zone     `json:"location,omitempty"`
	Outcome     PressingOutcome `json:"outcome,omitempty"`
}

// MatchState is the full live picture of the match. All timestamps are
// epoch milliseconds.
type MatchState struct {
	TeamInPossession event.Team       `json:"teamInPossession,omitempty"`
	Phase            Phase            `json:"phase"`
	Zone             pitch.Zone       `json:"zone"`
	Pressure         PressureLevel    `json:"pressure"`
	ThreatLevel      ThreatLevel      `json:"threatLevel"`
	TransitionWindow TransitionWindow `json:"transitionWindow"`
	PressingContext  PressingContext  `json:"pressingContext"`
	LastEventTime    int64            `json:"lastEventTime,omitempty"`
	LastEventName    string           `json:"lastEventName,omitempty"`
	StateVersion     uint64           `json:"stateVersion"`
}

// Option adjusts the initial state returned by New.
type Option func(*MatchState)

// WithWindowDuration overrides the transition-window length in
// milliseconds. Non-positive values are ignored.
func WithWindowDuration(ms int64) Option {
	return func(s *MatchState) {
		if ms > 0 {
			s.TransitionWindow.Duration = ms
		}
	}
}

// New returns the state a session starts from: neutral phase, central
// middle zone, medium pressure, low threat, nobody in possession.
func New(opts ...Option) MatchState {
	s := MatchState{
		Phase:            PhaseNeutral,
		Zone:             pitch.Default(),
		Pressure:         PressureMedium,
		ThreatLevel:      ThreatLow,
		TransitionWindow: TransitionWindow{Duration: DefaultWindowMs},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// InTransitionWindow reports whether the window is open at now. The window
// counts as open strictly before startTime+duration; at the exact boundary
// it is neither open here nor expired by the next processing pass.
func InTransitionWindow(s MatchState, now time.Time) bool {
	w := s.TransitionWindow
	return w.Active && now.UnixMilli()-w.StartTime < w.Duration
}

// TransitionRemaining returns the milliseconds left on the window, clamped
// at zero. Zero when no window is active.
func TransitionRemaining(s MatchState, now time.Time) int64 {
	w := s.TransitionWindow
	if !w.Active {
		return 0
	}
	rem := w.StartTime + w.Duration - now.UnixMilli()
	if rem < 0 {
		return 0
	}
	return rem
}

// ApplyTransitionBoost reports whether chance-quality math should apply the
// offensive-transition boost right now.
func ApplyTransitionBoost(s MatchState, now time.Time) bool {
	return InTransitionWindow(s, now) && s.TransitionWindow.Type == TransitionOffensive
}

// Label renders the state as a one-line summary for logs and dashboards.
func Label(s MatchState) string {
	who := string(s.TeamInPossession)
	if who == "" {
		who = "NOBODY"
	}
	return fmt.Sprintf("%s in possession | %s @ %s | pressure %s | threat %s",
		who, s.Phase, s.Zone, s.Pressure, s.ThreatLevel)
}
