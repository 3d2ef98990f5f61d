package state

import (
	"time"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/pitch"
)

// Transition records what one processed event did to the state, for
// logging and alert emission.
type Transition struct {
	FromPhase         Phase          `json:"fromPhase"`
	ToPhase           Phase          `json:"toPhase"`
	Trigger           string         `json:"trigger"`
	PossessionFlipped bool           `json:"possessionFlipped"`
	WindowOpened      TransitionType `json:"windowOpened,omitempty"`
	At                int64          `json:"at"`
}

// Process applies one tagged event to the state and returns the
// replacement state plus a transition record. It never fails: unrecognized
// event names update metadata only.
//
// Order matters and is fixed: expire the transition window, expire the
// pressing context, apply the event's zone, dispatch on the event kind,
// infer pressure from the zone, stamp metadata.
func Process(s MatchState, ev event.TaggedEvent, now time.Time) (MatchState, Transition) {
	nowMs := now.UnixMilli()
	fromPhase := s.Phase
	fromPossession := s.TeamInPossession

	s = expireWindow(s, nowMs)
	s = expirePressing(s, nowMs)

	if ev.Zone > 0 {
		s.Zone = pitch.FromNumber(ev.Zone)
	}

	var opened TransitionType
	s, opened = dispatch(s, ev, nowMs)

	// Transition phases keep the pressure their trigger assigned.
	if s.Phase != PhaseTransitionOff && s.Phase != PhaseTransitionDef {
		switch s.Zone.Third {
		case pitch.ThirdFinal:
			s.Pressure = PressureHigh
		case pitch.ThirdDefensive:
			s.Pressure = PressureMedium
		}
	}

	s.LastEventTime = nowMs
	s.LastEventName = ev.EventName
	s.StateVersion++

	return s, Transition{
		FromPhase:         fromPhase,
		ToPhase:           s.Phase,
		Trigger:           ev.EventName,
		PossessionFlipped: s.TeamInPossession != fromPossession,
		WindowOpened:      opened,
		At:                nowMs,
	}
}

// expireWindow closes a transition window that has outlived its duration
// and reverts a lingering transition phase to open play.
func expireWindow(s MatchState, nowMs int64) MatchState {
	w := s.TransitionWindow
	if !w.Active || nowMs-w.StartTime <= w.Duration {
		return s
	}
	s = cancelWindow(s)
	if s.Phase == PhaseTransitionOff || s.Phase == PhaseTransitionDef {
		if s.Zone.Third == pitch.ThirdFinal {
			s.Phase = PhaseFinalThird
		} else {
			s.Phase = PhaseBuildUp
		}
	}
	return s
}

// expirePressing drops a pressing context that went unresolved for longer
// than the pressing timeout.
func expirePressing(s MatchState, nowMs int64) MatchState {
	p := s.PressingContext
	if !p.Active || nowMs-p.TriggerTime <= pressingTimeoutMs {
		return s
	}
	s.PressingContext = PressingContext{}
	return s
}

func dispatch(s MatchState, ev event.TaggedEvent, nowMs int64) (MatchState, TransitionType) {
	var opened TransitionType

	switch ev.Kind() {
	case event.KindInterception:
		if ev.Team.Valid() && s.TeamInPossession != ev.Team {
			s.TeamInPossession = ev.Team
			s.Phase = PhaseTransitionOff
			s = openWindow(s, TransitionOffensive, nowMs)
			opened = TransitionOffensive
			s.ThreatLevel = ThreatMedium
			if s.PressingContext.Active {
				s.PressingContext.Outcome = PressingRecovery
			}
		}

	case event.KindTurnover:
		if ev.Team.Valid() && s.TeamInPossession == ev.Team {
			s.TeamInPossession = ev.Team.Opponent()
			s.Phase = PhaseTransitionDef
			s = openWindow(s, TransitionDefensive, nowMs)
			opened = TransitionDefensive
			s.ThreatLevel = ThreatLow
			if s.PressingContext.Active {
				s.PressingContext.Outcome = PressingLoss
			}
		}

	case event.KindTransitionOffStart:
		s.Phase = PhaseTransitionOff
		s = openWindow(s, TransitionOffensive, nowMs)
		opened = TransitionOffensive
		s.Pressure = PressureLow

	case event.KindTransitionDefStart:
		s.Phase = PhaseTransitionDef
		s = openWindow(s, TransitionDefensive, nowMs)
		opened = TransitionDefensive
		s.Pressure = PressureHigh

	case event.KindFinalThirdEntry:
		s.Zone = s.Zone.InThird(pitch.ThirdFinal)
		s.Phase = PhaseFinalThird
		s.ThreatLevel = ThreatMedium

	case event.KindSwitchOfPlay:
		s.Zone = s.Zone.Mirrored()

	case event.KindPressingTrigger:
		loc := s.Zone
		s.PressingContext = PressingContext{
			Active:      true,
			TriggerTime: nowMs,
			Location:    &loc,
		}
		s.Pressure = PressureHigh

	case event.KindPhaseHighPress:
		s.Pressure = PressureHigh
		s.Phase = PhaseBuildUp

	case event.KindPhaseLowBlock:
		s.Pressure = PressureLow
		s.Phase = PhaseConsolidation

	case event.KindDangerousAttack, event.KindBigChance, event.KindShotStart:
		s.ThreatLevel = ThreatHigh

	case event.KindFreeKick, event.KindCornerStart:
		s = applySetPiece(s, ev.Team)

	case event.KindPenalty:
		s = applySetPiece(s, ev.Team)
		s.ThreatLevel = ThreatHigh

	case event.KindFoul:
		s.Phase = PhaseSetPiece
		s = cancelWindow(s)
		s.PressingContext = PressingContext{}
		// The fouled team gets the resulting set piece.
		if ev.Team.Valid() && s.TeamInPossession == ev.Team {
			s.TeamInPossession = ev.Team.Opponent()
		}

	case event.KindPhaseBuildUpEnd:
		s.Phase = PhaseBuildUp

	case event.KindPhaseConsolidation:
		s.Phase = PhaseConsolidation

	case event.KindPhaseFinalThird:
		s.Phase = PhaseFinalThird

	case event.KindPassStart, event.KindPassEnd, event.KindCarryStart:
		if s.TeamInPossession == event.TeamNone && ev.Team.Valid() {
			s.TeamInPossession = ev.Team
		}

	case event.KindClearance:
		s.ThreatLevel = ThreatLow

	default:
		// goal, offside and unrecognized names: metadata only. Chain
		// outcomes for them are the possession tracker's business.
	}

	return s, opened
}

func openWindow(s MatchState, t TransitionType, nowMs int64) MatchState {
	s.TransitionWindow.Active = true
	s.TransitionWindow.Type = t
	s.TransitionWindow.StartTime = nowMs
	if s.TransitionWindow.Duration <= 0 {
		s.TransitionWindow.Duration = DefaultWindowMs
	}
	return s
}

func cancelWindow(s MatchState) MatchState {
	s.TransitionWindow.Active = false
	s.TransitionWindow.Type = TransitionNone
	s.TransitionWindow.StartTime = 0
	return s
}

func applySetPiece(s MatchState, team event.Team) MatchState {
	s.Phase = PhaseSetPiece
	s = cancelWindow(s)
	if team.Valid() {
		s.TeamInPossession = team
	}
	return s
}
