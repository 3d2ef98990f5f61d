package possession

import (
	"time"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/pitch"
	"github.com/tactabot/regista/internal/domain/state"
)

// Manager tracks at most one open chain plus the history of completed
// ones. All operations are pure: they return a replacement manager and
// never modify the receiver, so callers own exactly one live value and
// replace it per event. The whole manager round-trips through JSON.
type Manager struct {
	Current   *Chain  `json:"currentChain,omitempty"`
	Completed []Chain `json:"completedChains"`
	NextID    int64   `json:"chainIdCounter"`
}

// NewManager returns an empty manager with the id counter primed.
func NewManager() Manager {
	return Manager{Completed: []Chain{}, NextID: 1}
}

// OpenChain returns a copy of the chain in progress, if any.
func (m Manager) OpenChain() (Chain, bool) {
	if m.Current == nil {
		return Chain{}, false
	}
	return m.Current.clone(), true
}

// OpenChainID returns the open chain's id, or zero when none is open.
func (m Manager) OpenChainID() int64 {
	if m.Current == nil {
		return 0
	}
	return m.Current.ID
}

// StartNew opens a chain for team, seeded from the triggering event and
// the state that event produced. An already-open chain closes as LOSS
// first: possession changed hands without a terminal event.
func (m Manager) StartNew(team event.Team, ev event.TaggedEvent, st state.MatchState, now time.Time) Manager {
	if !team.Valid() {
		return m
	}
	if m.Current != nil {
		m = m.End(OutcomeLoss, now)
	}
	if m.NextID <= 0 {
		m.NextID = 1
	}

	kind := ev.Kind()
	c := Chain{
		ID:                m.NextID,
		Team:              team,
		StartTime:         now.UnixMilli(),
		Events:            []event.TaggedEvent{ev},
		StartZone:         st.Zone,
		ZonesVisited:      ZoneSet{st.Zone.Number: struct{}{}},
		EnteredFinalThird: st.Zone.Third == pitch.ThirdFinal,
		EnteredBox:        st.Zone.Number == pitch.BoxZoneNumber,
		ShotTaken:         kind == event.KindShotStart,
		FromTransition:    st.Phase == state.PhaseTransitionOff,
		FromSetPiece:      st.Phase == state.PhaseSetPiece,
		UnderPressure:     st.Pressure == state.PressureHigh,
		Outcome:           OutcomeOngoing,
	}
	if kind.IsPass() {
		c.PassCount = 1
	}

	m.Current = &c
	m.NextID++
	return m
}

// AddEvent appends the event to the open chain. Without an open chain, or
// when the event belongs to the other team, it starts a fresh chain
// instead (closing the old one as LOSS).
func (m Manager) AddEvent(ev event.TaggedEvent, st state.MatchState, now time.Time) Manager {
	if m.Current == nil {
		return m.StartNew(ev.Team, ev, st, now)
	}
	if ev.Team.Valid() && ev.Team != m.Current.Team {
		return m.StartNew(ev.Team, ev, st, now)
	}

	c := m.Current.clone()
	c.Events = append(c.Events, ev)
	c.ZonesVisited.Add(st.Zone.Number)
	if ev.Kind().IsPass() {
		c.PassCount++
		if st.Zone.Third.Index() > c.StartZone.Third.Index() {
			c.ProgressivePassCount++
		}
	}
	c.EnteredFinalThird = c.EnteredFinalThird || st.Zone.Third == pitch.ThirdFinal
	c.EnteredBox = c.EnteredBox || st.Zone.Number == pitch.BoxZoneNumber
	c.ShotTaken = c.ShotTaken || ev.Kind() == event.KindShotStart

	z := st.Zone
	c.EndZone = &z

	m.Current = &c
	return m
}

// End closes the open chain with the outcome and computes its analytics.
// No-op when nothing is open.
func (m Manager) End(outcome Outcome, now time.Time) Manager {
	if m.Current == nil {
		return m
	}

	c := m.Current.clone()
	c.EndTime = now.UnixMilli()
	c.DurationMs = c.EndTime - c.StartTime
	c.Outcome = outcome
	c.BuildUpSpeed = buildUpSpeed(c.PassCount, c.DurationMs)
	c.Verticality = verticality(c)
	c.XGContext = xgContext(c)

	m.Completed = append(m.Completed, c)
	m.Current = nil
	return m
}

// Apply routes one tagged event to the matching chain operation. The state
// passed in is the state AFTER the event was processed. UI control signals
// never touch chains.
func Apply(m Manager, ev event.TaggedEvent, st state.MatchState, now time.Time) Manager {
	if event.IsUIControl(ev.EventName) {
		return m
	}

	switch ev.Kind() {
	case event.KindInterception:
		return m.StartNew(ev.Team, ev, st, now)
	case event.KindTurnover:
		return m.End(OutcomeLoss, now)
	case event.KindGoal:
		return m.End(OutcomeGoal, now)
	case event.KindFoul, event.KindOffside:
		return m.End(OutcomeSetPiece, now)
	default:
		// A shot does not close the chain on its own; what follows
		// (goal, clearance, turnover) decides the outcome.
		return m.AddEvent(ev, st, now)
	}
}
