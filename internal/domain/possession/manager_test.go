package possession

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/pitch"
	"github.com/tactabot/regista/internal/domain/state"
)

const baseMs int64 = 1_700_000_000_000

func at(offset int64) time.Time {
	return time.UnixMilli(baseMs + offset)
}

func tag(id int64, name string, team event.Team) event.TaggedEvent {
	return event.TaggedEvent{ID: id, EventName: name, Team: team}
}

// stateIn fabricates a post-event state sitting in the given zone.
func stateIn(zone int) state.MatchState {
	s := state.New()
	s.Zone = pitch.FromNumber(zone)
	return s
}

func TestStartNew(t *testing.T) {
	Convey("Given an empty manager", t, func() {
		m := NewManager()

		Convey("When a chain starts from a pass in the defensive third", func() {
			m = m.StartNew(event.TeamA, tag(1, "pass_start", event.TeamA), stateIn(3), at(0))

			Convey("Then the chain is seeded from the event and state", func() {
				c, ok := m.OpenChain()
				So(ok, ShouldBeTrue)
				So(c.ID, ShouldEqual, 1)
				So(c.Team, ShouldEqual, event.TeamA)
				So(c.StartTime, ShouldEqual, baseMs)
				So(c.Events, ShouldHaveLength, 1)
				So(c.StartZone, ShouldResemble, pitch.FromNumber(3))
				So(c.ZonesVisited.Has(3), ShouldBeTrue)
				So(c.PassCount, ShouldEqual, 1)
				So(c.Outcome, ShouldEqual, OutcomeOngoing)
				So(c.EnteredFinalThird, ShouldBeFalse)
				So(c.FromTransition, ShouldBeFalse)
				So(m.NextID, ShouldEqual, 2)
			})
		})

		Convey("When a chain starts while another is open", func() {
			m = m.StartNew(event.TeamA, tag(1, "pass_start", event.TeamA), stateIn(9), at(0))
			m = m.StartNew(event.TeamB, tag(2, "interception", event.TeamB), stateIn(9), at(2000))

			Convey("Then the old chain closes as a loss", func() {
				So(m.Completed, ShouldHaveLength, 1)
				So(m.Completed[0].Outcome, ShouldEqual, OutcomeLoss)
				So(m.Completed[0].Team, ShouldEqual, event.TeamA)

				c, ok := m.OpenChain()
				So(ok, ShouldBeTrue)
				So(c.ID, ShouldEqual, 2)
				So(c.Team, ShouldEqual, event.TeamB)
				So(c.PassCount, ShouldEqual, 0)
			})
		})

		Convey("When the team is not a real side", func() {
			next := m.StartNew(event.TeamNone, tag(1, "ui_undo", event.TeamNone), stateIn(9), at(0))

			Convey("Then nothing opens", func() {
				So(next.Current, ShouldBeNil)
				So(next.NextID, ShouldEqual, m.NextID)
			})
		})

		Convey("When the chain starts out of a transition under pressure", func() {
			st := stateIn(10)
			st.Phase = state.PhaseTransitionOff
			st.Pressure = state.PressureHigh
			m = m.StartNew(event.TeamB, tag(1, "interception", event.TeamB), st, at(0))

			Convey("Then the context flags are stamped at creation", func() {
				c, _ := m.OpenChain()
				So(c.FromTransition, ShouldBeTrue)
				So(c.UnderPressure, ShouldBeTrue)
				So(c.FromSetPiece, ShouldBeFalse)
			})
		})
	})
}

func TestAddEvent(t *testing.T) {
	Convey("Given an open TEAM_A chain started in the defensive third", t, func() {
		m := NewManager()
		m = m.StartNew(event.TeamA, tag(1, "pass_start", event.TeamA), stateIn(3), at(0))

		Convey("When same-team events walk the ball upfield", func() {
			m = m.AddEvent(tag(2, "pass_end", event.TeamA), stateIn(9), at(1000))
			m = m.AddEvent(tag(3, "carry_start", event.TeamA), stateIn(14), at(2000))
			m = m.AddEvent(tag(4, "shot_start", event.TeamA), stateIn(18), at(3000))

			Convey("Then the chain accumulates zones, passes and flags", func() {
				c, _ := m.OpenChain()
				So(c.Events, ShouldHaveLength, 4)
				So(c.PassCount, ShouldEqual, 2)
				So(c.ProgressivePassCount, ShouldEqual, 1)
				So(c.ZonesVisited, ShouldResemble, ZoneSet{3: {}, 9: {}, 14: {}, 18: {}})
				So(c.EnteredFinalThird, ShouldBeTrue)
				So(c.EnteredBox, ShouldBeTrue)
				So(c.ShotTaken, ShouldBeTrue)
				So(c.EndZone, ShouldNotBeNil)
				So(*c.EndZone, ShouldResemble, pitch.FromNumber(18))
			})

			Convey("And the flags stay set once raised", func() {
				m = m.AddEvent(tag(5, "pass_end", event.TeamA), stateIn(9), at(4000))
				c, _ := m.OpenChain()
				So(c.EnteredFinalThird, ShouldBeTrue)
				So(c.EnteredBox, ShouldBeTrue)
				So(c.ShotTaken, ShouldBeTrue)
			})
		})

		Convey("When the other team's event arrives", func() {
			m = m.AddEvent(tag(2, "pass_start", event.TeamB), stateIn(9), at(1500))

			Convey("Then the old chain closes as a loss and a new one opens", func() {
				So(m.Completed, ShouldHaveLength, 1)
				So(m.Completed[0].Outcome, ShouldEqual, OutcomeLoss)
				c, _ := m.OpenChain()
				So(c.Team, ShouldEqual, event.TeamB)
				So(c.ID, ShouldEqual, 2)
			})
		})

		Convey("When no chain is open", func() {
			m = m.End(OutcomeLoss, at(1000))
			m = m.AddEvent(tag(9, "carry_start", event.TeamB), stateIn(7), at(2000))

			Convey("Then the add starts a chain", func() {
				c, ok := m.OpenChain()
				So(ok, ShouldBeTrue)
				So(c.Team, ShouldEqual, event.TeamB)
			})
		})
	})
}

func TestEnd(t *testing.T) {
	Convey("Given a chain that moved defensive to box with two passes", t, func() {
		m := NewManager()
		m = m.StartNew(event.TeamA, tag(1, "pass_start", event.TeamA), stateIn(3), at(0))
		m = m.AddEvent(tag(2, "pass_end", event.TeamA), stateIn(9), at(1000))
		m = m.AddEvent(tag(3, "shot_start", event.TeamA), stateIn(18), at(3000))

		Convey("When it closes after eight seconds", func() {
			m = m.End(OutcomeShot, at(8000))

			Convey("Then exactly one chain completes and none stays open", func() {
				So(m.Current, ShouldBeNil)
				So(m.Completed, ShouldHaveLength, 1)
			})

			Convey("Then the analytics are deterministic", func() {
				c := m.Completed[0]
				So(c.Outcome, ShouldEqual, OutcomeShot)
				So(c.DurationMs, ShouldEqual, 8000)
				// 2 passes over 8s is 0.25 passes per second.
				So(c.BuildUpSpeed, ShouldEqual, SpeedSlow)
				// Two thirds of progress over 2 passes saturates at 1.
				So(c.Verticality, ShouldEqual, 1.0)
				// Vertical bonus only: 1.0 * 1.1.
				So(c.XGContext, ShouldAlmostEqual, 1.1, 1e-9)
			})
		})
	})

	Convey("Given a chain with no passes", t, func() {
		m := NewManager()
		m = m.StartNew(event.TeamA, tag(1, "carry_start", event.TeamA), stateIn(9), at(0))

		Convey("When it closes immediately", func() {
			m = m.End(OutcomeLoss, at(100))

			Convey("Then the build-up counts as fast and verticality is zero", func() {
				c := m.Completed[0]
				So(c.BuildUpSpeed, ShouldEqual, SpeedFast)
				So(c.Verticality, ShouldEqual, 0)
				So(c.XGContext, ShouldAlmostEqual, 1.15, 1e-9)
			})
		})
	})

	Convey("Given a chain that starts and ends in the final third", t, func() {
		m := NewManager()
		m = m.StartNew(event.TeamA, tag(1, "pass_start", event.TeamA), stateIn(15), at(0))
		m = m.AddEvent(tag(2, "pass_end", event.TeamA), stateIn(16), at(500))

		Convey("When it closes", func() {
			m = m.End(OutcomeShot, at(1000))

			Convey("Then zero third progress means zero verticality", func() {
				c := m.Completed[0]
				So(c.PassCount, ShouldEqual, 2)
				So(c.Verticality, ShouldEqual, 0)
				// 2 passes in 1s is fast.
				So(c.BuildUpSpeed, ShouldEqual, SpeedFast)
			})
		})
	})

	Convey("Given a transition chain", t, func() {
		st := stateIn(10)
		st.Phase = state.PhaseTransitionOff
		m := NewManager()
		m = m.StartNew(event.TeamB, tag(1, "interception", event.TeamB), st, at(0))

		Convey("When it closes fast", func() {
			m = m.End(OutcomeShot, at(200))

			Convey("Then transition and speed multipliers stack", func() {
				c := m.Completed[0]
				So(c.BuildUpSpeed, ShouldEqual, SpeedFast)
				So(c.XGContext, ShouldAlmostEqual, 1.3*1.15, 1e-9)
			})
		})
	})

	Convey("Given a pressured non-transition chain", t, func() {
		st := stateIn(9)
		st.Pressure = state.PressureHigh
		m := NewManager()
		m = m.StartNew(event.TeamA, tag(1, "pass_start", event.TeamA), st, at(0))

		Convey("When it closes slowly", func() {
			m = m.AddEvent(tag(2, "pass_end", event.TeamA), stateIn(9), at(4000))
			m = m.End(OutcomeLoss, at(10000))

			Convey("Then the pressure discount applies", func() {
				c := m.Completed[0]
				So(c.BuildUpSpeed, ShouldEqual, SpeedSlow)
				So(c.XGContext, ShouldAlmostEqual, 0.9, 1e-9)
			})
		})
	})

	Convey("Given nothing open", t, func() {
		m := NewManager()

		Convey("When End is called", func() {
			next := m.End(OutcomeLoss, at(0))

			Convey("Then it is a no-op", func() {
				So(next.Completed, ShouldHaveLength, 0)
				So(next.Current, ShouldBeNil)
			})
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given an open TEAM_A chain", t, func() {
		m := NewManager()
		m = m.StartNew(event.TeamA, tag(1, "pass_start", event.TeamA), stateIn(9), at(0))

		Convey("When an interception routes through Apply", func() {
			next := Apply(m, tag(2, "interception", event.TeamB), stateIn(9), at(1000))

			Convey("Then a fresh chain opens for the interceptor", func() {
				So(next.Completed, ShouldHaveLength, 1)
				So(next.Completed[0].Outcome, ShouldEqual, OutcomeLoss)
				c, _ := next.OpenChain()
				So(c.Team, ShouldEqual, event.TeamB)
			})
		})

		Convey("When a turnover routes through Apply", func() {
			next := Apply(m, tag(2, "turnover", event.TeamA), stateIn(9), at(1000))

			Convey("Then the chain closes as a loss", func() {
				So(next.Current, ShouldBeNil)
				So(next.Completed[0].Outcome, ShouldEqual, OutcomeLoss)
			})
		})

		Convey("When a goal routes through Apply", func() {
			next := Apply(m, tag(2, "goal", event.TeamA), stateIn(18), at(1000))

			Convey("Then the chain closes as a goal", func() {
				So(next.Current, ShouldBeNil)
				So(next.Completed[0].Outcome, ShouldEqual, OutcomeGoal)
			})
		})

		Convey("When fouls and offsides route through Apply", func() {
			foul := Apply(m, tag(2, "foul", event.TeamA), stateIn(9), at(1000))
			off := Apply(m, tag(2, "offside", event.TeamA), stateIn(9), at(1000))

			Convey("Then the chain closes as a set piece", func() {
				So(foul.Completed[0].Outcome, ShouldEqual, OutcomeSetPiece)
				So(off.Completed[0].Outcome, ShouldEqual, OutcomeSetPiece)
			})
		})

		Convey("When a shot routes through Apply", func() {
			next := Apply(m, tag(2, "shot_start", event.TeamA), stateIn(16), at(1000))

			Convey("Then the chain stays open with the shot flag up", func() {
				c, ok := next.OpenChain()
				So(ok, ShouldBeTrue)
				So(c.ShotTaken, ShouldBeTrue)
				So(next.Completed, ShouldHaveLength, 0)
			})
		})

		Convey("When a UI control routes through Apply", func() {
			next := Apply(m, tag(2, "ui_undo", event.TeamA), stateIn(9), at(1000))

			Convey("Then the manager is untouched", func() {
				So(next, ShouldResemble, m)
			})
		})
	})
}

func TestManagerRoundTrip(t *testing.T) {
	Convey("Given a manager with history and an open chain", t, func() {
		m := NewManager()
		m = m.StartNew(event.TeamA, tag(1, "pass_start", event.TeamA), stateIn(3), at(0))
		m = m.AddEvent(tag(2, "pass_end", event.TeamA), stateIn(9), at(1000))
		m = m.End(OutcomeLoss, at(2000))
		m = m.StartNew(event.TeamB, tag(3, "interception", event.TeamB), stateIn(10), at(2000))
		m = m.AddEvent(tag(4, "carry_start", event.TeamB), stateIn(15), at(2500))

		Convey("When it round-trips through JSON", func() {
			blob, err := json.Marshal(m)
			So(err, ShouldBeNil)

			var back Manager
			So(json.Unmarshal(blob, &back), ShouldBeNil)

			Convey("Then chains and zone membership survive exactly", func() {
				So(back, ShouldResemble, m)
				So(back.Completed[0].ZonesVisited.Has(3), ShouldBeTrue)
				So(back.Completed[0].ZonesVisited.Has(9), ShouldBeTrue)
				So(back.NextID, ShouldEqual, m.NextID)
			})

			Convey("Then the visited zones serialize as a sorted list", func() {
				So(string(blob), ShouldContainSubstring, `"zonesVisited":[3,9]`)
			})
		})
	})
}

func TestComputeStats(t *testing.T) {
	Convey("Given a mixed set of completed chains", t, func() {
		chains := []Chain{
			{
				Team: event.TeamA, DurationMs: 4000, PassCount: 4,
				ProgressivePassCount: 2, ShotTaken: true, Outcome: OutcomeGoal,
				FromTransition: true, EnteredFinalThird: true, EnteredBox: true,
				BuildUpSpeed: SpeedFast,
			},
			{
				Team: event.TeamA, DurationMs: 6000, PassCount: 2,
				Outcome: OutcomeLoss, BuildUpSpeed: SpeedSlow,
			},
			{
				Team: event.TeamB, DurationMs: 5000, PassCount: 10,
				ProgressivePassCount: 5, Outcome: OutcomeLoss,
				EnteredFinalThird: true, BuildUpSpeed: SpeedMedium,
			},
		}

		Convey("When aggregating TEAM_A only", func() {
			s := ComputeStats(chains, event.TeamA)

			Convey("Then every rate comes from TEAM_A's two chains", func() {
				So(s.TotalChains, ShouldEqual, 2)
				So(s.TransitionChains, ShouldEqual, 1)
				So(s.AvgDurationMs, ShouldEqual, 5000)
				So(s.AvgPassesPerChain, ShouldEqual, 3)
				So(s.ShotRate, ShouldEqual, 0.5)
				So(s.GoalRate, ShouldEqual, 0.5)
				So(s.LossRate, ShouldEqual, 0.5)
				So(s.TransitionToShotRate, ShouldEqual, 1)
				So(s.TransitionToGoalRate, ShouldEqual, 1)
				So(s.FinalThirdEntryRate, ShouldEqual, 0.5)
				So(s.BoxEntryRate, ShouldEqual, 0.5)
				So(s.ProgressivePassRate, ShouldAlmostEqual, 2.0/6.0, 1e-9)
				So(s.FastBuildUps, ShouldEqual, 1)
				So(s.SlowBuildUps, ShouldEqual, 1)
			})
		})

		Convey("When aggregating both sides", func() {
			s := ComputeStats(chains, event.TeamNone)

			Convey("Then all three chains count", func() {
				So(s.TotalChains, ShouldEqual, 3)
				So(s.AvgDurationMs, ShouldEqual, 5000)
				So(s.ProgressivePassRate, ShouldAlmostEqual, 7.0/16.0, 1e-9)
			})
		})

		Convey("When the input is empty", func() {
			Convey("Then the zero struct comes back", func() {
				So(ComputeStats(nil, event.TeamNone), ShouldResemble, Stats{})
				So(ComputeStats([]Chain{}, event.TeamA), ShouldResemble, Stats{})
			})
		})
	})
}

func TestManagerPurity(t *testing.T) {
	Convey("Given a manager with an open chain", t, func() {
		m1 := NewManager()
		m1 = m1.StartNew(event.TeamA, tag(1, "pass_start", event.TeamA), stateIn(3), at(0))
		snapshot, _ := m1.OpenChain()

		Convey("When a derived manager accumulates more events", func() {
			m2 := m1.AddEvent(tag(2, "pass_end", event.TeamA), stateIn(9), at(1000))
			m2 = m2.AddEvent(tag(3, "shot_start", event.TeamA), stateIn(18), at(2000))

			Convey("Then the original open chain is untouched", func() {
				c, _ := m1.OpenChain()
				So(c, ShouldResemble, snapshot)
				So(c.Events, ShouldHaveLength, 1)
				So(c.ZonesVisited.Has(18), ShouldBeFalse)

				c2, _ := m2.OpenChain()
				So(c2.Events, ShouldHaveLength, 3)
			})
		})
	})
}
