package matchsim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/pitch"
)

// kindUIClockSync is a client control tag. The engine counts it like any
// other event but keeps it out of pattern learning.
const kindUIClockSync = event.Kind("ui_clock_sync")

// Scenario pacing constants.
const (
	minTickMs      = 2_000
	tickJitterMs   = 6_000
	restartDelayMs = 45_000

	msPerSecond = 1_000
)

// Follow-up odds, per hundred.
const (
	backPassPct         = 25
	pressingFollowupPct = 35
	counterTagPct       = 25
	penaltyPct          = 20
	freeKickShotPct     = 30
	cornerShotPct       = 40
	bigChanceShotPct    = 55
	shotGoalPct         = 14
	shotCornerPct       = 22

	playerTagPct   = 60
	playersPerSide = 11
)

// weighted pairs a cumulative roll ceiling with a kind.
type weighted struct {
	ceil int
	kind event.Kind
}

type drawTable []weighted

func (t drawTable) pick(roll int) event.Kind {
	for _, w := range t {
		if roll < w.ceil {
			return w.kind
		}
	}
	return t[len(t)-1].kind
}

// Tag mix per hundred draws outside the final third.
var openPlayTable = drawTable{
	{38, event.KindPassStart},
	{52, event.KindCarryStart},
	{59, event.KindSwitchOfPlay},
	{68, event.KindInterception},
	{76, event.KindTurnover},
	{82, event.KindFoul},
	{87, event.KindClearance},
	{92, event.KindPressingTrigger},
	{95, event.KindPhaseConsolidation},
	{98, event.KindPhaseLowBlock},
	{100, kindUIClockSync},
}

// Tag mix per hundred draws inside the final third.
var finalThirdTable = drawTable{
	{28, event.KindPassStart},
	{40, event.KindCarryStart},
	{48, event.KindDangerousAttack},
	{55, event.KindBigChance},
	{68, event.KindShotStart},
	{74, event.KindCornerStart},
	{81, event.KindInterception},
	{86, event.KindTurnover},
	{91, event.KindFoul},
	{95, event.KindOffside},
	{100, event.KindClearance},
}

// scenario produces a reproducible tagged-event stream that moves like a
// real match: possession spells with forward drift, turnovers that flip
// the grid perspective, set pieces and the occasional goal. The grid is
// always expressed from the attacking side's point of view, the way the
// tagging clients do it.
type scenario struct {
	rng       *rand.Rand
	attacking event.Team
	zone      int
	clockMs   int64
	wallBase  time.Time
	nextID    int64
	pending   []event.Kind
	teamName  map[event.Team]string
}

func newScenario(cfg *Config) *scenario {
	return &scenario{
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		attacking: event.TeamA,
		zone:      pitch.DefaultZoneNumber,
		wallBase:  time.Now().UTC(),
		nextID:    1,
		teamName:  map[event.Team]string{event.TeamA: cfg.TeamA, event.TeamB: cfg.TeamB},
	}
}

func (s *scenario) generate(n int) []event.TaggedEvent {
	events := make([]event.TaggedEvent, 0, n)
	for len(events) < n {
		events = append(events, s.next())
	}
	return events
}

func (s *scenario) next() event.TaggedEvent {
	s.clockMs += int64(minTickMs + s.rng.Intn(tickJitterMs))

	var k event.Kind
	if len(s.pending) > 0 {
		k = s.pending[0]
		s.pending = s.pending[1:]
	} else {
		k = s.draw()
	}
	return s.apply(k)
}

func (s *scenario) draw() event.Kind {
	roll := s.rng.Intn(100)
	if pitch.FromNumber(s.zone).Third == pitch.ThirdFinal {
		return finalThirdTable.pick(roll)
	}
	return openPlayTable.pick(roll)
}

// apply builds the event for k and advances the match accordingly. Kinds
// that force a follow-up tag queue it; queued tags drain before the next
// weighted draw.
func (s *scenario) apply(k event.Kind) event.TaggedEvent {
	team := s.attacking

	switch k {
	case event.KindPassStart:
		s.pending = append(s.pending, event.KindPassEnd)

	case event.KindPassEnd, event.KindCarryStart:
		s.advance()

	case event.KindSwitchOfPlay:
		s.zone = pitch.FromNumber(s.zone).Mirrored().Number

	case event.KindInterception:
		// The defender wins the ball; the grid flips to their view.
		team = s.attacking.Opponent()
		s.flip()
		s.queueCounterTags()

	case event.KindTurnover:
		// Tagged against the side that lost it.
		s.flip()
		s.queueCounterTags()

	case event.KindPressingTrigger:
		team = s.attacking.Opponent()

	case event.KindFoul:
		team = s.attacking.Opponent()
		s.pending = append(s.pending, s.setPieceKind())

	case event.KindPenalty:
		s.zone = pitch.BoxZoneNumber
		s.pending = append(s.pending, event.KindShotStart)

	case event.KindFreeKick:
		if pitch.FromNumber(s.zone).Third == pitch.ThirdFinal && s.rng.Intn(100) < freeKickShotPct {
			s.pending = append(s.pending, event.KindShotStart)
		}

	case event.KindCornerStart:
		if s.rng.Intn(100) < cornerShotPct {
			s.zone = pitch.BoxZoneNumber
			s.pending = append(s.pending, event.KindShotStart)
		} else {
			s.pending = append(s.pending, event.KindClearance)
		}

	case event.KindBigChance:
		if s.rng.Intn(100) < bigChanceShotPct {
			s.pending = append(s.pending, event.KindShotStart)
		}

	case event.KindShotStart:
		s.resolveShot()

	case event.KindGoal:
		// Kickoff: the conceding side restarts from the centre.
		s.attacking = team.Opponent()
		s.zone = pitch.DefaultZoneNumber
		s.clockMs += restartDelayMs

	case event.KindOffside:
		s.flip()
		s.pending = append(s.pending, event.KindFreeKick)

	case event.KindClearance:
		team = s.attacking.Opponent()
		s.retreat()

	case event.KindFinalThirdEntry:
		s.zone = pitch.FromNumber(s.zone).InThird(pitch.ThirdFinal).Number

	case kindUIClockSync:
		team = event.TeamNone
	}

	return s.build(k, team)
}

func (s *scenario) build(k event.Kind, team event.Team) event.TaggedEvent {
	ev := event.TaggedEvent{
		ID:        s.nextID,
		EventName: string(k),
		Team:      team,
		Timestamp: s.wallBase.Add(time.Duration(s.clockMs) * time.Millisecond).Format(time.RFC3339),
		MatchTime: formatMatchTime(s.clockMs),
		VideoTime: float64(s.clockMs) / msPerSecond,
	}
	s.nextID++

	if k == kindUIClockSync {
		return ev
	}
	ev.Zone = s.zone
	if team.Valid() && s.rng.Intn(100) < playerTagPct {
		num := 1 + s.rng.Intn(playersPerSide)
		ev.Player = &event.Player{ID: int64(num), Name: fmt.Sprintf("%s #%d", s.teamName[team], num)}
	}
	return ev
}

// advance drifts the ball forward, sometimes recycling it backwards.
func (s *scenario) advance() {
	step := 1 + s.rng.Intn(3)
	if s.rng.Intn(100) < backPassPct {
		step = -(1 + s.rng.Intn(2))
	}
	s.move(step)
}

// retreat models a clearance pushing play back toward the halfway line.
func (s *scenario) retreat() {
	s.move(-(2 + s.rng.Intn(4)))
}

func (s *scenario) move(step int) {
	before := pitch.FromNumber(s.zone).Third
	n := s.zone + step
	if n < 1 {
		n = 1
	}
	if n > pitch.MaxZoneNumber {
		n = pitch.MaxZoneNumber
	}
	s.zone = n
	if before != pitch.ThirdFinal && pitch.FromNumber(n).Third == pitch.ThirdFinal {
		s.pending = append(s.pending, event.KindFinalThirdEntry)
	}
}

// flip hands possession over and re-expresses the grid from the new
// attacker's perspective: opposite third, mirrored lane.
func (s *scenario) flip() {
	s.attacking = s.attacking.Opponent()
	z := pitch.FromNumber(s.zone)
	third := pitch.ThirdMiddle
	switch z.Third {
	case pitch.ThirdDefensive:
		third = pitch.ThirdFinal
	case pitch.ThirdFinal:
		third = pitch.ThirdDefensive
	}
	s.zone = z.Mirrored().InThird(third).Number
}

// queueCounterTags occasionally has the operator follow a possession flip
// with an explicit pressing or counter tag.
func (s *scenario) queueCounterTags() {
	roll := s.rng.Intn(100)
	switch {
	case roll < pressingFollowupPct:
		s.pending = append(s.pending, event.KindPressingTrigger)
	case roll < pressingFollowupPct+counterTagPct:
		s.pending = append(s.pending, event.KindTransitionOffStart)
	}
}

func (s *scenario) setPieceKind() event.Kind {
	if s.zone == pitch.BoxZoneNumber && s.rng.Intn(100) < penaltyPct {
		return event.KindPenalty
	}
	return event.KindFreeKick
}

// resolveShot queues what the shot turns into.
func (s *scenario) resolveShot() {
	roll := s.rng.Intn(100)
	switch {
	case roll < shotGoalPct:
		s.pending = append(s.pending, event.KindGoal)
	case roll < shotGoalPct+shotCornerPct:
		s.pending = append(s.pending, event.KindCornerStart)
	default:
		s.pending = append(s.pending, event.KindClearance)
	}
}

func formatMatchTime(ms int64) string {
	total := ms / msPerSecond
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
