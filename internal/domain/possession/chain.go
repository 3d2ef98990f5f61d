// Package possession groups consecutive same-team events into chains and
// computes chain-closing analytics.
package possession

import (
	"encoding/json"
	"sort"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/pitch"
)

// Outcome is how a chain ended. ONGOING marks the open chain.
type Outcome string

// Chain outcomes.
const (
	OutcomeOngoing   Outcome = "ONGOING"
	OutcomeShot      Outcome = "SHOT"
	OutcomeGoal      Outcome = "GOAL"
	OutcomeLoss      Outcome = "LOSS"
	OutcomeSetPiece  Outcome = "SET_PIECE"
	OutcomeOutOfPlay Outcome = "OUT_OF_PLAY"
)

// BuildUpSpeed grades how quickly a closed chain moved the ball.
type BuildUpSpeed string

// Build-up speeds.
const (
	SpeedFast   BuildUpSpeed = "FAST"
	SpeedMedium BuildUpSpeed = "MEDIUM"
	SpeedSlow   BuildUpSpeed = "SLOW"
)

// ZoneSet is the set of zone numbers a chain visited. It serializes as a
// sorted list of integers and deserializes back into a set.
type ZoneSet map[int]struct{}

// Add puts n into the set.
func (z ZoneSet) Add(n int) {
	z[n] = struct{}{}
}

// Has reports membership.
func (z ZoneSet) Has(n int) bool {
	_, ok := z[n]
	return ok
}

// Clone returns an independent copy.
func (z ZoneSet) Clone() ZoneSet {
	out := make(ZoneSet, len(z))
	for n := range z {
		out[n] = struct{}{}
	}
	return out
}

// MarshalJSON renders the set as a sorted int list.
func (z ZoneSet) MarshalJSON() ([]byte, error) {
	nums := make([]int, 0, len(z))
	for n := range z {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return json.Marshal(nums)
}

// UnmarshalJSON rebuilds the set from an int list.
func (z *ZoneSet) UnmarshalJSON(data []byte) error {
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	set := make(ZoneSet, len(nums))
	for _, n := range nums {
		set.Add(n)
	}
	*z = set
	return nil
}

// Chain is one unbroken run of same-team events. Analytics fields at the
// bottom are filled only when the chain closes.
type Chain struct {
	ID                   int64               `json:"id"`
	Team                 event.Team          `json:"team"`
	StartTime            int64               `json:"startTime"`
	EndTime              int64               `json:"endTime,omitempty"`
	Events               []event.TaggedEvent `json:"events"`
	StartZone            pitch.Zone          `json:"startZone"`
	EndZone              *pitch.Zone         `json:"endZone,omitempty"`
	ZonesVisited         ZoneSet             `json:"zonesVisited"`
	PassCount            int                 `json:"passCount"`
	ProgressivePassCount int                 `json:"progressivePassCount"`
	EnteredFinalThird    bool                `json:"enteredFinalThird"`
	EnteredBox           bool                `json:"enteredBox"`
	ShotTaken            bool                `json:"shotTaken"`
	FromTransition       bool                `json:"fromTransition"`
	FromSetPiece         bool                `json:"fromSetPiece"`
	UnderPressure        bool                `json:"underPressure"`
	Outcome              Outcome             `json:"outcome"`

	DurationMs   int64        `json:"durationMs,omitempty"`
	BuildUpSpeed BuildUpSpeed `json:"buildUpSpeed,omitempty"`
	Verticality  float64      `json:"verticality,omitempty"`
	XGContext    float64      `json:"xgContext,omitempty"`
}

// clone deep-copies the mutable parts so open-chain edits never leak into
// older manager values.
func (c Chain) clone() Chain {
	c.Events = append([]event.TaggedEvent(nil), c.Events...)
	c.ZonesVisited = c.ZonesVisited.Clone()
	if c.EndZone != nil {
		z := *c.EndZone
		c.EndZone = &z
	}
	return c
}

func buildUpSpeed(passCount int, durationMs int64) BuildUpSpeed {
	if passCount == 0 {
		return SpeedFast
	}
	secs := float64(durationMs) / 1000
	if secs <= 0 {
		return SpeedFast
	}
	perSec := float64(passCount) / secs
	switch {
	case perSec > 1:
		return SpeedFast
	case perSec > 0.5:
		return SpeedMedium
	default:
		return SpeedSlow
	}
}

// verticality measures how directly the chain progressed through the
// thirds, normalized by pass volume.
func verticality(c Chain) float64 {
	if c.EndZone == nil {
		return 0
	}
	progress := float64(c.EndZone.Third.Index() - c.StartZone.Third.Index())
	if c.PassCount == 0 {
		if progress > 0 {
			return 1
		}
		return 0
	}
	denom := float64(c.PassCount) / 3
	if denom < 1 {
		denom = 1
	}
	v := progress / denom
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// xgContext is the chance-quality multiplier attached at close. Expects
// BuildUpSpeed and Verticality to be computed already.
func xgContext(c Chain) float64 {
	x := 1.0
	if c.FromTransition {
		x *= 1.3
	}
	if c.BuildUpSpeed == SpeedFast {
		x *= 1.15
	}
	if c.Verticality > 0.7 {
		x *= 1.1
	}
	if c.UnderPressure && !c.FromTransition {
		x *= 0.9
	}
	return x
}
