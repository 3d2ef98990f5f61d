// Package pitch models the 18-zone grid the tagging clients place events on.
//
// The grid is fixed: three thirds in attacking direction, six zones per
// third. Lookups are pure and never fail; numbers outside 1..18 resolve to
// the central middle zone.
package pitch

import "fmt"

// Third is the horizontal band of the pitch in attacking direction.
type Third string

// Thirds in attacking order.
const (
	ThirdDefensive Third = "DEFENSIVE"
	ThirdMiddle    Third = "MIDDLE"
	ThirdFinal     Third = "FINAL"
)

// Index orders thirds in attacking direction: DEFENSIVE(0) < MIDDLE(1) < FINAL(2).
func (t Third) Index() int {
	switch t {
	case ThirdMiddle:
		return 1
	case ThirdFinal:
		return 2
	default:
		return 0
	}
}

// Lane is the vertical corridor of the pitch, left to right from the
// attacking team's point of view.
type Lane string

// Lanes left to right.
const (
	LaneLeft           Lane = "LEFT"
	LaneHalfSpaceLeft  Lane = "HALF_SPACE_LEFT"
	LaneCenter         Lane = "CENTER"
	LaneHalfSpaceRight Lane = "HALF_SPACE_RIGHT"
	LaneRight          Lane = "RIGHT"
)

// Mirror flips a lane across the central corridor: LEFT and HALF_SPACE_LEFT
// land on RIGHT, HALF_SPACE_RIGHT and RIGHT land on LEFT, CENTER stays put.
func (l Lane) Mirror() Lane {
	switch l {
	case LaneLeft, LaneHalfSpaceLeft:
		return LaneRight
	case LaneHalfSpaceRight, LaneRight:
		return LaneLeft
	default:
		return l
	}
}

// Zone is one cell of the grid.
type Zone struct {
	Third  Third `json:"third"`
	Lane   Lane  `json:"lane"`
	Number int   `json:"zoneNumber"`
}

// Grid boundaries and named cells.
const (
	// DefaultZoneNumber is the central middle zone events fall back to when
	// the operator tagged no zone.
	DefaultZoneNumber = 9
	// BoxZoneNumber is the opposition penalty box.
	BoxZoneNumber = 18
	// MaxZoneNumber is the highest valid zone number.
	MaxZoneNumber = 18
)

// zones is the fixed grid. Six zones per third, left to right; the sixth
// zone of each third is the central box/edge corridor (6 own box, 12 second
// line, 18 opposition box).
var zones = [MaxZoneNumber + 1]Zone{
	1:  {ThirdDefensive, LaneLeft, 1},
	2:  {ThirdDefensive, LaneHalfSpaceLeft, 2},
	3:  {ThirdDefensive, LaneCenter, 3},
	4:  {ThirdDefensive, LaneHalfSpaceRight, 4},
	5:  {ThirdDefensive, LaneRight, 5},
	6:  {ThirdDefensive, LaneCenter, 6},
	7:  {ThirdMiddle, LaneLeft, 7},
	8:  {ThirdMiddle, LaneHalfSpaceLeft, 8},
	9:  {ThirdMiddle, LaneCenter, 9},
	10: {ThirdMiddle, LaneHalfSpaceRight, 10},
	11: {ThirdMiddle, LaneRight, 11},
	12: {ThirdMiddle, LaneCenter, 12},
	13: {ThirdFinal, LaneLeft, 13},
	14: {ThirdFinal, LaneHalfSpaceLeft, 14},
	15: {ThirdFinal, LaneCenter, 15},
	16: {ThirdFinal, LaneHalfSpaceRight, 16},
	17: {ThirdFinal, LaneRight, 17},
	18: {ThirdFinal, LaneCenter, 18},
}

// FromNumber resolves a zone number to its grid cell. Zero and out-of-range
// numbers resolve to the default central middle zone.
func FromNumber(n int) Zone {
	if n < 1 || n > MaxZoneNumber {
		return zones[DefaultZoneNumber]
	}
	return zones[n]
}

// Default returns the cell a fresh match state starts in.
func Default() Zone {
	return zones[DefaultZoneNumber]
}

// Mirrored returns the cell reached by switching play to the opposite
// flank: same third, mirrored lane. Central cells are unchanged.
func (z Zone) Mirrored() Zone {
	m := z.Lane.Mirror()
	if m == z.Lane {
		return z
	}
	for _, cand := range zones[1:] {
		if cand.Third == z.Third && cand.Lane == m {
			return cand
		}
	}
	return z
}

// InThird returns the cell in the given third keeping this zone's lane.
// Used for events that force a third (final-third entries) without the
// operator re-tagging the lane.
func (z Zone) InThird(t Third) Zone {
	if z.Third == t {
		return z
	}
	for _, cand := range zones[1:] {
		if cand.Third == t && cand.Lane == z.Lane {
			return cand
		}
	}
	return z
}

// String renders "THIRD/LANE (n)" for logs and state labels.
func (z Zone) String() string {
	return fmt.Sprintf("%s/%s (%d)", z.Third, z.Lane, z.Number)
}
