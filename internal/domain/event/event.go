// Package event defines the tagged-event wire model shared by the ingest
// API, the state machine, the possession tracker and the pattern predictor.
package event

// Team identifies one side of the match.
type Team string

// The two sides. TeamNone marks fields where no side applies yet, such as
// possession before the first touch.
const (
	TeamA    Team = "TEAM_A"
	TeamB    Team = "TEAM_B"
	TeamNone Team = ""
)

// Valid reports whether t names a real side.
func (t Team) Valid() bool {
	return t == TeamA || t == TeamB
}

// Opponent returns the other side, or TeamNone when t is not a real side.
func (t Team) Opponent() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	default:
		return TeamNone
	}
}

// Player identifies the tagged player, when the client supplies one.
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TaggedEvent is a single operator tag as sent by the tagging clients.
type TaggedEvent struct {
	// ID is the client-assigned event identifier, unique within a session.
	ID int64 `json:"id"`
	// EventName is the raw tag name, for example "pass_start".
	EventName string `json:"eventName"`
	// Team is the side the tag applies to.
	Team Team `json:"team"`
	// Timestamp is the wall-clock tag time in RFC 3339.
	Timestamp string `json:"timestamp"`
	// MatchTime is the match clock as "MM:SS".
	MatchTime string `json:"matchTime"`
	// Zone is the grid cell 1..18. Zero means the operator tagged no zone.
	Zone int `json:"zone,omitempty"`
	// Player is the tagged player, if any.
	Player *Player `json:"player,omitempty"`
	// VideoTime is the capture offset in seconds, when a recording runs.
	VideoTime float64 `json:"videoTime,omitempty"`
}

// Kind classifies the event's raw tag name into the closed vocabulary the
// state machine dispatches on.
func (e TaggedEvent) Kind() Kind {
	return KindOf(e.EventName)
}
