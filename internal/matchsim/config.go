// Package matchsim drives a running engine the way a tagging operator
// would: it generates a plausible seeded event stream, paces it with a
// rate limiter, feeds it over HTTP and verifies the resulting state.
package matchsim

import "time"

// Config holds one simulation run.
type Config struct {
	Addr    string        // base URL of the engine, e.g. http://localhost:9080
	Events  int           // number of events to generate and send
	Rate    float64       // events per second; zero or less sends unpaced
	Seed    int64         // scenario seed; the same seed replays the same tag sequence
	Session string        // session id; empty picks a generated sim-<id>
	TeamA   string        // display name for TEAM_A in the report
	TeamB   string        // display name for TEAM_B in the report
	Timeout time.Duration // per-request HTTP timeout
	Verbose bool          // log every event instead of a progress line
}

// Stats accumulates over one run.
type Stats struct {
	EventsGenerated int
	EventsSent      int
	Duplicates      int
	Failed          int
	SnapshotFrames  int
	AlertFrames     int
	FinalVersion    uint64
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// The simulator reads only a few fields of each response; these mirrors
// stay deliberately smaller than the server's view types.

type sessionInfo struct {
	ID string `json:"id"`
}

type snapshotState struct {
	Phase            string `json:"phase"`
	TeamInPossession string `json:"teamInPossession"`
	StateVersion     uint64 `json:"stateVersion"`
}

type eventAck struct {
	Duplicate bool          `json:"duplicate"`
	State     snapshotState `json:"state"`
}

type stateReport struct {
	State snapshotState `json:"state"`
	Label string        `json:"label"`
}

type chanceQuality struct {
	Value float64 `json:"value"`
	Band  string  `json:"band"`
}

type ratedChain struct {
	Team          string        `json:"team"`
	Outcome       string        `json:"outcome"`
	PassCount     int           `json:"passCount"`
	ChanceQuality chanceQuality `json:"chanceQuality"`
}

type chainStats struct {
	TotalChains         int     `json:"totalChains"`
	TransitionChains    int     `json:"transitionChains"`
	AvgPassesPerChain   float64 `json:"avgPassesPerChain"`
	ShotRate            float64 `json:"shotRate"`
	GoalRate            float64 `json:"goalRate"`
	FinalThirdEntryRate float64 `json:"finalThirdEntryRate"`
	BoxEntryRate        float64 `json:"boxEntryRate"`
}

type chainReport struct {
	Completed []ratedChain `json:"completedChains"`
	Stats     chainStats   `json:"stats"`
}

type prediction struct {
	EventName   string  `json:"eventName"`
	Probability float64 `json:"probability"`
	Confidence  string  `json:"confidence"`
}

type patternSummary struct {
	SequenceKey    string  `json:"sequenceKey"`
	Occurrences    int     `json:"occurrences"`
	TopFollower    string  `json:"topFollower"`
	TopProbability float64 `json:"topProbability"`
}

type learningReport struct {
	TotalPatterns        int              `json:"totalPatterns"`
	AvgFollowers         float64          `json:"avgFollowers"`
	TotalEventsProcessed int64            `json:"totalEventsProcessed"`
	TopPatterns          []patternSummary `json:"topPatterns"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
