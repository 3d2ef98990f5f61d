// Package predictor learns n-gram event sequences online and predicts the
// next likely events with confidence tiers.
//
// A Predictor is owned by exactly one session and is not safe for
// concurrent use; the session serializes calls. Snapshots persist through
// an injected Store so the learned table survives restarts.
package predictor

import (
	"context"
	"sort"
	"strings"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/pkg/logger"
)

// Defaults.
const (
	DefaultWindowSize     = 3
	DefaultMinOccurrences = 2
	DefaultMaxPatterns    = 4096
	DefaultPersistEvery   = 10
	DefaultStorageKey     = "regista:predictor"

	maxPredictions = 5
	keySeparator   = "→"
)

// Confidence tiers a prediction by how much evidence backs it.
type Confidence string

// Confidence tiers.
const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// EventPattern is one learned context: the sequence that preceded, and
// what followed how often. TotalOccurrences always equals the sum of the
// follower counts.
type EventPattern struct {
	Sequence         []string       `json:"sequence"`
	SequenceKey      string         `json:"sequenceKey"`
	Followers        map[string]int `json:"followers"`
	TotalOccurrences int            `json:"totalOccurrences"`
	LastSeen         int64          `json:"lastSeen"`
}

// Prediction is one ranked next-event candidate, ready for the tagging UI.
type Prediction struct {
	EventName   string     `json:"eventName"`
	Probability float64    `json:"probability"`
	Confidence  Confidence `json:"confidence"`
	ButtonLabel string     `json:"buttonLabel"`
	Description string     `json:"description"`
}

// PatternSummary annotates a frequent pattern for the learning dashboard.
type PatternSummary struct {
	SequenceKey    string  `json:"sequenceKey"`
	Occurrences    int     `json:"occurrences"`
	TopFollower    string  `json:"topFollower"`
	TopProbability float64 `json:"topProbability"`
}

// LearningStats describes how much the predictor has learned so far.
type LearningStats struct {
	TotalPatterns int              `json:"totalPatterns"`
	AvgFollowers  float64          `json:"avgFollowers"`
	TotalEvents   int64            `json:"totalEventsProcessed"`
	TopPatterns   []PatternSummary `json:"topPatterns"`
}

// Predictor is the online sequence learner.
type Predictor struct {
	patterns map[string]*EventPattern
	recent   []string
	total    int64

	window       int
	minOcc       int
	maxPatterns  int
	persistEvery int64
	key          string
	store        Store
	log          logger.Logger
}

// New builds a predictor with the defaults, adjusted by options. Without
// a store it learns in memory only.
func New(opts ...Option) *Predictor {
	p := &Predictor{
		patterns:     make(map[string]*EventPattern),
		window:       DefaultWindowSize,
		minOcc:       DefaultMinOccurrences,
		maxPatterns:  DefaultMaxPatterns,
		persistEvery: DefaultPersistEvery,
		key:          DefaultStorageKey,
		log:          logger.Get().Named("predictor"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Record feeds one event name into the learner. UI control signals are
// ignored. Every persistEvery-th event the state is snapshotted to the
// store, best-effort.
func (p *Predictor) Record(ctx context.Context, eventName string) {
	if eventName == "" || event.IsUIControl(eventName) {
		return
	}

	if len(p.recent) > 0 {
		for l := 1; l <= len(p.recent); l++ {
			p.learn(p.recent[len(p.recent)-l:], eventName)
		}
	}

	p.recent = append(p.recent, eventName)
	if len(p.recent) > p.window {
		p.recent = p.recent[len(p.recent)-p.window:]
	}
	p.total++

	if p.store != nil && p.persistEvery > 0 && p.total%p.persistEvery == 0 {
		p.Persist(ctx)
	}
}

// learn counts follower after the context sequence, creating the pattern
// on first sight and evicting the stalest one at the cap.
func (p *Predictor) learn(seq []string, follower string) {
	key := strings.Join(seq, keySeparator)
	pat, ok := p.patterns[key]
	if !ok {
		if len(p.patterns) >= p.maxPatterns {
			p.evict()
		}
		pat = &EventPattern{
			Sequence:    append([]string(nil), seq...),
			SequenceKey: key,
			Followers:   make(map[string]int),
		}
		p.patterns[key] = pat
	}
	pat.Followers[follower]++
	pat.TotalOccurrences++
	pat.LastSeen = p.total
}

// evict removes the least-recently-seen pattern. Ties break on lowest
// occurrence count, then lexicographic key, so eviction is deterministic.
func (p *Predictor) evict() {
	var (
		victimKey string
		victim    *EventPattern
	)
	for key, pat := range p.patterns {
		if victim == nil || stalerThan(pat, key, victim, victimKey) {
			victim, victimKey = pat, key
		}
	}
	if victim != nil {
		delete(p.patterns, victimKey)
	}
}

func stalerThan(a *EventPattern, aKey string, b *EventPattern, bKey string) bool {
	if a.LastSeen != b.LastSeen {
		return a.LastSeen < b.LastSeen
	}
	if a.TotalOccurrences != b.TotalOccurrences {
		return a.TotalOccurrences < b.TotalOccurrences
	}
	return aKey < bKey
}

// Predictions ranks next-event candidates from the current recent
// sequence: longer matching contexts weigh more, and per candidate the
// best weighted probability wins. At most five come back, best first.
func (p *Predictor) Predictions() []Prediction {
	if len(p.recent) == 0 {
		return []Prediction{}
	}

	type candidate struct {
		prob float64
		occ  int
	}
	best := make(map[string]candidate)

	maxLen := len(p.recent)
	if maxLen > p.window {
		maxLen = p.window
	}
	for l := maxLen; l >= 1; l-- {
		key := strings.Join(p.recent[len(p.recent)-l:], keySeparator)
		pat, ok := p.patterns[key]
		if !ok || pat.TotalOccurrences < p.minOcc {
			continue
		}
		weight := 0.5 + 0.5*float64(l)/float64(p.window)
		for name, count := range pat.Followers {
			prob := weight * float64(count) / float64(pat.TotalOccurrences)
			if cur, seen := best[name]; !seen || prob > cur.prob {
				best[name] = candidate{prob: prob, occ: count}
			}
		}
	}

	preds := make([]Prediction, 0, len(best))
	for name, c := range best {
		preds = append(preds, Prediction{
			EventName:   name,
			Probability: c.prob,
			Confidence:  confidence(c.prob, c.occ),
			ButtonLabel: labelFor(name),
			Description: describe(name),
		})
	}
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Probability != preds[j].Probability {
			return preds[i].Probability > preds[j].Probability
		}
		return preds[i].EventName < preds[j].EventName
	})
	if len(preds) > maxPredictions {
		preds = preds[:maxPredictions]
	}
	return preds
}

func confidence(prob float64, occurrences int) Confidence {
	switch {
	case prob > 0.5 && occurrences >= 10:
		return ConfidenceHigh
	case prob > 0.3 && occurrences >= 5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Stats summarizes the learned table: distinct patterns, average
// follower-set size, and the five most frequent patterns with at least
// three occurrences.
func (p *Predictor) Stats() LearningStats {
	st := LearningStats{
		TotalPatterns: len(p.patterns),
		TotalEvents:   p.total,
		TopPatterns:   []PatternSummary{},
	}
	if len(p.patterns) == 0 {
		return st
	}

	followers := 0
	for key, pat := range p.patterns {
		followers += len(pat.Followers)
		if pat.TotalOccurrences < 3 {
			continue
		}
		name, count := topFollower(pat)
		st.TopPatterns = append(st.TopPatterns, PatternSummary{
			SequenceKey:    key,
			Occurrences:    pat.TotalOccurrences,
			TopFollower:    name,
			TopProbability: float64(count) / float64(pat.TotalOccurrences),
		})
	}
	st.AvgFollowers = float64(followers) / float64(len(p.patterns))

	sort.Slice(st.TopPatterns, func(i, j int) bool {
		if st.TopPatterns[i].Occurrences != st.TopPatterns[j].Occurrences {
			return st.TopPatterns[i].Occurrences > st.TopPatterns[j].Occurrences
		}
		return st.TopPatterns[i].SequenceKey < st.TopPatterns[j].SequenceKey
	})
	if len(st.TopPatterns) > maxPredictions {
		st.TopPatterns = st.TopPatterns[:maxPredictions]
	}
	return st
}

func topFollower(pat *EventPattern) (string, int) {
	var (
		name  string
		count int
	)
	for n, c := range pat.Followers {
		if c > count || (c == count && (name == "" || n < name)) {
			name, count = n, c
		}
	}
	return name, count
}

// TotalEvents returns how many events the predictor has processed.
func (p *Predictor) TotalEvents() int64 {
	return p.total
}

// PatternCount returns how many distinct contexts are currently learned.
func (p *Predictor) PatternCount() int {
	return len(p.patterns)
}
