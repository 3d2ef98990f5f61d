// Package xg estimates chance quality for possession chains.
package xg

import (
	"math"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/pitch"
	"github.com/tactabot/regista/internal/domain/possession"
)

// Default model coefficients.
const (
	defaultBoxRate        = 0.12
	defaultFinalThirdRate = 0.06
	defaultMiddleRate     = 0.02
	defaultDefensiveRate  = 0.005
	defaultShotBonus      = 0.05
	defaultCap            = 0.95
	defaultMediumBand     = 0.10
	defaultHighBand       = 0.25
)

// Band buckets an estimate for alerting and display.
type Band string

// Chance quality bands.
const (
	BandLow    Band = "LOW"
	BandMedium Band = "MEDIUM"
	BandHigh   Band = "HIGH"
)

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithBaseRates overrides the per-zone base conversion rates. Non-positive
// values keep the defaults.
func WithBaseRates(box, finalThird, middle, defensive float64) Option {
	return func(m *Model) {
		if box > 0 {
			m.boxRate = box
		}
		if finalThird > 0 {
			m.finalThirdRate = finalThird
		}
		if middle > 0 {
			m.middleRate = middle
		}
		if defensive > 0 {
			m.defensiveRate = defensive
		}
	}
}

// WithShotBonus sets the flat bonus applied when the chain produced a shot.
func WithShotBonus(bonus float64) Option {
	return func(m *Model) {
		if bonus >= 0 {
			m.shotBonus = bonus
		}
	}
}

// WithCap sets the ceiling an estimate is clamped to.
func WithCap(cap float64) Option {
	return func(m *Model) {
		if cap > 0 && cap <= 1 {
			m.cap = cap
		}
	}
}

// WithBands sets the thresholds separating LOW from MEDIUM and MEDIUM
// from HIGH.
func WithBands(medium, high float64) Option {
	return func(m *Model) {
		if medium > 0 && high > medium {
			m.mediumBand = medium
			m.highBand = high
		}
	}
}

// Input abstracts the chain fields the model reads.
type Input struct {
	Team      event.Team
	Zone      pitch.Zone
	ShotTaken bool
	// Multiplier scales the base rate by how the chain developed.
	// Zero and below mean unscaled.
	Multiplier float64
}

// Result is a banded chance-quality estimate.
type Result struct {
	Team  event.Team `json:"team,omitempty"`
	Value float64    `json:"value"`
	Band  Band       `json:"band"`
}

// Estimator scores how likely a possession chain was to produce a goal.
type Estimator interface {
	Estimate(in Input) Result
}

// Model implements Estimator with zone base rates scaled by chain context.
type Model struct {
	boxRate        float64
	finalThirdRate float64
	middleRate     float64
	defensiveRate  float64
	shotBonus      float64
	cap            float64
	mediumBand     float64
	highBand       float64
}

// NewModel creates a model with configuration options applied over the
// default coefficients.
func NewModel(opts ...Option) *Model {
	m := &Model{
		boxRate:        defaultBoxRate,
		finalThirdRate: defaultFinalThirdRate,
		middleRate:     defaultMiddleRate,
		defensiveRate:  defaultDefensiveRate,
		shotBonus:      defaultShotBonus,
		cap:            defaultCap,
		mediumBand:     defaultMediumBand,
		highBand:       defaultHighBand,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// FromChain derives the model input from a possession chain. Chains that
// never advanced past their opening zone are read at the start zone.
func FromChain(ch possession.Chain) Input {
	zone := ch.StartZone
	if ch.EndZone != nil {
		zone = *ch.EndZone
	}
	return Input{
		Team:       ch.Team,
		Zone:       zone,
		ShotTaken:  ch.ShotTaken,
		Multiplier: ch.XGContext,
	}
}

// Estimate computes the banded chance quality for the given input.
func (m *Model) Estimate(in Input) Result {
	rate := m.rateFor(in.Zone)
	if in.ShotTaken {
		rate += m.shotBonus
	}

	mult := in.Multiplier
	if mult <= 0 || math.IsNaN(mult) {
		mult = 1
	}

	value := rate * mult
	value = math.Max(0, math.Min(m.cap, value))

	return Result{
		Team:  in.Team,
		Value: value,
		Band:  m.band(value),
	}
}

func (m *Model) rateFor(z pitch.Zone) float64 {
	if z.Number == pitch.BoxZoneNumber {
		return m.boxRate
	}
	switch z.Third {
	case pitch.ThirdFinal:
		return m.finalThirdRate
	case pitch.ThirdMiddle:
		return m.middleRate
	default:
		return m.defensiveRate
	}
}

func (m *Model) band(v float64) Band {
	switch {
	case v >= m.highBand:
		return BandHigh
	case v >= m.mediumBand:
		return BandMedium
	default:
		return BandLow
	}
}
