package predictor

import "github.com/tactabot/regista/pkg/logger"

// Option configures a Predictor.
type Option func(*Predictor)

// WithWindowSize sets how many recent events form the learning context.
func WithWindowSize(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.window = n
		}
	}
}

// WithMinOccurrences sets how often a pattern must have been seen before
// it contributes predictions.
func WithMinOccurrences(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.minOcc = n
		}
	}
}

// WithMaxPatterns caps the pattern table; the stalest pattern is evicted
// when a new one would exceed the cap.
func WithMaxPatterns(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.maxPatterns = n
		}
	}
}

// WithPersistEvery sets the snapshot cadence in processed events. Zero
// disables periodic persistence.
func WithPersistEvery(n int64) Option {
	return func(p *Predictor) {
		if n >= 0 {
			p.persistEvery = n
		}
	}
}

// WithStore sets the key-value port snapshots persist through.
func WithStore(s Store) Option {
	return func(p *Predictor) {
		if s != nil {
			p.store = s
		}
	}
}

// WithStorageKey overrides the snapshot key, letting sessions keep
// separate learned tables.
func WithStorageKey(key string) Option {
	return func(p *Predictor) {
		if key != "" {
			p.key = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Predictor) {
		if l != nil {
			p.log = l
		}
	}
}
