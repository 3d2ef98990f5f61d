package worker

import (
	"time"

	"github.com/tactabot/regista/pkg/logger"
)

// Option applies a configuration option to a Saver.
type Option func(*Saver)

// WithName sets the saver name for identification and logging.
func WithName(name string) Option {
	return func(s *Saver) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger for the saver.
func WithLogger(log logger.Logger) Option {
	return func(s *Saver) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSaveTimeout bounds each store write.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Saver) {
		if d > 0 {
			s.saveTimeout = d
		}
	}
}
