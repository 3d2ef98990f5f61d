package broadcast

import "github.com/tactabot/regista/pkg/logger"

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithClientBuffer sets how many frames a subscriber may lag before
// frames are dropped.
func WithClientBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets a custom logger for the hub.
func WithLogger(log logger.Logger) Option {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}
