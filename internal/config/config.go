// Package config defines process configuration and its loading order.
//
// Conventions:
// - Defaults live in New; Load layers an optional YAML file and env vars on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ShutdownTimeoutMS bounds graceful shutdown of the HTTP server and workers.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// WindowMS sets the transition-window duration applied after possession flips.
	WindowMS int64 `koanf:"window_ms"`

	// DedupeSize sets the per-session size of the event deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// PredictorWindow is the maximum context length used for pattern learning.
	PredictorWindow int `koanf:"predictor_window"`

	// PredictorMinOccurrences gates suggestions on how often a pattern was seen.
	PredictorMinOccurrences int `koanf:"predictor_min_occurrences"`

	// PredictorMaxPatterns caps the learned pattern table per session.
	PredictorMaxPatterns int `koanf:"predictor_max_patterns"`

	// PredictorPersistEvery snapshots predictor state every N recorded events.
	// Zero disables periodic persistence; explicit saves still run.
	PredictorPersistEvery int64 `koanf:"predictor_persist_every"`

	// PredictorKeyPrefix namespaces predictor snapshots in the key-value store.
	PredictorKeyPrefix string `koanf:"predictor_key_prefix"`

	// StoreBackend selects the snapshot store: memory or redis.
	StoreBackend string `koanf:"store_backend"`

	// RedisURL is the redis connection URL used when store_backend is redis.
	RedisURL string `koanf:"redis_url"`

	// RedisTTLMS expires snapshot keys after this many milliseconds. Zero keeps them forever.
	RedisTTLMS int64 `koanf:"redis_ttl_ms"`

	// QueueCapacity bounds the in-memory snapshot queue.
	QueueCapacity int `koanf:"queue_capacity"`

	// SaverCount sets the number of snapshot saver workers.
	SaverCount int `koanf:"saver_count"`

	// BroadcastBuffer sets the per-subscriber stream buffer in messages.
	BroadcastBuffer int `koanf:"broadcast_buffer"`

	// ChanceAlertThreshold is the chance-quality value above which a
	// closed possession chain raises a big-chance alert.
	ChanceAlertThreshold float64 `koanf:"chance_alert_threshold"`
}

// New creates a Config populated with defaults. Load layers file and
// environment overrides on top of it.
func New() *Config {
	c := &Config{
		LogLevel:                "info",
		LogFormat:               "json",
		Addr:                    ":9080",
		ShutdownTimeoutMS:       10_000,
		WindowMS:                5_000,
		DedupeSize:              16_384,
		PredictorWindow:         3,
		PredictorMinOccurrences: 2,
		PredictorMaxPatterns:    4_096,
		PredictorPersistEvery:   10,
		PredictorKeyPrefix:      "regista:predictor",
		StoreBackend:            "memory",
		RedisURL:                "redis://localhost:6379/0",
		RedisTTLMS:              0,
		QueueCapacity:           1_024,
		SaverCount:              4,
		BroadcastBuffer:         16,
		ChanceAlertThreshold:    0.25,
	}
	return c
}

// Validate reports the first invalid field. All failures wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.StoreBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url must not be empty when store_backend is redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	if c.ShutdownTimeoutMS <= 0 {
		return fmt.Errorf("%w: shutdown_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.WindowMS <= 0 {
		return fmt.Errorf("%w: window_ms must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize <= 0 {
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	}
	if c.PredictorWindow <= 0 {
		return fmt.Errorf("%w: predictor_window must be positive", ErrInvalidConfig)
	}
	if c.PredictorMinOccurrences <= 0 {
		return fmt.Errorf("%w: predictor_min_occurrences must be positive", ErrInvalidConfig)
	}
	if c.PredictorMaxPatterns <= 0 {
		return fmt.Errorf("%w: predictor_max_patterns must be positive", ErrInvalidConfig)
	}
	if c.PredictorPersistEvery < 0 {
		return fmt.Errorf("%w: predictor_persist_every must not be negative", ErrInvalidConfig)
	}
	if c.RedisTTLMS < 0 {
		return fmt.Errorf("%w: redis_ttl_ms must not be negative", ErrInvalidConfig)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("%w: queue_capacity must be positive", ErrInvalidConfig)
	}
	if c.SaverCount <= 0 {
		return fmt.Errorf("%w: saver_count must be positive", ErrInvalidConfig)
	}
	if c.BroadcastBuffer <= 0 {
		return fmt.Errorf("%w: broadcast_buffer must be positive", ErrInvalidConfig)
	}
	if c.ChanceAlertThreshold <= 0 || c.ChanceAlertThreshold >= 1 {
		return fmt.Errorf("%w: chance_alert_threshold must be between 0 and 1", ErrInvalidConfig)
	}
	return nil
}
