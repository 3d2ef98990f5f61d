package dedupe

// defaultMaxSize comfortably covers every tag of a single match.
const defaultMaxSize = 16384

// Option applies a configuration option to the in-memory tracker.
type Option func(*memoryTracker)

// WithMaxSize sets how many IDs to keep in memory.
// maxSize > 0 bounds the tracker with oldest-first eviction; maxSize <= 0
// disables eviction entirely.
func WithMaxSize(maxSize int) Option {
	return func(d *memoryTracker) {
		d.maxSize = maxSize
	}
}
