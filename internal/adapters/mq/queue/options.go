package queue

// Option applies a configuration option to the InMemory queue.
type Option func(*InMemory)

// WithCapacity sets how many jobs the queue buffers before dropping.
func WithCapacity(capacity int) Option {
	return func(q *InMemory) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
