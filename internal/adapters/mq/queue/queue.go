// Package queue provides the bounded in-memory job queue feeding the
// snapshot savers.
package queue

import (
	"context"
	"sync"

	"github.com/tactabot/regista/pkg/metrics"
)

// defaultCapacity bounds the snapshot backlog. A dropped job costs nothing
// durable: the next snapshot for the same key carries the whole state.
const defaultCapacity = 1024

// Job is one snapshot write bound for the store.
type Job struct {
	Key   string
	Value []byte
}

// Queue provides non-blocking enqueue and channel-based consumption.
type Queue interface {
	// Enqueue adds a job. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Jobs returns the consumption channel shared by all savers. After
	// Close it still delivers the buffered backlog, then closes.
	Jobs() <-chan Job

	// Len returns the current backlog.
	Len() int

	// Close stops new enqueues. Buffered jobs still drain.
	Close() error

	// IsClosed reports whether the queue was closed.
	IsClosed() bool
}

// InMemory implements Queue with a buffered channel.
type InMemory struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

var _ Queue = (*InMemory)(nil)

// NewInMemory creates a queue with configuration options.
func NewInMemory(opts ...Option) *InMemory {
	q := &InMemory{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a job without blocking.
func (q *InMemory) Enqueue(ctx context.Context, j Job) bool {
	// The read lock excludes Close, so the send below cannot race the
	// channel close.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || ctx.Err() != nil {
		metrics.RecordQueueDrop()
		return false
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return true
	default:
		metrics.RecordQueueDrop()
		return false
	}
}

// Jobs returns the consumption channel.
func (q *InMemory) Jobs() <-chan Job {
	return q.jobs
}

// Len returns the current backlog.
func (q *InMemory) Len() int {
	return len(q.jobs)
}

// Close stops new enqueues. Buffered jobs still drain.
func (q *InMemory) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.jobs)
	q.closed = true

	return nil
}

// IsClosed reports whether the queue was closed.
func (q *InMemory) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return q.closed
}
