// Package dedupe tracks seen event IDs so replayed tags are flagged
// instead of reprocessed.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen event IDs to keep processing at-most-once.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id int64) bool

	// Unrecord forgets an ID so it can be retried. Only for events that
	// were recorded but whose downstream handling failed.
	Unrecord(ctx context.Context, id int64)

	Size() int64
}

// slot is one occupied position in the eviction ring.
type slot struct {
	id  int64
	seq uint64
}

// memoryTracker implements Deduper in memory.
// Bounded mode (maxSize > 0) keeps a FIFO ring of recorded IDs and
// overwrites the oldest slot when full. Slots carry a sequence number so
// an ID that was unrecorded and recorded again is not evicted through its
// stale slot. Unbounded mode (maxSize <= 0) is a plain map.
type memoryTracker struct {
	mu      sync.Mutex
	seen    map[int64]uint64 // id -> seq of its current slot
	ring    []slot
	head    int // next slot to write
	tail    int // oldest occupied slot
	used    int // occupied slots, live or stale
	nextSeq uint64
	maxSize int
	size    atomic.Int64
}

// NewInMemory creates an in-memory deduper with configuration options.
func NewInMemory(opts ...Option) Deduper {
	d := &memoryTracker{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[int64]uint64)
	if d.maxSize > 0 {
		d.ring = make([]slot, d.maxSize)
	}

	return d
}

func (d *memoryTracker) SeenAndRecord(_ context.Context, id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		if d.used == d.maxSize {
			d.evictOldest()
		}
		d.nextSeq++
		d.ring[d.head] = slot{id: id, seq: d.nextSeq}
		d.head = (d.head + 1) % d.maxSize
		d.used++
		d.seen[id] = d.nextSeq
	} else {
		d.seen[id] = 0
	}
	d.size.Add(1)
	return false
}

func (d *memoryTracker) Unrecord(_ context.Context, id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; !exists {
		return
	}
	// In bounded mode the ring slot stays behind; its stale sequence
	// number keeps eviction from touching a later re-record of the ID.
	delete(d.seen, id)
	d.size.Add(-1)
}

// evictOldest frees the tail slot. Must be called with d.mu held.
func (d *memoryTracker) evictOldest() {
	old := d.ring[d.tail]
	d.ring[d.tail] = slot{}
	d.tail = (d.tail + 1) % d.maxSize
	d.used--

	if seq, ok := d.seen[old.id]; ok && seq == old.seq {
		delete(d.seen, old.id)
		d.size.Add(-1)
	}
}

// Size returns the current number of tracked IDs.
func (d *memoryTracker) Size() int64 {
	return d.size.Load()
}
