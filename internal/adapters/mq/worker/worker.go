// Package worker drains snapshot jobs from the queue into the key-value
// store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tactabot/regista/internal/adapters/mq/queue"
	"github.com/tactabot/regista/pkg/logger"
	"github.com/tactabot/regista/pkg/metrics"
)

// Default saver configuration constants.
const (
	defaultSaverCount     = 4
	defaultSaveTimeout    = 2 * time.Second
	poolShutdownTimeout   = 30 * time.Second
	metricsUpdateInterval = 5 * time.Second
)

// Store abstracts the write half of the key-value store.
type Store interface {
	Set(ctx context.Context, key string, value []byte) error
}

// Queue defines how savers receive jobs.
type Queue interface {
	Jobs() <-chan queue.Job
	Len() int
}

// Saver persists snapshot jobs one at a time.
type Saver struct {
	queue       Queue
	store       Store
	name        string
	saveTimeout time.Duration

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	log logger.Logger
}

// NewSaver creates a saver with configuration options.
func NewSaver(q Queue, store Store, opts ...Option) *Saver {
	s := &Saver{
		queue:       q,
		store:       store,
		name:        "saver",
		saveTimeout: defaultSaveTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.Get().Named(s.name)
	}

	return s
}

// Run drains jobs until the queue closes, ctx is canceled or Shutdown is
// called.
func (s *Saver) Run(ctx context.Context) {
	defer close(s.done)

	jobs := s.queue.Jobs()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			s.save(ctx, job)
		}
	}
}

// Shutdown stops the saver after any in-flight job. Close the queue first
// when the backlog should drain.
func (s *Saver) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.shutdown) })

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.log.Warn(ctx, "saver shutdown timed out")
		return fmt.Errorf("saver shutdown: %w", ctx.Err())
	}
}

// save writes one job with a per-operation deadline.
func (s *Saver) save(ctx context.Context, job queue.Job) {
	metrics.RecordQueueDequeue()

	opCtx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()

	start := time.Now()
	err := s.store.Set(opCtx, job.Key, job.Value)
	metrics.RecordSnapshotSaveDuration(time.Since(start).Seconds() * 1000)

	if err != nil {
		metrics.RecordSnapshotSaveError()
		s.log.Error(ctx, "snapshot save failed",
			logger.String("key", job.Key),
			logger.Error(err),
		)
	}
}

// Pool manages a fixed set of savers on one queue.
type Pool struct {
	savers []*Saver
	queue  Queue

	stop     chan struct{}
	stopOnce sync.Once

	log logger.Logger
}

// NewPool creates saverCount savers over the queue and store. A count
// below one falls back to the default.
func NewPool(saverCount int, q Queue, store Store, opts ...Option) *Pool {
	if saverCount < 1 {
		saverCount = defaultSaverCount
	}

	p := &Pool{
		savers: make([]*Saver, saverCount),
		queue:  q,
		stop:   make(chan struct{}),
		log:    logger.Get().Named("saver-pool"),
	}

	for i := range p.savers {
		named := append([]Option{WithName("saver-" + strconv.Itoa(i))}, opts...)
		p.savers[i] = NewSaver(q, store, named...)
	}

	return p
}

// Start launches all savers and the queue gauge watcher.
func (p *Pool) Start(ctx context.Context) {
	for _, s := range p.savers {
		go s.Run(ctx)
	}
	metrics.UpdateSaversActive(len(p.savers))

	go p.watchQueue(ctx)
}

// watchQueue keeps the backlog gauge honest between enqueues.
func (p *Pool) watchQueue(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			metrics.UpdateQueueSize(p.queue.Len())
		}
	}
}

// Shutdown closes the queue, lets the savers drain the backlog and waits
// for them to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.log.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	p.stopOnce.Do(func() { close(p.stop) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, s := range p.savers {
		select {
		case <-s.done:
		case <-shutdownCtx.Done():
			p.log.Warn(ctx, "saver shutdown timed out", logger.Int("saver", i))
		}
	}

	metrics.UpdateSaversActive(0)
	return nil
}
