// Package service provides the core business service that implements
// the dependencies required by the HTTP API. It owns the session
// registry plus the shared adapters: key-value store, snapshot queue,
// saver pool and broadcast hub.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tactabot/regista/internal/adapters/broadcast"
	"github.com/tactabot/regista/internal/adapters/kvstore"
	"github.com/tactabot/regista/internal/adapters/mq/queue"
	"github.com/tactabot/regista/internal/adapters/mq/worker"
	"github.com/tactabot/regista/internal/domain/dedupe"
	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/internal/domain/possession"
	"github.com/tactabot/regista/internal/domain/predictor"
	"github.com/tactabot/regista/internal/domain/state"
	"github.com/tactabot/regista/internal/domain/xg"
	"github.com/tactabot/regista/pkg/logger"
	"github.com/tactabot/regista/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultDedupeSize     = 16384
	defaultQueueCapacity  = 1024
	defaultSaverCount     = 4
	defaultKeyPrefix      = "regista:predictor"
	defaultChanceAlertMin = 0.25
)

// Service implements the API dependencies for the match-state engine.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	// Shared adapters
	store kvstore.Store
	async *asyncStore
	queue queue.Queue
	pool  *worker.Pool
	hub   *broadcast.Hub
	model *xg.Model

	// Configuration
	clock           Clock
	windowMs        int64
	dedupeSize      int
	queueCapacity   int
	saverCount      int
	broadcastBuffer int
	keyPrefix       string
	chanceAlertMin  float64
	learnerOpts     []predictor.Option

	// State
	started bool

	// Logging
	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the key-value store backing predictor snapshots.
func WithStore(store kvstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithClock sets the time source sessions process events against.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithWindowDuration overrides the transition-window length in
// milliseconds for new sessions.
func WithWindowDuration(ms int64) Option {
	return func(s *Service) {
		if ms > 0 {
			s.windowMs = ms
		}
	}
}

// WithDedupeSize sets the per-session duplicate-id cache size.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithQueueCapacity sets the snapshot queue capacity.
func WithQueueCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.queueCapacity = capacity
		}
	}
}

// WithSaverCount sets the number of snapshot savers.
func WithSaverCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.saverCount = count
		}
	}
}

// WithBroadcastBuffer sets how many frames a stream subscriber may lag.
func WithBroadcastBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.broadcastBuffer = n
		}
	}
}

// WithKeyPrefix sets the store key prefix for per-session snapshots.
func WithKeyPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// WithChanceAlertThreshold sets the minimum chance quality that raises a
// big-chance alert.
func WithChanceAlertThreshold(min float64) Option {
	return func(s *Service) {
		if min > 0 {
			s.chanceAlertMin = min
		}
	}
}

// WithChanceModel replaces the default chance-quality model.
func WithChanceModel(m *xg.Model) Option {
	return func(s *Service) {
		if m != nil {
			s.model = m
		}
	}
}

// WithPredictorOptions forwards tuning options to each session's
// predictor. Store and key options are owned by the service and applied
// after these.
func WithPredictorOptions(opts ...predictor.Option) Option {
	return func(s *Service) {
		s.learnerOpts = append(s.learnerOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:       make(map[string]*Session),
		clock:          time.Now,
		windowMs:       state.DefaultWindowMs,
		dedupeSize:     defaultDedupeSize,
		queueCapacity:  defaultQueueCapacity,
		saverCount:     defaultSaverCount,
		keyPrefix:      defaultKeyPrefix,
		chanceAlertMin: defaultChanceAlertMin,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.log == nil {
		s.log = logger.Get().Named("service")
	}

	s.log.Info(ctx, "starting match-state service...")

	if s.store == nil {
		s.store = kvstore.NewMemory()
		s.log.Info(ctx, "using in-memory store")
	}
	if s.model == nil {
		s.model = xg.NewModel()
	}

	s.queue = queue.NewInMemory(queue.WithCapacity(s.queueCapacity))
	s.async = newAsyncStore(s.queue, s.store)

	s.pool = worker.NewPool(s.saverCount, s.queue, s.store)
	s.pool.Start(ctx)

	hubOpts := []broadcast.Option{}
	if s.broadcastBuffer > 0 {
		hubOpts = append(hubOpts, broadcast.WithClientBuffer(s.broadcastBuffer))
	}
	s.hub = broadcast.NewHub(hubOpts...)

	s.started = true
	s.log.Info(ctx, "match-state service started",
		logger.Int("savers", s.saverCount),
		logger.Int("queueCapacity", s.queueCapacity),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts the service down: session snapshots flush onto
// the queue, the saver pool drains it, then the hub closes.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.log.Info(ctx, "stopping match-state service...")

	for _, sess := range s.sessions {
		sess.persist(ctx)
	}

	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	}
	if s.hub != nil {
		s.hub.Close()
	}

	s.started = false
	s.log.Info(ctx, "match-state service stopped")
	return err
}

// CreateSession registers a session. A blank id gets a generated UUID.
// The predictor restores its persisted snapshot, if one exists.
func (s *Service) CreateSession(ctx context.Context, id string) (SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return SessionInfo{}, ErrNotStarted
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.sessions[id]; exists {
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}

	learnerOpts := append([]predictor.Option{}, s.learnerOpts...)
	learnerOpts = append(learnerOpts,
		predictor.WithStore(s.async),
		predictor.WithStorageKey(s.keyPrefix+":"+id),
		predictor.WithLogger(s.log.Named("predictor").With(logger.String("session", id))),
	)

	sess := &Session{
		id:        id,
		createdAt: s.clock().UnixMilli(),
		match:     state.New(state.WithWindowDuration(s.windowMs)),
		chains:    possession.NewManager(),
		learner:   predictor.New(learnerOpts...),
		deduper:   dedupe.NewInMemory(dedupe.WithMaxSize(s.dedupeSize)),
		clock:     s.clock,
		hub:       s.hub,
		model:     s.model,
		alertMin:  s.chanceAlertMin,
		log:       s.log.Named("session").With(logger.String("session", id)),
	}
	sess.learner.Load(ctx)

	s.sessions[id] = sess
	metrics.UpdateSessionsActive(len(s.sessions))
	s.log.Info(ctx, "session created", logger.String("session", id))

	return sess.info(), nil
}

// ListSessions returns session summaries ordered by creation time.
func (s *Service) ListSessions(_ context.Context) []SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		infos = append(infos, sess.info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt != infos[j].CreatedAt {
			return infos[i].CreatedAt < infos[j].CreatedAt
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// DeleteSession drops a session and closes its stream subscribers. The
// predictor snapshot flushes first so learning survives for a later
// session under the same id.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.persist(ctx)
	delete(s.sessions, id)
	if s.hub != nil {
		s.hub.DropSession(id)
	}
	metrics.UpdateSessionsActive(len(s.sessions))
	s.log.Info(ctx, "session deleted", logger.String("session", id))
	return nil
}

// session looks a session up by id.
func (s *Service) session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// ProcessEvent routes one tagged event to its session.
func (s *Service) ProcessEvent(ctx context.Context, sessionID string, ev event.TaggedEvent) (Result, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return Result{}, err
	}
	return sess.Process(ctx, ev), nil
}

// SessionState returns the live state read model.
func (s *Service) SessionState(_ context.Context, sessionID string) (StateView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return StateView{}, err
	}
	return sess.stateView(), nil
}

// Chains returns the possession read model, optionally filtered by team.
func (s *Service) Chains(_ context.Context, sessionID string, team event.Team) (ChainsView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return ChainsView{}, err
	}
	return sess.chainsView(team), nil
}

// Predictions returns the ranked next-event candidates.
func (s *Service) Predictions(_ context.Context, sessionID string) ([]predictor.Prediction, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.predictions(), nil
}

// Patterns returns the predictor's learning statistics.
func (s *Service) Patterns(_ context.Context, sessionID string) (predictor.LearningStats, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return predictor.LearningStats{}, err
	}
	return sess.patterns(), nil
}

// ResetPredictor clears a session's learned patterns, in memory and in
// the store.
func (s *Service) ResetPredictor(ctx context.Context, sessionID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.resetPredictor(ctx)
	return nil
}

// Subscribe attaches a stream subscriber to a session.
func (s *Service) Subscribe(sessionID string) (chan broadcast.Message, error) {
	if _, err := s.session(sessionID); err != nil {
		return nil, err
	}
	return s.hub.Subscribe(sessionID), nil
}

// Unsubscribe detaches a stream subscriber.
func (s *Service) Unsubscribe(sessionID string, ch chan broadcast.Message) {
	if s.hub != nil {
		s.hub.Unsubscribe(sessionID, ch)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":  s.started,
		"sessions": len(s.sessions),
	}

	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		stats["broadcastClients"] = s.hub.Clients()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateSessionsActive(len(s.sessions))
	}

	return stats
}
