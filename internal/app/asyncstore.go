package service

import (
	"context"
	"errors"

	"github.com/tactabot/regista/internal/adapters/kvstore"
	"github.com/tactabot/regista/internal/adapters/mq/queue"
	"github.com/tactabot/regista/internal/domain/predictor"
)

var errQueueFull = errors.New("snapshot queue full")

// asyncStore satisfies the predictor's store port. Reads and deletes hit
// the key-value store directly; writes ride the snapshot queue so event
// processing never waits on the store backend.
type asyncStore struct {
	queue queue.Queue
	store kvstore.Store
}

var _ predictor.Store = (*asyncStore)(nil)

func newAsyncStore(q queue.Queue, store kvstore.Store) *asyncStore {
	return &asyncStore{queue: q, store: store}
}

func (a *asyncStore) Get(ctx context.Context, key string) ([]byte, error) {
	return a.store.Get(ctx, key)
}

func (a *asyncStore) Set(ctx context.Context, key string, value []byte) error {
	if !a.queue.Enqueue(ctx, queue.Job{Key: key, Value: value}) {
		return errQueueFull
	}
	return nil
}

func (a *asyncStore) Delete(ctx context.Context, key string) error {
	return a.store.Delete(ctx, key)
}
