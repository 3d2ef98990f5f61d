package worker_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/tactabot/regista/internal/adapters/mq/queue"
	"github.com/tactabot/regista/internal/adapters/mq/worker"
)

type fakeStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	attempts int
	fail     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts++
	if f.fail {
		return errors.New("store down")
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

func (f *fakeStore) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func TestSaverDrainsQueue(t *testing.T) {
	convey.Convey("Given a saver over a queue with a backlog", t, func() {
		ctx := context.Background()
		q := queue.NewInMemory(queue.WithCapacity(8))
		store := newFakeStore()

		for i := 0; i < 3; i++ {
			ok := q.Enqueue(ctx, queue.Job{
				Key:   "session:" + strconv.Itoa(i),
				Value: []byte(`{"stateVersion":` + strconv.Itoa(i) + `}`),
			})
			convey.So(ok, convey.ShouldBeTrue)
		}

		convey.Convey("When the queue closes and the saver runs", func() {
			convey.So(q.Close(), convey.ShouldBeNil)

			s := worker.NewSaver(q, store, worker.WithName("drain-test"))
			done := make(chan struct{})
			go func() {
				s.Run(ctx)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("saver did not stop after queue close")
			}

			convey.Convey("Then every buffered job is persisted", func() {
				convey.So(store.len(), convey.ShouldEqual, 3)
				convey.So(store.data["session:1"], convey.ShouldResemble, []byte(`{"stateVersion":1}`))
			})
		})
	})
}

func TestSaverKeepsDrainingOnStoreErrors(t *testing.T) {
	convey.Convey("Given a store that rejects every write", t, func() {
		ctx := context.Background()
		q := queue.NewInMemory(queue.WithCapacity(8))
		store := newFakeStore()
		store.fail = true

		for i := 0; i < 3; i++ {
			q.Enqueue(ctx, queue.Job{Key: "k" + strconv.Itoa(i), Value: []byte("v")})
		}
		convey.So(q.Close(), convey.ShouldBeNil)

		convey.Convey("When the saver runs", func() {
			s := worker.NewSaver(q, store)
			done := make(chan struct{})
			go func() {
				s.Run(ctx)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("saver did not stop after queue close")
			}

			convey.Convey("Then it attempts every job and keeps nothing", func() {
				convey.So(store.attemptCount(), convey.ShouldEqual, 3)
				convey.So(store.len(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestSaverShutdown(t *testing.T) {
	convey.Convey("Given a running saver on an open queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemory(queue.WithCapacity(8))
		s := worker.NewSaver(q, newFakeStore())

		go s.Run(ctx)

		convey.Convey("When Shutdown is called", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			convey.So(s.Shutdown(shutdownCtx), convey.ShouldBeNil)

			convey.Convey("Then a second Shutdown is a no-op", func() {
				convey.So(s.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPoolDrainsBacklogOnShutdown(t *testing.T) {
	convey.Convey("Given a started pool with queued snapshots", t, func() {
		ctx := context.Background()
		q := queue.NewInMemory(queue.WithCapacity(32))
		store := newFakeStore()

		p := worker.NewPool(3, q, store)
		p.Start(ctx)

		for i := 0; i < 10; i++ {
			ok := q.Enqueue(ctx, queue.Job{Key: "s" + strconv.Itoa(i), Value: []byte("snap")})
			convey.So(ok, convey.ShouldBeTrue)
		}

		convey.Convey("When the pool shuts down", func() {
			convey.So(p.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then the backlog is fully persisted", func() {
				convey.So(store.len(), convey.ShouldEqual, 10)
			})

			convey.Convey("And a second shutdown returns cleanly", func() {
				convey.So(p.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPoolDefaultSaverCount(t *testing.T) {
	convey.Convey("Given a pool built with a nonsensical saver count", t, func() {
		ctx := context.Background()
		q := queue.NewInMemory(queue.WithCapacity(8))
		store := newFakeStore()

		p := worker.NewPool(-1, q, store)
		p.Start(ctx)

		convey.Convey("When work arrives and the pool stops", func() {
			q.Enqueue(ctx, queue.Job{Key: "only", Value: []byte("snap")})
			convey.So(p.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then the job is still persisted", func() {
				convey.So(store.len(), convey.ShouldEqual, 1)
			})
		})
	})
}
