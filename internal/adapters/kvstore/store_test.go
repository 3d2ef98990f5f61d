package kvstore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tactabot/regista/internal/adapters/kvstore"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		store := kvstore.NewMemory()
		ctx := context.Background()

		Convey("When a value is written and read back", func() {
			So(store.Set(ctx, "alpha", []byte("one")), ShouldBeNil)
			value, err := store.Get(ctx, "alpha")

			Convey("Then the bytes round-trip", func() {
				So(err, ShouldBeNil)
				So(string(value), ShouldEqual, "one")
				So(store.Len(), ShouldEqual, 1)
			})
		})

		Convey("When reading a missing key", func() {
			_, err := store.Get(ctx, "missing")

			Convey("Then ErrNotFound comes back", func() {
				So(errors.Is(err, kvstore.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the caller mutates its slices", func() {
			input := []byte("original")
			So(store.Set(ctx, "alpha", input), ShouldBeNil)
			input[0] = 'X'

			first, err := store.Get(ctx, "alpha")
			So(err, ShouldBeNil)
			first[0] = 'Y'

			Convey("Then the stored value is unaffected", func() {
				second, err := store.Get(ctx, "alpha")
				So(err, ShouldBeNil)
				So(string(second), ShouldEqual, "original")
			})
		})

		Convey("When a key is deleted", func() {
			So(store.Set(ctx, "alpha", []byte("one")), ShouldBeNil)
			So(store.Delete(ctx, "alpha"), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := store.Get(ctx, "alpha")
				So(errors.Is(err, kvstore.ErrNotFound), ShouldBeTrue)
				So(store.Len(), ShouldEqual, 0)
			})

			Convey("And deleting it again is not an error", func() {
				So(store.Delete(ctx, "alpha"), ShouldBeNil)
			})
		})

		Convey("When overwriting a key", func() {
			So(store.Set(ctx, "alpha", []byte("one")), ShouldBeNil)
			So(store.Set(ctx, "alpha", []byte("two")), ShouldBeNil)

			Convey("Then the latest value wins", func() {
				value, err := store.Get(ctx, "alpha")
				So(err, ShouldBeNil)
				So(string(value), ShouldEqual, "two")
				So(store.Len(), ShouldEqual, 1)
			})
		})

		Convey("Then ping and close never fail", func() {
			So(store.Ping(ctx), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
		})
	})
}

func TestMemoryStoreConcurrency(t *testing.T) {
	Convey("Given goroutines writing disjoint keys", t, func() {
		store := kvstore.NewMemory()
		ctx := context.Background()

		const (
			writers = 8
			keys    = 100
		)

		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for k := 0; k < keys; k++ {
					key := fmt.Sprintf("w%d:k%d", w, k)
					_ = store.Set(ctx, key, []byte(key))
					_, _ = store.Get(ctx, key)
				}
			}(w)
		}
		wg.Wait()

		Convey("Then every write landed", func() {
			So(store.Len(), ShouldEqual, writers*keys)

			value, err := store.Get(ctx, "w3:k42")
			So(err, ShouldBeNil)
			So(string(value), ShouldEqual, "w3:k42")
		})
	})
}

func TestNewRedisValidation(t *testing.T) {
	Convey("Given bad Redis targets", t, func() {
		ctx := context.Background()

		Convey("When the URL does not parse", func() {
			store, err := kvstore.NewRedis(ctx, "not a redis url")

			Convey("Then construction fails before dialing", func() {
				So(err, ShouldNotBeNil)
				So(store, ShouldBeNil)
			})
		})

		Convey("When nothing listens at the address", func() {
			store, err := kvstore.NewRedis(ctx, "redis://127.0.0.1:1/0")

			Convey("Then the ping fails and no store is returned", func() {
				So(err, ShouldNotBeNil)
				So(store, ShouldBeNil)
			})
		})
	})
}
