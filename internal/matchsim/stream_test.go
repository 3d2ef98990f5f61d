package matchsim

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWatchStream(t *testing.T) {
	Convey("Given a server emitting a few frames", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: snapshot\ndata: {\"stateVersion\":1}\n\n")
			fmt.Fprint(w, "event: alert\ndata: {\"alert\":\"set_piece\"}\n\n")
			fmt.Fprint(w, ": ping\n\n")
			fmt.Fprint(w, "event: snapshot\ndata: {\"stateVersion\":2}\n\n")
		}))
		defer srv.Close()

		Convey("When watching until the server closes the stream", func() {
			c := newClient(srv.URL, time.Second)
			tally := &streamTally{}
			err := watchStream(context.Background(), c, "derby", tally)

			Convey("Then the frames should be tallied by kind", func() {
				So(err, ShouldBeNil)
				So(tally.snapshots, ShouldEqual, 2)
				So(tally.alerts, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a server that rejects the subscription", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"code":"session_not_found","message":"unknown session"}`)
		}))
		defer srv.Close()

		Convey("When watching", func() {
			c := newClient(srv.URL, time.Second)
			err := watchStream(context.Background(), c, "ghost", &streamTally{})

			Convey("Then the watcher should report the refusal", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "session_not_found")
			})
		})
	})

	Convey("Given a stream cancelled by the caller", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: snapshot\ndata: {}\n\n")
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer srv.Close()
		defer close(release)

		Convey("When the context ends mid-stream", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			c := newClient(srv.URL, time.Second)
			tally := &streamTally{}
			err := watchStream(ctx, c, "derby", tally)

			Convey("Then the watcher should wind down quietly", func() {
				So(err, ShouldBeNil)
				So(tally.snapshots, ShouldEqual, 1)
			})
		})
	})
}
