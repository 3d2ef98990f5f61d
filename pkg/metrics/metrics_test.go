package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		Convey("Then every metric registers without collision", func() {
			So(manager, ShouldNotBeNil)

			families, err := registry.Gather()
			So(err, ShouldBeNil)
			// Counters stay invisible until first increment; vectors
			// until first label set. Gathering still must succeed.
			So(families, ShouldNotBeNil)
		})
	})

	Convey("Given custom namespace, subsystem and buckets", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(
			WithNamespace("testspace"),
			WithSubsystem("testsys"),
			WithHistogramBuckets([]float64{1, 5, 10}),
			WithPrometheusRegistry(registry),
		)

		Convey("Then metric names carry them", func() {
			So(manager, ShouldNotBeNil)
			manager.eventsDuplicate.Inc()

			families, err := registry.Gather()
			So(err, ShouldBeNil)

			found := false
			for _, f := range families {
				if f.GetName() == "testspace_testsys_events_duplicate_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})

	Convey("Given empty option values", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(
			WithNamespace(""),
			WithSubsystem(""),
			WithHistogramBuckets(nil),
			WithPrometheusRegistry(registry),
		)

		Convey("Then the defaults are kept", func() {
			So(manager.namespace, ShouldEqual, "regista")
			So(manager.subsystem, ShouldEqual, "engine")
			So(manager.histogramBuckets, ShouldResemble, defaultBuckets)
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the package-level recorders", t, func() {
		Convey("When recording ingest metrics", func() {
			So(func() {
				RecordEventProcessed("pass_start", "TEAM_A")
				RecordEventProcessed("turnover", "TEAM_B")
				RecordEventDuplicate()
				RecordEventRejected()
				RecordProcessingDuration(0.42)
			}, ShouldNotPanic)
		})

		Convey("When recording match-state metrics", func() {
			So(func() {
				RecordPhaseChange("TRANSITION_OFF")
				RecordWindowOpened("OFFENSIVE")
				RecordChainClosed("TEAM_A", "SHOT")
				RecordAlert("transition_window_opened")
				UpdatePredictorPatterns(128)
				UpdateSessionsActive(2)
			}, ShouldNotPanic)
		})

		Convey("When recording pipeline metrics", func() {
			So(func() {
				UpdateQueueSize(3)
				UpdateQueueCapacity(1024)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueDrop()
				RecordSnapshotSaveDuration(1.5)
				RecordSnapshotSaveError()
				UpdateSaversActive(4)
			}, ShouldNotPanic)
		})

		Convey("When recording store and broadcast metrics", func() {
			So(func() {
				RecordStoreLatency("set", 2.5)
				RecordStoreError("get")
				UpdateBroadcastClients(7)
				RecordBroadcastSent()
				RecordBroadcastDrop()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("/sessions/{id}/events", "POST", "200")
				RecordHTTPRequestDuration("/sessions/{id}/events", "POST", "200", 3.2)
			}, ShouldNotPanic)
		})

		Convey("Then the global registry exposes them", func() {
			RecordEventProcessed("goal", "TEAM_A")

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			names := make(map[string]bool, len(families))
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["regista_engine_events_processed_total"], ShouldBeTrue)
			So(names["regista_engine_http_requests_total"], ShouldBeTrue)
			So(names["regista_engine_snapshot_queue_size"], ShouldBeTrue)
		})
	})
}
