package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tactabot/regista/pkg/logger"
)

type fakeStore struct {
	data    map[string][]byte
	sets    int
	deletes int
	failSet bool
	failGet bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.failGet {
		return nil, errors.New("store unavailable")
	}
	blob, ok := s.data[key]
	if !ok {
		return nil, errors.New("key not found")
	}
	return blob, nil
}

func (s *fakeStore) Set(_ context.Context, key string, value []byte) error {
	if s.failSet {
		return errors.New("store unavailable")
	}
	s.sets++
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.deletes++
	delete(s.data, key)
	return nil
}

func feed(p *Predictor, names ...string) {
	for _, name := range names {
		p.Record(context.Background(), name)
	}
}

func TestRecordAndPredict(t *testing.T) {
	Convey("Given a predictor fed two pass-pass-shot sequences", t, func() {
		p := New(WithLogger(logger.Nop()))
		feed(p, "pass_start", "pass_start", "shot_start")
		feed(p, "pass_start", "pass_start", "shot_start")

		Convey("When two more passes set up the same context", func() {
			feed(p, "pass_start", "pass_start")
			preds := p.Predictions()

			Convey("Then the shot is the top prediction", func() {
				So(preds, ShouldHaveLength, 2)
				So(preds[0].EventName, ShouldEqual, "shot_start")
				// Two-of-two followers at context length 2 of 3.
				So(preds[0].Probability, ShouldAlmostEqual, 5.0/6.0, 1e-9)
				So(preds[0].Confidence, ShouldEqual, ConfidenceLow)
				So(preds[0].ButtonLabel, ShouldEqual, "SHOT")
				So(preds[1].EventName, ShouldEqual, "pass_start")
				So(preds[1].Probability, ShouldAlmostEqual, 0.4, 1e-9)
			})
		})
	})

	Convey("Given a fresh predictor", t, func() {
		p := New(WithLogger(logger.Nop()))

		Convey("Then predictions are empty", func() {
			So(p.Predictions(), ShouldBeEmpty)
		})

		Convey("When only one event is recorded", func() {
			feed(p, "pass_start")

			Convey("Then nothing was learned yet", func() {
				So(p.Stats().TotalPatterns, ShouldEqual, 0)
				So(p.Predictions(), ShouldBeEmpty)
				So(p.TotalEvents(), ShouldEqual, 1)
			})
		})
	})
}

func TestRecordIgnoresUIControls(t *testing.T) {
	Convey("Given a predictor", t, func() {
		p := New(WithLogger(logger.Nop()))
		feed(p, "pass_start")

		Convey("When UI control signals arrive", func() {
			feed(p, "ui_undo", "ui_button_flash", "")

			Convey("Then they neither count nor learn", func() {
				So(p.TotalEvents(), ShouldEqual, 1)
				So(p.Stats().TotalPatterns, ShouldEqual, 0)
			})
		})
	})
}

func TestConfidenceTiers(t *testing.T) {
	Convey("Given a drilled-in kick-off routine", t, func() {
		p := New(WithLogger(logger.Nop()))
		for i := 0; i < 12; i++ {
			feed(p, "kick_off", "pass_start")
		}

		Convey("When predicting after another kick-off", func() {
			feed(p, "kick_off")
			preds := p.Predictions()

			Convey("Then the follow-up is predicted with high confidence", func() {
				So(preds, ShouldNotBeEmpty)
				So(preds[0].EventName, ShouldEqual, "pass_start")
				So(preds[0].Probability, ShouldBeGreaterThan, 0.5)
				So(preds[0].Confidence, ShouldEqual, ConfidenceHigh)
			})
		})
	})

	Convey("Given a routine seen six times", t, func() {
		p := New(WithLogger(logger.Nop()))
		for i := 0; i < 6; i++ {
			feed(p, "corner_start", "clearance")
		}

		Convey("When predicting after another corner", func() {
			feed(p, "corner_start")
			preds := p.Predictions()

			Convey("Then the evidence only supports medium confidence", func() {
				So(preds, ShouldNotBeEmpty)
				So(preds[0].EventName, ShouldEqual, "clearance")
				So(preds[0].Confidence, ShouldEqual, ConfidenceMedium)
			})
		})
	})
}

func TestPredictionsCapAndOrder(t *testing.T) {
	Convey("Given a context followed by many different events", t, func() {
		p := New(WithLogger(logger.Nop()))
		followers := []string{
			"pass_start", "carry_start", "clearance", "foul",
			"interception", "turnover", "shot_start",
		}
		for _, f := range followers {
			feed(p, "throw_in", f)
		}

		Convey("When predicting after the context", func() {
			feed(p, "throw_in")
			preds := p.Predictions()

			Convey("Then at most five come back, deterministically ordered", func() {
				So(len(preds), ShouldBeLessThanOrEqualTo, 5)
				for i := 1; i < len(preds); i++ {
					if preds[i-1].Probability == preds[i].Probability {
						So(preds[i-1].EventName, ShouldBeLessThan, preds[i].EventName)
					} else {
						So(preds[i-1].Probability, ShouldBeGreaterThan, preds[i].Probability)
					}
				}
			})

			Convey("Then unknown names carry the placeholder label", func() {
				for _, pr := range preds {
					if pr.EventName == "pass_start" {
						So(pr.ButtonLabel, ShouldEqual, "PASS")
					}
					if pr.EventName == "carry_start" {
						So(pr.ButtonLabel, ShouldEqual, "CARRY")
					}
				}
				So(labelFor("throw_in"), ShouldEqual, placeholderLabel)
				So(describe("long_throw_in"), ShouldEqual, "long throw in")
			})
		})
	})
}

func TestLearningStats(t *testing.T) {
	Convey("Given three replays of pass-pass-shot", t, func() {
		p := New(WithLogger(logger.Nop()))
		for i := 0; i < 3; i++ {
			feed(p, "pass_start", "pass_start", "shot_start")
		}

		Convey("When reading the learning stats", func() {
			st := p.Stats()

			Convey("Then the table shape matches the replay", func() {
				So(st.TotalPatterns, ShouldEqual, 8)
				So(st.TotalEvents, ShouldEqual, 9)
				So(st.AvgFollowers, ShouldAlmostEqual, 1.125, 1e-9)
			})

			Convey("Then only well-seen patterns make the top list", func() {
				So(st.TopPatterns, ShouldHaveLength, 2)
				So(st.TopPatterns[0].SequenceKey, ShouldEqual, "pass_start")
				So(st.TopPatterns[0].Occurrences, ShouldEqual, 6)
				So(st.TopPatterns[0].TopProbability, ShouldAlmostEqual, 0.5, 1e-9)
				So(st.TopPatterns[1].SequenceKey, ShouldEqual, "pass_start→pass_start")
				So(st.TopPatterns[1].TopFollower, ShouldEqual, "shot_start")
				So(st.TopPatterns[1].TopProbability, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})
	})

	Convey("Given an empty predictor", t, func() {
		p := New(WithLogger(logger.Nop()))

		Convey("Then stats are all zero", func() {
			st := p.Stats()
			So(st.TotalPatterns, ShouldEqual, 0)
			So(st.AvgFollowers, ShouldEqual, 0)
			So(st.TopPatterns, ShouldBeEmpty)
		})
	})
}

func TestPatternCapEviction(t *testing.T) {
	Convey("Given a predictor capped at two patterns", t, func() {
		store := newFakeStore()
		p := New(
			WithLogger(logger.Nop()),
			WithMaxPatterns(2),
			WithPersistEvery(0),
			WithStore(store),
		)

		Convey("When a third pattern is learned", func() {
			feed(p, "pass_start", "carry_start", "shot_start")

			Convey("Then the stalest pattern was evicted", func() {
				So(p.Stats().TotalPatterns, ShouldEqual, 2)

				p.Persist(context.Background())
				var snap struct {
					Patterns map[string]json.RawMessage `json:"patterns"`
				}
				So(json.Unmarshal(store.data[DefaultStorageKey], &snap), ShouldBeNil)
				So(snap.Patterns, ShouldContainKey, "carry_start")
				So(snap.Patterns, ShouldContainKey, "pass_start→carry_start")
				So(snap.Patterns, ShouldNotContainKey, "pass_start")
			})
		})
	})
}

func TestPersistCadence(t *testing.T) {
	Convey("Given a predictor persisting every five events", t, func() {
		store := newFakeStore()
		p := New(WithLogger(logger.Nop()), WithStore(store), WithPersistEvery(5))

		Convey("When nine events are recorded", func() {
			feed(p, "pass_start", "pass_start", "shot_start",
				"clearance", "pass_start", "carry_start",
				"foul", "free_kick", "pass_start")

			Convey("Then exactly one snapshot was written", func() {
				So(store.sets, ShouldEqual, 1)
			})

			Convey("And a tenth event writes the second", func() {
				feed(p, "turnover")
				So(store.sets, ShouldEqual, 2)
			})
		})

		Convey("When the store keeps failing", func() {
			store.failSet = true
			feed(p, "pass_start", "pass_start", "shot_start",
				"clearance", "pass_start", "carry_start")

			Convey("Then recording is unaffected", func() {
				So(p.TotalEvents(), ShouldEqual, 6)
				So(p.Stats().TotalPatterns, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	Convey("Given a trained predictor persisted to a store", t, func() {
		store := newFakeStore()
		trained := New(WithLogger(logger.Nop()), WithStore(store), WithPersistEvery(0))
		for i := 0; i < 3; i++ {
			feed(trained, "pass_start", "pass_start", "shot_start")
		}
		trained.Persist(context.Background())

		Convey("When a fresh predictor loads from the same store", func() {
			restored := New(WithLogger(logger.Nop()), WithStore(store), WithPersistEvery(0))
			restored.Load(context.Background())

			Convey("Then it predicts and reports identically", func() {
				So(restored.TotalEvents(), ShouldEqual, trained.TotalEvents())
				So(restored.Stats(), ShouldResemble, trained.Stats())
				So(restored.Predictions(), ShouldResemble, trained.Predictions())
			})
		})
	})
}

func TestLoadTolerance(t *testing.T) {
	Convey("Given stored snapshots in bad shape", t, func() {
		ctx := context.Background()

		Convey("When the blob is not JSON", func() {
			store := newFakeStore()
			store.data[DefaultStorageKey] = []byte("{definitely not json")
			p := New(WithLogger(logger.Nop()), WithStore(store))
			p.Load(ctx)

			Convey("Then the predictor stays fresh", func() {
				So(p.Stats().TotalPatterns, ShouldEqual, 0)
				So(p.TotalEvents(), ShouldEqual, 0)
			})
		})

		Convey("When the store is unreachable", func() {
			store := newFakeStore()
			store.failGet = true
			p := New(WithLogger(logger.Nop()), WithStore(store))
			p.Load(ctx)

			Convey("Then the predictor stays fresh", func() {
				So(p.Stats().TotalPatterns, ShouldEqual, 0)
			})
		})

		Convey("When patterns are null", func() {
			store := newFakeStore()
			store.data[DefaultStorageKey] = []byte(`{"patterns":null,"recentSequence":null,"totalEventsProcessed":5}`)
			p := New(WithLogger(logger.Nop()), WithStore(store))
			p.Load(ctx)

			Convey("Then recording keeps working afterwards", func() {
				So(p.TotalEvents(), ShouldEqual, 5)
				feed(p, "pass_start", "shot_start")
				So(p.TotalEvents(), ShouldEqual, 7)
				So(p.Stats().TotalPatterns, ShouldEqual, 1)
			})
		})

		Convey("When a single pattern entry is null", func() {
			store := newFakeStore()
			store.data[DefaultStorageKey] = []byte(`{"patterns":{"bad":null},"totalEventsProcessed":1}`)
			p := New(WithLogger(logger.Nop()), WithStore(store))
			p.Load(ctx)

			Convey("Then the entry is dropped", func() {
				So(p.Stats().TotalPatterns, ShouldEqual, 0)
			})
		})
	})
}

func TestReset(t *testing.T) {
	Convey("Given a trained predictor with a persisted snapshot", t, func() {
		store := newFakeStore()
		p := New(WithLogger(logger.Nop()), WithStore(store), WithPersistEvery(0))
		for i := 0; i < 3; i++ {
			feed(p, "pass_start", "pass_start", "shot_start")
		}
		p.Persist(context.Background())
		So(store.data, ShouldContainKey, DefaultStorageKey)

		Convey("When it resets", func() {
			p.Reset(context.Background())

			Convey("Then memory and store are both cleared", func() {
				So(store.deletes, ShouldEqual, 1)
				So(store.data, ShouldNotContainKey, DefaultStorageKey)
				So(p.Stats().TotalPatterns, ShouldEqual, 0)
				So(p.TotalEvents(), ShouldEqual, 0)
				So(p.Predictions(), ShouldBeEmpty)
			})
		})
	})
}

func TestDeterminism(t *testing.T) {
	Convey("Given two predictors fed the same mixed sequence", t, func() {
		seq := []string{
			"pass_start", "carry_start", "final_third_entry", "shot_start",
			"clearance", "pass_start", "carry_start", "final_third_entry",
			"shot_start", "goal", "pass_start", "carry_start",
		}
		a := New(WithLogger(logger.Nop()))
		b := New(WithLogger(logger.Nop()))
		feed(a, seq...)
		feed(b, seq...)

		Convey("Then predictions and stats are identical", func() {
			So(a.Predictions(), ShouldResemble, b.Predictions())
			So(a.Stats(), ShouldResemble, b.Stats())
		})
	})
}
