package matchsim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/pkg/logger"
)

// streamDrain gives in-flight SSE frames time to land after the last event.
const streamDrain = 500 * time.Millisecond

// redeliverSample is how many recent events get re-posted after the feed
// to prove the dedupe path end to end. Recent ones, because old ids age
// out of the engine's bounded dedupe window on long runs.
const redeliverSample = 5

// generatedIDLength trims the uuid for readable session names.
const generatedIDLength = 8

// Run executes one simulation against a running engine: health check,
// session setup, paced feed with a live stream watcher, duplicate
// redelivery, then verification and the match report.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Named("matchsim")
	stats := &Stats{StartTime: time.Now()}

	if cfg.Session == "" {
		cfg.Session = "sim-" + uuid.NewString()[:generatedIDLength]
	}

	c := newClient(cfg.Addr, cfg.Timeout)

	if err := c.getJSON(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("engine not reachable at %s: %w", cfg.Addr, err)
	}

	info, err := c.createSession(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	cfg.Session = info.ID

	log.Info(ctx, "simulation starting",
		logger.String("session", cfg.Session),
		logger.Int("events", cfg.Events),
		logger.Float64("rate", cfg.Rate),
		logger.Int64("seed", cfg.Seed))

	events := newScenario(cfg).generate(cfg.Events)
	stats.EventsGenerated = len(events)

	tally := &streamTally{}
	g, gctx := errgroup.WithContext(ctx)
	streamCtx, stopStream := context.WithCancel(gctx)
	defer stopStream()

	g.Go(func() error {
		if err := watchStream(streamCtx, c, cfg.Session, tally); err != nil {
			// The stream is observational; a broken watcher must not
			// fail the run.
			log.Warn(gctx, "stream watcher stopped", logger.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		defer stopStream()
		if err := feedEvents(gctx, c, cfg, events, stats); err != nil {
			return err
		}
		if err := redeliver(gctx, c, cfg.Session, events, stats); err != nil {
			return err
		}
		time.Sleep(streamDrain)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	stats.SnapshotFrames = tally.snapshots
	stats.AlertFrames = tally.alerts

	if err := verifyState(ctx, c, cfg, stats); err != nil {
		return err
	}
	if err := printReport(ctx, c, cfg); err != nil {
		return err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, stats)
	return nil
}

// redeliver re-posts the tail of the stream, mimicking a tagging client
// resending after a reconnect. Every ack must come back flagged duplicate.
func redeliver(ctx context.Context, c *client, sessionID string, events []event.TaggedEvent, stats *Stats) error {
	sample := events
	if len(sample) > redeliverSample {
		sample = sample[len(sample)-redeliverSample:]
	}
	for _, ev := range sample {
		ack, err := c.sendEvent(ctx, sessionID, ev)
		if err != nil {
			return fmt.Errorf("redeliver event %d: %w", ev.ID, err)
		}
		stats.EventsSent++
		if !ack.Duplicate {
			return fmt.Errorf("redelivered event %d was not deduplicated", ev.ID)
		}
		stats.Duplicates++
	}
	return nil
}

// logFinalStats prints the run totals.
func logFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.EventsSent) / stats.Duration.Seconds()
	}
	logger.Named("matchsim").Info(ctx, "simulation finished",
		logger.Int("generated", stats.EventsGenerated),
		logger.Int("sent", stats.EventsSent),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Int("snapshotFrames", stats.SnapshotFrames),
		logger.Int("alertFrames", stats.AlertFrames),
		logger.Uint64("finalVersion", stats.FinalVersion),
		logger.Duration("duration", stats.Duration),
		logger.Float64("eventsPerSecond", perSecond))
}
