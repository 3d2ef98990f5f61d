package matchsim

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/tactabot/regista/internal/domain/event"
	"github.com/tactabot/regista/pkg/logger"
)

const progressInterval = time.Second

// feedEvents replays the stream in order against one session, paced like a
// live operator. Order matters to the engine, so there is exactly one
// request in flight at a time. Rejected events are counted and skipped;
// only a dead connection or a cancelled context aborts the feed.
func feedEvents(ctx context.Context, c *client, cfg *Config, events []event.TaggedEvent, stats *Stats) error {
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.Rate > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	log := logger.Named("matchsim")
	lastReport := time.Now()

	for i, ev := range events {
		if err := lim.Wait(ctx); err != nil {
			return fmt.Errorf("pacing interrupted: %w", err)
		}

		ack, err := c.sendEvent(ctx, cfg.Session, ev)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("feed interrupted: %w", ctx.Err())
			}
			stats.Failed++
			log.Warn(ctx, "event rejected",
				logger.Int64("id", ev.ID),
				logger.String("name", ev.EventName),
				logger.Error(err))
			continue
		}

		stats.EventsSent++
		if ack.Duplicate {
			stats.Duplicates++
		}

		if cfg.Verbose {
			log.Info(ctx, "event accepted",
				logger.Int64("id", ev.ID),
				logger.String("name", ev.EventName),
				logger.String("phase", ack.State.Phase),
				logger.Uint64("stateVersion", ack.State.StateVersion))
		} else if time.Since(lastReport) >= progressInterval {
			lastReport = time.Now()
			fmt.Printf("\r📤 sent %d/%d (failed: %d)", i+1, len(events), stats.Failed)
		}
	}

	if !cfg.Verbose {
		fmt.Printf("\r📤 sent %d/%d (failed: %d)\n", stats.EventsSent, len(events), stats.Failed)
	}
	return nil
}
