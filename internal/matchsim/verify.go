package matchsim

import (
	"context"
	"fmt"
	"sort"

	"github.com/tactabot/regista/pkg/logger"
)

// Report shaping.
const (
	topChanceCount = 3
	percent        = 100
)

// verifyState cross-checks the engine's final state against what the run
// sent: every non-duplicate event must have bumped stateVersion exactly
// once.
func verifyState(ctx context.Context, c *client, cfg *Config, stats *Stats) error {
	view, err := c.state(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("fetch final state: %w", err)
	}
	stats.FinalVersion = view.State.StateVersion

	expected := uint64(stats.EventsSent - stats.Duplicates)
	if view.State.StateVersion != expected {
		return fmt.Errorf("state version mismatch: engine at %d, expected %d (sent %d, duplicates %d)",
			view.State.StateVersion, expected, stats.EventsSent, stats.Duplicates)
	}

	logger.Named("matchsim").Info(ctx, "state verified",
		logger.Uint64("stateVersion", view.State.StateVersion),
		logger.String("label", view.Label))
	fmt.Printf("✅ state verified at version %d\n   %s\n", view.State.StateVersion, view.Label)
	return nil
}

// printReport fetches the analytic read models and prints the match report.
func printReport(ctx context.Context, c *client, cfg *Config) error {
	chains, err := c.chains(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("fetch chains: %w", err)
	}
	patterns, err := c.patterns(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("fetch patterns: %w", err)
	}
	preds, err := c.predictions(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("fetch predictions: %w", err)
	}

	names := map[string]string{"TEAM_A": cfg.TeamA, "TEAM_B": cfg.TeamB}

	fmt.Printf("\n🏆 possession: %d chains (%d off transitions), %.1f passes per chain\n",
		chains.Stats.TotalChains, chains.Stats.TransitionChains, chains.Stats.AvgPassesPerChain)
	fmt.Printf("   shot rate %.2f, goal rate %.2f, final third %.2f, box %.2f\n",
		chains.Stats.ShotRate, chains.Stats.GoalRate, chains.Stats.FinalThirdEntryRate, chains.Stats.BoxEntryRate)
	for _, rc := range topChances(chains.Completed, topChanceCount) {
		fmt.Printf("   %s chance %.2f (%s), outcome %s after %d passes\n",
			displayName(names, rc.Team), rc.ChanceQuality.Value, rc.ChanceQuality.Band, rc.Outcome, rc.PassCount)
	}

	fmt.Printf("🧠 learned %d patterns over %d events (%.1f followers avg)\n",
		patterns.TotalPatterns, patterns.TotalEventsProcessed, patterns.AvgFollowers)
	for _, p := range patterns.TopPatterns {
		fmt.Printf("   [%s] then %s (%.0f%%, seen %d)\n",
			p.SequenceKey, p.TopFollower, p.TopProbability*percent, p.Occurrences)
	}

	if len(preds) > 0 {
		fmt.Printf("🔮 next-tag suggestions:\n")
		for _, p := range preds {
			fmt.Printf("   %s %.0f%% (%s)\n", p.EventName, p.Probability*percent, p.Confidence)
		}
	}
	return nil
}

// topChances returns the best-rated completed chains, highest first.
func topChances(chains []ratedChain, n int) []ratedChain {
	out := make([]ratedChain, len(chains))
	copy(out, chains)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ChanceQuality.Value > out[j].ChanceQuality.Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func displayName(names map[string]string, team string) string {
	if n := names[team]; n != "" {
		return n
	}
	if team == "" {
		return "NOBODY"
	}
	return team
}
