package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/tactabot/regista/internal/matchsim"
	"github.com/tactabot/regista/pkg/logger"
)

// Default simulation parameters.
const (
	defaultEvents  = 600
	defaultRate    = 8.0 // events per second
	defaultSeed    = 1
	defaultTimeout = 30 * time.Second
	defaultRunCap  = 30 * time.Minute
)

func main() {
	var (
		addr    = flag.String("addr", "http://localhost:9080", "Base URL of the engine")
		events  = flag.Int("events", defaultEvents, "Number of tagged events to generate and feed")
		rate    = flag.Float64("rate", defaultRate, "Feed pace in events per second (0 = unpaced)")
		seed    = flag.Int64("seed", defaultSeed, "Scenario seed; equal seeds replay the same match")
		session = flag.String("session", "", "Session id to tag into (default: generated sim-* id)")
		teamA   = flag.String("team-a", "Home", "Display name for TEAM_A")
		teamB   = flag.String("team-b", "Away", "Display name for TEAM_B")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Log every event acknowledgement")
	)
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Format: "text"})

	// Cancel on SIGINT/SIGTERM, and cap runaway runs regardless.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunCap)
	defer cancel()

	cfg := &matchsim.Config{
		Addr:    *addr,
		Events:  *events,
		Rate:    *rate,
		Seed:    *seed,
		Session: *session,
		TeamA:   *teamA,
		TeamB:   *teamB,
		Timeout: *timeout,
		Verbose: *verbose,
	}

	if err := matchsim.Run(ctx, cfg); err != nil {
		logger.Get().Fatal(ctx, "simulation failed", logger.Error(err))
	}
}
