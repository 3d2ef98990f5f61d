package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tactabot/regista/internal/adapters/http/api"
	"github.com/tactabot/regista/internal/adapters/http/swagger"
	"github.com/tactabot/regista/internal/adapters/kvstore"
	service "github.com/tactabot/regista/internal/app"
	"github.com/tactabot/regista/internal/config"
	"github.com/tactabot/regista/internal/domain/predictor"
	"github.com/tactabot/regista/pkg/logger"
)

// HTTP server timeout constants. WriteTimeout is deliberately absent:
// /stream responses stay open for the length of a match.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 120 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is configured from this config; errors go to stderr.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal(ctx, "store initialization failed",
			logger.String("backend", cfg.StoreBackend), logger.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()

	svc := service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithWindowDuration(cfg.WindowMS),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithQueueCapacity(cfg.QueueCapacity),
		service.WithSaverCount(cfg.SaverCount),
		service.WithBroadcastBuffer(cfg.BroadcastBuffer),
		service.WithKeyPrefix(cfg.PredictorKeyPrefix),
		service.WithChanceAlertThreshold(cfg.ChanceAlertThreshold),
		service.WithPredictorOptions(
			predictor.WithWindowSize(cfg.PredictorWindow),
			predictor.WithMinOccurrences(cfg.PredictorMinOccurrences),
			predictor.WithMaxPatterns(cfg.PredictorMaxPatterns),
			predictor.WithPersistEvery(cfg.PredictorPersistEvery),
		),
	)
	if err := svc.Start(ctx); err != nil {
		log.Fatal(ctx, "service start failed", logger.Error(err))
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "http server listening", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "http server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down")

	// Graceful shutdown: stop accepting requests, then drain the engine.
	// The service persists open sessions on Stop, so the store closes last.
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutMS)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "http shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service stop failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "stopped")
}

// newStore builds the snapshot store selected by store_backend.
func newStore(ctx context.Context, cfg *config.Config) (kvstore.Store, error) {
	if cfg.StoreBackend == "redis" {
		var opts []kvstore.RedisOption
		if cfg.RedisTTLMS > 0 {
			opts = append(opts, kvstore.WithTTL(time.Duration(cfg.RedisTTLMS)*time.Millisecond))
		}
		r, err := kvstore.NewRedis(ctx, cfg.RedisURL, opts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return kvstore.NewMemory(), nil
}
