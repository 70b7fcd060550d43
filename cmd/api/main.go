package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medtrack-api/internal/config"
	"github.com/jwalitptl/medtrack-api/internal/handler"
	medicationHandler "github.com/jwalitptl/medtrack-api/internal/handler/medication"
	"github.com/jwalitptl/medtrack-api/internal/handler/prometheus"
	"github.com/jwalitptl/medtrack-api/internal/repository"
	"github.com/jwalitptl/medtrack-api/internal/repository/file"
	"github.com/jwalitptl/medtrack-api/internal/repository/postgres"
	redisrepo "github.com/jwalitptl/medtrack-api/internal/repository/redis"
	"github.com/jwalitptl/medtrack-api/internal/router"
	medicationService "github.com/jwalitptl/medtrack-api/internal/service/medication"
	"github.com/jwalitptl/medtrack-api/internal/worker"
	"github.com/jwalitptl/medtrack-api/pkg/logger"
	"github.com/jwalitptl/medtrack-api/pkg/metrics"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize snapshot backend
	snapshots, err := newSnapshotStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize snapshot store")
	}

	m := metrics.NewMetrics("medtrack")
	clock := medicationService.SystemClock()
	appLogger := &logger.Logger{ZL: log.Logger}

	// Initialize the store and load the persisted collection
	medicationSvc := medicationService.NewService(snapshots, cfg.Storage.Key, clock, appLogger, m)
	if err := medicationSvc.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load medications")
	}

	// Initialize handlers
	h := handler.NewHandler()
	promHandler := prometheus.New()
	medicationH := medicationHandler.NewHandler(medicationSvc, cfg.Stats.CacheTTL)

	// Setup router
	r := router.NewRouter(medicationH, promHandler, h, router.RouterConfig{
		RateLimit: rate.Limit(cfg.RateLimit.RPS),
		RateBurst: cfg.RateLimit.Burst,
	})
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	// Start the midnight rollover worker; cancel stops it before the store
	// is torn down.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	rolloverWorker := worker.NewRolloverWorker(medicationSvc, clock, appLogger, m)
	go rolloverWorker.Start(workerCtx)

	// Start server
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Str("backend", cfg.Storage.Backend).Msg("server started")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	// Retry any deferred snapshot write before exit.
	if err := medicationSvc.Flush(ctx); err != nil {
		log.Warn().Err(err).Msg("final snapshot flush failed")
	}

	log.Info().Msg("server exited properly")
}

func newSnapshotStore(cfg *config.Config) (repository.SnapshotStore, error) {
	switch cfg.Storage.Backend {
	case "file", "":
		return file.NewStore(cfg.Storage.File.Dir)
	case "redis":
		return redisrepo.NewStore(redisrepo.Config{
			URL:          cfg.Storage.Redis.URL,
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
			PoolSize:     10,
			MinIdleConns: 2,
		})
	case "postgres":
		db, err := postgres.NewDB(cfg.Storage.Database)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
