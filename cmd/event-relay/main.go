package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/clinic-availability-engine/internal/config"
	"github.com/hackgods/clinic-availability-engine/internal/db"
	"github.com/hackgods/clinic-availability-engine/internal/events"
	"github.com/hackgods/clinic-availability-engine/internal/observability/metrics"
	redisclient "github.com/hackgods/clinic-availability-engine/internal/redis"
	"github.com/hackgods/clinic-availability-engine/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.Env).With().Str("component", "event-relay").Logger()

	if cfg.Storage != config.StoragePostgres {
		logger.Fatal().Str("storage", cfg.Storage).Msg("event relay needs STORAGE=postgres")
	}

	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.RelayInterval).
		Int("batch_size", cfg.RelayBatchSize).
		Str("stream", cfg.EventStream).
		Msg("event-relay starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	m := metrics.NewSchedulingMetrics(prometheus.DefaultRegisterer)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	relay := events.NewRelay(events.NewPgStore(pgPool), redisclient.NewStreamPublisher(rdb, cfg.EventStream), logger).
		WithBatchSize(cfg.RelayBatchSize).
		WithInterval(cfg.RelayInterval).
		OnBatch(m.ObserveRelay)

	relay.Run(rootCtx)
}
