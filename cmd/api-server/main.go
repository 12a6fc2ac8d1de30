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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-availability-engine/internal/api"
	"github.com/hackgods/clinic-availability-engine/internal/appointment"
	"github.com/hackgods/clinic-availability-engine/internal/availability"
	"github.com/hackgods/clinic-availability-engine/internal/config"
	"github.com/hackgods/clinic-availability-engine/internal/db"
	"github.com/hackgods/clinic-availability-engine/internal/events"
	"github.com/hackgods/clinic-availability-engine/internal/lock"
	"github.com/hackgods/clinic-availability-engine/internal/observability/metrics"
	redisclient "github.com/hackgods/clinic-availability-engine/internal/redis"
	"github.com/hackgods/clinic-availability-engine/internal/scheduling"
	"github.com/hackgods/clinic-availability-engine/internal/slots"
	"github.com/hackgods/clinic-availability-engine/pkg/logging"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("storage", cfg.Storage).
		Str("lock_backend", cfg.LockBackend).
		Str("policy", cfg.SlotFreeingPolicy).
		Dur("slot_increment", cfg.SlotIncrement).
		Str("timezone", cfg.Location.String()).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		pgPool     *pgxpool.Pool
		rdb        *redis.Client
		windowRepo availability.Repository
		apptRepo   appointment.Repository
		recorder   *events.Recorder
	)

	switch cfg.Storage {
	case config.StoragePostgres:
		// Connect Postgres
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pgPool.Close()
		logger.Info().Msg("connected to Postgres")

		windowRepo = availability.NewPgRepository(pgPool)
		apptRepo = appointment.NewPgRepository(pgPool)
		recorder = events.NewRecorder(events.NewPgStore(pgPool), logger)
	default:
		// no relay can drain an in-process outbox, so events are not recorded
		logger.Warn().Msg("using in-memory storage, data is lost on restart and events are not recorded")
		windowRepo = availability.NewMemoryRepository()
		apptRepo = appointment.NewMemoryRepository()
	}

	var locker lock.Locker
	switch cfg.LockBackend {
	case config.LockRedis:
		// Connect Redis
		rdb, err = redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		}()
		logger.Info().Msg("connected to Redis")
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	default:
		logger.Warn().Msg("using in-process slot locks, run a single replica only")
		locker = lock.NewLocal()
	}

	policy, err := appointment.ParsePolicy(cfg.SlotFreeingPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid slot freeing policy")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewSchedulingMetrics(reg)

	windows := availability.NewStore(windowRepo)
	resolver := slots.NewResolver(cfg.SlotIncrement, cfg.Location, policy)
	ledger := appointment.NewLedger(apptRepo, locker, slots.NewValidator(windows, resolver), policy, logger)
	svc := scheduling.NewService(windows, resolver, ledger, recorder, m, logger)

	router := api.NewRouter(api.RouterConfig{
		Service:  svc,
		Windows:  windows,
		PgPool:   pgPool,
		Redis:    rdb,
		Gatherer: reg,
		Logger:   logger,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("http server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("api-server stopped")
}
