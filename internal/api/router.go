package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-availability-engine/internal/availability"
	"github.com/hackgods/clinic-availability-engine/internal/scheduling"
)

type RouterConfig struct {
	Service  *scheduling.Service
	Windows  *availability.Store
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Gatherer prometheus.Gatherer // nil serves the default registry
	Logger   zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/slots", listSlotsHandler(cfg.Service))

	// Appointment endpoints
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Service))
		r.Get("/", listAppointmentsHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Put("/{id}/status", updateStatusHandler(cfg.Service))
	})

	// Availability endpoints
	r.Route("/availability", func(r chi.Router) {
		r.Get("/", listWindowsHandler(cfg.Windows))
		r.Post("/", createWindowHandler(cfg.Windows))
		r.Get("/{id}", getWindowHandler(cfg.Windows))
		r.Put("/{id}", updateWindowHandler(cfg.Windows))
		r.Delete("/{id}", deleteWindowHandler(cfg.Windows))
	})

	return r
}
