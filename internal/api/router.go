package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicops/resource-scheduler/internal/block"
	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/forecast"
	"github.com/clinicops/resource-scheduler/internal/observability/metrics"
	"github.com/clinicops/resource-scheduler/internal/schedule"
	"github.com/clinicops/resource-scheduler/internal/shift"
)

type RouterConfig struct {
	Scheduler  *schedule.Scheduler
	Catalog    *catalog.Service
	Blocks     *block.Manager
	Shifts     *shift.Service
	Optimizer  *shift.Optimizer
	Forecaster *forecast.Forecaster
	Metrics    *metrics.SchedulingMetrics
	Logger     zerolog.Logger
	PgPool     *pgxpool.Pool
	Redis      *redis.Client
	Env        string
	Version    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger, cfg.Metrics))

	// Health and metrics endpoints, outside the tenancy boundary
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Tenant-scoped API
	r.Group(func(r chi.Router) {
		r.Use(TenancyMiddleware)

		r.Post("/appointments", createAppointmentHandler(cfg.Scheduler))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Scheduler))
		r.Post("/appointments/{id}/move", moveAppointmentHandler(cfg.Scheduler))
		r.Post("/appointments/{id}/confirm", confirmAppointmentHandler(cfg.Scheduler))
		r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Scheduler))
		r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Scheduler))

		r.Get("/resources", listResourcesHandler(cfg.Catalog))
		r.Get("/resources/{id}", getResourceHandler(cfg.Catalog))
		r.Get("/resources/{id}/blocks", listResourceBlocksHandler(cfg.Blocks))

		r.Post("/blocks", createBlockHandler(cfg.Blocks))
		r.Delete("/blocks/{id}", deactivateBlockHandler(cfg.Blocks))

		r.Get("/shifts", listShiftsHandler(cfg.Shifts))
		r.Post("/shifts", createShiftHandler(cfg.Shifts))
		r.Get("/preferences", listPreferencesHandler(cfg.Shifts))

		r.Get("/forecast", getForecastHandler(cfg.Forecaster))
		r.Get("/shift-suggestions", getShiftSuggestionsHandler(cfg.Optimizer))
	})

	return r
}
