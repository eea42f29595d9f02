package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Crosscheck/internal/config"
	"github.com/MikeSquared-Agency/Crosscheck/internal/events"
	"github.com/MikeSquared-Agency/Crosscheck/internal/store"
	"github.com/MikeSquared-Agency/Crosscheck/internal/validation"
)

const serviceName = "crosscheck"

// NewRouter builds the public API. s and p may be nil when no database or
// event bus is configured.
func NewRouter(svc *validation.Service, s store.Store, p events.Publisher, cfg config.ServerConfig, version string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware)
	r.Use(CORSMiddleware(cfg.CORSOrigins))

	compute := NewValidateHandler(svc, s, p, logger)
	runs := NewRunsHandler(s)

	r.Get("/", healthHandler(svc, version))
	r.Get("/reference-cases", compute.ReferenceCases)

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(cfg.RateLimitPerMinute))
		r.Post("/validate", compute.Validate)
		r.Post("/validate-project", compute.ValidateProject)
		r.Post("/validate-batch", compute.ValidateBatch)
		r.Post("/calculate", compute.Calculate)
	})

	r.Group(func(r chi.Router) {
		r.Use(AdminAuthMiddleware(cfg.AdminToken))
		r.Get("/runs", runs.List)
		r.Get("/runs/stats", runs.Stats)
		r.Get("/runs/{id}", runs.Get)
	})

	return r
}

type healthResponse struct {
	Status          string `json:"status"`
	Service         string `json:"service"`
	Version         string `json:"version"`
	Engine          string `json:"engine"`
	OracleAvailable bool   `json:"oracle_available"`
}

// healthHandler always answers 200; a failed self-check shows as "degraded".
func healthHandler(svc *validation.Service, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:          "ok",
			Service:         serviceName,
			Version:         version,
			Engine:          svc.EngineName(),
			OracleAvailable: svc.Available(),
		}
		if !resp.OracleAvailable {
			resp.Status = "degraded"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func NewMetricsRouter(svc *validation.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if !svc.Available() {
			status = "degraded"
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
