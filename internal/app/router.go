// Package app wires the HTTP router and readiness checks.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-placement-coach/internal/config"
	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// NewRouter assembles middleware and routes for the service.
func NewRouter(cfg config.Config, srv *httpserver.Server, sessions domain.SessionStore, checks map[string]func(ctx domain.Context) error) http.Handler {
	r := chi.NewRouter()

	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.SecurityHeaders)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(httpserver.TimeoutMiddleware(cfg.HTTPWriteTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", httpserver.HealthzHandler())
	r.Get("/readyz", httpserver.ReadyzHandler(checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(pr chi.Router) {
			pr.Use(httpserver.SessionAuth(sessions))

			pr.Get("/applications/{id}", srv.GetApplicationHandler())
			pr.Get("/questions", srv.ListQuestionsHandler(false))
			pr.Get("/results/{user_id}", srv.ListResultsHandler())

			// Mutating routes carry a per-client rate limit.
			pr.Group(func(mut chi.Router) {
				mut.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
				mut.Post("/applications", srv.CreateApplicationHandler())
				mut.Post("/applications/{id}/stages/{stage}/submit", srv.SubmitStageHandler())
				mut.Post("/ai/summary", srv.AISummaryHandler())
			})
		})

		if cfg.AdminEnabled() {
			v1.Group(func(adm chi.Router) {
				adm.Use(httpserver.AdminBasicAuth(cfg.AdminUsername, cfg.AdminPasswordHash))
				adm.Get("/admin/questions", srv.ListQuestionsHandler(true))
			})
		}
	})

	return otelhttp.NewHandler(r, "http.server")
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
