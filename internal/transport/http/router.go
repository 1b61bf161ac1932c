// Package httptransport assembles the HTTP surface: middleware chain,
// public endpoints, and the authenticated wallet routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	exchangehandler "nadawallet/internal/exchange/handler"
	"nadawallet/internal/platform/metrics"
	"nadawallet/internal/platform/middleware"
	"nadawallet/pkg/platform/httputil"
)

// HealthChecker reports readiness of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Logger    *slog.Logger
	Validator middleware.JWTValidator
	Wallet    *exchangehandler.Handler
	Metrics   *metrics.HTTP

	// Health checks by dependency name; nil entries are skipped.
	Health map[string]HealthChecker
}

// NewRouter builds the full middleware chain and mounts all routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		r.Use(middleware.ContentTypeJSON)
		deps.Wallet.Register(r)
	})

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(deps.Health))
		for name, checker := range deps.Health {
			if checker == nil {
				continue
			}
			if err := checker.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = "unavailable"
				deps.Logger.WarnContext(ctx, "health check failed",
					"dependency", name,
					"error", err,
				)
				continue
			}
			checks[name] = "ok"
		}

		body := map[string]any{"status": "ok", "checks": checks}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		httputil.WriteJSON(w, status, body)
	}
}
