package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodtrust/internal/platform/metrics"
	"foodtrust/internal/platform/middleware"
)

// NewRouter wires all public endpoints. Consumer verification routes are
// open; registration requires a manufacturer token.
func NewRouter(h *Handler, logger *slog.Logger, m *metrics.Metrics, validator middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Post("/auth/token", h.handleToken)

		r.Get("/products/{productID}", h.handleVerify)
		r.Get("/products/{productID}/authentic", h.handleIsAuthentic)
		r.Get("/products/{productID}/events", h.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(validator, logger))
			r.Post("/products", h.handleRegister)
		})
	})

	return r
}
