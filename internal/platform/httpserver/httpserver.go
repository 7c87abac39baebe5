// Package httpserver builds the registry's HTTP server. Verification lookups
// are small and fast; the timeouts exist to shed slow or stalled clients, and
// WriteTimeout leaves headroom for registration requests that wait on the
// database transaction.
package httpserver

import (
	"net/http"
	"time"

	"foodtrust/internal/platform/config"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// New builds the HTTP server. Zero-valued timeouts fall back to the package
// defaults so tests can pass an empty HTTPConfig.
func New(addr string, handler http.Handler, cfg config.HTTPConfig) *http.Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
