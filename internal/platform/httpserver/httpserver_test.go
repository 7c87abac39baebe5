package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"foodtrust/internal/platform/config"
)

func TestNew_AppliesConfiguredTimeouts(t *testing.T) {
	srv := New(":8080", http.NewServeMux(), config.HTTPConfig{
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 4 * time.Second,
		IdleTimeout:  8 * time.Second,
	})

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.ReadTimeout)
	assert.Equal(t, 4*time.Second, srv.WriteTimeout)
	assert.Equal(t, 8*time.Second, srv.IdleTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
}

func TestNew_ZeroConfigFallsBackToDefaults(t *testing.T) {
	srv := New(":8080", http.NewServeMux(), config.HTTPConfig{})

	assert.Equal(t, defaultReadTimeout, srv.ReadTimeout)
	assert.Equal(t, defaultWriteTimeout, srv.WriteTimeout)
	assert.Equal(t, defaultIdleTimeout, srv.IdleTimeout)
}
