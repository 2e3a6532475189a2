package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/eventdesk/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 18080},
		Database:  config.DatabaseConfig{URL: "postgres://eventdesk@localhost:5432/eventdesk"},
		Session:   config.SessionConfig{Secret: "serve-test-secret", TTL: time.Hour, CookieName: "eventdesk_session"},
		CSRF:      config.CSRFConfig{Enabled: true},
		RateLimit: config.RateLimitConfig{LoginPer15Minutes: 5},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
}

func TestNewServer(t *testing.T) {
	srv, err := newServer(testConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(srv.close)

	assert.Equal(t, "127.0.0.1:18080", srv.http.Addr)
	assert.Equal(t, 5*time.Second, srv.http.ReadHeaderTimeout)

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="csrf_token"`)

	rec = httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestNewServerRejectsBadDatabaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.Database.URL = "postgres://localhost:notaport/eventdesk"

	_, err := newServer(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database url")
}

func TestServeRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PATH", "")

	_, err := execute(t, "", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
