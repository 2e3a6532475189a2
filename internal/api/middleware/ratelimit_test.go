package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoginLimiterDisabled(t *testing.T) {
	limiter := NewLoginLimiter(0)
	assert.Nil(t, limiter)

	// A nil limiter passes everything through.
	handler := limiter.Middleware(okHandler())
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	limiter.Stop()
}

func TestLoginLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewLoginLimiter(3)
	require.NotNil(t, limiter)
	t.Cleanup(limiter.Stop)

	handler := limiter.Middleware(okHandler())
	post := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post("10.0.0.1:5000").Code)
	}
	blocked := post("10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "300", blocked.Header().Get("Retry-After"))

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, post("10.0.0.2:5000").Code)
}

func TestLoginLimiterIgnoresGET(t *testing.T) {
	limiter := NewLoginLimiter(1)
	t.Cleanup(limiter.Stop)
	handler := limiter.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLoginLimiterCleanup(t *testing.T) {
	limiter := NewLoginLimiter(2)
	t.Cleanup(limiter.Stop)

	start := time.Now()
	limiter.now = func() time.Time { return start }
	assert.True(t, limiter.allow("10.0.0.1"))

	limiter.now = func() time.Time { return start.Add(loginWindow + time.Minute) }
	limiter.cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.limiters)
}

func TestLoginLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewLoginLimiter(1)
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}
