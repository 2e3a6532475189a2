package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Togather-Foundation/eventdesk/internal/metrics"
)

const loginWindow = 15 * time.Minute

// LoginLimiter throttles login submissions per client address. Each client
// may burst up to the configured number of attempts; tokens refill evenly
// over a 15 minute window.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	perWin   int
	interval time.Duration
	now      func() time.Time

	stopOnce    sync.Once
	stopCleanup chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter returns nil when perWindow is not positive, which
// disables throttling.
func NewLoginLimiter(perWindow int) *LoginLimiter {
	if perWindow <= 0 {
		return nil
	}
	l := &LoginLimiter{
		limiters:    make(map[string]*limiterEntry),
		perWin:      perWindow,
		interval:    loginWindow / time.Duration(perWindow),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Middleware applies the limiter to POST requests only; rendering the
// form is never throttled.
func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		if !l.allow(clientKey(r)) {
			metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
			LoggerFromContext(r.Context()).Warn().Str("client", clientKey(r)).Msg("login rate limited")
			w.Header().Set("Retry-After", strconv.Itoa(int(l.interval.Seconds())))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *LoginLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(l.interval), l.perWin)}
		l.limiters[key] = entry
	}
	entry.lastSeen = l.now()
	return entry.limiter.AllowN(entry.lastSeen, 1)
}

func (l *LoginLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup drops clients idle for longer than a full window; their bucket
// would be full again anyway.
func (l *LoginLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > loginWindow {
			delete(l.limiters, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe on a nil limiter.
func (l *LoginLimiter) Stop() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
