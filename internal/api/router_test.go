package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/storage/storagetest"
	"github.com/Togather-Foundation/eventdesk/web"
)

func TestMethodMux(t *testing.T) {
	getHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("GET response"))
	})

	postHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("POST response"))
	})

	mux := methodMux(map[string]http.Handler{
		http.MethodGet:  getHandler,
		http.MethodPost: postHandler,
	})

	tests := []struct {
		name         string
		method       string
		expectStatus int
		expectBody   string
		expectAllow  string
	}{
		{name: "GET allowed", method: http.MethodGet, expectStatus: http.StatusOK, expectBody: "GET response"},
		{name: "POST allowed", method: http.MethodPost, expectStatus: http.StatusCreated, expectBody: "POST response"},
		{name: "PUT not allowed", method: http.MethodPut, expectStatus: http.StatusMethodNotAllowed, expectAllow: "GET, POST"},
		{name: "DELETE not allowed", method: http.MethodDelete, expectStatus: http.StatusMethodNotAllowed, expectAllow: "GET, POST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tt.method, "/test", nil))

			assert.Equal(t, tt.expectStatus, w.Code)
			if tt.expectBody != "" {
				assert.Equal(t, tt.expectBody, w.Body.String())
			}
			if tt.expectAllow != "" {
				assert.Equal(t, tt.expectAllow, w.Header().Get("Allow"))
			}
		})
	}
}

func TestAllowedMethods(t *testing.T) {
	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, "GET", allowedMethods(map[string]http.Handler{http.MethodGet: noop}))
	assert.Equal(t, "GET, POST", allowedMethods(map[string]http.Handler{
		http.MethodPost: noop,
		http.MethodGet:  noop,
	}))
	assert.Equal(t, "", allowedMethods(map[string]http.Handler{}))
}

const routerPassword = "opensesame"

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type routerEnv struct {
	t       *testing.T
	fake    *storagetest.Fake
	handler http.Handler
	jar     map[string]*http.Cookie
}

func newRouterEnv(t *testing.T, mutate func(*config.Config)) *routerEnv {
	t.Helper()
	cfg := config.Config{
		Session:   config.SessionConfig{Secret: "router-test-secret", TTL: time.Hour, CookieName: "eventdesk_session"},
		CSRF:      config.CSRFConfig{Enabled: true},
		RateLimit: config.RateLimitConfig{LoginPer15Minutes: 0},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	templates, err := web.Templates()
	require.NoError(t, err)
	sessionKey, err := auth.DeriveSessionKey([]byte(cfg.Session.Secret))
	require.NoError(t, err)
	csrfKey, err := auth.DeriveCSRFKey([]byte(cfg.Session.Secret))
	require.NoError(t, err)

	passwords := auth.Passwords{BcryptCost: bcrypt.MinCost}
	hash, err := passwords.Hash(routerPassword)
	require.NoError(t, err)

	fake := storagetest.New()
	fake.AddUser(users.User{Email: "grace@example.com", Name: "Grace", PasswordHash: hash})
	fake.AddVenue(1, "Main Hall")

	limiter := middleware.NewLoginLimiter(cfg.RateLimit.LoginPer15Minutes)
	t.Cleanup(limiter.Stop)

	handler := NewRouter(cfg, zerolog.Nop(), Dependencies{
		Opener:       fake,
		Templates:    templates,
		Sessions:     auth.NewSessionManager(sessionKey, auth.SessionOptions{TTL: cfg.Session.TTL, CookieName: cfg.Session.CookieName}),
		Passwords:    passwords,
		CSRFKey:      csrfKey,
		LoginLimiter: limiter,
	})
	return &routerEnv{t: t, fake: fake, handler: handler, jar: map[string]*http.Cookie{}}
}

// do sends the request with every cookie collected so far and stores the
// ones the response sets.
func (e *routerEnv) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range e.jar {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(e.jar, c.Name)
			continue
		}
		e.jar[c.Name] = c
	}
	return rec
}

func (e *routerEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, "http://eventdesk.test"+path, nil))
}

// token fetches a page and returns the CSRF token embedded in it.
func (e *routerEnv) token(path string) string {
	e.t.Helper()
	rec := e.get(path)
	require.Equal(e.t, http.StatusOK, rec.Code, path)
	match := csrfInput.FindStringSubmatch(rec.Body.String())
	require.Len(e.t, match, 2, "csrf field on %s", path)
	return match[1]
}

func (e *routerEnv) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "http://eventdesk.test"+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *routerEnv) login() {
	e.t.Helper()
	token := e.token("/login")
	rec := e.post("/login", url.Values{
		"csrf_token": {token},
		"email":      {"grace@example.com"},
		"password":   {routerPassword},
	})
	require.Equal(e.t, http.StatusFound, rec.Code)
	require.Contains(e.t, e.jar, "eventdesk_session")
}

func TestRouterLoginFlow(t *testing.T) {
	env := newRouterEnv(t, nil)

	rec := env.get("/events")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fevents", rec.Header().Get("Location"))

	env.login()

	rec = env.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grace")
	assert.Contains(t, rec.Body.String(), "Main Hall")

	rec = env.get("/logout")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.NotContains(t, env.jar, "eventdesk_session")

	rec = env.get("/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRouterLoginNeverReturnsToLogout(t *testing.T) {
	env := newRouterEnv(t, nil)

	token := env.token("/login?next=%2Flogout")
	rec := env.post("/login", url.Values{
		"csrf_token": {token},
		"email":      {"grace@example.com"},
		"password":   {routerPassword},
		"next":       {"/logout"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	require.Contains(t, env.jar, "eventdesk_session")

	rec = env.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterEventCRUD(t *testing.T) {
	env := newRouterEnv(t, nil)
	env.login()

	token := env.token("/events/new")
	rec := env.post("/events/new", url.Values{
		"csrf_token": {token},
		"venue_id":   {"1"},
		"title":      {" Gala "},
		"starts_at":  {"2024-05-01T18:00"},
		"ends_at":    {"2024-05-01T22:00"},
		"status":     {"scheduled"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	rec = env.get("/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>Gala</td>")

	token = env.token("/events/1/edit")
	rec = env.post("/events/1/edit", url.Values{
		"csrf_token": {token},
		"venue_id":   {"1"},
		"title":      {"Gala"},
		"starts_at":  {"2024-05-01T18:00"},
		"ends_at":    {"2024-05-01T22:00"},
		"status":     {"cancelled"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	event, ok := env.fake.Event(1)
	require.True(t, ok)
	assert.Equal(t, "cancelled", event.Status)

	token = env.token("/events")
	rec = env.post("/events/1/delete", url.Values{"csrf_token": {token}})
	require.Equal(t, http.StatusFound, rec.Code)
	_, ok = env.fake.Event(1)
	assert.False(t, ok)
}

func TestRouterRejectsPostWithoutCSRFToken(t *testing.T) {
	env := newRouterEnv(t, nil)
	env.token("/login")

	rec := env.post("/login", url.Values{
		"email":    {"grace@example.com"},
		"password": {routerPassword},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, env.jar, "eventdesk_session")
}

func TestRouterMethodNotAllowed(t *testing.T) {
	env := newRouterEnv(t, nil)

	rec := env.get("/events/1/delete")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
}

func TestRouterPublicEndpoints(t *testing.T) {
	env := newRouterEnv(t, nil)

	rec := env.get("/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"db":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = env.get("/robots.txt")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.get("/static/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventdesk_http_requests_total")

	rec = env.get("/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterMetricsDisabled(t *testing.T) {
	env := newRouterEnv(t, func(cfg *config.Config) { cfg.Metrics.Enabled = false })

	rec := env.get("/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterLoginRateLimit(t *testing.T) {
	env := newRouterEnv(t, func(cfg *config.Config) {
		cfg.CSRF.Enabled = false
		cfg.RateLimit.LoginPer15Minutes = 2
	})

	form := url.Values{"email": {"grace@example.com"}, "password": {"wrong"}}
	assert.Equal(t, http.StatusOK, env.post("/login", form).Code)
	assert.Equal(t, http.StatusOK, env.post("/login", form).Code)

	rec := env.post("/login", form)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, env.get("/login").Code)
}

func TestRouterClosesConnectionPerRequest(t *testing.T) {
	env := newRouterEnv(t, nil)
	env.login()
	opensAfterLogin := env.fake.Opens()

	env.get("/events")
	env.get("/events/new")
	assert.Equal(t, opensAfterLogin+2, env.fake.Opens())
	assert.Equal(t, env.fake.Opens(), env.fake.Closes())
}
