package api

import (
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/eventdesk/internal/api/handlers"
	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
	"github.com/Togather-Foundation/eventdesk/web"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Opener    storage.Opener
	Templates *template.Template
	Sessions  *auth.SessionManager
	Passwords users.Passwords
	// CSRFKey signs CSRF tokens. Required when cfg.CSRF.Enabled.
	CSRFKey []byte
	// LoginLimiter may be nil, which disables throttling.
	LoginLimiter *middleware.LoginLimiter
	// Audit defaults to a logger derived from the router's logger.
	Audit *audit.Logger
}

func NewRouter(cfg config.Config, logger zerolog.Logger, deps Dependencies) http.Handler {
	auditLog := deps.Audit
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	h := handlers.New(deps.Templates, deps.Sessions, deps.Passwords, auditLog)
	protected := middleware.RequireSession(deps.Sessions)
	guard := func(fn http.HandlerFunc) http.Handler {
		return protected(fn)
	}

	mux := http.NewServeMux()
	mux.Handle(middleware.LoginPath, methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(h.LoginForm),
		http.MethodPost: deps.LoginLimiter.Middleware(http.HandlerFunc(h.Login)),
	}))
	mux.Handle(middleware.LogoutPath, methodMux(map[string]http.Handler{
		http.MethodGet: guard(h.Logout),
	}))
	mux.Handle("/{$}", methodMux(map[string]http.Handler{
		http.MethodGet: guard(h.Dashboard),
	}))
	mux.Handle("/events", methodMux(map[string]http.Handler{
		http.MethodGet: guard(h.EventsList),
	}))
	mux.Handle("/events/new", methodMux(map[string]http.Handler{
		http.MethodGet:  guard(h.EventsNewForm),
		http.MethodPost: guard(h.EventsCreate),
	}))
	mux.Handle("/events/{id}/edit", methodMux(map[string]http.Handler{
		http.MethodGet:  guard(h.EventsEditForm),
		http.MethodPost: guard(h.EventsUpdate),
	}))
	mux.Handle("/events/{id}/delete", methodMux(map[string]http.Handler{
		http.MethodPost: guard(h.EventsDelete),
	}))
	mux.Handle("/api/health", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(handlers.Health),
	}))
	mux.Handle("/static/", web.StaticHandler())
	mux.Handle("/robots.txt", web.RobotsTxtHandler())
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", metrics.Handler())
	}

	var handler http.Handler = middleware.StoreScope(deps.Opener)(mux)
	if cfg.CSRF.Enabled {
		handler = middleware.CSRFProtection(deps.CSRFKey, cfg.IsProduction())(handler)
	}
	handler = middleware.Recover(handler)
	handler = middleware.SecurityHeaders(cfg.IsProduction())(handler)
	if cfg.Metrics.Enabled {
		handler = metrics.HTTPMiddleware(handler)
	}
	handler = middleware.RequestLogging(handler)
	handler = middleware.CorrelationID(logger)(handler)
	if cfg.Tracing.Enabled {
		handler = middleware.Tracing(handler)
	}
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
