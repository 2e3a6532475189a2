package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

// Handler serves the HTML pages. All store access goes through the
// request's scope, see middleware.Store.
type Handler struct {
	Templates *template.Template
	Sessions  *auth.SessionManager
	Passwords users.Passwords
	// Audit may be nil.
	Audit *audit.Logger
}

func New(templates *template.Template, sessions *auth.SessionManager, passwords users.Passwords, auditLog *audit.Logger) *Handler {
	return &Handler{
		Templates: templates,
		Sessions:  sessions,
		Passwords: passwords,
		Audit:     auditLog,
	}
}

// record audits a successful action by the signed-in user.
func (h *Handler) record(r *http.Request, action, resourceType string, resourceID int64) {
	var userID int64
	if user := middleware.CurrentUser(r); user != nil {
		userID = user.ID
	}
	h.Audit.Success(r, middleware.GetRequestID(r.Context()), userID, action, resourceType, resourceID)
}

// render executes a page template into a buffer so a template error can
// still produce a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["User"] = middleware.CurrentUser(r)
	data["CSRFField"] = csrf.TemplateField(r)

	var buf bytes.Buffer
	if err := h.Templates.ExecuteTemplate(&buf, name, data); err != nil {
		middleware.LoggerFromContext(r.Context()).Error().Err(err).Str("template", name).Msg("template error")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail maps domain errors to responses: not found is 404, bad input 400
// with the message, anything else a logged 500 without details.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, events.ErrBadRequest):
		middleware.LoggerFromContext(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("bad request")
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		middleware.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// safeNext allows only local absolute paths as post-login targets, never
// the login or logout pages themselves.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	if !middleware.Resumable(next) {
		return ""
	}
	return next
}
