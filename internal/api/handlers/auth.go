package handlers

import (
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
)

// loginFailedMessage is shown for every credential failure so the form
// does not reveal which addresses have accounts.
const loginFailedMessage = "Invalid email or password."

// LoginForm renders the sign-in page. A visitor who already holds a valid
// session goes straight to the dashboard.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if _, err := h.Sessions.FromRequest(r); err == nil {
		http.Redirect(w, r, afterLogin(next), http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", map[string]any{
		"Title": "Sign in",
		"Next":  next,
	})
}

// Login checks the submitted credentials and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		fail(w, r, errors.Join(events.ErrBadRequest, err))
		return
	}
	_, hasEmail := r.PostForm["email"]
	_, hasPassword := r.PostForm["password"]
	if !hasEmail || !hasPassword {
		fail(w, r, &events.ValidationError{Missing: missingCredentials(hasEmail, hasPassword)})
		return
	}
	email := r.PostForm.Get("email")
	next := safeNext(r.PostForm.Get("next"))

	store, err := middleware.Store(r)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		fail(w, r, err)
		return
	}

	user, err := users.NewService(store.Users(), h.Passwords).Authenticate(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
			reason := failureReason(err)
			middleware.LoggerFromContext(r.Context()).Warn().
				Str("email", users.NormalizeEmail(email)).
				Str("reason", reason).
				Msg("login failed")
			h.Audit.Failure(r, middleware.GetRequestID(r.Context()), "login", map[string]string{
				"email":  users.NormalizeEmail(email),
				"reason": reason,
			})
			h.render(w, r, http.StatusOK, "login.html", map[string]any{
				"Title": "Sign in",
				"Error": loginFailedMessage,
				"Email": email,
				"Next":  next,
			})
			return
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		fail(w, r, err)
		return
	}

	if err := h.Sessions.Start(w, user.ID); err != nil {
		fail(w, r, err)
		return
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	middleware.LoggerFromContext(r.Context()).Info().Int64("user_id", user.ID).Msg("login")
	h.Audit.Success(r, middleware.GetRequestID(r.Context()), user.ID, "login", "user", user.ID)

	http.Redirect(w, r, afterLogin(next), http.StatusFound)
}

func afterLogin(next string) string {
	if next == "" {
		return "/"
	}
	return next
}

// Logout ends the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := middleware.CurrentUser(r); user != nil {
		middleware.LoggerFromContext(r.Context()).Info().Int64("user_id", user.ID).Msg("logout")
		h.record(r, "logout", "user", user.ID)
	}
	h.Sessions.Clear(w)
	http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
}

func missingCredentials(hasEmail, hasPassword bool) []string {
	var missing []string
	if !hasEmail {
		missing = append(missing, "email")
	}
	if !hasPassword {
		missing = append(missing, "password")
	}
	return missing
}

func failureReason(err error) string {
	if errors.Is(err, users.ErrNoSuchUser) {
		return "no_such_user"
	}
	return "wrong_password"
}
