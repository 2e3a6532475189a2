package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

const (
	LoginPath  = "/login"
	LogoutPath = "/logout"
)

// RequireSession guards protected routes. Requests without a valid session
// cookie, or whose user no longer exists, are redirected to the login page;
// GET requests carry their URL in ?next= so login can return to it.
func RequireSession(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessions.FromRequest(r)
			if err != nil {
				if !errors.Is(err, auth.ErrMissingToken) {
					sessions.Clear(w)
				}
				redirectToLogin(w, r)
				return
			}

			store, err := Store(r)
			if err != nil {
				serverError(w, r, err, "open store for session")
				return
			}
			user, err := store.Users().GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, users.ErrNotFound) {
					LoggerFromContext(r.Context()).Info().Int64("user_id", userID).Msg("session user no longer exists")
					sessions.Clear(w)
					redirectToLogin(w, r)
					return
				}
				serverError(w, r, err, "resolve session user")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginPath
	if uri := r.URL.RequestURI(); r.Method == http.MethodGet && uri != "/" && Resumable(uri) {
		target += "?next=" + url.QueryEscape(uri)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Resumable reports whether uri may be visited straight after signing in.
// The login and logout pages never are.
func Resumable(uri string) bool {
	path, _, _ := strings.Cut(uri, "?")
	return path != LoginPath && path != LogoutPath
}
