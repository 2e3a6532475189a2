package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

type contextKey string

const userKey contextKey = "user"

func contextWithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the signed-in user set by RequireSession, or nil on
// routes outside the guard.
func CurrentUser(r *http.Request) *users.User {
	if r == nil {
		return nil
	}
	if user, ok := r.Context().Value(userKey).(*users.User); ok {
		return user
	}
	return nil
}

// serverError logs err and writes a bare 500.
func serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
