package middleware

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/storage"
)

// StoreScope gives every request its own storage.Scope. The connection is
// opened only if a handler asks for it and is closed when the request
// returns, including after a panic further down the chain.
func StoreScope(opener storage.Opener) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := storage.NewScope(opener)
			defer func() {
				// The client may be gone; the connection still has to go.
				if err := scope.Close(context.WithoutCancel(r.Context())); err != nil {
					LoggerFromContext(r.Context()).Warn().Err(err).Msg("close store connection")
				}
			}()
			next.ServeHTTP(w, r.WithContext(storage.ContextWithScope(r.Context(), scope)))
		})
	}
}

// Store returns the request's connection, opening it on first use.
func Store(r *http.Request) (storage.Store, error) {
	scope := storage.ScopeFromContext(r.Context())
	if scope == nil {
		return nil, storage.ErrScopeClosed
	}
	return scope.Store(r.Context())
}
