package storage

import (
	"context"
	"errors"
)

var ErrScopeClosed = errors.New("store scope closed")

// Scope hands out at most one Store for the lifetime of a request. The
// connection is opened on first use and released by Close. A Scope belongs
// to the request goroutine and is not safe for concurrent use.
type Scope struct {
	opener Opener
	store  Store
	closed bool
}

func NewScope(opener Opener) *Scope {
	return &Scope{opener: opener}
}

// Store returns the request's connection, opening it on the first call.
// A failed open is not remembered, so a later call retries.
func (s *Scope) Store(ctx context.Context) (Store, error) {
	if s.closed {
		return nil, ErrScopeClosed
	}
	if s.store != nil {
		return s.store, nil
	}
	store, err := s.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	s.store = store
	return store, nil
}

// Opened reports whether a connection has been opened in this scope.
func (s *Scope) Opened() bool {
	return s.store != nil
}

// Close releases the connection if one was opened. Calling it again is a
// no-op.
func (s *Scope) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.store == nil {
		return nil
	}
	store := s.store
	s.store = nil
	return store.Close(ctx)
}

// WithScope runs fn with a fresh Scope and closes it afterwards, whether fn
// returns normally, returns an error or panics. The close error is returned
// only when fn itself succeeded.
func WithScope(ctx context.Context, opener Opener, fn func(ctx context.Context, scope *Scope) error) (err error) {
	scope := NewScope(opener)
	defer func() {
		closeErr := scope.Close(context.WithoutCancel(ctx))
		if err == nil {
			err = closeErr
		}
	}()
	return fn(ContextWithScope(ctx, scope), scope)
}

type scopeKey struct{}

func ContextWithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext returns the request's Scope, or nil outside a request.
func ScopeFromContext(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}
	scope, _ := ctx.Value(scopeKey{}).(*Scope)
	return scope
}
