package storage

import (
	"context"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/domain/venues"
)

// Store is one open connection to the relational store with its
// repositories. Each write statement commits on its own.
type Store interface {
	Users() users.Repository
	Venues() venues.Repository
	Events() events.Repository

	// Ping runs a trivial query.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Opener opens a new Store connection.
type Opener interface {
	Open(ctx context.Context) (Store, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Store, error)

func (f OpenerFunc) Open(ctx context.Context) (Store, error) {
	return f(ctx)
}
