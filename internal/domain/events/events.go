package events

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	ErrNotFound   = errors.New("event not found")
	ErrBadRequest = errors.New("bad request")
)

// Event is a stored listing. StartsAt and EndsAt are kept exactly as
// entered; no time parsing is applied.
type Event struct {
	ID       int64
	VenueID  int64
	Title    string
	StartsAt string
	EndsAt   string
	Status   string
}

// Listing is an event joined with its venue name.
type Listing struct {
	ID       int64
	Title    string
	StartsAt string
	EndsAt   string
	Status   string
	Venue    string
}

type Repository interface {
	// List returns every event with its venue name, ordered by id.
	List(ctx context.Context) ([]Listing, error)
	Get(ctx context.Context, id int64) (*Event, error)
	Create(ctx context.Context, input Input) (int64, error)
	// Update returns ErrNotFound when no row has the id.
	Update(ctx context.Context, id int64, input Input) error
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id int64) error
}

// ParseID parses an event id path segment. Anything that is not a positive
// integer cannot name an event, so it is reported as ErrNotFound.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNotFound
	}
	return id, nil
}
