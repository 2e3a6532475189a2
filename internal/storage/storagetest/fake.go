// Package storagetest provides an in-memory storage.Opener for handler and
// middleware tests.
package storagetest

import (
	"context"
	"sort"
	"sync"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/domain/venues"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
)

// Fake holds the tables in memory and counts connections. Set OpenErr or
// PingErr to simulate an unreachable store.
type Fake struct {
	mu sync.Mutex

	OpenErr error
	PingErr error
	// QueryErr makes every repository call fail.
	QueryErr error

	opens  int
	closes int

	users       map[int64]users.User
	venues      map[int64]venues.Venue
	events      map[int64]events.Event
	nextUserID  int64
	nextEventID int64
}

var _ storage.Opener = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		users:  map[int64]users.User{},
		venues: map[int64]venues.Venue{},
		events: map[int64]events.Event{},
	}
}

func (f *Fake) Open(context.Context) (storage.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	f.opens++
	return &conn{fake: f}, nil
}

// Opens returns how many connections were opened.
func (f *Fake) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// Closes returns how many connections were closed.
func (f *Fake) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// AddUser stores u, assigning an id when u.ID is zero.
func (f *Fake) AddUser(u users.User) users.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		f.nextUserID++
		u.ID = f.nextUserID
	} else if u.ID > f.nextUserID {
		f.nextUserID = u.ID
	}
	f.users[u.ID] = u
	return u
}

func (f *Fake) DeleteUser(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

func (f *Fake) AddVenue(id int64, name string) venues.Venue {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := venues.Venue{ID: id, Name: name}
	f.venues[id] = v
	return v
}

// Event returns the stored event with id.
func (f *Fake) Event(id int64) (events.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	return e, ok
}

type conn struct {
	fake   *Fake
	closed bool
}

func (c *conn) Users() users.Repository   { return userRepo{c.fake} }
func (c *conn) Venues() venues.Repository { return venueRepo{c.fake} }
func (c *conn) Events() events.Repository { return eventRepo{c.fake} }

func (c *conn) Ping(context.Context) error {
	c.fake.mu.Lock()
	defer c.fake.mu.Unlock()
	return c.fake.PingErr
}

func (c *conn) Close(context.Context) error {
	c.fake.mu.Lock()
	defer c.fake.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.fake.closes++
	}
	return nil
}

type userRepo struct{ f *Fake }

func (r userRepo) GetByID(_ context.Context, id int64) (*users.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return nil, r.f.QueryErr
	}
	u, ok := r.f.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return nil, r.f.QueryErr
	}
	for _, u := range r.f.users {
		if users.NormalizeEmail(u.Email) == email {
			found := u
			return &found, nil
		}
	}
	return nil, users.ErrNotFound
}

func (r userRepo) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return nil, r.f.QueryErr
	}
	for _, u := range r.f.users {
		if users.NormalizeEmail(u.Email) == params.Email {
			return nil, users.ErrEmailTaken
		}
	}
	r.f.nextUserID++
	u := users.User{ID: r.f.nextUserID, Email: params.Email, Name: params.Name, PasswordHash: params.PasswordHash}
	r.f.users[u.ID] = u
	return &u, nil
}

type venueRepo struct{ f *Fake }

func (r venueRepo) sorted() []venues.Venue {
	list := make([]venues.Venue, 0, len(r.f.venues))
	for _, v := range r.f.venues {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r venueRepo) List(context.Context) ([]venues.Venue, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return nil, r.f.QueryErr
	}
	return r.sorted(), nil
}

func (r venueRepo) EventCounts(_ context.Context, limit int) ([]venues.EventCount, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return nil, r.f.QueryErr
	}
	list := r.sorted()
	if len(list) > limit {
		list = list[:limit]
	}
	counts := make([]venues.EventCount, 0, len(list))
	for _, v := range list {
		n := 0
		for _, e := range r.f.events {
			if e.VenueID == v.ID {
				n++
			}
		}
		counts = append(counts, venues.EventCount{VenueID: v.ID, Name: v.Name, Count: n})
	}
	return counts, nil
}

type eventRepo struct{ f *Fake }

func (r eventRepo) List(context.Context) ([]events.Listing, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return nil, r.f.QueryErr
	}
	list := make([]events.Listing, 0, len(r.f.events))
	for _, e := range r.f.events {
		venue, ok := r.f.venues[e.VenueID]
		if !ok {
			continue
		}
		list = append(list, events.Listing{
			ID:       e.ID,
			Title:    e.Title,
			StartsAt: e.StartsAt,
			EndsAt:   e.EndsAt,
			Status:   e.Status,
			Venue:    venue.Name,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r eventRepo) Get(_ context.Context, id int64) (*events.Event, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return nil, r.f.QueryErr
	}
	e, ok := r.f.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return &e, nil
}

func (r eventRepo) Create(_ context.Context, input events.Input) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return 0, r.f.QueryErr
	}
	r.f.nextEventID++
	id := r.f.nextEventID
	r.f.events[id] = fromInput(id, input)
	return id, nil
}

func (r eventRepo) Update(_ context.Context, id int64, input events.Input) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return r.f.QueryErr
	}
	if _, ok := r.f.events[id]; !ok {
		return events.ErrNotFound
	}
	r.f.events[id] = fromInput(id, input)
	return nil
}

func (r eventRepo) Delete(_ context.Context, id int64) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.QueryErr != nil {
		return r.f.QueryErr
	}
	delete(r.f.events, id)
	return nil
}

func fromInput(id int64, input events.Input) events.Event {
	return events.Event{
		ID:       id,
		VenueID:  input.VenueID,
		Title:    input.Title,
		StartsAt: input.StartsAt,
		EndsAt:   input.EndsAt,
		Status:   input.Status,
	}
}
