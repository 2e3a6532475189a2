package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
)

type EventRepository struct {
	db querier
}

func (r *EventRepository) List(ctx context.Context) ([]events.Listing, error) {
	rows, err := r.db.Query(ctx, `
SELECT e.event_id, e.title, e.starts_at, e.ends_at, e.status, v.name
  FROM events e
  JOIN venues v ON v.venue_id = e.venue_id
 ORDER BY e.event_id
`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (events.Listing, error) {
		var l events.Listing
		err := row.Scan(&l.ID, &l.Title, &l.StartsAt, &l.EndsAt, &l.Status, &l.Venue)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}

func (r *EventRepository) Get(ctx context.Context, id int64) (*events.Event, error) {
	var e events.Event
	err := r.db.QueryRow(ctx, `
SELECT event_id, venue_id, title, starts_at, ends_at, status
  FROM events
 WHERE event_id = $1
`, id).Scan(&e.ID, &e.VenueID, &e.Title, &e.StartsAt, &e.EndsAt, &e.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (r *EventRepository) Create(ctx context.Context, input events.Input) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO events (venue_id, title, starts_at, ends_at, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING event_id
`, input.VenueID, input.Title, input.StartsAt, input.EndsAt, input.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create event: %w", err)
	}
	return id, nil
}

func (r *EventRepository) Update(ctx context.Context, id int64, input events.Input) error {
	tag, err := r.db.Exec(ctx, `
UPDATE events
   SET venue_id = $2, title = $3, starts_at = $4, ends_at = $5, status = $6
 WHERE event_id = $1
`, id, input.VenueID, input.Title, input.StartsAt, input.EndsAt, input.Status)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM events WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
