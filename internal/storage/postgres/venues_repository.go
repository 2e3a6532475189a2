package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Togather-Foundation/eventdesk/internal/domain/venues"
)

type VenueRepository struct {
	db querier
}

func (r *VenueRepository) List(ctx context.Context) ([]venues.Venue, error) {
	rows, err := r.db.Query(ctx, `
SELECT venue_id, name
  FROM venues
 ORDER BY venue_id
`)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (venues.Venue, error) {
		var v venues.Venue
		err := row.Scan(&v.ID, &v.Name)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return list, nil
}

func (r *VenueRepository) EventCounts(ctx context.Context, limit int) ([]venues.EventCount, error) {
	rows, err := r.db.Query(ctx, `
SELECT v.venue_id, v.name, COUNT(e.event_id)
  FROM (SELECT venue_id, name FROM venues ORDER BY venue_id LIMIT $1) v
  LEFT JOIN events e ON e.venue_id = v.venue_id
 GROUP BY v.venue_id, v.name
 ORDER BY v.venue_id
`, limit)
	if err != nil {
		return nil, fmt.Errorf("count venue events: %w", err)
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (venues.EventCount, error) {
		var c venues.EventCount
		err := row.Scan(&c.VenueID, &c.Name, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("count venue events: %w", err)
	}
	return counts, nil
}
