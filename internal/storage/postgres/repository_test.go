package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

func TestStorePing(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, ctx, setupPostgres(t))

	require.NoError(t, store.Ping(ctx))
}

func TestOpenerRejectsBadURL(t *testing.T) {
	_, err := NewOpener("postgres://localhost:notaport/eventdesk")
	require.Error(t, err)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, ctx, setupPostgres(t))
	repo := store.Users()

	created, err := repo.Create(ctx, users.CreateParams{Email: "Ada@Example.com", Name: "Ada", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)

	// Lookup lower-cases the stored column so mixed-case rows still match.
	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, users.ErrNotFound)

	_, err = repo.GetByID(ctx, created.ID+100)
	assert.ErrorIs(t, err, users.ErrNotFound)

	_, err = repo.Create(ctx, users.CreateParams{Email: "Ada@Example.com", Name: "Twin", PasswordHash: "hash"})
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestVenueEventCounts(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, ctx, setupPostgres(t))

	var venueIDs []int64
	for i := 1; i <= 12; i++ {
		venueIDs = append(venueIDs, insertVenue(t, ctx, store, fmt.Sprintf("Venue %02d", i)))
	}

	eventsRepo := store.Events()
	for i := 0; i < 3; i++ {
		_, err := eventsRepo.Create(ctx, events.Input{VenueID: venueIDs[0], Title: "A", StartsAt: "s", EndsAt: "e", Status: "scheduled"})
		require.NoError(t, err)
	}
	// Venue 11 is outside the first ten and must not appear.
	_, err := eventsRepo.Create(ctx, events.Input{VenueID: venueIDs[10], Title: "B", StartsAt: "s", EndsAt: "e", Status: "scheduled"})
	require.NoError(t, err)

	counts, err := store.Venues().EventCounts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, counts, 10)

	assert.Equal(t, "Venue 01", counts[0].Name)
	assert.Equal(t, 3, counts[0].Count)
	for i := 1; i < 10; i++ {
		assert.Equal(t, venueIDs[i], counts[i].VenueID)
		assert.Equal(t, 0, counts[i].Count)
	}

	list, err := store.Venues().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 12)
	assert.Equal(t, venueIDs[0], list[0].ID)
	assert.Equal(t, venueIDs[11], list[11].ID)
}

func TestEventRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, ctx, setupPostgres(t))
	venueID := insertVenue(t, ctx, store, "Main Hall")
	repo := store.Events()

	gala := events.Input{
		VenueID:  venueID,
		Title:    "Gala",
		StartsAt: "2024-05-01T18:00",
		EndsAt:   "2024-05-01T22:00",
		Status:   "scheduled",
	}
	id, err := repo.Create(ctx, gala)
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, events.Listing{
		ID:       id,
		Title:    "Gala",
		StartsAt: "2024-05-01T18:00",
		EndsAt:   "2024-05-01T22:00",
		Status:   "scheduled",
		Venue:    "Main Hall",
	}, list[0])

	gala.Status = "cancelled"
	require.NoError(t, repo.Update(ctx, id, gala))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "cancelled", got.Status)

	assert.ErrorIs(t, repo.Update(ctx, id+1, gala), events.ErrNotFound)
	_, err = repo.Get(ctx, id+1)
	assert.ErrorIs(t, err, events.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, id+1))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, id))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEventRepositoryOrdersByID(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, ctx, setupPostgres(t))
	first := insertVenue(t, ctx, store, "Zeta")
	second := insertVenue(t, ctx, store, "Alpha")
	repo := store.Events()

	for _, venueID := range []int64{second, first, second} {
		_, err := repo.Create(ctx, events.Input{VenueID: venueID, Title: "t", StartsAt: "s", EndsAt: "e", Status: "x"})
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Less(t, list[0].ID, list[1].ID)
	assert.Less(t, list[1].ID, list[2].ID)
	assert.Equal(t, "Alpha", list[0].Venue)
	assert.Equal(t, "Zeta", list[1].Venue)
}
