package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/domain/venues"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
	"github.com/Togather-Foundation/eventdesk/internal/telemetry"
)

// querier is the subset of *pgx.Conn the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Opener dials a dedicated connection per Open call. There is no pool;
// each request scope owns its connection until it is closed.
type Opener struct {
	config *pgx.ConnConfig
}

var _ storage.Opener = (*Opener)(nil)

func NewOpener(databaseURL string) (*Opener, error) {
	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	return &Opener{config: cfg}, nil
}

func (o *Opener) Open(ctx context.Context) (storage.Store, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "store.connect",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.name", o.config.Database),
			attribute.String("server.address", o.config.Host),
		),
	)
	defer span.End()

	start := time.Now()
	conn, err := pgx.ConnectConfig(ctx, o.config.Copy())
	metrics.StoreConnectDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreConnectFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "connect failed")
		return nil, fmt.Errorf("connect database: %w", err)
	}
	metrics.StoreConnectionsOpened.Inc()
	return NewStore(conn), nil
}

// Store wraps a single connection. Statements run in autocommit mode.
type Store struct {
	conn *pgx.Conn
}

var _ storage.Store = (*Store)(nil)

func NewStore(conn *pgx.Conn) *Store {
	return &Store{conn: conn}
}

func (s *Store) Users() users.Repository {
	return &UserRepository{db: s.conn}
}

func (s *Store) Venues() venues.Repository {
	return &VenueRepository{db: s.conn}
}

func (s *Store) Events() events.Repository {
	return &EventRepository{db: s.conn}
}

func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.conn.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	metrics.StoreConnectionsClosed.Inc()
	return s.conn.Close(ctx)
}
