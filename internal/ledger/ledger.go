// Package ledger keeps a Postgres audit trail of committed bookings. The host
// calendar stays authoritative; the ledger only answers "what did this service
// book".
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"booking-service/internal/booking"
)

// ErrInvalidRange is returned when a listing window is empty or inverted.
var ErrInvalidRange = errors.New("invalid time range")

const maxRange = 92 * 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	id            UUID PRIMARY KEY,
	event_id      TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	meeting_type  TEXT NOT NULL,
	message       TEXT NOT NULL DEFAULT '',
	start_at_utc  TIMESTAMPTZ NOT NULL,
	end_at_utc    TIMESTAMPTZ NOT NULL,
	host_timezone TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS bookings_start_idx ON bookings (start_at_utc);
`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Entry is one stored booking.
type Entry struct {
	ID           string              `json:"id"`
	EventID      string              `json:"eventId"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	MeetingType  booking.MeetingType `json:"meetingType"`
	Message      string              `json:"message,omitempty"`
	StartAtUTC   time.Time           `json:"startAtUtc"`
	EndAtUTC     time.Time           `json:"endAtUtc"`
	HostTimezone string              `json:"hostTimezone"`
	CreatedAt    time.Time           `json:"createdAt"`
}

type Store struct {
	db  querier
	now func() time.Time
}

func New(db querier) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects a pool and verifies it with a ping.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Record implements booking.Recorder. Recording the same event twice is a no-op.
func (s *Store) Record(ctx context.Context, r booking.Receipt) error {
	q := `INSERT INTO bookings
	      (id, event_id, name, email, meeting_type, message, start_at_utc, end_at_utc, host_timezone, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	      ON CONFLICT (event_id) DO NOTHING`
	_, err := s.db.Exec(ctx, q,
		uuid.NewString(), r.EventID, r.Name, r.Email, string(r.MeetingType), r.Message,
		r.Start.UTC(), r.End.UTC(), r.HostTimezone, s.now().UTC())
	if err != nil {
		return fmt.Errorf("record booking %s: %w", r.EventID, err)
	}
	return nil
}

// ListInRange returns bookings starting in [from, to), oldest first.
func (s *Store) ListInRange(ctx context.Context, from, to time.Time) ([]Entry, error) {
	if err := CheckRange(from, to); err != nil {
		return nil, err
	}
	q := `SELECT id::text, event_id, name, email, meeting_type, message, start_at_utc, end_at_utc, host_timezone, created_at
	      FROM bookings
	      WHERE start_at_utc >= $1 AND start_at_utc < $2
	      ORDER BY start_at_utc`
	rows, err := s.db.Query(ctx, q, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var meetingType string
		if err := rows.Scan(&e.ID, &e.EventID, &e.Name, &e.Email, &meetingType, &e.Message,
			&e.StartAtUTC, &e.EndAtUTC, &e.HostTimezone, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.MeetingType = booking.MeetingType(meetingType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CheckRange rejects empty, inverted and overly wide windows.
func CheckRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return ErrInvalidRange
	}
	if to.Sub(from) > maxRange {
		return fmt.Errorf("%w: at most %d days", ErrInvalidRange, int(maxRange/(24*time.Hour)))
	}
	return nil
}

// ReadyCheck pings the pool.
func ReadyCheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return errors.New("db not configured")
		}
		return pool.Ping(ctx)
	}
}
