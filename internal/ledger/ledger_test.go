package ledger

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"booking-service/internal/booking"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	execs []execCall
	err   error
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func receipt() booking.Receipt {
	start := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)
	return booking.Receipt{
		EventID:      "evt-1",
		Name:         "Ada",
		Email:        "ada@example.com",
		MeetingType:  booking.MeetingConsultation,
		Start:        start,
		End:          start.Add(30 * time.Minute),
		HostTimezone: "Europe/Kyiv",
	}
}

func TestRecord(t *testing.T) {
	db := &fakeDB{}
	s := New(db)
	fixed := time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.Record(context.Background(), receipt()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(db.execs) != 1 {
		t.Fatalf("expected 1 exec, got %d", len(db.execs))
	}
	call := db.execs[0]
	if !strings.Contains(call.sql, "ON CONFLICT (event_id) DO NOTHING") {
		t.Fatalf("insert should be idempotent: %s", call.sql)
	}
	if len(call.args) != 10 || call.args[1] != "evt-1" || call.args[4] != "consultation" {
		t.Fatalf("unexpected args %v", call.args)
	}
	if got, ok := call.args[9].(time.Time); !ok || !got.Equal(fixed) {
		t.Fatalf("unexpected created_at %v", call.args[9])
	}
}

func TestRecord_WrapsError(t *testing.T) {
	boom := errors.New("connection reset")
	s := New(&fakeDB{err: boom})
	err := s.Record(context.Background(), receipt())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestCheckRange(t *testing.T) {
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		wantErr bool
	}{
		{"ok", base, base.Add(7 * 24 * time.Hour), false},
		{"zero from", time.Time{}, base, true},
		{"inverted", base, base.Add(-time.Hour), true},
		{"empty", base, base, true},
		{"too wide", base, base.Add(120 * 24 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckRange err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestStore_Postgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pool.Close()

	s := New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	r := receipt()
	r.EventID = "evt-" + time.Now().Format("150405.000000000")
	if err := s.Record(ctx, r); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, r); err != nil {
		t.Fatalf("second record should be a no-op: %v", err)
	}

	entries, err := s.ListInRange(ctx, r.Start.Add(-time.Minute), r.Start.Add(time.Minute))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := 0
	for _, e := range entries {
		if e.EventID == r.EventID {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected the booking once, found %d", found)
	}
	if err := ReadyCheck(pool)(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
}
