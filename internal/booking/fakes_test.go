package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"booking-service/internal/config"
	"booking-service/internal/timezone"
)

type fakeCalendar struct {
	mu        sync.Mutex
	events    []Event
	listErr   error
	createErr error
	listCalls int
	created   []NewEvent
	nextID    string
}

func (f *fakeCalendar) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Event
	for _, e := range f.events {
		if e.Start.Before(timeMax) && e.End.After(timeMin) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, calendarID string, ev NewEvent) (Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return Event{}, f.createErr
	}
	f.created = append(f.created, ev)
	id := f.nextID
	if id == "" {
		id = "evt-1"
	}
	created := Event{ID: id, Summary: ev.Summary, Start: ev.Start, End: ev.End, Status: "confirmed"}
	f.events = append(f.events, created)
	return created, nil
}

func (f *fakeCalendar) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, len(f.created)
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.err
}

type fakeRecorder struct {
	mu       sync.Mutex
	receipts []Receipt
	err      error
}

func (f *fakeRecorder) Record(ctx context.Context, r Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, r)
	return f.err
}

// stallingNotifier blocks until released or until its context ends, and
// reports which happened on result.
type stallingNotifier struct {
	release chan struct{}
	result  chan error
}

func newStallingNotifier() *stallingNotifier {
	return &stallingNotifier{release: make(chan struct{}), result: make(chan error, 1)}
}

func (s *stallingNotifier) Notify(ctx context.Context, text string) error {
	select {
	case <-s.release:
		s.result <- nil
		return nil
	case <-ctx.Done():
		s.result <- ctx.Err()
		return ctx.Err()
	}
}

// drain waits for booking follow-ups so their effects can be asserted.
func drain(t *testing.T, svc *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Wait(ctx); err != nil {
		t.Fatalf("follow-ups did not finish: %v", err)
	}
}

// netTimeout satisfies net.Error.
type netTimeout struct{}

func (netTimeout) Error() string   { return "i/o timeout" }
func (netTimeout) Timeout() bool   { return true }
func (netTimeout) Temporary() bool { return true }

var errBoom = errors.New("boom")

func kyivHost(t *testing.T) config.Host {
	t.Helper()
	loc, err := timezone.Load("Europe/Kyiv")
	if err != nil {
		t.Fatalf("load Europe/Kyiv: %v", err)
	}
	return config.Host{
		Timezone:               "Europe/Kyiv",
		Location:               loc,
		ComfortStart:           timezone.Clock{Hour: 9},
		ComfortEnd:             timezone.Clock{Hour: 21},
		SlotGranularityMinutes: 30,
		MinimumLeadHours:       2,
		CalendarID:             "host@example.com",
		WorkingDays:            []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		HorizonDays:            14,
	}
}

// fixedClock returns a now func pinned to the given host wall clock.
func fixedClock(t *testing.T, host config.Host, date, clock string) func() time.Time {
	t.Helper()
	at, err := timezone.WallClockToUTC(date, clock, host.Location)
	if err != nil {
		t.Fatalf("clock %s %s: %v", date, clock, err)
	}
	return func() time.Time { return at }
}

func hostInstant(t *testing.T, host config.Host, date, clock string) time.Time {
	t.Helper()
	at, err := timezone.WallClockToUTC(date, clock, host.Location)
	if err != nil {
		t.Fatalf("instant %s %s: %v", date, clock, err)
	}
	return at
}

func newTestService(host config.Host, cal Calendar, n Notifier, r Recorder, now func() time.Time) *Service {
	return NewService(Deps{
		Host:     host,
		Calendar: cal,
		Notifier: n,
		Recorder: r,
		Timeout:  time.Second,
		Now:      now,
	})
}

func validRequest() Request {
	return Request{
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		SelectedDate: "2025-08-25",
		SelectedTime: "15:00",
		MeetingType:  MeetingConsultation,
		Message:      "Let's talk about engines.",
	}
}
