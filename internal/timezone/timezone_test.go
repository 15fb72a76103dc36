package timezone

import (
	"errors"
	"testing"
	"time"
)

func mustLoad(t *testing.T, id string) *time.Location {
	t.Helper()
	loc, err := Load(id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return loc
}

func TestWallClockToUTC_KyivSummer(t *testing.T) {
	loc := mustLoad(t, "Europe/Kyiv")
	got, err := WallClockToUTC("2025-08-25", "09:00", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 8, 25, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format(time.RFC3339), got.Format(time.RFC3339))
	}
}

func TestWallClockToUTC_KyivWinter(t *testing.T) {
	loc := mustLoad(t, "Europe/Kyiv")
	got, err := WallClockToUTC("2025-01-15", "09:00", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 1, 15, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format(time.RFC3339), got.Format(time.RFC3339))
	}
}

func TestRoundTrip(t *testing.T) {
	zones := []string{"Europe/Kyiv", "America/New_York", "Asia/Tokyo", "Australia/Sydney", "Asia/Kolkata", "UTC"}
	dates := []string{"2025-01-15", "2025-08-25", "2024-02-29"}
	for _, tz := range zones {
		loc := mustLoad(t, tz)
		for _, date := range dates {
			for m := 9 * 60; m < 21*60; m += 30 {
				clock := ClockFromMinutes(m).String()
				instant, err := WallClockToUTC(date, clock, loc)
				if err != nil {
					t.Fatalf("%s %s %s: %v", tz, date, clock, err)
				}
				back, err := Format(instant, tz, ClockLayout)
				if err != nil {
					t.Fatalf("format: %v", err)
				}
				if back != clock {
					t.Fatalf("%s %s: round trip %s -> %s", tz, date, clock, back)
				}
			}
		}
	}
}

func TestWallClockToUTC_DSTResolution(t *testing.T) {
	loc := mustLoad(t, "Europe/Kyiv")

	t.Run("skipped time resolves after the gap", func(t *testing.T) {
		// 2025-03-30 03:00 -> 04:00 local
		got, err := WallClockToUTC("2025-03-30", "03:30", loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, 3, 30, 1, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got)
		}
		if HostClock(got, loc) != "04:30" {
			t.Fatalf("expected 04:30 local, got %s", HostClock(got, loc))
		}
	})

	t.Run("repeated time resolves to the later instant", func(t *testing.T) {
		// 2025-10-26 04:00 -> 03:00 local
		got, err := WallClockToUTC("2025-10-26", "03:30", loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, 10, 26, 1, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got)
		}
	})

	t.Run("resolution is deterministic", func(t *testing.T) {
		a, _ := WallClockToUTC("2025-10-26", "03:30", loc)
		b, _ := WallClockToUTC("2025-10-26", "03:30", loc)
		if !a.Equal(b) {
			t.Fatalf("expected identical results, got %s and %s", a, b)
		}
	})
}

func TestWallClockToUTC_InvalidInput(t *testing.T) {
	loc := mustLoad(t, "Europe/Kyiv")
	cases := []struct {
		date, clock string
		want        error
	}{
		{"2025-8-25", "09:00", ErrInvalidDate},
		{"2025-02-30", "09:00", ErrInvalidDate},
		{"2025-08-25", "9:00", ErrInvalidClock},
		{"2025-08-25", "24:00", ErrInvalidClock},
		{"2025-08-25", "09:00 PM", ErrInvalidClock},
	}
	for _, tc := range cases {
		if _, err := WallClockToUTC(tc.date, tc.clock, loc); !errors.Is(err, tc.want) {
			t.Fatalf("%s %s: expected %v, got %v", tc.date, tc.clock, tc.want, err)
		}
	}
	if _, err := WallClockToUTC("2025-08-25", "09:00", nil); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("expected ErrInvalidTimezone for nil location, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	instant := time.Date(2025, 8, 25, 6, 0, 0, 0, time.UTC)

	got, err := Format(instant, "America/New_York", DisplayLayout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2:00 AM" {
		t.Fatalf("expected 2:00 AM, got %q", got)
	}

	if _, err := Format(instant, "Mars/Noplace", DisplayLayout); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("expected ErrInvalidTimezone, got %v", err)
	}
}

func TestIsValidAndDisplayZone(t *testing.T) {
	for _, id := range []string{"Europe/Kyiv", "Europe/Kiev", "UTC", "Asia/Tokyo"} {
		if !IsValid(id) {
			t.Fatalf("expected %s to be valid", id)
		}
	}
	for _, id := range []string{"", "Local", "Mars/Noplace", "not a zone"} {
		if IsValid(id) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}

	loc, name := DisplayZone("Mars/Noplace")
	if loc != time.UTC || name != "UTC" {
		t.Fatalf("expected UTC fallback, got %v %q", loc, name)
	}
	_, name = DisplayZone("Asia/Tokyo")
	if name != "Asia/Tokyo" {
		t.Fatalf("expected Asia/Tokyo, got %q", name)
	}
}

func TestDayBounds(t *testing.T) {
	loc := mustLoad(t, "Europe/Kyiv")
	start, end, err := DayBounds("2025-08-25", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2025, 8, 24, 21, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", start)
	}
	if !end.Equal(time.Date(2025, 8, 25, 20, 59, 59, 0, time.UTC)) {
		t.Fatalf("unexpected end %s", end)
	}
}

func TestLoadHost(t *testing.T) {
	host, err := LoadHost("Europe/Kyiv", "+03:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.Approximate {
		t.Fatalf("tz database is available; fixed offset must not be used")
	}

	if _, err := LoadHost("Mars/Noplace", "+03:00"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("expected ErrInvalidTimezone for unknown id, got %v", err)
	}
}

func TestParseOffset(t *testing.T) {
	cases := map[string]int{"+03:00": 10800, "-05:30": -19800, "+00:00": 0}
	for in, want := range cases {
		got, err := ParseOffset(in)
		if err != nil || got != want {
			t.Fatalf("%s: expected %d, got %d (%v)", in, want, got, err)
		}
	}
	for _, in := range []string{"3", "+3:00", "+15:00", "03:00"} {
		if _, err := ParseOffset(in); err == nil {
			t.Fatalf("%s: expected error", in)
		}
	}
}
