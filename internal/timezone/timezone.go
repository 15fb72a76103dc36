// Package timezone converts between the host's wall clock and UTC, and renders
// UTC instants in an arbitrary visitor zone.
//
// All conversions go through the IANA database carried by time.Location.
// Wall clocks that do not map to exactly one instant are resolved to the later
// interpretation: a repeated time (clocks fall back) maps to its second
// occurrence and a skipped time (clocks spring forward) maps to the instant
// computed with the pre-transition offset, which renders after the gap.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout       = "2006-01-02"
	ClockLayout      = "15:04"
	DisplayLayout    = "3:04 PM"
	DiagnosticLayout = "2006-01-02 15:04:05 MST"
)

var (
	ErrInvalidTimezone = errors.New("invalid timezone")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidClock    = errors.New("invalid time of day")
)

// aliases maps renamed zone identifiers onto each other so hosts with an older
// or newer tz database still resolve the same zone.
var aliases = map[string]string{
	"Europe/Kiev":      "Europe/Kyiv",
	"Europe/Kyiv":      "Europe/Kiev",
	"Asia/Calcutta":    "Asia/Kolkata",
	"Asia/Kolkata":     "Asia/Calcutta",
	"Asia/Saigon":      "Asia/Ho_Chi_Minh",
	"Asia/Ho_Chi_Minh": "Asia/Saigon",
}

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the number of minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// ClockFromMinutes is the inverse of Clock.Minutes.
func ClockFromMinutes(m int) Clock {
	return Clock{Hour: m / 60, Minute: m % 60}
}

// ParseClock accepts strictly "HH:MM" in 24-hour form.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParseDate accepts strictly "YYYY-MM-DD". The result is midnight UTC and only
// its calendar fields are meaningful.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// Load resolves an IANA identifier. Empty and "Local" are rejected because
// neither names a zone the caller can reason about.
func Load(id string) (*time.Location, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, id)
	}
	loc, err := time.LoadLocation(id)
	if err == nil {
		return loc, nil
	}
	if alt, ok := aliases[id]; ok {
		if loc, altErr := time.LoadLocation(alt); altErr == nil {
			return loc, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, id)
}

// IsValid reports whether id can be used for display.
func IsValid(id string) bool {
	_, err := Load(id)
	return err == nil
}

// DisplayZone returns the zone to render visitor-facing times in. Unknown ids
// fall back to UTC; this is for presentation only.
func DisplayZone(id string) (*time.Location, string) {
	loc, err := Load(id)
	if err != nil {
		return time.UTC, "UTC"
	}
	return loc, loc.String()
}

// WallClockToUTC interprets date + clock in loc and returns the UTC instant.
func WallClockToUTC(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, ErrInvalidTimezone
	}
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return resolve(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, loc), nil
}

// At is WallClockToUTC for already parsed values.
func At(day time.Time, c Clock, loc *time.Location) time.Time {
	return resolve(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, loc)
}

// DayBounds returns the UTC instants of 00:00:00 and 23:59:59 on date in loc.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		return time.Time{}, time.Time{}, ErrInvalidTimezone
	}
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := resolve(d.Year(), d.Month(), d.Day(), 0, 0, 0, loc)
	end := resolve(d.Year(), d.Month(), d.Day(), 23, 59, 59, loc)
	return start, end, nil
}

// Format renders instant in the zone named tz.
func Format(instant time.Time, tz, layout string) (string, error) {
	loc, err := Load(tz)
	if err != nil {
		return "", err
	}
	return instant.In(loc).Format(layout), nil
}

// HostClock renders instant as "HH:MM" in loc.
func HostClock(instant time.Time, loc *time.Location) string {
	return instant.In(loc).Format(ClockLayout)
}

func resolve(y int, m time.Month, d, hh, mm, ss int, loc *time.Location) time.Time {
	naive := time.Date(y, m, d, hh, mm, ss, 0, time.UTC)

	var matched, latest time.Time
	for _, probe := range []time.Time{naive.Add(-24 * time.Hour), naive, naive.Add(24 * time.Hour)} {
		_, offset := probe.In(loc).Zone()
		candidate := naive.Add(-time.Duration(offset) * time.Second)
		if latest.IsZero() || candidate.After(latest) {
			latest = candidate
		}
		local := candidate.In(loc)
		ly, lm, ld := local.Date()
		if ly == y && lm == m && ld == d && local.Hour() == hh && local.Minute() == mm && local.Second() == ss {
			if matched.IsZero() || candidate.After(matched) {
				matched = candidate
			}
		}
	}
	if !matched.IsZero() {
		return matched.UTC()
	}
	// skipped wall clock
	return latest.UTC()
}
