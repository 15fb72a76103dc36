package booking

import (
	"context"
	"log/slog"
	"time"

	"booking-service/internal/config"
	"booking-service/internal/logging"
	"booking-service/internal/timezone"
)

// AvailabilityChecker marks each candidate slot of a date as free or taken
// against the host calendar.
type AvailabilityChecker struct {
	host     config.Host
	calendar Calendar
	slots    *SlotGenerator
	timeout  time.Duration
	logger   *slog.Logger
}

func NewAvailabilityChecker(host config.Host, cal Calendar, slots *SlotGenerator, timeout time.Duration, logger *slog.Logger) *AvailabilityChecker {
	return &AvailabilityChecker{
		host:     host,
		calendar: cal,
		slots:    slots,
		timeout:  timeout,
		logger:   logger,
	}
}

// GetAvailability returns the bookable slots of date. Display strings are
// rendered in visitorTZ, or UTC when it cannot be resolved.
//
// Reads fail open: if the calendar cannot be read every candidate is reported
// available and the booking path catches real conflicts.
func (a *AvailabilityChecker) GetAvailability(ctx context.Context, date, visitorTZ string) ([]TimeSlot, error) {
	candidates, err := a.slots.Candidates(date)
	if err != nil {
		return nil, &Error{
			Kind:    KindInvalidInput,
			Message: "Date must be formatted as YYYY-MM-DD.",
			Fields:  map[string]string{"date": "must be YYYY-MM-DD"},
			Err:     err,
		}
	}
	if len(candidates) == 0 {
		return []TimeSlot{}, nil
	}

	events, readErr := a.dayEvents(ctx, date)
	if readErr != nil {
		logging.Or(ctx, a.logger).Warn("availability read failed, reporting all slots open",
			"date", date,
			"calendar_id", a.host.CalendarID,
			"err", readErr,
		)
	}

	display, _ := timezone.DisplayZone(visitorTZ)
	out := make([]TimeSlot, 0, len(candidates))
	for _, c := range candidates {
		busy := false
		if readErr == nil {
			_, busy = conflicting(c.Start, c.End, events)
		}
		out = append(out, TimeSlot{
			HostTime:    c.HostTime,
			DisplayTime: c.Start.In(display).Format(timezone.DisplayLayout),
			Available:   !busy,
		})
	}
	return out, nil
}

func (a *AvailabilityChecker) dayEvents(ctx context.Context, date string) ([]Event, error) {
	dayStart, dayEnd, err := timezone.DayBounds(date, a.host.Location)
	if err != nil {
		return nil, err
	}
	return listWithTimeout(ctx, a.calendar, a.host.CalendarID, dayStart, dayEnd, a.timeout)
}

func listWithTimeout(ctx context.Context, cal Calendar, calendarID string, from, to time.Time, timeout time.Duration) ([]Event, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return cal.ListEvents(ctx, calendarID, from, to)
}
