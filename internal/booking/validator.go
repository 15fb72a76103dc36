package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"booking-service/internal/config"
	"booking-service/internal/logging"
	"booking-service/internal/timezone"
)

// Validator is the authoritative check a booking request passes before it is
// written. It holds no state between calls.
type Validator struct {
	host     config.Host
	calendar Calendar
	slots    *SlotGenerator
	timeout  time.Duration
	logger   *slog.Logger
	shape    *validator.Validate
}

func NewValidator(host config.Host, cal Calendar, slots *SlotGenerator, timeout time.Duration, logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{
		host:     host,
		calendar: cal,
		slots:    slots,
		timeout:  timeout,
		logger:   logger,
		shape:    v,
	}
}

// Validate returns the resolved booking, or an *Error of kind InvalidInput,
// TooSoon or SlotConflict. Checks stop at the first failing stage.
func (v *Validator) Validate(ctx context.Context, req Request) (Booking, error) {
	req = req.normalized()

	if err := v.checkShape(req); err != nil {
		return Booking{}, err
	}

	day, _ := timezone.ParseDate(req.SelectedDate)
	clock, _ := timezone.ParseClock(req.SelectedTime)
	start := timezone.At(day, clock, v.host.Location)
	duration := req.MeetingType.Duration()
	b := Booking{
		Request:  req,
		HostTime: clock.String(),
		Start:    start,
		End:      start.Add(duration),
		Duration: duration,
	}

	if !v.slots.Eligible(start) {
		return Booking{}, newError(KindTooSoon,
			fmt.Sprintf("Bookings need at least %s notice. Please pick a later slot.", leadText(v.host.MinimumLead())), nil)
	}

	if err := v.recheck(ctx, b); err != nil {
		return Booking{}, err
	}
	return b, nil
}

func (v *Validator) checkShape(req Request) error {
	fields := map[string]string{}
	if err := v.shape.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return newError(KindInvalidInput, "", err)
		}
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = fieldMessage(fe)
			}
		}
	}

	// Only a well-formed time can be placed on the grid.
	if _, bad := fields["selectedDate"]; !bad {
		if _, bad := fields["selectedTime"]; !bad {
			_, dErr := timezone.ParseDate(req.SelectedDate)
			clock, cErr := timezone.ParseClock(req.SelectedTime)
			switch {
			case dErr != nil:
				fields["selectedDate"] = "must be YYYY-MM-DD"
			case cErr != nil:
				fields["selectedTime"] = "must be HH:MM"
			case !v.slots.OnGrid(clock):
				fields["selectedTime"] = "is not an offered time slot"
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindInvalidInput,
		Message: invalidInputMessage(fields),
		Fields:  fields,
	}
}

// recheck reads the calendar again right before the write. A failed read does
// not block the booking.
func (v *Validator) recheck(ctx context.Context, b Booking) error {
	from, to, err := timezone.DayBounds(b.Request.SelectedDate, v.host.Location)
	if err != nil {
		return newError(KindInvalidInput, "", err)
	}
	if b.End.After(to) {
		to = b.End
	}
	events, err := listWithTimeout(ctx, v.calendar, v.host.CalendarID, from, to, v.timeout)
	if err != nil {
		logging.Or(ctx, v.logger).Warn("conflict re-check failed, proceeding with booking",
			"date", b.Request.SelectedDate,
			"host_time", b.HostTime,
			"err", err,
		)
		return nil
	}
	if ev, busy := conflicting(b.Start, b.End, events); busy {
		return &Error{
			Kind:    KindSlotConflict,
			Message: KindSlotConflict.Message(),
			Err:     fmt.Errorf("overlaps event %q", ev.ID),
		}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		if fe.Param() == timezone.ClockLayout {
			return "must be HH:MM"
		}
		return "must be YYYY-MM-DD"
	default:
		return "is invalid"
	}
}

var fieldOrder = []string{"name", "email", "selectedDate", "selectedTime", "meetingType", "message"}

func invalidInputMessage(fields map[string]string) string {
	for _, name := range fieldOrder {
		if msg, ok := fields[name]; ok {
			return fmt.Sprintf("%s %s.", name, msg)
		}
	}
	return KindInvalidInput.Message()
}

func leadText(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
