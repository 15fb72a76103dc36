package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"booking-service/internal/config"
	"booking-service/internal/logging"
)

const tracerName = "booking-service/internal/booking"

// ErrNoNotifier is returned by Contact when no channel is configured.
var ErrNoNotifier = errors.New("no notification channel configured")

type Deps struct {
	Host     config.Host
	Calendar Calendar
	Notifier Notifier
	Recorder Recorder
	Timeout  time.Duration
	Logger   *slog.Logger
	Now      func() time.Time

	// FollowUpTimeout bounds the post-commit notification and ledger write,
	// and the contact relay.
	FollowUpTimeout time.Duration
}

// Service is the entry point the HTTP layer talks to.
type Service struct {
	host      config.Host
	notifier  Notifier
	logger    *slog.Logger
	slots     *SlotGenerator
	checker   *AvailabilityChecker
	validator *Validator
	committer *Committer
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	slots := NewSlotGenerator(d.Host, d.Now)
	return &Service{
		host:      d.Host,
		notifier:  d.Notifier,
		logger:    logger,
		slots:     slots,
		checker:   NewAvailabilityChecker(d.Host, d.Calendar, slots, d.Timeout, logger),
		validator: NewValidator(d.Host, d.Calendar, slots, d.Timeout, logger),
		committer: NewCommitter(d.Host, d.Calendar, d.Notifier, d.Recorder, d.Timeout, d.FollowUpTimeout, logger),
	}
}

func (s *Service) Host() config.Host { return s.host }

func (s *Service) Availability(ctx context.Context, date, visitorTZ string) ([]TimeSlot, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "booking.availability",
		trace.WithAttributes(
			attribute.String("booking.date", date),
			attribute.String("booking.visitor_tz", visitorTZ),
		),
	)
	defer span.End()

	slots, err := s.checker.GetAvailability(ctx, date, visitorTZ)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("booking.slots", len(slots)))
	return slots, nil
}

// Book validates req and, if it passes, commits it. The returned outcome is
// final; callers map Kind to a status.
func (s *Service) Book(ctx context.Context, req Request) Outcome {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "booking.book",
		trace.WithAttributes(
			attribute.String("booking.meeting_type", string(req.MeetingType)),
			attribute.String("booking.date", req.SelectedDate),
			attribute.String("booking.host_time", req.SelectedTime),
		),
	)
	defer span.End()

	b, err := s.validator.Validate(ctx, req)
	if err != nil {
		span.RecordError(err)
		kind := KindOf(err)
		out := Outcome{Success: false, Kind: kind, Message: kind.Message()}
		var bErr *Error
		if errors.As(err, &bErr) {
			out.Message = bErr.Message
			out.Fields = bErr.Fields
		}
		logging.Or(ctx, s.logger).Info("booking rejected",
			"kind", string(kind),
			"date", req.SelectedDate,
			"host_time", req.SelectedTime,
		)
		return out
	}

	out := s.committer.Commit(ctx, b)
	if !out.Success {
		span.SetAttributes(attribute.String("booking.error_kind", string(out.Kind)))
	} else {
		span.SetAttributes(attribute.String("booking.event_id", out.EventID))
	}
	return out
}

// Wait drains booking follow-ups still in flight. Call it on shutdown.
func (s *Service) Wait(ctx context.Context) error {
	return s.committer.Wait(ctx)
}

// WorkingDates lists the dates a visitor may pick from.
func (s *Service) WorkingDates() []string {
	return s.slots.WorkingDates()
}

// Contact relays a contact form submission to the operator. Unlike booking
// notifications, a delivery failure here is the caller's error.
func (s *Service) Contact(ctx context.Context, msg ContactMessage) error {
	msg = msg.normalized()
	if err := s.validator.shape.Struct(msg); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fieldMessage(fe)
			}
		}
		return &Error{
			Kind:    KindInvalidInput,
			Message: "Name, email, and message are required",
			Fields:  fields,
			Err:     err,
		}
	}
	if s.notifier == nil {
		return newError(KindUnavailable, "Server configuration error", ErrNoNotifier)
	}
	nctx, cancel := context.WithTimeout(ctx, s.committer.followUpTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, msg.Text()); err != nil {
		logging.Or(ctx, s.logger).Error("contact relay failed", "err", err)
		return newError(KindUnavailable, "Failed to send message", err)
	}
	return nil
}
