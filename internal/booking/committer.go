package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"booking-service/internal/config"
	"booking-service/internal/logging"
)

// DefaultFollowUpTimeout bounds each post-commit side effect.
const DefaultFollowUpTimeout = 5 * time.Second

const successMessage = "Meeting scheduled successfully! I will send you a calendar invitation with Google Meet link shortly."

var defaultReminders = []Reminder{
	{Method: "email", Minutes: 24 * 60},
	{Method: "popup", Minutes: 30},
	{Method: "email", Minutes: 60},
}

// Committer writes a validated booking to the host calendar and tells the
// operator about it.
type Committer struct {
	host     config.Host
	calendar Calendar
	notifier Notifier
	recorder Recorder
	timeout  time.Duration
	logger   *slog.Logger

	followUpTimeout time.Duration
	pending         sync.WaitGroup
}

// NewCommitter returns a committer. followUpTimeout bounds the notification
// and the ledger write; zero means DefaultFollowUpTimeout.
func NewCommitter(host config.Host, cal Calendar, notifier Notifier, recorder Recorder, timeout, followUpTimeout time.Duration, logger *slog.Logger) *Committer {
	if followUpTimeout <= 0 {
		followUpTimeout = DefaultFollowUpTimeout
	}
	return &Committer{
		host:            host,
		calendar:        cal,
		notifier:        notifier,
		recorder:        recorder,
		timeout:         timeout,
		logger:          logger,
		followUpTimeout: followUpTimeout,
	}
}

// Commit creates the event. Create is attempted once. Once it succeeds the
// outcome is final: the notification and the ledger write run in the
// background and their failures are only logged.
func (c *Committer) Commit(ctx context.Context, b Booking) Outcome {
	log := logging.Or(ctx, c.logger)

	created, err := c.create(ctx, c.eventFor(b))
	if err != nil {
		kind := classifyProviderError(err)
		log.Error("calendar create failed",
			"kind", string(kind),
			"date", b.Request.SelectedDate,
			"host_time", b.HostTime,
			"err", err,
		)
		return Outcome{Success: false, Kind: kind, Message: kind.Message()}
	}

	log.Info("booking committed",
		"event_id", created.ID,
		"meeting_type", string(b.Request.MeetingType),
		"start", b.Start.Format(time.RFC3339),
	)

	if c.notifier != nil || c.recorder != nil {
		c.pending.Add(1)
		go c.followUp(context.WithoutCancel(ctx), b, created.ID)
	}

	return Outcome{Success: true, EventID: created.ID, Message: successMessage}
}

// followUp runs detached from the request; each step gets its own deadline.
func (c *Committer) followUp(ctx context.Context, b Booking, eventID string) {
	defer c.pending.Done()
	log := logging.Or(ctx, c.logger)

	if c.notifier != nil {
		nctx, cancel := context.WithTimeout(ctx, c.followUpTimeout)
		err := c.notifier.Notify(nctx, NotificationText(b, c.host))
		cancel()
		if err != nil {
			log.Warn("booking notification failed", "event_id", eventID, "err", err)
		}
	}
	if c.recorder != nil {
		rctx, cancel := context.WithTimeout(ctx, c.followUpTimeout)
		err := c.recorder.Record(rctx, c.receipt(b, eventID))
		cancel()
		if err != nil {
			log.Warn("booking ledger write failed", "event_id", eventID, "err", err)
		}
	}
}

// Wait blocks until every started follow-up has finished or ctx is done.
func (c *Committer) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Committer) create(ctx context.Context, ev NewEvent) (Event, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.calendar.CreateEvent(ctx, c.host.CalendarID, ev)
}

func (c *Committer) eventFor(b Booking) NewEvent {
	reminders := make([]Reminder, len(defaultReminders))
	copy(reminders, defaultReminders)
	return NewEvent{
		Summary:     fmt.Sprintf("%s with %s", b.Request.MeetingType.Label(), b.Request.Name),
		Description: eventDescription(b),
		Start:       b.Start.UTC(),
		End:         b.End.UTC(),
		TimeZone:    c.host.Timezone,
		Reminders:   reminders,
	}
}

func (c *Committer) receipt(b Booking, eventID string) Receipt {
	return Receipt{
		EventID:      eventID,
		Name:         b.Request.Name,
		Email:        b.Request.Email,
		MeetingType:  b.Request.MeetingType,
		Message:      b.Request.Message,
		Start:        b.Start.UTC(),
		End:          b.End.UTC(),
		HostTimezone: c.host.Timezone,
	}
}

func eventDescription(b Booking) string {
	var sb strings.Builder
	sb.WriteString("Meeting Details:\n")
	fmt.Fprintf(&sb, "- Type: %s\n", b.Request.MeetingType.Label())
	fmt.Fprintf(&sb, "- Duration: %d minutes\n", int(b.Duration/time.Minute))
	fmt.Fprintf(&sb, "- Client: %s\n", b.Request.Name)
	fmt.Fprintf(&sb, "- Email: %s\n", b.Request.Email)
	if b.Request.Message != "" {
		sb.WriteString("\nAdditional Message:\n")
		sb.WriteString(b.Request.Message)
		sb.WriteString("\n")
	}
	sb.WriteString("\nNext Steps:\n")
	sb.WriteString("1. Send a calendar invitation to the client\n")
	sb.WriteString("2. Include a video call link\n")
	return strings.TrimSpace(sb.String())
}

// NotificationText is the operator message sent after a booking commits.
// Times are shown in the host zone.
func NotificationText(b Booking, host config.Host) string {
	local := b.Start.In(host.Location)
	var sb strings.Builder
	sb.WriteString("NEW BOOKING\n\n")
	sb.WriteString("Meeting Details:\n")
	fmt.Fprintf(&sb, "- Type: %s\n", b.Request.MeetingType.Label())
	fmt.Fprintf(&sb, "- Date: %s\n", local.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&sb, "- Time: %s (%s)\n", local.Format("15:04"), host.Timezone)
	fmt.Fprintf(&sb, "- Duration: %d minutes\n", int(b.Duration/time.Minute))
	sb.WriteString("\nClient Information:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", b.Request.Name)
	fmt.Fprintf(&sb, "- Email: %s\n", b.Request.Email)
	if b.Request.Message != "" {
		sb.WriteString("\nMessage:\n")
		sb.WriteString(b.Request.Message)
		sb.WriteString("\n")
	}
	sb.WriteString("\nAction Required:\n")
	sb.WriteString("1. Check the calendar, the event has been created\n")
	fmt.Fprintf(&sb, "2. Send a calendar invitation to %s with the meeting link\n", b.Request.Email)
	return strings.TrimSpace(sb.String())
}
