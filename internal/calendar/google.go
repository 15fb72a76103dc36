// Package calendar adapts the Google Calendar v3 API to booking.Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"booking-service/internal/booking"
	"booking-service/internal/config"
	"booking-service/internal/timezone"
)

const maxResults = 250

// Provider talks to one Google account through a service account.
type Provider struct {
	srv  *gcal.Service
	host *time.Location
}

// New builds a provider authenticated with the service-account credentials in
// cfg. All-day events are interpreted in host.
func New(ctx context.Context, cfg config.Google, host *time.Location) (*Provider, error) {
	conf, err := jwtConfig(cfg)
	if err != nil {
		return nil, err
	}
	// token fetches and API calls share the instrumented transport
	base := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	client := conf.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	return NewWithOptions(ctx, host, option.WithHTTPClient(client))
}

// NewWithOptions builds a provider from raw client options.
func NewWithOptions(ctx context.Context, host *time.Location, opts ...option.ClientOption) (*Provider, error) {
	if host == nil {
		return nil, timezone.ErrInvalidTimezone
	}
	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Provider{srv: srv, host: host}, nil
}

func jwtConfig(cfg config.Google) (*jwt.Config, error) {
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		conf, err := google.JWTConfigFromJSON(data, gcal.CalendarScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials file: %w", err)
		}
		return conf, nil
	}
	if cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return nil, errors.New("google service account credentials not configured")
	}
	return &jwt.Config{
		Email:        cfg.ClientEmail,
		PrivateKey:   []byte(cfg.PrivateKey),
		PrivateKeyID: cfg.PrivateKeyID,
		Scopes:       []string{gcal.CalendarScope},
		TokenURL:     google.Endpoint.TokenURL,
	}, nil
}

// ListEvents returns the expanded single events overlapping [timeMin, timeMax].
func (p *Provider) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]booking.Event, error) {
	call := p.srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		TimeMin(timeMin.UTC().Format(time.RFC3339)).
		TimeMax(timeMax.UTC().Format(time.RFC3339))

	var out []booking.Event
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			ev, ok := p.convert(item)
			if !ok {
				continue
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", classify(err))
	}
	return out, nil
}

// CreateEvent inserts ev with its reminder overrides.
func (p *Provider) CreateEvent(ctx context.Context, calendarID string, ev booking.NewEvent) (booking.Event, error) {
	overrides := make([]*gcal.EventReminder, 0, len(ev.Reminders))
	for _, r := range ev.Reminders {
		overrides = append(overrides, &gcal.EventReminder{Method: r.Method, Minutes: int64(r.Minutes)})
	}
	payload := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.UTC().Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.UTC().Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		Reminders: &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := p.srv.Events.Insert(calendarID, payload).Context(ctx).Do()
	if err != nil {
		return booking.Event{}, fmt.Errorf("insert event: %w", classify(err))
	}
	out, ok := p.convert(created)
	if !ok {
		out = booking.Event{ID: created.Id, Summary: created.Summary, Start: ev.Start, End: ev.End, Status: created.Status}
	}
	return out, nil
}

func (p *Provider) convert(item *gcal.Event) (booking.Event, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return booking.Event{}, false
	}
	start, allDay, err := p.parseWhen(item.Start)
	if err != nil {
		return booking.Event{}, false
	}
	end, _, err := p.parseWhen(item.End)
	if err != nil {
		return booking.Event{}, false
	}
	return booking.Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Status:      item.Status,
		Transparent: item.Transparency == "transparent",
	}, true
}

// parseWhen reads a timed or all-day boundary. All-day dates are midnight in
// the host zone; Google's end date is already exclusive.
func (p *Provider) parseWhen(dt *gcal.EventDateTime) (time.Time, bool, error) {
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.UTC(), false, nil
	}
	if dt.Date != "" {
		d, err := timezone.ParseDate(dt.Date)
		if err != nil {
			return time.Time{}, true, err
		}
		return timezone.At(d, timezone.Clock{}, p.host), true, nil
	}
	return time.Time{}, false, errors.New("event time missing")
}
