package booking

import (
	"context"
	"strings"
	"time"
)

type MeetingType string

const (
	MeetingConsultation      MeetingType = "consultation"
	MeetingProjectDiscussion MeetingType = "project-discussion"
	MeetingTechnicalReview   MeetingType = "technical-review"
)

type meetingSpec struct {
	label    string
	duration time.Duration
}

var meetingTypes = map[MeetingType]meetingSpec{
	MeetingConsultation:      {label: "Initial Consultation", duration: 30 * time.Minute},
	MeetingProjectDiscussion: {label: "Project Discussion", duration: 60 * time.Minute},
	MeetingTechnicalReview:   {label: "Technical Review", duration: 45 * time.Minute},
}

func (m MeetingType) Valid() bool {
	_, ok := meetingTypes[m]
	return ok
}

func (m MeetingType) Label() string {
	if spec, ok := meetingTypes[m]; ok {
		return spec.label
	}
	return string(m)
}

// Duration is decided here and nowhere else; clients cannot pick it.
func (m MeetingType) Duration() time.Duration {
	return meetingTypes[m].duration
}

// Request is a visitor's booking submission. SelectedTime is a host-timezone
// wall clock; any display string the client rendered is not part of it.
type Request struct {
	Name         string      `json:"name" validate:"required,min=2,max=100"`
	Email        string      `json:"email" validate:"required,email,max=254"`
	SelectedDate string      `json:"selectedDate" validate:"required,datetime=2006-01-02"`
	SelectedTime string      `json:"selectedTime" validate:"required,datetime=15:04"`
	MeetingType  MeetingType `json:"meetingType" validate:"required,oneof=consultation project-discussion technical-review"`
	Message      string      `json:"message,omitempty" validate:"max=2000"`
}

func (r Request) normalized() Request {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.SelectedDate = strings.TrimSpace(r.SelectedDate)
	r.SelectedTime = strings.TrimSpace(r.SelectedTime)
	r.MeetingType = MeetingType(strings.TrimSpace(string(r.MeetingType)))
	r.Message = strings.TrimSpace(r.Message)
	return r
}

// TimeSlot is one bookable start on a date. HostTime is its identity;
// DisplayTime is regenerated on every read and only meant for rendering.
type TimeSlot struct {
	HostTime    string `json:"hostTime"`
	DisplayTime string `json:"displayTime,omitempty"`
	Available   bool   `json:"available"`
}

// Event is an entry in the host's calendar as seen through the provider.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Status      string
	Transparent bool
}

// Blocks reports whether the event makes overlapping slots unavailable.
// Cancelled events and events marked free do not.
func (e Event) Blocks() bool {
	return e.Status != "cancelled" && !e.Transparent
}

type Reminder struct {
	Method  string
	Minutes int
}

// NewEvent is the payload handed to the provider when a booking commits.
type NewEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// TimeZone is the host zone name so the provider UI shows host-local times.
	TimeZone  string
	Reminders []Reminder
}

// Booking is a request that passed validation, with its instants resolved.
type Booking struct {
	Request  Request
	HostTime string
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Outcome is what a booking attempt returns to the caller.
type Outcome struct {
	Success bool              `json:"success"`
	EventID string            `json:"eventId,omitempty"`
	Kind    ErrorKind         `json:"errorKind,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Receipt is what the ledger keeps about a committed booking.
type Receipt struct {
	EventID      string
	Name         string
	Email        string
	MeetingType  MeetingType
	Message      string
	Start        time.Time
	End          time.Time
	HostTimezone string
}

// Calendar is the external calendar provider.
type Calendar interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, calendarID string, event NewEvent) (Event, error)
}

// Notifier delivers a text message to the operator. Best effort.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Recorder keeps an audit trail of committed bookings. Best effort; the
// calendar stays the source of truth.
type Recorder interface {
	Record(ctx context.Context, r Receipt) error
}
