package app

import "booking-service/internal/booking"

type availabilityResponse struct {
	TimeSlots       []booking.TimeSlot `json:"timeSlots"`
	HostTimezone    string             `json:"hostTimezone"`
	DisplayTimezone string             `json:"displayTimezone"`
}

type bookingResponse struct {
	Success bool   `json:"success"`
	EventID string `json:"eventId"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Kind   booking.ErrorKind `json:"errorKind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type datesResponse struct {
	Dates        []string `json:"dates"`
	HostTimezone string   `json:"hostTimezone"`
}

type conversionCheck struct {
	HostWallClock string `json:"hostWallClock"`
	HostTimezone  string `json:"hostTimezone"`
	UTC           string `json:"utc"`
	RoundTrip     string `json:"roundTrip"`
	Consistent    bool   `json:"consistent"`
}

type timezoneReport struct {
	HostTimezone    string            `json:"hostTimezone"`
	Approximate     bool              `json:"approximate"`
	VisitorTimezone string            `json:"visitorTimezone"`
	VisitorValid    bool              `json:"visitorValid"`
	NowUTC          string            `json:"nowUtc"`
	FormattedTimes  map[string]string `json:"formattedTimes"`
	ConversionTest  conversionCheck   `json:"conversionTest"`
}
