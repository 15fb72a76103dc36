package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"booking-service/internal/booking"
	"booking-service/internal/ledger"
	"booking-service/internal/logging"
	"booking-service/internal/timezone"
)

// VisitorTimezoneHeader is set by the hosting edge with the visitor's
// geolocated zone.
const VisitorTimezoneHeader = "X-Vercel-IP-Timezone"

var diagnosticZones = []string{"UTC", "Europe/Kyiv", "America/New_York"}

// GET /api/book?date=YYYY-MM-DD[&tz=Zone]
func (a *App) GetAvailabilityHandler(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Date parameter required", Kind: booking.KindInvalidInput})
		return
	}
	visitorTZ := visitorTimezone(c)

	slots, err := a.Booking.Availability(c.Request.Context(), date, visitorTZ)
	if err != nil {
		writeError(c, err)
		return
	}
	_, display := timezone.DisplayZone(visitorTZ)
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, availabilityResponse{
		TimeSlots:       slots,
		HostTimezone:    a.Booking.Host().Timezone,
		DisplayTimezone: display,
	})
}

// POST /api/book
func (a *App) CreateBookingHandler(c *gin.Context) {
	var req booking.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Kind: booking.KindInvalidInput})
		return
	}

	out := a.Booking.Book(c.Request.Context(), req)
	if !out.Success {
		c.JSON(out.Kind.HTTPStatus(), errorResponse{Error: out.Message, Kind: out.Kind, Fields: out.Fields})
		return
	}
	c.JSON(http.StatusCreated, bookingResponse{
		Success: true,
		EventID: out.EventID,
		Message: out.Message,
	})
}

// GET /api/book/dates
func (a *App) ListDatesHandler(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, datesResponse{
		Dates:        a.Booking.WorkingDates(),
		HostTimezone: a.Booking.Host().Timezone,
	})
}

// POST /api/contact
func (a *App) ContactHandler(c *gin.Context) {
	var msg booking.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Kind: booking.KindInvalidInput})
		return
	}
	if err := a.Booking.Contact(c.Request.Context(), msg); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /api/timezone
func (a *App) TimezoneHandler(c *gin.Context) {
	host := a.Booking.Host()
	now := a.now()
	visitorTZ := visitorTimezone(c)

	zones := append([]string{}, diagnosticZones...)
	zones = append(zones, host.Timezone)
	if visitorTZ != "" {
		zones = append(zones, visitorTZ)
	}
	formatted := make(map[string]string, len(zones))
	for _, tz := range zones {
		s, err := timezone.Format(now, tz, timezone.DiagnosticLayout)
		if err != nil {
			s = "Error"
		}
		formatted[tz] = s
	}

	check := conversionCheck{HostWallClock: "2025-08-25 09:00", HostTimezone: host.Timezone}
	if utc, err := timezone.WallClockToUTC("2025-08-25", "09:00", host.Location); err == nil {
		check.UTC = utc.Format(time.RFC3339)
		check.RoundTrip = utc.In(host.Location).Format(timezone.DateLayout + " " + timezone.ClockLayout)
		check.Consistent = check.RoundTrip == check.HostWallClock
	}

	c.Header("Cache-Control", "no-store, max-age=0")
	c.JSON(http.StatusOK, timezoneReport{
		HostTimezone:    host.Timezone,
		Approximate:     host.Approximate,
		VisitorTimezone: visitorTZ,
		VisitorValid:    timezone.IsValid(visitorTZ),
		NowUTC:          now.UTC().Format(time.RFC3339),
		FormattedTimes:  formatted,
		ConversionTest:  check,
	})
}

// GET /api/admin/bookings?from=ISO&to=ISO
func (a *App) ListBookingsHandler(c *gin.Context) {
	if a.Ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking ledger not configured"})
		return
	}
	fromStr := c.Query("from")
	toStr := c.Query("to")

	var from, to time.Time
	if fromStr == "" && toStr == "" {
		from = a.now().UTC().Truncate(24 * time.Hour)
		to = from.Add(30 * 24 * time.Hour)
	} else {
		var err error
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
	}

	entries, err := a.Ledger.ListInRange(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logging.Or(c.Request.Context(), a.logger()).Error("list bookings failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": entries, "count": len(entries)})
}

func (a *App) HealthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *App) ReadyzHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(a.Checks))
	for name, check := range a.Checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	c.JSON(status, gin.H{"checks": results})
}

func visitorTimezone(c *gin.Context) string {
	if tz := strings.TrimSpace(c.Query("tz")); tz != "" {
		return tz
	}
	return strings.TrimSpace(c.GetHeader(VisitorTimezoneHeader))
}

func writeError(c *gin.Context, err error) {
	kind := booking.KindOf(err)
	resp := errorResponse{Error: kind.Message(), Kind: kind}
	var bErr *booking.Error
	if errors.As(err, &bErr) {
		resp.Error = bErr.Message
		resp.Fields = bErr.Fields
	}
	c.JSON(kind.HTTPStatus(), resp)
}
