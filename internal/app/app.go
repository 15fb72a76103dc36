// Package app exposes the booking service over HTTP.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"booking-service/internal/booking"
	"booking-service/internal/config"
	"booking-service/internal/ledger"
	"booking-service/internal/logging"
	"booking-service/internal/ratelimit"
)

// BookingLister is the read side of the booking ledger.
type BookingLister interface {
	ListInRange(ctx context.Context, from, to time.Time) ([]ledger.Entry, error)
}

type App struct {
	Booking *booking.Service
	// Ledger is nil when no database is configured.
	Ledger BookingLister
	Logger *slog.Logger
	// Checks run on /readyz, keyed by dependency name.
	Checks map[string]func(context.Context) error
	Now    func() time.Time
}

type RouterOptions struct {
	Admin         config.Admin
	Limiter       ratelimit.Limiter
	LimitFailOpen bool
	BodyLimit     int64
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return logging.Discard()
	}
	return a.Logger
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(a *App, opts RouterOptions) *gin.Engine {
	logger := a.logger()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID(logger))
	router.Use(AccessLog(logger))

	router.GET("/healthz", a.HealthzHandler)
	router.GET("/readyz", a.ReadyzHandler)

	api := router.Group("/api")
	api.Use(BodyLimit(opts.BodyLimit))
	{
		limited := []gin.HandlerFunc{}
		if opts.Limiter != nil {
			limited = append(limited, ratelimit.Middleware(opts.Limiter, logger, opts.LimitFailOpen, booking.KindRateLimited.Message()))
		}

		book := api.Group("/book")
		{
			book.GET("", a.GetAvailabilityHandler)
			book.POST("", append(limited, a.CreateBookingHandler)...)
			book.GET("/dates", a.ListDatesHandler)
		}
		api.POST("/contact", append(limited, a.ContactHandler)...)
		api.GET("/timezone", a.TimezoneHandler)

		admin := api.Group("/admin")
		admin.Use(AuthMiddleware(opts.Admin))
		{
			admin.GET("/bookings", a.ListBookingsHandler)
		}
	}

	return router
}
