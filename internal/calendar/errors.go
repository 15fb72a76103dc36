package calendar

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"booking-service/internal/booking"
)

var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
}

// classify tags err with the booking sentinel matching the failure. Errors it
// does not recognise are returned unchanged.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", booking.ErrProviderRateLimited, err)
		case apiErr.Code == http.StatusForbidden && hasRateLimitReason(apiErr):
			return fmt.Errorf("%w: %v", booking.ErrProviderRateLimited, err)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", booking.ErrProviderPermission, err)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %v", booking.ErrProviderUnavailable, err)
		}
		return err
	}

	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		if tokenErr.Response != nil && tokenErr.Response.StatusCode >= 500 {
			return fmt.Errorf("%w: %v", booking.ErrProviderUnavailable, err)
		}
		return fmt.Errorf("%w: %v", booking.ErrProviderPermission, err)
	}
	return err
}

func hasRateLimitReason(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if rateLimitReasons[item.Reason] {
			return true
		}
	}
	return false
}
