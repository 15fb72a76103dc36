package booking

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// ErrorKind is the small taxonomy every booking failure is reduced to.
type ErrorKind string

const (
	KindInvalidInput     ErrorKind = "invalid_input"
	KindTooSoon          ErrorKind = "too_soon"
	KindSlotConflict     ErrorKind = "slot_conflict"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindRateLimited      ErrorKind = "rate_limited"
	KindUnavailable      ErrorKind = "unavailable"
	KindInvalidTimezone  ErrorKind = "invalid_timezone"
	KindUnknown          ErrorKind = "unknown"
)

// HTTPStatus maps the kind onto the status code returned to visitors.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindInvalidInput, KindTooSoon, KindInvalidTimezone:
		return http.StatusBadRequest
	case KindSlotConflict:
		return http.StatusConflict
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message is the visitor-facing text for the kind. It never contains provider
// details.
func (k ErrorKind) Message() string {
	switch k {
	case KindInvalidInput:
		return "Please check the booking details and try again."
	case KindTooSoon:
		return "That time is too soon to book. Please pick a later slot."
	case KindSlotConflict:
		return "This time slot was just booked. Please pick another one."
	case KindPermissionDenied:
		return "The booking calendar is not accepting new meetings right now. Please use the contact form instead."
	case KindRateLimited:
		return "Too many booking requests right now. Please try again in a few minutes."
	case KindUnavailable:
		return "The calendar service is temporarily unavailable. Please try again shortly."
	case KindInvalidTimezone:
		return "The selected timezone is not recognised."
	default:
		return "Failed to schedule meeting. Please try again or contact support."
	}
}

// Adapters wrap provider failures with these so the committer can classify
// them without knowing the provider.
var (
	ErrProviderPermission  = errors.New("calendar provider: permission denied")
	ErrProviderRateLimited = errors.New("calendar provider: rate limited")
	ErrProviderUnavailable = errors.New("calendar provider: unavailable")
)

// Error is a classified booking failure.
type Error struct {
	Kind    ErrorKind
	Message string
	// Fields holds per-field problems for KindInvalidInput, keyed by JSON name.
	Fields map[string]string
	Err    error
}

func newError(kind ErrorKind, message string, err error) *Error {
	if message == "" {
		message = kind.Message()
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the kind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Kind
	}
	return KindUnknown
}

// classifyProviderError maps a failed provider write onto the taxonomy.
func classifyProviderError(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProviderPermission):
		return KindPermissionDenied
	case errors.Is(err, ErrProviderRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnavailable
	}
	return KindUnknown
}
