package notify

import (
	"context"
	"errors"
)

// Notifier matches booking.Notifier.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Multi sends to every channel and joins the failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
