package notifier

import (
	"context"
	"errors"
)

// ErrDelivery indicates the email could not be handed to the provider.
// Callers decide whether that rolls back work (registration) or simply
// surfaces (resend); delivery is never retried automatically.
var ErrDelivery = errors.New("failed to send email")

// Notifier dispatches a single email. Implementations must bound the
// network call with a timeout.
type Notifier interface {
	Send(ctx context.Context, to, subject, text, html string) error
}
