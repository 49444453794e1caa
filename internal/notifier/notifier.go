// Package notifier defines the interface for outbound notification
// delivery backends.
package notifier

import (
	"context"
	"errors"

	"github.com/jizi-network/s2d/internal/mail"
)

// ErrInvalidEndpoint reports that the destination endpoint URL could
// not be resolved into a usable webhook handle. Backends wrap this
// sentinel so the handler can distinguish a bad endpoint from a failed
// delivery.
var ErrInvalidEndpoint = errors.New("invalid webhook endpoint")

// Notifier is the interface that notification delivery backends must
// implement. Each backend delivers a built notification to one
// endpoint; delivery is synchronous and never retried here.
type Notifier interface {
	// Notify delivers the notification to the endpoint URL.
	// It returns an error wrapping ErrInvalidEndpoint when the
	// endpoint itself is unusable, or another error when the
	// delivery fails.
	Notify(ctx context.Context, endpoint string, n *mail.Notification) error

	// Name returns the human-readable name of this backend.
	Name() string
}
