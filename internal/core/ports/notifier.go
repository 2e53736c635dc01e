package ports

import (
	"context"

	"github.com/99minutos/account-system/internal/core/domain"
)

// Notifier accepts lifecycle events for best-effort delivery. Implementations
// must not block on the actual transport.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// NotificationSink is the transport that actually delivers a message (mail,
// webhook, log).
type NotificationSink interface {
	Deliver(ctx context.Context, recipient, subject, body string) error
}
