package domain

import "time"

// NotificationKind classifies account lifecycle events.
type NotificationKind string

const (
	NotificationAccountCreated NotificationKind = "account_created"
	NotificationAccountUpdated NotificationKind = "account_updated"
	NotificationAccountDeleted NotificationKind = "account_deleted"
)

// UnknownUsername is used in notices when the username of a removed account
// could not be recovered.
const UnknownUsername = "[unknown]"

// Notification is a human-readable account lifecycle event.
type Notification struct {
	ID        string
	Kind      NotificationKind
	Recipient string
	Subject   string
	Body      string
	CreatedAt time.Time
}
