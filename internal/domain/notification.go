package domain

import "time"

// NotificationKind identifies the template a notification renders with
type NotificationKind string

const (
	NotificationTicketClaimed   NotificationKind = "ticket_claimed"
	NotificationTicketUnclaimed NotificationKind = "ticket_unclaimed"
	NotificationTicketRemoved   NotificationKind = "ticket_removed"
	NotificationEventCancelled  NotificationKind = "event_cancelled"
)

// Notification is a queued delivery job. It carries everything the
// worker needs so delivery never reads back from the database.
type Notification struct {
	ID         string           `json:"id"`
	Kind       NotificationKind `json:"kind"`
	UserID     string           `json:"userId"`
	Email      string           `json:"email"`
	EventID    string           `json:"eventId"`
	EventTitle string           `json:"eventTitle"`
	Reason     string           `json:"reason,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}
