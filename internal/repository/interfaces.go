package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/studentevent/api/internal/domain"
)

// EventRepository defines the interface for event data access
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, filter *domain.EventFilter, limit int) ([]*domain.Event, error)
	// ClaimSlot increments claimed_count only while the event is active
	// and below capacity. Returns false when no row qualified.
	ClaimSlot(ctx context.Context, tx pgx.Tx, eventID string) (bool, error)
	// ReleaseSlot decrements claimed_count, never below zero.
	ReleaseSlot(ctx context.Context, tx pgx.Tx, eventID string) error
	Cancel(ctx context.Context, tx pgx.Tx, eventID, reason string) error
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	Create(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error
	GetByToken(ctx context.Context, token string) (*domain.Ticket, error)
	// ListByUser returns the user's tickets joined with their events
	ListByUser(ctx context.Context, userID string) ([]*domain.UserTicket, error)
	DeleteByUserAndEvent(ctx context.Context, tx pgx.Tx, userID, eventID string) (bool, error)
	// CheckIn transitions a claimed ticket to checked_in. Returns the
	// updated ticket, or false when the ticket was not in claimed state.
	CheckIn(ctx context.Context, token string) (*domain.Ticket, bool, error)
	ListAttendees(ctx context.Context, eventID string) ([]*domain.Attendee, error)
	// CancelByEvent marks every non-checked-in ticket of the event as
	// cancelled and returns the affected user IDs.
	CancelByEvent(ctx context.Context, tx pgx.Tx, eventID string) ([]string, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Ensure upserts the user row from a verified identity
	Ensure(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// NotificationQueue is the outbound queue for notification jobs
type NotificationQueue interface {
	Enqueue(ctx context.Context, n *domain.Notification) error
	// Dequeue blocks up to the queue's poll timeout. Returns nil when
	// the timeout elapsed with no job available.
	Dequeue(ctx context.Context) (*domain.Notification, error)
	Close() error
}

// DeadNotification records a notification that exhausted its delivery
// retries, together with the failure context needed to replay it.
type DeadNotification struct {
	Notification *domain.Notification `json:"notification"`
	Error        string               `json:"error"`
	Attempts     int                  `json:"attempts"`
	DroppedAt    time.Time            `json:"dropped_at"`
}

// DeadLetterSink receives notifications the worker gave up on
type DeadLetterSink interface {
	EnqueueDead(ctx context.Context, dead *DeadNotification) error
}
