package domain

import "time"

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	TicketStatusClaimed   TicketStatus = "claimed"
	TicketStatusCheckedIn TicketStatus = "checked_in"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// Ticket is one claimed slot for a (user, event) pair. Token is the
// opaque value embedded in the QR code and the sole verification key.
type Ticket struct {
	ID          string
	UserID      string
	EventID     string
	Token       string
	Status      TicketStatus
	ClaimedAt   time.Time
	CheckedInAt *time.Time
}

// CanCheckIn reports whether a scan may transition the ticket to
// checked_in. Only claimed tickets transition; checked_in and
// cancelled are terminal.
func (t *Ticket) CanCheckIn() bool {
	return t.Status == TicketStatusClaimed
}

// UserTicket is a ticket joined with its event, as listed to the holder
type UserTicket struct {
	Ticket
	Event Event
}

// Attendee is a ticket joined with its holder, as shown to organizers
type Attendee struct {
	TicketID    string
	UserID      string
	Name        string
	Email       string
	Status      TicketStatus
	ClaimedAt   time.Time
	CheckedInAt *time.Time
}
