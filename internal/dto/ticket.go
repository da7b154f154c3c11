package dto

import (
	"time"

	"github.com/studentevent/api/internal/domain"
)

// ClaimTicketResponse is returned after a successful claim
type ClaimTicketResponse struct {
	TicketID  string `json:"ticketId"`
	EventID   string `json:"eventId"`
	Token     string `json:"token"`
	VerifyURL string `json:"verifyUrl"`
	QRImage   string `json:"qrImage"`
}

// UserSummary is the attendee identity embedded in verification payloads
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// VerifyTicketResponse describes the outcome of scanning a ticket.
// Valid reports whether the token matched a non-cancelled ticket;
// Status carries the event window state (not_started, active, expired)
// and TicketStatus the ticket lifecycle state.
type VerifyTicketResponse struct {
	Valid        bool          `json:"valid"`
	Status       string        `json:"status"`
	TicketStatus string        `json:"ticketStatus"`
	CheckedIn    bool          `json:"checkedIn"`
	CheckedInAt  *time.Time    `json:"checkedInAt,omitempty"`
	Event        *EventSummary `json:"event,omitempty"`
	User         *UserSummary  `json:"user,omitempty"`
}

// MyTicketResponse is one entry in a user's ticket listing
type MyTicketResponse struct {
	TicketID    string        `json:"ticketId"`
	Token       string        `json:"token"`
	VerifyURL   string        `json:"verifyUrl"`
	Status      string        `json:"status"`
	ClaimedAt   time.Time     `json:"claimedAt"`
	CheckedInAt *time.Time    `json:"checkedInAt,omitempty"`
	Event       *EventSummary `json:"event,omitempty"`
}

// AttendeeResponse is one row in an event's attendee listing
type AttendeeResponse struct {
	TicketID    string     `json:"ticketId"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	ClaimedAt   time.Time  `json:"claimedAt"`
	CheckedInAt *time.Time `json:"checkedInAt,omitempty"`
}

// ToAttendeeResponse maps a domain attendee row to its response form
func ToAttendeeResponse(a *domain.Attendee) *AttendeeResponse {
	return &AttendeeResponse{
		TicketID:    a.TicketID,
		UserID:      a.UserID,
		Name:        a.Name,
		Email:       a.Email,
		Status:      string(a.Status),
		ClaimedAt:   a.ClaimedAt,
		CheckedInAt: a.CheckedInAt,
	}
}
