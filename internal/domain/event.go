package domain

import "time"

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// PriceType distinguishes free and paid events. Payment itself is
// simulated; the amount is informational only.
type PriceType string

const (
	PriceTypeFree PriceType = "free"
	PriceTypePaid PriceType = "paid"
)

// WindowStatus is the position of a point in time relative to the
// event's scheduled window
type WindowStatus string

const (
	WindowNotStarted WindowStatus = "not_started"
	WindowActive     WindowStatus = "active"
	WindowExpired    WindowStatus = "expired"
)

// Event represents a campus event with capacity-limited signups
type Event struct {
	ID           string
	OrganizerID  string
	Title        string
	Description  string
	Location     string
	Category     string
	StartTime    time.Time
	EndTime      time.Time
	MaxSignups   int
	ClaimedCount int
	PriceType    PriceType
	Amount       float64
	Status       EventStatus
	CancelReason string
	CancelledAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WindowStatus returns where now falls relative to the event window
func (e *Event) WindowStatus(now time.Time) WindowStatus {
	switch {
	case now.Before(e.StartTime):
		return WindowNotStarted
	case now.After(e.EndTime):
		return WindowExpired
	default:
		return WindowActive
	}
}

// IsFull reports whether the event has reached its signup capacity.
// Informational only: the claim path relies on the store's conditional
// increment, never on this check.
func (e *Event) IsFull() bool {
	return e.ClaimedCount >= e.MaxSignups
}

// IsClaimable reports whether a new ticket may be issued for the event
func (e *Event) IsClaimable(now time.Time) bool {
	return e.Status == EventStatusActive && now.Before(e.EndTime)
}

// OwnedBy reports whether the given identity administers this event:
// the owning organizer, or any admin.
func (e *Event) OwnedBy(id Identity) bool {
	if id.Role == RoleAdmin {
		return true
	}
	return id.Role == RoleOrganizer && e.OrganizerID == id.UserID
}

// EventFilter narrows event listings
type EventFilter struct {
	Query       string
	Category    string
	OrganizerID string
	From        *time.Time
	To          *time.Time
}
