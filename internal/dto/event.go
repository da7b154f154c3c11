package dto

import (
	"time"

	"github.com/studentevent/api/internal/domain"
)

// CreateEventRequest is the payload for creating an event
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	MaxSignups  int       `json:"maxSignups"`
	PriceType   string    `json:"priceType"`
	Amount      float64   `json:"amount"`
}

const defaultMaxSignups = 100

// Validate checks required fields and normalizes defaults.
// Returns false and a message when the request is invalid.
func (r *CreateEventRequest) Validate() (bool, string) {
	if r.Title == "" {
		return false, "title is required"
	}
	if r.Location == "" {
		return false, "location is required"
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return false, "startTime and endTime are required"
	}
	if !r.StartTime.Before(r.EndTime) {
		return false, "startTime must be before endTime"
	}
	if r.MaxSignups < 0 {
		return false, "maxSignups cannot be negative"
	}
	if r.MaxSignups == 0 {
		r.MaxSignups = defaultMaxSignups
	}
	if r.PriceType == "" {
		r.PriceType = string(domain.PriceTypeFree)
	}
	switch domain.PriceType(r.PriceType) {
	case domain.PriceTypeFree:
		r.Amount = 0
	case domain.PriceTypePaid:
		if r.Amount <= 0 {
			return false, "amount must be greater than 0 for paid events"
		}
	default:
		return false, "priceType must be free or paid"
	}
	return true, ""
}

// EventListFilter holds query parameters for listing events
type EventListFilter struct {
	Query       string `form:"q"`
	Category    string `form:"category"`
	OrganizerID string `form:"orgId"`
	From        string `form:"from"`
	To          string `form:"to"`
}

// ToDomain parses the filter into its domain form. Unparseable
// time bounds are reported, not silently dropped.
func (f *EventListFilter) ToDomain() (*domain.EventFilter, error) {
	out := &domain.EventFilter{
		Query:       f.Query,
		Category:    f.Category,
		OrganizerID: f.OrganizerID,
	}
	if f.From != "" {
		t, err := time.Parse(time.RFC3339, f.From)
		if err != nil {
			return nil, err
		}
		out.From = &t
	}
	if f.To != "" {
		t, err := time.Parse(time.RFC3339, f.To)
		if err != nil {
			return nil, err
		}
		out.To = &t
	}
	return out, nil
}

// CancelEventRequest is the payload for cancelling an event
type CancelEventRequest struct {
	Reason string `json:"reason"`
}

// EventResponse is the public representation of an event
type EventResponse struct {
	ID           string     `json:"id"`
	OrganizerID  string     `json:"organizerId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	Category     string     `json:"category"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      time.Time  `json:"endTime"`
	MaxSignups   int        `json:"maxSignups"`
	ClaimedCount int        `json:"claimedCount"`
	PriceType    string     `json:"priceType"`
	Amount       float64    `json:"amount"`
	Status       string     `json:"status"`
	CancelReason string     `json:"cancelReason,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
}

// ToEventResponse maps a domain event to its response form
func ToEventResponse(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:           e.ID,
		OrganizerID:  e.OrganizerID,
		Title:        e.Title,
		Description:  e.Description,
		Location:     e.Location,
		Category:     e.Category,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		MaxSignups:   e.MaxSignups,
		ClaimedCount: e.ClaimedCount,
		PriceType:    string(e.PriceType),
		Amount:       e.Amount,
		Status:       string(e.Status),
		CancelReason: e.CancelReason,
		CancelledAt:  e.CancelledAt,
	}
}

// EventSummary is the trimmed event shape embedded in ticket payloads
type EventSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location"`
	Category     string    `json:"category,omitempty"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	MaxSignups   int       `json:"maxSignups"`
	ClaimedCount int       `json:"claimedCount"`
}

// ToEventSummary maps a domain event to its embedded summary form
func ToEventSummary(e *domain.Event) *EventSummary {
	return &EventSummary{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Location:     e.Location,
		Category:     e.Category,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		MaxSignups:   e.MaxSignups,
		ClaimedCount: e.ClaimedCount,
	}
}
