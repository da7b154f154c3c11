package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/internal/dto"
	"github.com/studentevent/api/pkg/middleware"
)

// testIdentity injects JWT claim values the way the auth middleware does
func testIdentity(id domain.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id.UserID)
		c.Set(middleware.ContextUserName, id.Name)
		c.Set(middleware.ContextUserEmail, id.Email)
		c.Set(middleware.ContextUserRole, string(id.Role))
		c.Next()
	}
}

// MockTicketService is a mock implementation of service.TicketService
type MockTicketService struct {
	claimResp  *dto.ClaimTicketResponse
	claimErr   error
	unclaimErr error
	verifyResp *dto.VerifyTicketResponse
	verifyErr  error
	mine       []*dto.MyTicketResponse
}

func (m *MockTicketService) Claim(ctx context.Context, id domain.Identity, eventID string) (*dto.ClaimTicketResponse, error) {
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	return m.claimResp, nil
}

func (m *MockTicketService) Unclaim(ctx context.Context, id domain.Identity, eventID string) error {
	return m.unclaimErr
}

func (m *MockTicketService) Verify(ctx context.Context, token string) (*dto.VerifyTicketResponse, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.verifyResp, nil
}

func (m *MockTicketService) ListMine(ctx context.Context, id domain.Identity) ([]*dto.MyTicketResponse, error) {
	return m.mine, nil
}

// MockEventService is a mock implementation of service.EventService
type MockEventService struct {
	events    map[string]*dto.EventResponse
	createErr error
	cancelErr error
}

func NewMockEventService() *MockEventService {
	return &MockEventService{events: make(map[string]*dto.EventResponse)}
}

func (m *MockEventService) Create(ctx context.Context, id domain.Identity, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	event := &dto.EventResponse{
		ID:          "event-123",
		OrganizerID: id.UserID,
		Title:       req.Title,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxSignups:  req.MaxSignups,
		PriceType:   req.PriceType,
		Status:      string(domain.EventStatusActive),
	}
	m.events[event.ID] = event
	return event, nil
}

func (m *MockEventService) List(ctx context.Context, filter *domain.EventFilter) ([]*dto.EventResponse, error) {
	var out []*dto.EventResponse
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

func (m *MockEventService) Get(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	event, ok := m.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}

func (m *MockEventService) Cancel(ctx context.Context, id domain.Identity, eventID, reason string) (*dto.EventResponse, error) {
	if m.cancelErr != nil {
		return nil, m.cancelErr
	}
	event, ok := m.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	event.Status = string(domain.EventStatusCancelled)
	event.CancelReason = reason
	return event, nil
}

// MockAttendeeService is a mock implementation of service.AttendeeService
type MockAttendeeService struct {
	attendees []*dto.AttendeeResponse
	listErr   error
	removeErr error
	csv       []byte
	csvErr    error
}

func (m *MockAttendeeService) List(ctx context.Context, id domain.Identity, eventID string) ([]*dto.AttendeeResponse, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.attendees, nil
}

func (m *MockAttendeeService) Remove(ctx context.Context, id domain.Identity, eventID, userID string) error {
	return m.removeErr
}

func (m *MockAttendeeService) ExportCSV(ctx context.Context, id domain.Identity, eventID string) ([]byte, error) {
	if m.csvErr != nil {
		return nil, m.csvErr
	}
	return m.csv, nil
}
