package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/internal/dto"
)

func eventRouter(h *EventHandler, id *domain.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.GET("/events", h.List)
	router.GET("/events/:id", h.Get)

	group := router.Group("")
	if id != nil {
		group.Use(testIdentity(*id))
	}
	group.POST("/events", h.Create)
	group.PATCH("/events/:id/cancel", h.Cancel)

	return router
}

func organizerIdentity() *domain.Identity {
	return &domain.Identity{UserID: "org-1", Name: "Org", Email: "org@campus.edu", Role: domain.RoleOrganizer}
}

func TestEventHandler_List(t *testing.T) {
	svc := NewMockEventService()
	svc.events["evt-1"] = &dto.EventResponse{ID: "evt-1", Title: "Career Fair"}
	router := eventRouter(NewEventHandler(svc), nil)

	req, _ := http.NewRequest(http.MethodGet, "/events?category=career", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
}

func TestEventHandler_ListRejectsBadTimeBound(t *testing.T) {
	router := eventRouter(NewEventHandler(NewMockEventService()), nil)

	req, _ := http.NewRequest(http.MethodGet, "/events?from=yesterday", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, resp.Code)
	}
}

func TestEventHandler_Get(t *testing.T) {
	svc := NewMockEventService()
	svc.events["evt-1"] = &dto.EventResponse{ID: "evt-1", Title: "Career Fair"}
	router := eventRouter(NewEventHandler(svc), nil)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"existing event", "evt-1", http.StatusOK},
		{"unknown event", "missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/events/"+tt.id, nil)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.Code)
			}
		})
	}
}

func TestEventHandler_Create(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		identity   *domain.Identity
		body       interface{}
		wantStatus int
	}{
		{
			name:     "success",
			identity: organizerIdentity(),
			body: dto.CreateEventRequest{
				Title: "Hackathon", Location: "Lab 2",
				StartTime: now, EndTime: now.Add(8 * time.Hour),
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:     "unauthenticated",
			identity: nil,
			body: dto.CreateEventRequest{
				Title: "Hackathon", Location: "Lab 2",
				StartTime: now, EndTime: now.Add(8 * time.Hour),
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing title",
			identity:   organizerIdentity(),
			body:       dto.CreateEventRequest{Location: "Lab 2", StartTime: now, EndTime: now.Add(time.Hour)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			identity:   organizerIdentity(),
			body:       "not-json",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := eventRouter(NewEventHandler(NewMockEventService()), tt.identity)

			var payload []byte
			switch b := tt.body.(type) {
			case string:
				payload = []byte(b)
			default:
				payload, _ = json.Marshal(b)
			}

			req, _ := http.NewRequest(http.MethodPost, "/events", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.wantStatus, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestEventHandler_Cancel(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*MockEventService)
		reason     string
		wantStatus int
	}{
		{
			name: "success",
			setup: func(m *MockEventService) {
				m.events["evt-1"] = &dto.EventResponse{ID: "evt-1", Status: "active"}
			},
			reason:     "venue unavailable",
			wantStatus: http.StatusOK,
		},
		{
			name: "reason required",
			setup: func(m *MockEventService) {
				m.cancelErr = domain.ErrReasonRequired
			},
			reason:     "",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "not owner",
			setup: func(m *MockEventService) {
				m.cancelErr = domain.ErrNotOwner
			},
			reason:     "x",
			wantStatus: http.StatusForbidden,
		},
		{
			name: "already cancelled",
			setup: func(m *MockEventService) {
				m.cancelErr = domain.ErrEventAlreadyCancelled
			},
			reason:     "x",
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMockEventService()
			tt.setup(svc)
			router := eventRouter(NewEventHandler(svc), organizerIdentity())

			payload, _ := json.Marshal(dto.CancelEventRequest{Reason: tt.reason})
			req, _ := http.NewRequest(http.MethodPatch, "/events/evt-1/cancel", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.wantStatus, resp.Code, resp.Body.String())
			}
		})
	}
}
