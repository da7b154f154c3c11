package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studentevent/api/internal/service"
	"github.com/studentevent/api/pkg/response"
	"github.com/studentevent/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AttendeeHandler handles attendee administration HTTP requests
type AttendeeHandler struct {
	attendeeService service.AttendeeService
}

// NewAttendeeHandler creates a new attendee handler
func NewAttendeeHandler(attendeeService service.AttendeeService) *AttendeeHandler {
	return &AttendeeHandler{attendeeService: attendeeService}
}

// List handles GET /events/:id/attendees
func (h *AttendeeHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.attendee.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, ok := identityFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	attendees, err := h.attendeeService.List(ctx, id, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, attendees)
}

// Remove handles DELETE /events/:id/attendees/:userId
func (h *AttendeeHandler) Remove(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.attendee.remove")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, ok := identityFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	eventID := c.Param("id")
	userID := c.Param("userId")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	if err := h.attendeeService.Remove(ctx, id, eventID, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"removed": true})
}

// Export handles GET /events/:id/attendees/export
func (h *AttendeeHandler) Export(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.attendee.export")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, ok := identityFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	data, err := h.attendeeService.ExportCSV(ctx, id, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("attendees-%s.csv", eventID)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv", data)
}
