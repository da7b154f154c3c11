package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/studentevent/api/internal/dto"
	"github.com/studentevent/api/internal/service"
	"github.com/studentevent/api/pkg/response"
	"github.com/studentevent/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// List handles GET /events
func (h *EventHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var filter dto.EventListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		span.SetStatus(codes.Error, "invalid query")
		response.BadRequest(c, "invalid query parameters")
		return
	}

	domainFilter, err := filter.ToDomain()
	if err != nil {
		span.SetStatus(codes.Error, "invalid time bound")
		response.BadRequest(c, "from and to must be RFC 3339 timestamps")
		return
	}

	events, err := h.eventService.List(ctx, domainFilter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, events)
}

// Get handles GET /events/:id
func (h *EventHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := h.eventService.Get(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, event)
}

// Create handles POST /events
func (h *EventHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, ok := identityFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, "invalid request body")
		return
	}
	if ok, msg := req.Validate(); !ok {
		span.SetStatus(codes.Error, msg)
		response.BadRequest(c, msg)
		return
	}

	span.SetAttributes(attribute.String("organizer_id", id.UserID))

	event, err := h.eventService.Create(ctx, id, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Created(c, event)
}

// Cancel handles PATCH /events/:id/cancel
func (h *EventHandler) Cancel(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, ok := identityFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	eventID := c.Param("id")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", id.UserID),
	)

	var req dto.CancelEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, "invalid request body")
		return
	}

	event, err := h.eventService.Cancel(ctx, id, eventID, req.Reason)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, event)
}
