package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/studentevent/api/internal/service"
	"github.com/studentevent/api/pkg/response"
	"github.com/studentevent/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TicketHandler handles ticket HTTP requests
type TicketHandler struct {
	ticketService service.TicketService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// Claim handles POST /tickets/claim/:eventId
func (h *TicketHandler) Claim(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket.claim")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, ok := identityFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	eventID := c.Param("eventId")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", id.UserID),
	)

	ticket, err := h.ticketService.Claim(ctx, id, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("ticket_id", ticket.TicketID))
	response.Created(c, ticket)
}

// Unclaim handles DELETE /tickets/unclaim/:eventId
func (h *TicketHandler) Unclaim(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket.unclaim")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, ok := identityFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	eventID := c.Param("eventId")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", id.UserID),
	)

	if err := h.ticketService.Unclaim(ctx, id, eventID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "ticket released"})
}

// Verify handles GET /tickets/verify/:token
func (h *TicketHandler) Verify(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket.verify")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.Param("token")

	result, err := h.ticketService.Verify(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(
		attribute.Bool("ticket.valid", result.Valid),
		attribute.String("ticket.status", result.TicketStatus),
	)
	response.Success(c, result)
}

// ListMine handles GET /tickets/my
func (h *TicketHandler) ListMine(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket.list_mine")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, ok := identityFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	tickets, err := h.ticketService.ListMine(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, tickets)
}
