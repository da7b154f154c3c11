package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/internal/dto"
	"github.com/studentevent/api/internal/metrics"
	"github.com/studentevent/api/internal/repository"
	"github.com/studentevent/api/pkg/logger"
	"github.com/studentevent/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// EventService defines the interface for event business logic
type EventService interface {
	// Create publishes a new event owned by the caller
	Create(ctx context.Context, id domain.Identity, req *dto.CreateEventRequest) (*dto.EventResponse, error)

	// List lists events matching the filter, soonest first
	List(ctx context.Context, filter *domain.EventFilter) ([]*dto.EventResponse, error)

	// Get retrieves a single event
	Get(ctx context.Context, eventID string) (*dto.EventResponse, error)

	// Cancel cancels an event, cancels its outstanding tickets and
	// notifies the holders
	Cancel(ctx context.Context, id domain.Identity, eventID, reason string) (*dto.EventResponse, error)
}

// eventService implements EventService
type eventService struct {
	tx         repository.TxRunner
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	userRepo   repository.UserRepository
	queue      repository.NotificationQueue
	now        func() time.Time
	log        *logger.Logger
}

// NewEventService creates a new event service
func NewEventService(
	tx repository.TxRunner,
	eventRepo repository.EventRepository,
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	queue repository.NotificationQueue,
	now func() time.Time,
) EventService {
	if now == nil {
		now = time.Now
	}
	return &eventService{
		tx:         tx,
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		queue:      queue,
		now:        now,
		log:        logger.Get(),
	}
}

// Create publishes a new event owned by the caller
func (s *eventService) Create(ctx context.Context, id domain.Identity, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if !id.Role.CanManageEvents() {
		span.SetStatus(codes.Error, "role cannot manage events")
		return nil, domain.ErrNotPermitted
	}

	now := s.now()

	// The organizer row must exist before the event references it
	if err := s.userRepo.Ensure(ctx, id.User(now)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	event := &domain.Event{
		ID:           uuid.New().String(),
		OrganizerID:  id.UserID,
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Category:     req.Category,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		MaxSignups:   req.MaxSignups,
		ClaimedCount: 0,
		PriceType:    domain.PriceType(req.PriceType),
		Amount:       req.Amount,
		Status:       domain.EventStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("organizer_id", id.UserID),
	)

	if err := s.eventRepo.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordEventCreated(ctx, event.Category)
	return dto.ToEventResponse(event), nil
}

// List lists events matching the filter
func (s *eventService) List(ctx context.Context, filter *domain.EventFilter) ([]*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.list")
	defer span.End()

	events, err := s.eventRepo.List(ctx, filter, 0)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.ToEventResponse(e))
	}
	return out, nil
}

// Get retrieves a single event
func (s *eventService) Get(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	return dto.ToEventResponse(event), nil
}

// Cancel cancels an event. Outstanding tickets flip to cancelled in
// the same transaction; holder notifications go out after commit.
func (s *eventService) Cancel(ctx context.Context, id domain.Identity, eventID, reason string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.cancel")
	defer span.End()

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", id.UserID),
	)

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	if !event.OwnedBy(id) {
		return nil, domain.ErrNotOwner
	}
	if event.Status == domain.EventStatusCancelled {
		return nil, domain.ErrEventAlreadyCancelled
	}

	// Snapshot the holders before the tickets flip state so the
	// notifications carry names and emails.
	attendees, err := s.ticketRepo.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.eventRepo.Cancel(ctx, tx, eventID, reason); err != nil {
			return err
		}
		_, err := s.ticketRepo.CancelByEvent(ctx, tx, eventID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordEventCancelled(ctx, eventID)
	for _, a := range attendees {
		if a.Status != domain.TicketStatusClaimed {
			continue
		}
		s.enqueue(ctx, &domain.Notification{
			ID:         uuid.New().String(),
			Kind:       domain.NotificationEventCancelled,
			UserID:     a.UserID,
			Email:      a.Email,
			EventID:    event.ID,
			EventTitle: event.Title,
			Reason:     reason,
			CreatedAt:  s.now(),
		})
	}

	return s.Get(ctx, eventID)
}

func (s *eventService) enqueue(ctx context.Context, n *domain.Notification) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, n); err != nil {
		s.log.Warn("failed to enqueue notification",
			zap.Error(err),
			zap.String("kind", string(n.Kind)),
			zap.String("user_id", n.UserID),
		)
		return
	}
	metrics.RecordNotificationQueued(ctx, string(n.Kind))
}
