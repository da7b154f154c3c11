package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/internal/dto"
	"github.com/studentevent/api/internal/repository"
	"github.com/studentevent/api/pkg/logger"
	"github.com/studentevent/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// AttendeeService defines the interface for attendee administration
type AttendeeService interface {
	// List lists an event's ticket holders, earliest claim first
	List(ctx context.Context, id domain.Identity, eventID string) ([]*dto.AttendeeResponse, error)

	// Remove deletes a user's ticket for the event and frees the slot
	Remove(ctx context.Context, id domain.Identity, eventID, userID string) error

	// ExportCSV renders the attendee list as a CSV file
	ExportCSV(ctx context.Context, id domain.Identity, eventID string) ([]byte, error)
}

// attendeeService implements AttendeeService
type attendeeService struct {
	tx         repository.TxRunner
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	userRepo   repository.UserRepository
	queue      repository.NotificationQueue
	now        func() time.Time
	log        *logger.Logger
}

// NewAttendeeService creates a new attendee service
func NewAttendeeService(
	tx repository.TxRunner,
	eventRepo repository.EventRepository,
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	queue repository.NotificationQueue,
	now func() time.Time,
) AttendeeService {
	if now == nil {
		now = time.Now
	}
	return &attendeeService{
		tx:         tx,
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		queue:      queue,
		now:        now,
		log:        logger.Get(),
	}
}

// getOwnedEvent loads the event and verifies the caller may manage it
func (s *attendeeService) getOwnedEvent(ctx context.Context, id domain.Identity, eventID string) (*domain.Event, error) {
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
	if !event.OwnedBy(id) {
		return nil, domain.ErrNotOwner
	}
	return event, nil
}

// List lists an event's ticket holders
func (s *attendeeService) List(ctx context.Context, id domain.Identity, eventID string) ([]*dto.AttendeeResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.attendee.list")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if _, err := s.getOwnedEvent(ctx, id, eventID); err != nil {
		return nil, err
	}

	attendees, err := s.ticketRepo.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.AttendeeResponse, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, dto.ToAttendeeResponse(a))
	}
	return out, nil
}

// Remove deletes a user's ticket for the event. The deletion and the
// slot release commit together; the removed holder is notified after.
func (s *attendeeService) Remove(ctx context.Context, id domain.Identity, eventID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.attendee.remove")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	event, err := s.getOwnedEvent(ctx, id, eventID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		deleted, err := s.ticketRepo.DeleteByUserAndEvent(ctx, tx, userID, eventID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrTicketNotFound
		}
		return s.eventRepo.ReleaseSlot(ctx, tx, eventID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.log.Warn("failed to load removed attendee for notification",
			zap.Error(err), zap.String("user_id", userID))
		return nil
	}
	if user != nil && s.queue != nil {
		n := &domain.Notification{
			ID:         uuid.New().String(),
			Kind:       domain.NotificationTicketRemoved,
			UserID:     user.ID,
			Email:      user.Email,
			EventID:    event.ID,
			EventTitle: event.Title,
			CreatedAt:  s.now(),
		}
		if err := s.queue.Enqueue(ctx, n); err != nil {
			s.log.Warn("failed to enqueue notification",
				zap.Error(err), zap.String("user_id", user.ID))
		}
	}
	return nil
}

// csvHeader matches the columns the organizer dashboard imports
var csvHeader = []string{"name", "email", "status", "checkedInAt"}

// ExportCSV renders the attendee list as CSV
func (s *attendeeService) ExportCSV(ctx context.Context, id domain.Identity, eventID string) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.attendee.export_csv")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if _, err := s.getOwnedEvent(ctx, id, eventID); err != nil {
		return nil, err
	}

	attendees, err := s.ticketRepo.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, a := range attendees {
		checkedInAt := ""
		if a.CheckedInAt != nil {
			checkedInAt = a.CheckedInAt.UTC().Format(time.RFC3339)
		}
		if err := w.Write([]string{a.Name, a.Email, string(a.Status), checkedInAt}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
