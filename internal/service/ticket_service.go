package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/internal/dto"
	"github.com/studentevent/api/internal/metrics"
	"github.com/studentevent/api/internal/qr"
	"github.com/studentevent/api/internal/repository"
	"github.com/studentevent/api/pkg/logger"
	"github.com/studentevent/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// TicketService defines the interface for ticket business logic
type TicketService interface {
	// Claim reserves a slot on the event and issues a ticket with a
	// QR verification code
	Claim(ctx context.Context, id domain.Identity, eventID string) (*dto.ClaimTicketResponse, error)

	// Unclaim releases the caller's ticket and frees the slot
	Unclaim(ctx context.Context, id domain.Identity, eventID string) error

	// Verify resolves a scanned token and checks the holder in when
	// the event window is open
	Verify(ctx context.Context, token string) (*dto.VerifyTicketResponse, error)

	// ListMine lists the caller's tickets with their event summaries
	ListMine(ctx context.Context, id domain.Identity) ([]*dto.MyTicketResponse, error)
}

// ticketService implements TicketService
type ticketService struct {
	tx         repository.TxRunner
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	userRepo   repository.UserRepository
	queue      repository.NotificationQueue
	encoder    *qr.Encoder
	baseURL    string
	now        func() time.Time
	log        *logger.Logger
}

// TicketServiceConfig contains configuration for the ticket service
type TicketServiceConfig struct {
	// ClientBaseURL is the front-end origin verification URLs point at
	ClientBaseURL string
	// Now overrides the clock, used in tests
	Now func() time.Time
}

// NewTicketService creates a new ticket service
func NewTicketService(
	tx repository.TxRunner,
	eventRepo repository.EventRepository,
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	queue repository.NotificationQueue,
	encoder *qr.Encoder,
	cfg *TicketServiceConfig,
) TicketService {
	baseURL := "http://localhost:3000"
	now := time.Now
	if cfg != nil {
		if cfg.ClientBaseURL != "" {
			baseURL = cfg.ClientBaseURL
		}
		if cfg.Now != nil {
			now = cfg.Now
		}
	}
	if encoder == nil {
		encoder = qr.NewEncoder(0)
	}
	return &ticketService{
		tx:         tx,
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		queue:      queue,
		encoder:    encoder,
		baseURL:    baseURL,
		now:        now,
		log:        logger.Get(),
	}
}

// Claim reserves a slot and issues a ticket. The slot increment and
// the ticket insert commit in one transaction so a crash between them
// can never leak capacity.
func (s *ticketService) Claim(ctx context.Context, id domain.Identity, eventID string) (*dto.ClaimTicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.claim")
	defer span.End()

	start := s.now()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if id.UserID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if !id.Role.CanClaim() {
		span.SetStatus(codes.Error, "role cannot claim")
		return nil, domain.ErrNotPermitted
	}

	span.SetAttributes(
		attribute.String("user_id", id.UserID),
		attribute.String("event_id", eventID),
	)

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	if event.Status != domain.EventStatusActive {
		metrics.RecordClaimRejected(ctx, eventID, "not_active")
		return nil, domain.ErrEventNotActive
	}
	if !s.now().Before(event.EndTime) {
		metrics.RecordClaimRejected(ctx, eventID, "ended")
		return nil, domain.ErrEventEnded
	}

	ticket := &domain.Ticket{
		ID:        uuid.New().String(),
		UserID:    id.UserID,
		EventID:   eventID,
		Token:     uuid.New().String(),
		Status:    domain.TicketStatusClaimed,
		ClaimedAt: s.now(),
	}

	// The QR image renders before any write, so an encoding failure
	// fails the claim without a ticket or counter increment to undo.
	verifyURL := qr.VerifyURL(s.baseURL, ticket.Token)
	qrImage, err := s.encoder.Encode(verifyURL)
	if err != nil {
		s.log.Error("failed to encode qr image", zap.Error(err), zap.String("event_id", eventID))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Identities arrive via JWT; materialize the user row before the
	// ticket insert references it.
	if err := s.userRepo.Ensure(ctx, id.User(s.now())); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		ok, err := s.eventRepo.ClaimSlot(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			// The event was active a moment ago, so a failed
			// conditional update means capacity ran out.
			return domain.ErrEventFull
		}
		return s.ticketRepo.Create(ctx, tx, ticket)
	})
	if err != nil {
		if err == domain.ErrEventFull {
			metrics.RecordClaimRejected(ctx, eventID, "full")
		}
		if err == domain.ErrAlreadyClaimed {
			metrics.RecordClaimRejected(ctx, eventID, "duplicate")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordClaim(ctx, eventID, s.now().Sub(start).Seconds())
	s.enqueue(ctx, &domain.Notification{
		ID:         uuid.New().String(),
		Kind:       domain.NotificationTicketClaimed,
		UserID:     id.UserID,
		Email:      id.Email,
		EventID:    event.ID,
		EventTitle: event.Title,
		CreatedAt:  s.now(),
	})

	return &dto.ClaimTicketResponse{
		TicketID:  ticket.ID,
		EventID:   eventID,
		Token:     ticket.Token,
		VerifyURL: verifyURL,
		QRImage:   qrImage,
	}, nil
}

// Unclaim deletes the caller's ticket for the event and frees the slot
func (s *ticketService) Unclaim(ctx context.Context, id domain.Identity, eventID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.unclaim")
	defer span.End()

	if eventID == "" {
		return domain.ErrInvalidEventID
	}
	if id.UserID == "" {
		return domain.ErrInvalidUserID
	}

	span.SetAttributes(
		attribute.String("user_id", id.UserID),
		attribute.String("event_id", eventID),
	)

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return domain.ErrEventNotFound
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		deleted, err := s.ticketRepo.DeleteByUserAndEvent(ctx, tx, id.UserID, eventID)
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

	metrics.RecordUnclaim(ctx, eventID)
	s.enqueue(ctx, &domain.Notification{
		ID:         uuid.New().String(),
		Kind:       domain.NotificationTicketUnclaimed,
		UserID:     id.UserID,
		Email:      id.Email,
		EventID:    event.ID,
		EventTitle: event.Title,
		CreatedAt:  s.now(),
	})
	return nil
}

// Verify resolves a token to its ticket and event. When the event
// window is open and the ticket is still claimed, the holder is
// checked in; scanning the same token again reports the earlier
// check-in instead of failing.
func (s *ticketService) Verify(ctx context.Context, token string) (*dto.VerifyTicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.verify")
	defer span.End()

	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	ticket, err := s.ticketRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, domain.ErrTicketNotFound
	}

	event, err := s.eventRepo.GetByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	user, err := s.userRepo.GetByID(ctx, ticket.UserID)
	if err != nil {
		return nil, err
	}

	resp := &dto.VerifyTicketResponse{
		Status:       string(event.WindowStatus(s.now())),
		TicketStatus: string(ticket.Status),
		Event:        dto.ToEventSummary(event),
	}
	if user != nil {
		resp.User = &dto.UserSummary{ID: user.ID, Name: user.Name, Email: user.Email}
	}

	if ticket.Status == domain.TicketStatusCancelled {
		return resp, nil
	}

	// Any matched, non-cancelled ticket is a real claim. Valid reports
	// the match; Status carries the window state on its own.
	resp.Valid = true

	if ticket.Status == domain.TicketStatusCheckedIn {
		resp.CheckedIn = true
		resp.CheckedInAt = ticket.CheckedInAt
		return resp, nil
	}
	if resp.Status != string(domain.WindowActive) {
		return resp, nil
	}

	updated, ok, err := s.ticketRepo.CheckIn(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race to a concurrent scan; report its result.
		current, err := s.ticketRepo.GetByToken(ctx, token)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status == domain.TicketStatusCheckedIn {
			resp.CheckedIn = true
			resp.CheckedInAt = current.CheckedInAt
			resp.TicketStatus = string(current.Status)
		}
		return resp, nil
	}

	metrics.RecordCheckIn(ctx, event.ID)
	resp.CheckedIn = true
	resp.CheckedInAt = updated.CheckedInAt
	resp.TicketStatus = string(updated.Status)
	return resp, nil
}

// ListMine lists the caller's tickets with event summaries
func (s *ticketService) ListMine(ctx context.Context, id domain.Identity) ([]*dto.MyTicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.list_mine")
	defer span.End()

	if id.UserID == "" {
		return nil, domain.ErrInvalidUserID
	}

	tickets, err := s.ticketRepo.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.MyTicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, &dto.MyTicketResponse{
			TicketID:    t.ID,
			Token:       t.Token,
			VerifyURL:   qr.VerifyURL(s.baseURL, t.Token),
			Status:      string(t.Status),
			ClaimedAt:   t.ClaimedAt,
			CheckedInAt: t.CheckedInAt,
			Event:       dto.ToEventSummary(&t.Event),
		})
	}
	return out, nil
}

// enqueue pushes a notification job after the surrounding work has
// committed. Failures are logged and swallowed; delivery is
// best-effort and must never fail the request.
func (s *ticketService) enqueue(ctx context.Context, n *domain.Notification) {
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
