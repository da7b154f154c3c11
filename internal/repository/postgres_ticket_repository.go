package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studentevent/api/internal/domain"
)

// PostgresTicketRepository implements TicketRepository using PostgreSQL
type PostgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(pool *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{pool: pool}
}

const ticketColumns = `id, user_id, event_id, token, status, claimed_at, checked_in_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	ticket := &domain.Ticket{}
	err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.EventID,
		&ticket.Token,
		&ticket.Status,
		&ticket.ClaimedAt,
		&ticket.CheckedInAt,
	)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Create inserts a ticket inside the claim transaction. A duplicate
// claim for the same user and event trips the unique constraint and
// maps to ErrAlreadyClaimed.
func (r *PostgresTicketRepository) Create(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	query := `
		INSERT INTO tickets (id, user_id, event_id, token, status, claimed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Exec(ctx, query,
		ticket.ID,
		ticket.UserID,
		ticket.EventID,
		ticket.Token,
		ticket.Status,
		ticket.ClaimedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyClaimed
		}
		return err
	}
	return nil
}

// GetByToken retrieves a ticket by its verification token
func (r *PostgresTicketRepository) GetByToken(ctx context.Context, token string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE token = $1`, ticketColumns)
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidInput(err) {
			return nil, nil
		}
		return nil, err
	}
	return ticket, nil
}

// ListByUser lists a user's tickets joined with their events in a
// single query, newest claim first
func (r *PostgresTicketRepository) ListByUser(ctx context.Context, userID string) ([]*domain.UserTicket, error) {
	query := `
		SELECT t.id, t.user_id, t.event_id, t.token, t.status, t.claimed_at, t.checked_in_at,
			e.id, e.title,
			COALESCE(e.description, '') as description,
			e.location,
			COALESCE(e.category, '') as category,
			e.start_time, e.end_time, e.max_signups, e.claimed_count, e.status
		FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE t.user_id = $1
		ORDER BY t.claimed_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.UserTicket
	for rows.Next() {
		ut := &domain.UserTicket{}
		err := rows.Scan(
			&ut.ID,
			&ut.UserID,
			&ut.EventID,
			&ut.Token,
			&ut.Status,
			&ut.ClaimedAt,
			&ut.CheckedInAt,
			&ut.Event.ID,
			&ut.Event.Title,
			&ut.Event.Description,
			&ut.Event.Location,
			&ut.Event.Category,
			&ut.Event.StartTime,
			&ut.Event.EndTime,
			&ut.Event.MaxSignups,
			&ut.Event.ClaimedCount,
			&ut.Event.Status,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ut)
	}
	return tickets, rows.Err()
}

// DeleteByUserAndEvent removes a user's ticket for an event. Returns
// false when no ticket existed.
func (r *PostgresTicketRepository) DeleteByUserAndEvent(ctx context.Context, tx pgx.Tx, userID, eventID string) (bool, error) {
	query := `DELETE FROM tickets WHERE user_id = $1 AND event_id = $2`
	result, err := tx.Exec(ctx, query, userID, eventID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// CheckIn transitions a claimed ticket to checked_in. The conditional
// UPDATE makes repeated scans of the same token a no-op, so the second
// caller sees ok=false and reads back the already-checked-in row.
func (r *PostgresTicketRepository) CheckIn(ctx context.Context, token string) (*domain.Ticket, bool, error) {
	query := fmt.Sprintf(`
		UPDATE tickets
		SET status = 'checked_in', checked_in_at = $2
		WHERE token = $1 AND status = 'claimed'
		RETURNING %s
	`, ticketColumns)

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, token, time.Now()))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		if isInvalidInput(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return ticket, true, nil
}

// ListAttendees lists an event's ticket holders with their identity,
// earliest claim first
func (r *PostgresTicketRepository) ListAttendees(ctx context.Context, eventID string) ([]*domain.Attendee, error) {
	query := `
		SELECT t.id, t.user_id, u.name, u.email, t.status, t.claimed_at, t.checked_in_at
		FROM tickets t
		JOIN users u ON u.id = t.user_id
		WHERE t.event_id = $1
		ORDER BY t.claimed_at ASC
	`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendees []*domain.Attendee
	for rows.Next() {
		a := &domain.Attendee{}
		err := rows.Scan(
			&a.TicketID,
			&a.UserID,
			&a.Name,
			&a.Email,
			&a.Status,
			&a.ClaimedAt,
			&a.CheckedInAt,
		)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// CancelByEvent cancels every ticket of the event that has not been
// checked in and returns the affected user IDs for notification
func (r *PostgresTicketRepository) CancelByEvent(ctx context.Context, tx pgx.Tx, eventID string) ([]string, error) {
	query := `
		UPDATE tickets
		SET status = 'cancelled'
		WHERE event_id = $1 AND status = 'claimed'
		RETURNING user_id
	`
	rows, err := tx.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}
