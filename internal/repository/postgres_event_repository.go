package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studentevent/api/internal/domain"
)

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// eventColumns defines the columns to select for events
// Using COALESCE for nullable string columns to avoid scan errors
const eventColumns = `id, organizer_id, title,
	COALESCE(description, '') as description,
	location,
	COALESCE(category, '') as category,
	start_time, end_time, max_signups, claimed_count,
	price_type, amount, status,
	COALESCE(cancel_reason, '') as cancel_reason,
	cancelled_at, created_at, updated_at`

// listLimit caps unbounded listings
const listLimit = 100

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	err := row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.Category,
		&event.StartTime,
		&event.EndTime,
		&event.MaxSignups,
		&event.ClaimedCount,
		&event.PriceType,
		&event.Amount,
		&event.Status,
		&event.CancelReason,
		&event.CancelledAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Create creates a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (
			id, organizer_id, title, description, location, category,
			start_time, end_time, max_signups, claimed_count, price_type,
			amount, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.OrganizerID,
		event.Title,
		event.Description,
		event.Location,
		event.Category,
		event.StartTime,
		event.EndTime,
		event.MaxSignups,
		event.ClaimedCount,
		event.PriceType,
		event.Amount,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	return err
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidInput(err) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// List lists events matching the filter, soonest first
func (r *PostgresEventRepository) List(ctx context.Context, filter *domain.EventFilter, limit int) ([]*domain.Event, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter != nil {
		if filter.Query != "" {
			conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
			args = append(args, "%"+filter.Query+"%")
			argIndex++
		}
		if filter.Category != "" {
			conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
			args = append(args, filter.Category)
			argIndex++
		}
		if filter.OrganizerID != "" {
			conditions = append(conditions, fmt.Sprintf("organizer_id = $%d", argIndex))
			args = append(args, filter.OrganizerID)
			argIndex++
		}
		if filter.From != nil {
			conditions = append(conditions, fmt.Sprintf("start_time >= $%d", argIndex))
			args = append(args, *filter.From)
			argIndex++
		}
		if filter.To != nil {
			conditions = append(conditions, fmt.Sprintf("start_time <= $%d", argIndex))
			args = append(args, *filter.To)
			argIndex++
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	if limit <= 0 || limit > listLimit {
		limit = listLimit
	}
	query := fmt.Sprintf(`
		SELECT %s FROM events
		%s
		ORDER BY start_time ASC
		LIMIT $%d
	`, eventColumns, whereClause, argIndex)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// ClaimSlot increments claimed_count if the event is still active and
// has capacity. The conditional UPDATE makes concurrent claims race on
// the row lock instead of a stale read.
func (r *PostgresEventRepository) ClaimSlot(ctx context.Context, tx pgx.Tx, eventID string) (bool, error) {
	query := `
		UPDATE events
		SET claimed_count = claimed_count + 1, updated_at = $2
		WHERE id = $1 AND status = 'active' AND claimed_count < max_signups
	`
	result, err := tx.Exec(ctx, query, eventID, time.Now())
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ReleaseSlot decrements claimed_count, guarded against going negative
func (r *PostgresEventRepository) ReleaseSlot(ctx context.Context, tx pgx.Tx, eventID string) error {
	query := `
		UPDATE events
		SET claimed_count = claimed_count - 1, updated_at = $2
		WHERE id = $1 AND claimed_count > 0
	`
	_, err := tx.Exec(ctx, query, eventID, time.Now())
	return err
}

// Cancel marks an active event as cancelled
func (r *PostgresEventRepository) Cancel(ctx context.Context, tx pgx.Tx, eventID, reason string) error {
	query := `
		UPDATE events
		SET status = 'cancelled', cancel_reason = $2, cancelled_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'active'
	`
	now := time.Now()
	result, err := tx.Exec(ctx, query, eventID, reason, now)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEventAlreadyCancelled
	}
	return nil
}
