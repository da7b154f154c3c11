package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/studentevent/api/internal/domain"
)

// txSnapshotter lets the mock runner capture and restore a mock
// repository's state around a transaction body.
type txSnapshotter interface {
	snapshot() func()
}

// mockTxRunner serializes transaction bodies and, when one fails,
// restores the registered repositories to their pre-transaction state
// the way a database rollback would. The mock repositories ignore the
// tx handle, so nil is fine there.
type mockTxRunner struct {
	mu       sync.Mutex
	beginErr error
	repos    []txSnapshotter
}

func newMockTxRunner(repos ...txSnapshotter) *mockTxRunner {
	return &mockTxRunner{repos: repos}
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	restores := make([]func(), 0, len(m.repos))
	for _, r := range m.repos {
		restores = append(restores, r.snapshot())
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// MockEventRepository is an in-memory implementation of EventRepository
type MockEventRepository struct {
	mu     sync.Mutex
	events map[string]*domain.Event
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{events: make(map[string]*domain.Event)}
}

func (m *MockEventRepository) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*domain.Event, len(m.events))
	for id, e := range m.events {
		cp := *e
		saved[id] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.events = saved
	}
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.events[event.ID] = &cp
	return nil
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	cp := *event
	return &cp, nil
}

func (m *MockEventRepository) List(ctx context.Context, filter *domain.EventFilter, limit int) ([]*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*domain.Event
	for _, e := range m.events {
		if filter != nil {
			if filter.Category != "" && e.Category != filter.Category {
				continue
			}
			if filter.OrganizerID != "" && e.OrganizerID != filter.OrganizerID {
				continue
			}
		}
		cp := *e
		events = append(events, &cp)
	}
	return events, nil
}

func (m *MockEventRepository) ClaimSlot(ctx context.Context, tx pgx.Tx, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok || event.Status != domain.EventStatusActive || event.ClaimedCount >= event.MaxSignups {
		return false, nil
	}
	event.ClaimedCount++
	return true, nil
}

func (m *MockEventRepository) ReleaseSlot(ctx context.Context, tx pgx.Tx, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event, ok := m.events[eventID]; ok && event.ClaimedCount > 0 {
		event.ClaimedCount--
	}
	return nil
}

func (m *MockEventRepository) Cancel(ctx context.Context, tx pgx.Tx, eventID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok || event.Status != domain.EventStatusActive {
		return domain.ErrEventAlreadyCancelled
	}
	now := time.Now()
	event.Status = domain.EventStatusCancelled
	event.CancelReason = reason
	event.CancelledAt = &now
	return nil
}

// MockTicketRepository is an in-memory implementation of TicketRepository
type MockTicketRepository struct {
	mu        sync.Mutex
	tickets   map[string]*domain.Ticket // by ID
	users     map[string]*domain.User   // for attendee joins
	events    *MockEventRepository      // for ticket listing joins
	createErr error
}

func NewMockTicketRepository(users map[string]*domain.User, events *MockEventRepository) *MockTicketRepository {
	if users == nil {
		users = make(map[string]*domain.User)
	}
	return &MockTicketRepository{
		tickets: make(map[string]*domain.Ticket),
		users:   users,
		events:  events,
	}
}

func (m *MockTicketRepository) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*domain.Ticket, len(m.tickets))
	for id, t := range m.tickets {
		cp := *t
		saved[id] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.tickets = saved
	}
}

func (m *MockTicketRepository) Create(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.UserID == ticket.UserID && t.EventID == ticket.EventID {
			return domain.ErrAlreadyClaimed
		}
	}
	cp := *ticket
	m.tickets[ticket.ID] = &cp
	return nil
}

func (m *MockTicketRepository) GetByToken(ctx context.Context, token string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockTicketRepository) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.UserID == userID && t.EventID == eventID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockTicketRepository) ListByUser(ctx context.Context, userID string) ([]*domain.UserTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.UserTicket
	for _, t := range m.tickets {
		if t.UserID != userID {
			continue
		}
		event, _ := m.events.GetByID(ctx, t.EventID)
		if event == nil {
			continue
		}
		out = append(out, &domain.UserTicket{Ticket: *t, Event: *event})
	}
	return out, nil
}

func (m *MockTicketRepository) DeleteByUserAndEvent(ctx context.Context, tx pgx.Tx, userID, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tickets {
		if t.UserID == userID && t.EventID == eventID {
			delete(m.tickets, id)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockTicketRepository) CheckIn(ctx context.Context, token string) (*domain.Ticket, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.Token == token && t.Status == domain.TicketStatusClaimed {
			now := time.Now()
			t.Status = domain.TicketStatusCheckedIn
			t.CheckedInAt = &now
			cp := *t
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (m *MockTicketRepository) ListAttendees(ctx context.Context, eventID string) ([]*domain.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Attendee
	for _, t := range m.tickets {
		if t.EventID != eventID {
			continue
		}
		a := &domain.Attendee{
			TicketID:    t.ID,
			UserID:      t.UserID,
			Status:      t.Status,
			ClaimedAt:   t.ClaimedAt,
			CheckedInAt: t.CheckedInAt,
		}
		if u, ok := m.users[t.UserID]; ok {
			a.Name = u.Name
			a.Email = u.Email
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *MockTicketRepository) CancelByEvent(ctx context.Context, tx pgx.Tx, eventID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var userIDs []string
	for _, t := range m.tickets {
		if t.EventID == eventID && t.Status == domain.TicketStatusClaimed {
			t.Status = domain.TicketStatusCancelled
			userIDs = append(userIDs, t.UserID)
		}
	}
	return userIDs, nil
}

// MockUserRepository is an in-memory implementation of UserRepository
type MockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func NewMockUserRepository(users map[string]*domain.User) *MockUserRepository {
	if users == nil {
		users = make(map[string]*domain.User)
	}
	return &MockUserRepository{users: users}
}

func (m *MockUserRepository) Ensure(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

// captureQueue records enqueued notifications
type captureQueue struct {
	mu         sync.Mutex
	jobs       []*domain.Notification
	enqueueErr error
}

func (q *captureQueue) Enqueue(ctx context.Context, n *domain.Notification) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, n)
	return nil
}

func (q *captureQueue) Dequeue(ctx context.Context) (*domain.Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, nil
	}
	n := q.jobs[0]
	q.jobs = q.jobs[1:]
	return n, nil
}

func (q *captureQueue) Close() error { return nil }

func (q *captureQueue) kinds() []domain.NotificationKind {
	q.mu.Lock()
	defer q.mu.Unlock()
	var kinds []domain.NotificationKind
	for _, n := range q.jobs {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}
