package service

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentevent/api/internal/domain"
)

func newAttendeeFixture(t *testing.T) (*MockEventRepository, *MockTicketRepository, *captureQueue, AttendeeService) {
	t.Helper()
	users := map[string]*domain.User{
		"student-1": {ID: "student-1", Name: "Ada Lovelace", Email: "ada@campus.edu", Role: domain.RoleStudent},
		"student-2": {ID: "student-2", Name: "Grace Hopper", Email: "grace@campus.edu", Role: domain.RoleStudent},
	}
	eventRepo := NewMockEventRepository()
	ticketRepo := NewMockTicketRepository(users, eventRepo)
	queue := &captureQueue{}
	svc := NewAttendeeService(newMockTxRunner(eventRepo, ticketRepo), eventRepo, ticketRepo, NewMockUserRepository(users), queue, func() time.Time { return fixedNow })
	return eventRepo, ticketRepo, queue, svc
}

func seedAttendees(t *testing.T, eventRepo *MockEventRepository, ticketRepo *MockTicketRepository) {
	t.Helper()
	e := activeEvent("evt-1", 10)
	e.ClaimedCount = 2
	require.NoError(t, eventRepo.Create(context.Background(), e))

	checkedInAt := fixedNow.Add(-time.Hour)
	require.NoError(t, ticketRepo.Create(context.Background(), nil, &domain.Ticket{
		ID: "tkt-1", UserID: "student-1", EventID: "evt-1",
		Token: "tok-1", Status: domain.TicketStatusClaimed, ClaimedAt: fixedNow.Add(-2 * time.Hour),
	}))
	require.NoError(t, ticketRepo.Create(context.Background(), nil, &domain.Ticket{
		ID: "tkt-2", UserID: "student-2", EventID: "evt-1",
		Token: "tok-2", Status: domain.TicketStatusCheckedIn, ClaimedAt: fixedNow.Add(-3 * time.Hour), CheckedInAt: &checkedInAt,
	}))
}

func TestListAttendees(t *testing.T) {
	eventRepo, ticketRepo, _, svc := newAttendeeFixture(t)
	seedAttendees(t, eventRepo, ticketRepo)

	attendees, err := svc.List(context.Background(), organizer(), "evt-1")
	require.NoError(t, err)
	require.Len(t, attendees, 2)

	byUser := map[string]string{}
	for _, a := range attendees {
		byUser[a.UserID] = a.Status
		assert.NotEmpty(t, a.Name)
		assert.NotEmpty(t, a.Email)
	}
	assert.Equal(t, string(domain.TicketStatusClaimed), byUser["student-1"])
	assert.Equal(t, string(domain.TicketStatusCheckedIn), byUser["student-2"])
}

func TestListAttendeesRequiresOwnership(t *testing.T) {
	eventRepo, ticketRepo, _, svc := newAttendeeFixture(t)
	seedAttendees(t, eventRepo, ticketRepo)

	other := domain.Identity{UserID: "org-2", Role: domain.RoleOrganizer}
	_, err := svc.List(context.Background(), other, "evt-1")
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	stud := domain.Identity{UserID: "student-1", Role: domain.RoleStudent}
	_, err = svc.List(context.Background(), stud, "evt-1")
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestRemoveAttendee(t *testing.T) {
	eventRepo, ticketRepo, queue, svc := newAttendeeFixture(t)
	seedAttendees(t, eventRepo, ticketRepo)

	require.NoError(t, svc.Remove(context.Background(), organizer(), "evt-1", "student-1"))

	// Ticket gone, slot freed, holder notified
	remaining, _ := ticketRepo.GetByUserAndEvent(context.Background(), "student-1", "evt-1")
	assert.Nil(t, remaining)
	event, _ := eventRepo.GetByID(context.Background(), "evt-1")
	assert.Equal(t, 1, event.ClaimedCount)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, domain.NotificationTicketRemoved, queue.jobs[0].Kind)
	assert.Equal(t, "ada@campus.edu", queue.jobs[0].Email)
}

func TestRemoveAttendeeWrongEvent(t *testing.T) {
	eventRepo, ticketRepo, _, svc := newAttendeeFixture(t)
	seedAttendees(t, eventRepo, ticketRepo)
	require.NoError(t, eventRepo.Create(context.Background(), activeEvent("evt-2", 5)))

	// student-1 holds a ticket for evt-1, not evt-2
	err := svc.Remove(context.Background(), organizer(), "evt-2", "student-1")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)
}

func TestRemoveUnknownAttendee(t *testing.T) {
	eventRepo, ticketRepo, _, svc := newAttendeeFixture(t)
	seedAttendees(t, eventRepo, ticketRepo)

	err := svc.Remove(context.Background(), organizer(), "evt-1", "missing")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)
}

func TestExportCSV(t *testing.T) {
	eventRepo, ticketRepo, _, svc := newAttendeeFixture(t)
	seedAttendees(t, eventRepo, ticketRepo)

	data, err := svc.ExportCSV(context.Background(), organizer(), "evt-1")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two attendees")
	assert.Equal(t, []string{"name", "email", "status", "checkedInAt"}, records[0])

	rows := map[string][]string{}
	for _, rec := range records[1:] {
		require.Len(t, rec, 4)
		rows[rec[1]] = rec
	}

	ada := rows["ada@campus.edu"]
	require.NotNil(t, ada)
	assert.Equal(t, "Ada Lovelace", ada[0])
	assert.Equal(t, "claimed", ada[2])
	assert.Empty(t, ada[3], "not checked in yet")

	grace := rows["grace@campus.edu"]
	require.NotNil(t, grace)
	assert.Equal(t, "checked_in", grace[2])
	_, err = time.Parse(time.RFC3339, grace[3])
	assert.NoError(t, err, "check-in timestamp should be RFC 3339")
}

func TestExportCSVEmptyEvent(t *testing.T) {
	eventRepo, _, _, svc := newAttendeeFixture(t)
	require.NoError(t, eventRepo.Create(context.Background(), activeEvent("evt-1", 10)))

	data, err := svc.ExportCSV(context.Background(), organizer(), "evt-1")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}
