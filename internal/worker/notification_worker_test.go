package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/internal/repository"
)

// flakyNotifier fails the first failures deliveries, then succeeds
type flakyNotifier struct {
	mu        sync.Mutex
	failures  int
	delivered []*domain.Notification
	attempts  int
}

func (n *flakyNotifier) Send(ctx context.Context, job *domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.attempts <= n.failures {
		return errors.New("smtp unavailable")
	}
	n.delivered = append(n.delivered, job)
	return nil
}

func (n *flakyNotifier) deliveredCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.delivered)
}

func testJob(kind domain.NotificationKind) *domain.Notification {
	return &domain.Notification{
		ID:         "n-1",
		Kind:       kind,
		UserID:     "student-1",
		Email:      "ada@campus.edu",
		EventID:    "evt-1",
		EventTitle: "Career Fair",
		CreatedAt:  time.Now(),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerDeliversQueuedJobs(t *testing.T) {
	queue := repository.NewMemoryNotificationQueue(16, 50*time.Millisecond)
	notifier := &flakyNotifier{}
	w := NewNotificationWorker(queue, notifier, nil, nil)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, queue.Enqueue(context.Background(), testJob(domain.NotificationTicketClaimed)))

	waitFor(t, func() bool { return notifier.deliveredCount() == 1 })
	assert.Equal(t, domain.NotificationTicketClaimed, notifier.delivered[0].Kind)
}

func TestWorkerRetriesFailedDelivery(t *testing.T) {
	queue := repository.NewMemoryNotificationQueue(16, 50*time.Millisecond)
	notifier := &flakyNotifier{failures: 2}
	w := NewNotificationWorker(queue, notifier, nil, &NotificationWorkerConfig{
		MaxRetries:    3,
		RetryInterval: 10 * time.Millisecond,
	})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, queue.Enqueue(context.Background(), testJob(domain.NotificationEventCancelled)))

	waitFor(t, func() bool { return notifier.deliveredCount() == 1 })
	assert.Equal(t, 3, notifier.attempts, "two failures then a success")
}

func TestWorkerDeadLettersJobAfterRetryBudget(t *testing.T) {
	queue := repository.NewMemoryNotificationQueue(16, 50*time.Millisecond)
	notifier := &flakyNotifier{failures: 100}
	w := NewNotificationWorker(queue, notifier, queue, &NotificationWorkerConfig{
		MaxRetries:    2,
		RetryInterval: 5 * time.Millisecond,
	})

	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, queue.Enqueue(context.Background(), testJob(domain.NotificationTicketClaimed)))
	require.NoError(t, queue.Enqueue(context.Background(), testJob(domain.NotificationTicketRemoved)))

	// Both jobs exhaust their retries; the worker keeps draining
	waitFor(t, func() bool { return len(queue.Dead()) == 2 })
	w.Stop()

	assert.Zero(t, notifier.deliveredCount())
	dead := queue.Dead()
	assert.Equal(t, 3, dead[0].Attempts)
	assert.NotEmpty(t, dead[0].Error)
	assert.Equal(t, domain.NotificationTicketClaimed, dead[0].Notification.Kind)
}

func TestWorkerStartTwice(t *testing.T) {
	queue := repository.NewMemoryNotificationQueue(16, 50*time.Millisecond)
	w := NewNotificationWorker(queue, &flakyNotifier{}, nil, nil)

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}

func TestWorkerStopIsIdempotent(t *testing.T) {
	queue := repository.NewMemoryNotificationQueue(16, 50*time.Millisecond)
	w := NewNotificationWorker(queue, &flakyNotifier{}, nil, nil)

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
