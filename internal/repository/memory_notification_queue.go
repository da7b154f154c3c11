package repository

import (
	"context"
	"sync"
	"time"

	"github.com/studentevent/api/internal/domain"
)

// MemoryNotificationQueue implements NotificationQueue on a buffered
// channel. Used when Redis is disabled and in tests; jobs do not
// survive a restart.
type MemoryNotificationQueue struct {
	jobs        chan *domain.Notification
	pollTimeout time.Duration

	mu   sync.Mutex
	dead []*DeadNotification
}

// NewMemoryNotificationQueue creates a new MemoryNotificationQueue
func NewMemoryNotificationQueue(size int, pollTimeout time.Duration) *MemoryNotificationQueue {
	if size <= 0 {
		size = 1024
	}
	return &MemoryNotificationQueue{
		jobs:        make(chan *domain.Notification, size),
		pollTimeout: pollTimeout,
	}
}

// Enqueue adds a job, dropping it when the buffer is full rather than
// blocking the request path
func (q *MemoryNotificationQueue) Enqueue(ctx context.Context, n *domain.Notification) error {
	select {
	case q.jobs <- n:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Dequeue waits up to the poll timeout for a job
func (q *MemoryNotificationQueue) Dequeue(ctx context.Context) (*domain.Notification, error) {
	timer := time.NewTimer(q.pollTimeout)
	defer timer.Stop()

	select {
	case n := <-q.jobs:
		return n, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// EnqueueDead retains an undeliverable job in memory
func (q *MemoryNotificationQueue) EnqueueDead(ctx context.Context, dead *DeadNotification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, dead)
	return nil
}

// Dead returns a snapshot of the dead letter jobs
func (q *MemoryNotificationQueue) Dead() []*DeadNotification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*DeadNotification, len(q.dead))
	copy(out, q.dead)
	return out
}

// Close releases the buffer
func (q *MemoryNotificationQueue) Close() error {
	return nil
}
