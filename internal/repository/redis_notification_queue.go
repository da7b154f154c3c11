package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/studentevent/api/internal/domain"
	pkgredis "github.com/studentevent/api/pkg/redis"
	"github.com/studentevent/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RedisNotificationQueue implements NotificationQueue on a Redis list.
// Producers LPUSH, the worker BRPOPs, so jobs survive a process
// restart as long as Redis does.
type RedisNotificationQueue struct {
	client      *pkgredis.Client
	queueKey    string
	pollTimeout time.Duration
}

// NewRedisNotificationQueue creates a new RedisNotificationQueue
func NewRedisNotificationQueue(client *pkgredis.Client, queueKey string, pollTimeout time.Duration) *RedisNotificationQueue {
	return &RedisNotificationQueue{
		client:      client,
		queueKey:    queueKey,
		pollTimeout: pollTimeout,
	}
}

// Enqueue pushes a notification job onto the queue
func (q *RedisNotificationQueue) Enqueue(ctx context.Context, n *domain.Notification) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.notification.enqueue")
	defer span.End()

	span.SetAttributes(
		attribute.String("notification.kind", string(n.Kind)),
		attribute.String("user_id", n.UserID),
	)

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := q.client.Client().LPush(ctx, q.queueKey, payload).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// Dequeue pops the oldest job, blocking up to the poll timeout.
// Returns nil, nil when the timeout elapsed with nothing queued.
func (q *RedisNotificationQueue) Dequeue(ctx context.Context) (*domain.Notification, error) {
	values, err := q.client.Client().BRPop(ctx, q.pollTimeout, q.queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue notification: %w", err)
	}
	// BRPOP returns [key, value]
	if len(values) < 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length: %d", len(values))
	}

	var n domain.Notification
	if err := json.Unmarshal([]byte(values[1]), &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &n, nil
}

// EnqueueDead pushes an undeliverable job onto the dead letter list
// (queue key + ":dead") so it can be inspected or replayed by hand.
func (q *RedisNotificationQueue) EnqueueDead(ctx context.Context, dead *DeadNotification) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.notification.enqueue_dead")
	defer span.End()

	span.SetAttributes(
		attribute.String("notification.kind", string(dead.Notification.Kind)),
		attribute.Int("attempts", dead.Attempts),
	)

	payload, err := json.Marshal(dead)
	if err != nil {
		return fmt.Errorf("failed to marshal dead notification: %w", err)
	}

	if err := q.client.Client().LPush(ctx, q.queueKey+":dead", payload).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to enqueue dead notification: %w", err)
	}
	return nil
}

// Close is a no-op; the underlying client is shared and closed by its owner
func (q *RedisNotificationQueue) Close() error {
	return nil
}
