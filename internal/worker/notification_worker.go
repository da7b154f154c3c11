package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/internal/metrics"
	"github.com/studentevent/api/internal/repository"
	"github.com/studentevent/api/internal/service"
	"github.com/studentevent/api/pkg/logger"
	"github.com/studentevent/api/pkg/retry"
	"go.uber.org/zap"
)

// NotificationWorkerConfig contains configuration for the notification worker
type NotificationWorkerConfig struct {
	// MaxRetries is the number of delivery attempts per job
	MaxRetries int
	// RetryInterval is the initial backoff between attempts
	RetryInterval time.Duration
}

// DefaultNotificationWorkerConfig returns default configuration
func DefaultNotificationWorkerConfig() *NotificationWorkerConfig {
	return &NotificationWorkerConfig{
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
	}
}

// NotificationWorker drains the notification queue and delivers each
// job through the Notifier. A job that still fails after the retry
// budget goes to the dead letter sink, or is logged and dropped when
// no sink is configured.
type NotificationWorker struct {
	queue    repository.NotificationQueue
	notifier service.Notifier
	dead     repository.DeadLetterSink
	config   *NotificationWorkerConfig
	log      *logger.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewNotificationWorker creates a new notification worker. dead may be
// nil, in which case exhausted jobs are dropped.
func NewNotificationWorker(
	queue repository.NotificationQueue,
	notifier service.Notifier,
	dead repository.DeadLetterSink,
	config *NotificationWorkerConfig,
) *NotificationWorker {
	if config == nil {
		config = DefaultNotificationWorkerConfig()
	}
	return &NotificationWorker{
		queue:    queue,
		notifier: notifier,
		dead:     dead,
		config:   config,
		log:      logger.Get(),
		stopCh:   make(chan struct{}),
	}
}

// Start starts the notification worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("notification worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting notification worker")

	w.wg.Add(1)
	go w.drainQueue(ctx)

	return nil
}

// Stop stops the notification worker and waits for the in-flight job
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping notification worker")
	close(w.stopCh)
	w.wg.Wait()
}

func (w *NotificationWorker) drainQueue(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		// Dequeue blocks up to the queue's poll timeout, so the stop
		// channel is observed at least that often.
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("failed to dequeue notification", zap.Error(err))
			time.Sleep(w.config.RetryInterval)
			continue
		}
		if job == nil {
			continue
		}

		w.deliver(ctx, job)
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, job *domain.Notification) {
	retrier := retry.New(&retry.Config{
		MaxRetries:      w.config.MaxRetries,
		InitialInterval: w.config.RetryInterval,
	})

	result := retrier.Do(ctx, func(ctx context.Context) error {
		return w.notifier.Send(ctx, job)
	})
	if result.Err != nil {
		metrics.RecordNotificationDropped(ctx, string(job.Kind))
		w.log.Error("notification exhausted retry budget",
			zap.Error(result.Err),
			zap.String("kind", string(job.Kind)),
			zap.String("user_id", job.UserID),
			zap.Int("attempts", result.Attempts),
		)

		if w.dead != nil {
			cause := result.Err
			if result.LastError != nil {
				cause = result.LastError
			}
			deadJob := &repository.DeadNotification{
				Notification: job,
				Error:        cause.Error(),
				Attempts:     result.Attempts,
				DroppedAt:    time.Now(),
			}
			if err := w.dead.EnqueueDead(ctx, deadJob); err != nil {
				w.log.Error("failed to dead letter notification", zap.Error(err))
			}
		}
		return
	}
	if result.Attempts > 1 {
		metrics.RecordNotificationFailure(ctx, string(job.Kind))
	}
}
