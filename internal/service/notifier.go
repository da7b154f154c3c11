package service

import (
	"context"

	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/pkg/logger"
	"go.uber.org/zap"
)

// Notifier delivers a notification to its recipient
type Notifier interface {
	Send(ctx context.Context, n *domain.Notification) error
}

// LogNotifier writes notifications to the application log. It stands
// in for a mail or push provider until one is wired up.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Get()
	}
	return &LogNotifier{log: log}
}

// Send logs the notification
func (n *LogNotifier) Send(ctx context.Context, job *domain.Notification) error {
	n.log.Info("notification delivered",
		zap.String("kind", string(job.Kind)),
		zap.String("user_id", job.UserID),
		zap.String("email", job.Email),
		zap.String("event_id", job.EventID),
		zap.String("event_title", job.EventTitle),
	)
	return nil
}
