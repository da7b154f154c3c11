package di

import (
	"github.com/studentevent/api/internal/handler"
	"github.com/studentevent/api/internal/qr"
	"github.com/studentevent/api/internal/repository"
	"github.com/studentevent/api/internal/service"
	"github.com/studentevent/api/internal/worker"
	"github.com/studentevent/api/pkg/config"
	"github.com/studentevent/api/pkg/database"
	"github.com/studentevent/api/pkg/redis"
)

// Container holds all dependencies for the service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	EventRepo  repository.EventRepository
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Queue      repository.NotificationQueue

	// Services
	EventService    service.EventService
	TicketService   service.TicketService
	AttendeeService service.AttendeeService
	Notifier        service.Notifier

	// Workers
	NotificationWorker *worker.NotificationWorker

	// Handlers
	HealthHandler   *handler.HealthHandler
	EventHandler    *handler.EventHandler
	TicketHandler   *handler.TicketHandler
	AttendeeHandler *handler.AttendeeHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config *config.Config
	DB     *database.PostgresDB
	Redis  *redis.Client
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:    cfg.DB,
		Redis: cfg.Redis,
	}
	appCfg := cfg.Config

	// Initialize repositories
	txRunner := repository.NewPoolTxRunner(c.DB.Pool())
	c.EventRepo = repository.NewPostgresEventRepository(c.DB.Pool())
	c.TicketRepo = repository.NewPostgresTicketRepository(c.DB.Pool())
	c.UserRepo = repository.NewPostgresUserRepository(c.DB.Pool())

	// Redis-backed queue when available, in-process otherwise. Both
	// double as the dead letter sink for undeliverable jobs.
	var deadLetter repository.DeadLetterSink
	if c.Redis != nil {
		queue := repository.NewRedisNotificationQueue(c.Redis, appCfg.Notify.QueueKey, appCfg.Notify.PollTimeout)
		c.Queue = queue
		deadLetter = queue
	} else {
		queue := repository.NewMemoryNotificationQueue(0, appCfg.Notify.PollTimeout)
		c.Queue = queue
		deadLetter = queue
	}

	// Initialize services
	encoder := qr.NewEncoder(0)
	c.TicketService = service.NewTicketService(
		txRunner, c.EventRepo, c.TicketRepo, c.UserRepo, c.Queue, encoder,
		&service.TicketServiceConfig{ClientBaseURL: appCfg.Client.BaseURL},
	)
	c.EventService = service.NewEventService(txRunner, c.EventRepo, c.TicketRepo, c.UserRepo, c.Queue, nil)
	c.AttendeeService = service.NewAttendeeService(txRunner, c.EventRepo, c.TicketRepo, c.UserRepo, c.Queue, nil)
	c.Notifier = service.NewLogNotifier(nil)

	// Initialize workers
	c.NotificationWorker = worker.NewNotificationWorker(c.Queue, c.Notifier, deadLetter, &worker.NotificationWorkerConfig{
		MaxRetries:    appCfg.Notify.MaxRetries,
		RetryInterval: appCfg.Notify.RetryInterval,
	})

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis, appCfg.App.Name, appCfg.App.Version)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.TicketHandler = handler.NewTicketHandler(c.TicketService)
	c.AttendeeHandler = handler.NewAttendeeHandler(c.AttendeeService)

	return c
}
