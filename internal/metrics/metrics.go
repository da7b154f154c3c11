package metrics

import (
	"context"
	"sync"

	"github.com/studentevent/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// Ticket counters
	TicketsClaimed   *telemetry.Counter
	TicketsUnclaimed *telemetry.Counter
	TicketsCheckedIn *telemetry.Counter
	ClaimsRejected   *telemetry.Counter

	// Event counters
	EventsCreated   *telemetry.Counter
	EventsCancelled *telemetry.Counter

	// Notification counters
	NotificationsQueued  *telemetry.Counter
	NotificationsFailed  *telemetry.Counter
	NotificationsDropped *telemetry.Counter

	// Histograms
	ClaimDuration *telemetry.Histogram

	initOnce sync.Once
	initErr  error
)

// Init initializes all service metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	TicketsClaimed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "tickets_claimed_total",
		Description: "Total number of tickets claimed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	TicketsUnclaimed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "tickets_unclaimed_total",
		Description: "Total number of tickets released by their holder",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	TicketsCheckedIn, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "tickets_checked_in_total",
		Description: "Total number of tickets checked in at the door",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ClaimsRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_claims_rejected_total",
		Description: "Total number of rejected claim attempts by reason",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	EventsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "events_created_total",
		Description: "Total number of events created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	EventsCancelled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "events_cancelled_total",
		Description: "Total number of events cancelled",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	NotificationsQueued, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "notifications_queued_total",
		Description: "Total number of notification jobs enqueued",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	NotificationsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "notifications_failed_total",
		Description: "Total number of notification delivery failures",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	NotificationsDropped, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "notifications_dropped_total",
		Description: "Total number of notifications dropped after retries",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ClaimDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "ticket_claim_duration_seconds",
		Description: "Duration of the claim transaction",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5})
	if err != nil {
		return err
	}

	return nil
}

// RecordClaim records a successful ticket claim
func RecordClaim(ctx context.Context, eventID string, durationSeconds float64) {
	if TicketsClaimed != nil {
		TicketsClaimed.Inc(ctx, attribute.String("event_id", eventID))
	}
	if ClaimDuration != nil {
		ClaimDuration.Record(ctx, durationSeconds, attribute.String("event_id", eventID))
	}
}

// RecordClaimRejected records a rejected claim attempt
func RecordClaimRejected(ctx context.Context, eventID, reason string) {
	if ClaimsRejected != nil {
		ClaimsRejected.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("reason", reason),
		)
	}
}

// RecordUnclaim records a released ticket
func RecordUnclaim(ctx context.Context, eventID string) {
	if TicketsUnclaimed != nil {
		TicketsUnclaimed.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordCheckIn records a door check-in
func RecordCheckIn(ctx context.Context, eventID string) {
	if TicketsCheckedIn != nil {
		TicketsCheckedIn.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordEventCreated records a created event
func RecordEventCreated(ctx context.Context, category string) {
	if EventsCreated != nil {
		EventsCreated.Inc(ctx, attribute.String("category", category))
	}
}

// RecordEventCancelled records a cancelled event
func RecordEventCancelled(ctx context.Context, eventID string) {
	if EventsCancelled != nil {
		EventsCancelled.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordNotificationQueued records an enqueued notification job
func RecordNotificationQueued(ctx context.Context, kind string) {
	if NotificationsQueued != nil {
		NotificationsQueued.Inc(ctx, attribute.String("kind", kind))
	}
}

// RecordNotificationFailure records a delivery failure
func RecordNotificationFailure(ctx context.Context, kind string) {
	if NotificationsFailed != nil {
		NotificationsFailed.Inc(ctx, attribute.String("kind", kind))
	}
}

// RecordNotificationDropped records a job abandoned after retries
func RecordNotificationDropped(ctx context.Context, kind string) {
	if NotificationsDropped != nil {
		NotificationsDropped.Inc(ctx, attribute.String("kind", kind))
	}
}
