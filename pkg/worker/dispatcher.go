package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/medbook/booking-api/internal/email"
	"github.com/medbook/booking-api/internal/model"
	"github.com/medbook/booking-api/internal/repository"
	"github.com/medbook/booking-api/pkg/logger"
	"github.com/medbook/booking-api/pkg/messaging"
	"github.com/medbook/booking-api/pkg/metrics"
)

type DispatcherConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// Dispatcher drains pending notification events from the outbox, publishes
// them to the broker and mails the recipient. Delivery is at-least-once; a
// crash between publish and mark-processed republishes the event.
type Dispatcher struct {
	outboxRepo repository.OutboxRepository
	userRepo   repository.UserRepository
	broker     messaging.Broker
	emailSvc   email.Service
	config     DispatcherConfig
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewDispatcher(
	outboxRepo repository.OutboxRepository,
	userRepo repository.UserRepository,
	broker messaging.Broker,
	emailSvc email.Service,
	config DispatcherConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Dispatcher {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &Dispatcher{
		outboxRepo: outboxRepo,
		userRepo:   userRepo,
		broker:     broker,
		emailSvc:   emailSvc,
		config:     config,
		logger:     logger,
		metrics:    metrics,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	d.logger.Info("Starting notification dispatcher")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutting down notification dispatcher")
			return
		case <-ticker.C:
			if err := d.processEvents(ctx); err != nil {
				d.logger.Error(err, "Failed to process notification events")
			}
		}
	}
}

func (d *Dispatcher) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(d.metrics.DispatchLatency)
	defer timer.ObserveDuration()

	events, err := d.outboxRepo.GetPendingEvents(ctx, d.config.BatchSize)
	if err != nil {
		d.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	d.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := d.processEvent(ctx, event); err != nil {
			d.logger.Error(err, "Failed to dispatch event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
		}
	}

	return nil
}

func (d *Dispatcher) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := d.retry(event.EventType, func() error {
		if err := d.broker.Publish(ctx, event.EventType, event.Payload); err != nil {
			d.metrics.RedisOperations.WithLabelValues("publish", "error").Inc()
			return err
		}
		d.metrics.RedisOperations.WithLabelValues("publish", "success").Inc()
		return nil
	})

	if err != nil {
		d.metrics.NotificationsFailed.Inc()
		if markErr := d.outboxRepo.MarkFailed(ctx, event.ID, err.Error(), event.RetryCount+1, d.config.RetryAttempts); markErr != nil {
			d.logger.Error(markErr, "Failed to mark event failed", "event_id", event.ID.String())
		}
		return err
	}

	// Email is best-effort on top of the in-app notification.
	d.sendEmail(ctx, event)

	d.metrics.NotificationsDispatched.Inc()
	if err := d.outboxRepo.MarkProcessed(ctx, event.ID); err != nil {
		d.logger.Error(err, "Failed to mark event processed", "event_id", event.ID.String())
		return err
	}

	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, event *model.OutboxEvent) {
	var payload model.NotificationEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		d.logger.Error(err, "Malformed notification payload", "event_id", event.ID.String())
		return
	}

	user, err := d.userRepo.Get(ctx, payload.UserID)
	if err != nil {
		d.logger.Error(err, "Failed to resolve notification recipient",
			"user_id", payload.UserID.String())
		return
	}

	subject := emailSubject(payload.Type)
	body := fmt.Sprintf("<p>Hi %s,</p><p>%s</p>", user.Name, payload.Message)

	if err := d.emailSvc.Send(user.Email, subject, body); err != nil {
		d.logger.Error(err, "Failed to send notification email", "user_id", user.ID.String())
	}
}

func emailSubject(notifType string) string {
	switch notifType {
	case model.NotificationNewAppointmentRequest:
		return "New appointment request"
	case model.NotificationStatusUpdated:
		return "Your appointment status changed"
	case model.NotificationAppointmentCancelled:
		return "An appointment was cancelled"
	default:
		return "Notification"
	}
}

func (d *Dispatcher) retry(eventType string, fn func() error) error {
	var err error
	for i := 0; i < d.config.RetryAttempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < d.config.RetryAttempts-1 {
			d.metrics.DispatchRetries.WithLabelValues(eventType).Inc()
			time.Sleep(d.config.RetryDelay)
		}
	}
	return err
}

// Purge removes processed events older than the retention window.
func (d *Dispatcher) Purge(ctx context.Context, retention time.Duration) {
	deleted, err := d.outboxRepo.DeleteProcessedBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		d.logger.Error(err, "Failed to purge processed events")
		return
	}
	if deleted > 0 {
		d.logger.Info("Purged processed events", "count", deleted)
	}
}
