package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medbook/booking-api/internal/model"
	"github.com/medbook/booking-api/internal/repository"
	"github.com/medbook/booking-api/pkg/messaging"
)

const eventChannel = "notifications"

// Service appends in-app notifications to a user's list and enqueues them for
// out-of-band dispatch. Delivery is at-least-once: the outbox row is the
// source of truth and the live broker publish is best effort.
type Service interface {
	Notify(ctx context.Context, userID uuid.UUID, notifType, message, onClickPath string) error
	List(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
	MarkAllSeen(ctx context.Context, userID uuid.UUID) error
	DeleteAllSeen(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo       repository.NotificationRepository
	outboxRepo repository.OutboxRepository
	broker     messaging.Broker
}

func NewService(repo repository.NotificationRepository, outboxRepo repository.OutboxRepository, broker messaging.Broker) Service {
	return &service{
		repo:       repo,
		outboxRepo: outboxRepo,
		broker:     broker,
	}
}

func (s *service) Notify(ctx context.Context, userID uuid.UUID, notifType, message, onClickPath string) error {
	n := &model.Notification{
		UserID:      userID,
		Type:        notifType,
		Message:     message,
		OnClickPath: onClickPath,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	event := &model.NotificationEvent{
		ID:             uuid.New(),
		NotificationID: n.ID,
		UserID:         userID,
		Type:           notifType,
		Message:        message,
		CreatedAt:      time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	if err := s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType: notifType,
		Payload:   payload,
	}); err != nil {
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("type", notifType).
			Msg("failed to enqueue notification event")
	}

	if s.broker != nil {
		if err := s.broker.Publish(ctx, eventChannel, event); err != nil {
			log.Warn().Err(err).
				Str("user_id", userID.String()).
				Msg("live notification publish failed, worker will deliver")
		}
	}

	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) MarkAllSeen(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllSeen(ctx, userID)
}

func (s *service) DeleteAllSeen(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteSeen(ctx, userID)
}
