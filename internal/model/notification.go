package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types pushed to a user's in-app list.
const (
	NotificationNewAppointmentRequest = "new-appointment-request"
	NotificationStatusUpdated         = "status-updated"
	NotificationAppointmentCancelled  = "appointment-cancelled"
)

// Notification is one entry in a user's in-app notification list. Seen splits
// the list into the dashboard's seen/unseen views.
type Notification struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Type        string    `db:"type" json:"type"`
	Message     string    `db:"message" json:"message"`
	OnClickPath string    `db:"on_click_path" json:"onClickPath"`
	Seen        bool      `db:"seen" json:"seen"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NotificationEvent is the payload published to the broker and drained by the
// dispatch worker. Delivery is at-least-once; there is no idempotency key.
type NotificationEvent struct {
	ID             uuid.UUID `json:"id"`
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}
