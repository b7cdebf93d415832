package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/booking-api/internal/model"
)

// Sentinel errors surfaced by implementations so services can map them to the
// API error taxonomy.
var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateSlot is returned by AppointmentRepository.Create when the
	// storage-level uniqueness constraint on an active (doctor, date, time)
	// slot rejects the insert. This closes the check-then-insert race.
	ErrDuplicateSlot = errors.New("active appointment already exists for slot")
	// ErrInUse is returned by UserRepository.Delete when appointment rows
	// still reference the user, so the delete would break referential
	// integrity.
	ErrInUse = errors.New("user is referenced by appointments")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListDoctors(ctx context.Context) ([]*model.User, error)
		SearchDoctors(ctx context.Context, specialization string) ([]*model.User, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, appointment *model.Appointment) error
		// ListByDoctor and ListByPatient return appointments ordered by
		// date ascending, then time ascending.
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		// HasActiveConflict reports whether a non-terminal appointment already
		// occupies the (doctor, date, time) slot.
		HasActiveConflict(ctx context.Context, doctorID uuid.UUID, date, timeToken string) (bool, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
		MarkAllSeen(ctx context.Context, userID uuid.UUID) error
		DeleteSeen(ctx context.Context, userID uuid.UUID) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		// MarkFailed records a dispatch failure. The event stays pending for
		// another poll until retryCount reaches maxRetries, then it is parked
		// as failed.
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryCount, maxRetries int) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
