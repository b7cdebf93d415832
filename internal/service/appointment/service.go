package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medbook/booking-api/internal/model"
	"github.com/medbook/booking-api/internal/repository"
	"github.com/medbook/booking-api/internal/schedule"
	"github.com/medbook/booking-api/internal/service/notification"
	apperrors "github.com/medbook/booking-api/pkg/errors"
)

type Service struct {
	repo     repository.AppointmentRepository
	userRepo repository.UserRepository
	notifSvc notification.Service
	now      func() time.Time
}

func NewService(repo repository.AppointmentRepository, userRepo repository.UserRepository, notifSvc notification.Service) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		notifSvc: notifSvc,
		now:      time.Now,
	}
}

// Book validates a booking request and creates a pending appointment. The
// patient identity comes from the authenticated session; the snapshots in the
// request are stored verbatim for display only, except that an empty doctor
// snapshot is filled from the doctor's profile.
//
// Validation order is fixed: missing fields, date parse, time vocabulary,
// past date, past time (same-day only), doctor availability, slot conflict.
// The storage layer's
// unique index on active slots is the final arbiter, so two concurrent
// bookings for one slot cannot both commit.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid doctor ID", err)
	}

	date, err := s.validateSlotTiming(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	doctor, err := s.userRepo.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.checkAvailability(doctor, date, req.Time); err != nil {
		return nil, err
	}

	taken, err := s.repo.HasActiveConflict(ctx, doctorID, req.Date, req.Time)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if taken {
		return nil, apperrors.SlotTaken()
	}

	doctorInfo := req.DoctorInfo
	if doctorInfo == (model.PartySnapshot{}) {
		doctorInfo = doctor.Snapshot()
	}

	apt := &model.Appointment{
		DoctorID:    doctorID,
		PatientID:   patientID,
		Date:        req.Date,
		Time:        req.Time,
		Status:      model.AppointmentStatusPending,
		DoctorInfo:  doctorInfo,
		PatientInfo: req.PatientInfo,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			return nil, apperrors.SlotTaken()
		}
		return nil, apperrors.Internal(err)
	}

	patientName := req.PatientInfo.Name
	if patientName == "" {
		patientName = "A patient"
	}
	s.notify(ctx, doctorID,
		model.NotificationNewAppointmentRequest,
		fmt.Sprintf("A new appointment request from %s", patientName),
		"/doctor-appointments",
	)

	return apt, nil
}

// CheckAvailability runs the booking validation chain without persisting
// anything. A nil error means the slot is open.
func (s *Service) CheckAvailability(ctx context.Context, req *model.CheckAvailabilityRequest) error {
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return apperrors.BadRequest("invalid doctor ID", err)
	}

	date, err := s.validateSlotTiming(req.Date, req.Time)
	if err != nil {
		return err
	}

	doctor, err := s.userRepo.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor", err)
		}
		return apperrors.Internal(err)
	}

	if err := s.checkAvailability(doctor, date, req.Time); err != nil {
		return err
	}

	taken, err := s.repo.HasActiveConflict(ctx, doctorID, req.Date, req.Time)
	if err != nil {
		return apperrors.Internal(err)
	}
	if taken {
		return apperrors.SlotTaken()
	}
	return nil
}

// UpdateStatus applies a doctor-driven state change and notifies the patient.
// Transitions are gated by the appointment state machine; doctor instructions
// are stored only with a completed transition.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID uuid.UUID, newStatus model.AppointmentStatus, doctorInstructions string) (*model.Appointment, error) {
	apt, err := s.transition(ctx, appointmentID, newStatus, doctorInstructions)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, apt.PatientID,
		model.NotificationStatusUpdated,
		fmt.Sprintf("Your appointment has been %s", newStatus),
		"/appointments",
	)

	return apt, nil
}

// Cancel is the patient-driven pending → cancelled transition; the doctor is
// notified.
func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID) (*model.Appointment, error) {
	apt, err := s.transition(ctx, appointmentID, model.AppointmentStatusCancelled, "")
	if err != nil {
		return nil, err
	}

	s.notify(ctx, apt.DoctorID,
		model.NotificationAppointmentCancelled,
		"A patient cancelled their appointment",
		"/doctor-appointments",
	)

	return apt, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

func (s *Service) transition(ctx context.Context, appointmentID uuid.UUID, newStatus model.AppointmentStatus, doctorInstructions string) (*model.Appointment, error) {
	if !newStatus.Valid() || newStatus == model.AppointmentStatusPending {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status: %s", newStatus), nil)
	}

	apt, err := s.repo.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}

	if !model.CanTransition(apt.Status, newStatus) {
		return nil, apperrors.IllegalTransition(string(apt.Status), string(newStatus))
	}

	apt.Status = newStatus
	if newStatus == model.AppointmentStatusCompleted && doctorInstructions != "" {
		apt.DoctorInstructions = doctorInstructions
	}

	if err := s.repo.UpdateStatus(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}

	return apt, nil
}

// validateSlotTiming checks presence, date format, time vocabulary, and
// past-date/past-time rules. Returns the parsed date on success.
func (s *Service) validateSlotTiming(dateStr, timeStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, apperrors.MissingField("date")
	}
	if timeStr == "" {
		return time.Time{}, apperrors.MissingField("time")
	}

	date, err := schedule.ParseDate(dateStr)
	if err != nil {
		return time.Time{}, apperrors.InvalidDate(dateStr)
	}

	if !schedule.ValidToken(timeStr) {
		return time.Time{}, apperrors.BadRequest(fmt.Sprintf("invalid time slot: %q", timeStr), nil)
	}

	now := s.now()
	if schedule.IsDatePast(date, now) {
		return time.Time{}, apperrors.PastDate()
	}
	if schedule.SameDay(date, now) {
		past, err := schedule.IsSlotPast(timeStr, now)
		if err != nil {
			return time.Time{}, apperrors.BadRequest("invalid time format", err)
		}
		if past {
			return time.Time{}, apperrors.PastTime()
		}
	}

	return date, nil
}

// checkAvailability gates on the doctor's declaration. A doctor with no
// declaration at all skips the check (availability not yet configured); this
// mirrors onboarding before the profile is filled in and is logged so the gap
// is visible.
func (s *Service) checkAvailability(doctor *model.User, date time.Time, timeToken string) error {
	if len(doctor.AvailableSlots) == 0 {
		log.Warn().
			Str("doctor_id", doctor.ID.String()).
			Msg("doctor has no availability declaration, skipping availability check")
		return nil
	}
	if !schedule.IsSlotOfferable(doctor.AvailableSlots, date, timeToken) {
		return apperrors.DoctorUnavailable()
	}
	return nil
}

// notify is best effort: a failed notification write never fails the booking
// or transition that triggered it.
func (s *Service) notify(ctx context.Context, userID uuid.UUID, notifType, message, onClickPath string) {
	if s.notifSvc == nil {
		return
	}
	if err := s.notifSvc.Notify(ctx, userID, notifType, message, onClickPath); err != nil {
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("type", notifType).
			Msg("failed to send notification")
	}
}
