package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusApproved  AppointmentStatus = "approved"
	AppointmentStatusRejected  AppointmentStatus = "rejected"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// legalTransitions gates status changes. Forward-only: there is no path back
// to pending, and terminal states accept nothing.
var legalTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:  {AppointmentStatusApproved, AppointmentStatusRejected, AppointmentStatusCancelled},
	AppointmentStatusApproved: {AppointmentStatusCompleted},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to AppointmentStatus) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition may leave the status.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusRejected || s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusRejected,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// PartySnapshot is display-only contact info captured at booking time so
// dashboards render without re-joining to the users table. It is supplied by
// the caller and stored verbatim; it is never authoritative for authorization.
type PartySnapshot struct {
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

func (p PartySnapshot) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PartySnapshot) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = PartySnapshot{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported type for PartySnapshot: %T", src)
	}
}

// Appointment is a booked slot. Date is a calendar day ("2006-01-02") and
// Time a token from the slot vocabulary ("15:04"); both travel as strings on
// the wire and in storage.
type Appointment struct {
	Base
	DoctorID           uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID          uuid.UUID         `db:"patient_id" json:"patient_id"`
	Date               string            `db:"date" json:"date"`
	Time               string            `db:"time" json:"time"`
	Status             AppointmentStatus `db:"status" json:"status"`
	DoctorInstructions string            `db:"doctor_instructions" json:"doctor_instructions,omitempty"`
	DoctorInfo         PartySnapshot     `db:"doctor_info" json:"doctor_info"`
	PatientInfo        PartySnapshot     `db:"patient_info" json:"patient_info"`
}

// BookAppointmentRequest is the typed booking payload. The patient identity
// comes from the authenticated session, never from the body.
type BookAppointmentRequest struct {
	DoctorID    string        `json:"doctorId" binding:"required,uuid"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	DoctorInfo  PartySnapshot `json:"doctorInfo"`
	PatientInfo PartySnapshot `json:"userInfo"`
}

type CheckAvailabilityRequest struct {
	DoctorID string `json:"doctorId" binding:"required,uuid"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

type UpdateStatusRequest struct {
	AppointmentID      string `json:"appointmentId" binding:"required,uuid"`
	Status             string `json:"status" binding:"required"`
	DoctorInstructions string `json:"doctorInstructions"`
}

type CancelAppointmentRequest struct {
	AppointmentID string `json:"appointmentId" binding:"required,uuid"`
}
