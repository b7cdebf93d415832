package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// User roles
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Weekdays accepted in an availability declaration, full English names.
var Weekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// DayAvailability is one weekday's offerable time tokens. A declaration holds
// at most one entry per weekday.
type DayAvailability struct {
	Day       string   `json:"day"`
	TimeSlots []string `json:"timeSlots"`
}

// AvailableSlots is a doctor's weekly availability declaration, stored as a
// JSONB column on the users table.
type AvailableSlots []DayAvailability

func (a AvailableSlots) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *AvailableSlots) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported type for AvailableSlots: %T", src)
	}
}

// ForDay returns the declaration entry for the given weekday name, if any.
func (a AvailableSlots) ForDay(day string) (DayAvailability, bool) {
	for _, d := range a {
		if d.Day == day {
			return d, true
		}
	}
	return DayAvailability{}, false
}

// User represents a patient, doctor or admin account. Doctor-specific profile
// fields are null for patients.
type User struct {
	Base
	Name           string         `json:"name" db:"name"`
	Email          string         `json:"email" db:"email"`
	Password       string         `json:"password,omitempty" db:"-"`
	PasswordHash   string         `json:"-" db:"password_hash"`
	Role           string         `json:"role" db:"role"`
	Phone          *string        `json:"phone,omitempty" db:"phone"`
	Specialization *string        `json:"specialization,omitempty" db:"specialization"`
	Experience     *int           `json:"experience,omitempty" db:"experience"`
	Fees           *int           `json:"fees,omitempty" db:"fees"`
	About          *string        `json:"about,omitempty" db:"about"`
	Location       *string        `json:"location,omitempty" db:"location"`
	Qualifications *string        `json:"qualifications,omitempty" db:"qualifications"`
	Image          *string        `json:"image,omitempty" db:"image"`
	AvailableSlots AvailableSlots `json:"available_slots,omitempty" db:"available_slots"`
}

// IsDoctor reports whether the account may manage availability and respond to
// booking requests.
func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor
}

// Snapshot renders the user's display-only booking snapshot.
func (u *User) Snapshot() PartySnapshot {
	s := PartySnapshot{Name: u.Name, Email: u.Email}
	if u.Specialization != nil {
		s.Specialization = *u.Specialization
	}
	return s
}

// RegisterRequest represents account creation parameters
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries the profile fields a user may edit. Pointer
// fields distinguish "not sent" from "clear".
type UpdateProfileRequest struct {
	Name           *string         `json:"name"`
	Email          *string         `json:"email" binding:"omitempty,email"`
	Phone          *string         `json:"phone"`
	Specialization *string         `json:"specialization"`
	Experience     *int            `json:"experience"`
	Fees           *int            `json:"fees"`
	About          *string         `json:"about"`
	Location       *string         `json:"location"`
	Qualifications *string         `json:"qualifications"`
	Image          *string         `json:"image"`
	AvailableSlots *AvailableSlots `json:"availableSlots"`
}
