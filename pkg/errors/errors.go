package errors

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-readable error identifier returned to API clients
// alongside the human-readable message.
type ErrorCode int

const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrConflict
)

// Booking-domain codes. These let clients distinguish validation failures
// without parsing messages.
const (
	ErrMissingField ErrorCode = iota + 2000
	ErrInvalidDate
	ErrPastDate
	ErrPastTime
	ErrDoctorUnavailable
	ErrSlotTaken
	ErrIllegalTransition
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the error is a business-rule violation the
// caller can fix and retry, as opposed to an infrastructure failure.
func (e *AppError) Recoverable() bool {
	return e.Code != ErrInternal
}

// AsAppError unwraps err into an *AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

// Conflict signals that the operation clashes with existing records and can
// only succeed once those records change.
func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func MissingField(field string) *AppError {
	return &AppError{
		Code:    ErrMissingField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func InvalidDate(value string) *AppError {
	return &AppError{
		Code:    ErrInvalidDate,
		Message: fmt.Sprintf("invalid date format: %q", value),
	}
}

func PastDate() *AppError {
	return &AppError{
		Code:    ErrPastDate,
		Message: "selected date is in the past",
	}
}

func PastTime() *AppError {
	return &AppError{
		Code:    ErrPastTime,
		Message: "selected time is in the past",
	}
}

func DoctorUnavailable() *AppError {
	return &AppError{
		Code:    ErrDoctorUnavailable,
		Message: "doctor is not available at this time",
	}
}

func SlotTaken() *AppError {
	return &AppError{
		Code:    ErrSlotTaken,
		Message: "appointments not available at this time",
	}
}

func IllegalTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrIllegalTransition,
		Message: fmt.Sprintf("cannot change appointment status from %s to %s", from, to),
	}
}
