package schedule

import (
	"errors"
	"time"

	"github.com/medbook/booking-api/internal/model"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrInvalidDate = errors.New("invalid date format")
	ErrInvalidTime = errors.New("invalid time format")
)

// Tokens is the fixed vocabulary of bookable times, shared with the client.
var Tokens = []string{
	"09:00", "10:00", "11:00", "12:00",
	"14:00", "15:00", "16:00", "17:00",
	"18:00", "19:00", "20:00",
}

// ValidToken reports whether tok is a member of the slot vocabulary.
func ValidToken(tok string) bool {
	for _, t := range Tokens {
		if t == tok {
			return true
		}
	}
	return false
}

// ParseDate parses a calendar date in the wire format "2006-01-02".
func ParseDate(dateStr string) (time.Time, error) {
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// Weekday returns the full English weekday name for the date, matching the
// names used in availability declarations.
func Weekday(date time.Time) string {
	return date.Weekday().String()
}

// IsDatePast reports whether the calendar day of date is strictly before the
// calendar day of now. Time of day is ignored.
func IsDatePast(date, now time.Time) bool {
	y1, m1, d1 := date.Date()
	y2, m2, d2 := now.Date()
	return time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC).
		Before(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC))
}

// IsSlotPast reports whether the (today's date, time token) slot is strictly
// before now's wall clock. Only meaningful when the slot date equals today.
func IsSlotPast(timeStr string, now time.Time) (bool, error) {
	tok, err := time.Parse(TimeLayout, timeStr)
	if err != nil {
		return false, ErrInvalidTime
	}
	slot := time.Date(now.Year(), now.Month(), now.Day(), tok.Hour(), tok.Minute(), 0, 0, now.Location())
	return slot.Before(now), nil
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsSlotOfferable decides whether a doctor's declaration nominally offers the
// (date, token) slot: the date's weekday must have an entry and the token must
// be listed in it. A weekday with no entry means the doctor is unavailable
// that day, not available all day.
func IsSlotOfferable(decl model.AvailableSlots, date time.Time, token string) bool {
	day, ok := decl.ForDay(Weekday(date))
	if !ok {
		return false
	}
	for _, t := range day.TimeSlots {
		if t == token {
			return true
		}
	}
	return false
}

// ValidateDeclaration checks an availability declaration against the weekday
// set and slot vocabulary, rejecting duplicate weekday entries.
func ValidateDeclaration(decl model.AvailableSlots) error {
	seen := make(map[string]bool, len(decl))
	for _, d := range decl {
		if !validWeekday(d.Day) {
			return errors.New("unknown weekday: " + d.Day)
		}
		if seen[d.Day] {
			return errors.New("duplicate weekday: " + d.Day)
		}
		seen[d.Day] = true
		for _, t := range d.TimeSlots {
			if !ValidToken(t) {
				return errors.New("unknown time slot: " + t)
			}
		}
	}
	return nil
}

func validWeekday(day string) bool {
	for _, w := range model.Weekdays {
		if w == day {
			return true
		}
	}
	return false
}
