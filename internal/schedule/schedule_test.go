package schedule

import (
	"testing"
	"time"

	"github.com/medbook/booking-api/internal/model"
)

func mondayOnly(tokens ...string) model.AvailableSlots {
	return model.AvailableSlots{{Day: "Monday", TimeSlots: tokens}}
}

func TestIsSlotOfferableMatchesWeekdayAndToken(t *testing.T) {
	decl := mondayOnly("09:00", "10:00")

	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	cases := []struct {
		name  string
		date  time.Time
		token string
		want  bool
	}{
		{"declared day and token", monday, "09:00", true},
		{"declared day, second token", monday, "10:00", true},
		{"declared day, undeclared token", monday, "11:00", false},
		{"undeclared day, declared token", tuesday, "09:00", false},
		{"next monday still offerable", monday.AddDate(0, 0, 7), "09:00", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSlotOfferable(decl, tc.date, tc.token); got != tc.want {
				t.Fatalf("IsSlotOfferable(%s, %s) = %v, want %v", tc.date.Weekday(), tc.token, got, tc.want)
			}
		})
	}
}

func TestIsSlotOfferableEmptyDeclaration(t *testing.T) {
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if IsSlotOfferable(nil, monday, "09:00") {
		t.Fatal("empty declaration must offer nothing")
	}
}

func TestWeekdayNames(t *testing.T) {
	// 2024-06-03 is a Monday.
	for i, want := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		date := time.Date(2024, 6, 3+i, 0, 0, 0, 0, time.UTC)
		if got := Weekday(date); got != want {
			t.Fatalf("Weekday(%v) = %q, want %q", date, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2024-06-03"); err != nil {
		t.Fatalf("ParseDate valid: %v", err)
	}
	for _, bad := range []string{"", "03-06-2024", "2024/06/03", "not-a-date", "2024-13-40"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("ParseDate(%q) expected error", bad)
		}
	}
}

func TestIsDatePast(t *testing.T) {
	now := time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC)

	yesterday := time.Date(2024, 6, 2, 23, 59, 0, 0, time.UTC)
	if !IsDatePast(yesterday, now) {
		t.Fatal("yesterday should be past")
	}

	// Same calendar day is not past even though the instant is earlier.
	earlierToday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if IsDatePast(earlierToday, now) {
		t.Fatal("today should not be past")
	}

	tomorrow := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	if IsDatePast(tomorrow, now) {
		t.Fatal("tomorrow should not be past")
	}
}

func TestIsSlotPast(t *testing.T) {
	now := time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC)

	past, err := IsSlotPast("14:00", now)
	if err != nil || !past {
		t.Fatalf("14:00 at 15:30 should be past (past=%v err=%v)", past, err)
	}

	past, err = IsSlotPast("16:00", now)
	if err != nil || past {
		t.Fatalf("16:00 at 15:30 should not be past (past=%v err=%v)", past, err)
	}

	if _, err := IsSlotPast("25:99", now); err == nil {
		t.Fatal("invalid token should error")
	}
}

func TestValidToken(t *testing.T) {
	if !ValidToken("09:00") || !ValidToken("20:00") {
		t.Fatal("vocabulary tokens should be valid")
	}
	if ValidToken("13:00") || ValidToken("9:00") || ValidToken("") {
		t.Fatal("non-vocabulary tokens should be invalid")
	}
}

func TestValidateDeclaration(t *testing.T) {
	good := model.AvailableSlots{
		{Day: "Monday", TimeSlots: []string{"09:00", "10:00"}},
		{Day: "Friday", TimeSlots: []string{"17:00"}},
	}
	if err := ValidateDeclaration(good); err != nil {
		t.Fatalf("valid declaration rejected: %v", err)
	}

	bad := []model.AvailableSlots{
		{{Day: "Funday", TimeSlots: []string{"09:00"}}},
		{{Day: "Monday", TimeSlots: []string{"09:30"}}},
		{{Day: "Monday", TimeSlots: []string{"09:00"}}, {Day: "Monday", TimeSlots: []string{"10:00"}}},
	}
	for i, decl := range bad {
		if err := ValidateDeclaration(decl); err == nil {
			t.Fatalf("case %d: invalid declaration accepted", i)
		}
	}
}
