package scheduling

import (
	"errors"
	"testing"
	"time"
)

func TestParseBookingDateTime(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading location: %v", err)
	}

	ts, err := ParseBookingDateTime("2025-04-28", "2:00 PM", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, time.April, 28, 14, 0, 0, 0, loc)
	if !ts.Equal(want) {
		t.Errorf("ts = %v, want %v", ts, want)
	}
	if ts.Location() != loc {
		t.Errorf("location = %v, want clinic timezone", ts.Location())
	}

	// Morning times parse on the 12-hour clock.
	ts, err = ParseBookingDateTime("2025-05-01", "9:00 AM", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.Hour() != 9 {
		t.Errorf("hour = %d, want 9", ts.Hour())
	}
}

func TestParseBookingDateTimeMissingFields(t *testing.T) {
	_, err := ParseBookingDateTime("2025-04-28", "", time.UTC)
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("missing time: err = %v, want ErrMissingField", err)
	}
	_, err = ParseBookingDateTime("", "2:00 PM", time.UTC)
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("missing date: err = %v, want ErrMissingField", err)
	}
	_, err = ParseBookingDateTime("   ", "2:00 PM", time.UTC)
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("blank date: err = %v, want ErrMissingField", err)
	}
}

func TestParseBookingDateTimeInvalidFormat(t *testing.T) {
	cases := [][2]string{
		{"04/28/2025", "2:00 PM"},
		{"2025-04-28", "14:00"},
		{"2025-04-28", "2:00"},
		{"28-04-2025", "2:00 PM"},
		{"2025-04-28", "2 PM"},
	}
	for _, tc := range cases {
		_, err := ParseBookingDateTime(tc[0], tc[1], time.UTC)
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ParseBookingDateTime(%q, %q): err = %v, want ErrInvalidFormat", tc[0], tc[1], err)
		}
	}
}

func TestAppointmentDuration(t *testing.T) {
	a := &Appointment{ScheduledAt: time.Date(2025, time.April, 28, 14, 0, 0, 0, time.UTC)}
	if a.Duration() != 30*time.Minute {
		t.Errorf("default duration = %v, want 30m", a.Duration())
	}
	if a.EndsAt().Hour() != 14 || a.EndsAt().Minute() != 30 {
		t.Errorf("default end = %v", a.EndsAt())
	}

	d := 45
	a.DurationMinutes = &d
	if a.Duration() != 45*time.Minute {
		t.Errorf("duration = %v, want 45m", a.Duration())
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusCheckedIn, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"Bogus", "scheduled", "", "Checked-In"} {
		if Status(s).Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}
