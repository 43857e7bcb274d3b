package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// bookingLayout is the wire format the portals submit, e.g.
// date "2025-04-28" plus time "2:00 PM".
const bookingLayout = "2006-01-02 3:04 PM"

// ParseBookingDateTime combines the date and time fields of a booking
// request into a single timestamp in the clinic's timezone. Both fields
// are required; a value in any other format is rejected rather than
// guessed at.
func ParseBookingDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("%w: date", ErrMissingField)
	}
	if timeStr == "" {
		return time.Time{}, fmt.Errorf("%w: time", ErrMissingField)
	}
	if loc == nil {
		loc = time.Local
	}
	ts, err := time.ParseInLocation(bookingLayout, dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrInvalidFormat, dateStr, timeStr)
	}
	return ts, nil
}
