package scheduling

import (
	"fmt"
	"time"
)

// Join window bounds around the scheduled start of a virtual visit.
const (
	JoinWindowBefore = 15 * time.Minute
	JoinWindowAfter  = 30 * time.Minute
)

// CanJoin reports whether a virtual visit can be joined at the given
// instant. When it cannot, the returned reason is safe to show to the
// patient as-is.
func CanJoin(a *Appointment, now time.Time) (bool, string) {
	if a.VisitType != VisitVirtual {
		return false, "This is not a video appointment."
	}
	if a.Status != StatusScheduled {
		return false, "This appointment is not currently scheduled."
	}

	windowStart := a.ScheduledAt.Add(-JoinWindowBefore)
	windowEnd := a.ScheduledAt.Add(JoinWindowAfter)

	if now.Before(windowStart) {
		wait := int(windowStart.Sub(now).Minutes())
		return false, fmt.Sprintf("You can join this appointment in %d minutes.", wait)
	}
	if now.After(windowEnd) {
		return false, "This appointment has ended."
	}
	return true, ""
}
