// Package calendar resolves calendar view ranges (day, week, month) from
// an anchor date. Weeks run Monday through Sunday.
package calendar

import "time"

// ViewType identifies a calendar view granularity.
type ViewType string

const (
	ViewDay   ViewType = "day"
	ViewWeek  ViewType = "week"
	ViewMonth ViewType = "month"
)

// ParseViewType normalizes a raw view string. Unknown values fall back to
// the week view.
func ParseViewType(s string) ViewType {
	switch ViewType(s) {
	case ViewDay:
		return ViewDay
	case ViewMonth:
		return ViewMonth
	default:
		return ViewWeek
	}
}

// Range describes the resolved window for a calendar view. Start and End
// are inclusive dates at midnight in the anchor's location. PrevAnchor and
// NextAnchor are the anchor dates that navigate one step backward or
// forward in the same view.
type Range struct {
	View       ViewType  `json:"view"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Label      string    `json:"label"`
	PrevAnchor time.Time `json:"prev_anchor"`
	NextAnchor time.Time `json:"next_anchor"`
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Monday on or before t, at midnight.
func WeekStart(t time.Time) time.Time {
	d := StartOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// ResolveRange computes the window, display label and navigation anchors
// for the given view around the anchor date.
func ResolveRange(anchor time.Time, view ViewType) Range {
	day := StartOfDay(anchor)

	switch view {
	case ViewDay:
		return Range{
			View:       ViewDay,
			Start:      day,
			End:        day,
			Label:      day.Format("Monday, January 2, 2006"),
			PrevAnchor: day.AddDate(0, 0, -1),
			NextAnchor: day.AddDate(0, 0, 1),
		}
	case ViewMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
		return Range{
			View:       ViewMonth,
			Start:      start,
			End:        end,
			Label:      start.Format("January 2006"),
			PrevAnchor: start.AddDate(0, -1, 0),
			NextAnchor: start.AddDate(0, 1, 0),
		}
	default:
		start := WeekStart(day)
		end := start.AddDate(0, 0, 6)
		return Range{
			View:       ViewWeek,
			Start:      start,
			End:        end,
			Label:      start.Format("January 2") + " - " + end.Format("January 2, 2006"),
			PrevAnchor: start.AddDate(0, 0, -7),
			NextAnchor: start.AddDate(0, 0, 7),
		}
	}
}
