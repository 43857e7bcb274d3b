package scheduling

import (
	"time"

	"github.com/carehub/carehub/internal/platform/calendar"
)

// Day-view display hours. Appointments outside this window stay in
// storage but are not rendered in the day grid.
const (
	DayGridFirstHour = 8
	DayGridLastHour  = 19
)

// monthGridCells is the fixed 6x7 layout of the month view.
const monthGridCells = 42

// HourSlot is one hourly bucket of the day view.
type HourSlot struct {
	Hour         int            `json:"hour"`
	Label        string         `json:"label"`
	Appointments []*Appointment `json:"appointments"`
}

// WeekEntry is an appointment shown in the week view, annotated with its
// computed end time.
type WeekEntry struct {
	Appointment *Appointment `json:"appointment"`
	EndsAt      time.Time    `json:"ends_at"`
}

// WeekDay is one day column of the week view.
type WeekDay struct {
	Date         time.Time   `json:"date"`
	IsToday      bool        `json:"is_today"`
	Appointments []WeekEntry `json:"appointments"`
}

// MonthCell is one cell of the 6x7 month view. Cells that spill over from
// the previous or next month carry InMonth=false but still list their
// appointments.
type MonthCell struct {
	Date         time.Time      `json:"date"`
	InMonth      bool           `json:"in_month"`
	IsToday      bool           `json:"is_today"`
	Appointments []*Appointment `json:"appointments"`
}

// Grid is the shaped projection of appointments for one calendar view.
// Exactly one of Hours, Days or Cells is populated, matching View.
type Grid struct {
	View  calendar.ViewType `json:"view"`
	Hours []HourSlot        `json:"hours,omitempty"`
	Days  []WeekDay         `json:"days,omitempty"`
	Cells []MonthCell       `json:"cells,omitempty"`
}

// BuildGrid projects appointments onto the grid shape for rng's view.
// Appointments keep their input order within each bucket, so callers
// should pass them sorted by scheduled time ascending. now is only used
// for today-highlighting.
func BuildGrid(appts []*Appointment, rng calendar.Range, now time.Time) *Grid {
	switch rng.View {
	case calendar.ViewDay:
		return &Grid{View: calendar.ViewDay, Hours: buildDayGrid(appts, rng.Start)}
	case calendar.ViewMonth:
		return &Grid{View: calendar.ViewMonth, Cells: buildMonthGrid(appts, rng.Start, now)}
	default:
		return &Grid{View: calendar.ViewWeek, Days: buildWeekGrid(appts, rng.Start, now)}
	}
}

func buildDayGrid(appts []*Appointment, day time.Time) []HourSlot {
	loc := day.Location()
	slots := make([]HourSlot, 0, DayGridLastHour-DayGridFirstHour+1)
	for h := DayGridFirstHour; h <= DayGridLastHour; h++ {
		slots = append(slots, HourSlot{
			Hour:  h,
			Label: time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, loc).Format("3:04 PM"),
		})
	}
	for _, a := range appts {
		at := a.ScheduledAt.In(loc)
		if !sameDay(at, day) {
			continue
		}
		h := at.Hour()
		if h < DayGridFirstHour || h > DayGridLastHour {
			continue
		}
		i := h - DayGridFirstHour
		slots[i].Appointments = append(slots[i].Appointments, a)
	}
	return slots
}

func buildWeekGrid(appts []*Appointment, start time.Time, now time.Time) []WeekDay {
	loc := start.Location()
	days := make([]WeekDay, 7)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i] = WeekDay{Date: d, IsToday: sameDay(now.In(loc), d)}
	}
	for _, a := range appts {
		at := a.ScheduledAt.In(loc)
		for i := range days {
			if sameDay(at, days[i].Date) {
				days[i].Appointments = append(days[i].Appointments, WeekEntry{
					Appointment: a,
					EndsAt:      a.EndsAt(),
				})
				break
			}
		}
	}
	return days
}

func buildMonthGrid(appts []*Appointment, monthStart time.Time, now time.Time) []MonthCell {
	loc := monthStart.Location()
	gridStart := calendar.WeekStart(monthStart)
	nowLocal := now.In(loc)

	cells := make([]MonthCell, monthGridCells)
	for i := range cells {
		d := gridStart.AddDate(0, 0, i)
		cells[i] = MonthCell{
			Date:    d,
			InMonth: d.Month() == monthStart.Month() && d.Year() == monthStart.Year(),
			IsToday: sameDay(nowLocal, d),
		}
	}
	for _, a := range appts {
		at := a.ScheduledAt.In(loc)
		i := daysBetween(gridStart, at)
		if i < 0 || i >= monthGridCells {
			continue
		}
		cells[i].Appointments = append(cells[i].Appointments, a)
	}
	return cells
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// daysBetween counts whole calendar days from start to t, both in start's
// location. Works across DST changes because it compares dates, not hours.
func daysBetween(start, t time.Time) int {
	sy, sm, sd := start.Date()
	ty, tm, td := t.Date()
	s := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	e := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
