// Package scheduling implements appointment booking, status lifecycle and
// the calendar grid views served to the patient and provider portals.
package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled  Status = "Scheduled"
	StatusCheckedIn  Status = "Checked In"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
	StatusNoShow     Status = "No Show"
)

var validStatuses = map[Status]bool{
	StatusScheduled:  true,
	StatusCheckedIn:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusNoShow:     true,
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	return validStatuses[s]
}

// VisitType distinguishes telehealth visits from office visits.
type VisitType string

const (
	VisitVirtual  VisitType = "Virtual"
	VisitInPerson VisitType = "In-Person"
)

var validVisitTypes = map[VisitType]bool{
	VisitVirtual:  true,
	VisitInPerson: true,
}

func (v VisitType) Valid() bool {
	return validVisitTypes[v]
}

// DefaultDurationMinutes applies when a booking does not set a duration.
const DefaultDurationMinutes = 30

// Appointment is a booked visit between a patient and a provider.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	ProviderID      uuid.UUID `db:"provider_id" json:"provider_id"`
	ScheduledAt     time.Time `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes *int      `db:"duration_minutes" json:"duration_minutes,omitempty"`
	VisitType       VisitType `db:"visit_type" json:"visit_type"`
	Status          Status    `db:"status" json:"status"`
	Reason          string    `db:"reason" json:"reason,omitempty"`
	Notes           string    `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Duration returns the visit length, falling back to the default.
func (a *Appointment) Duration() time.Duration {
	if a.DurationMinutes != nil && *a.DurationMinutes > 0 {
		return time.Duration(*a.DurationMinutes) * time.Minute
	}
	return DefaultDurationMinutes * time.Minute
}

// EndsAt is the scheduled end of the visit.
func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(a.Duration())
}
