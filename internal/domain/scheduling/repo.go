package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository is the persistence boundary for appointments.
// Range queries treat start as inclusive and end as exclusive, and return
// rows ordered by scheduled time ascending.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByPatientRange(ctx context.Context, patientID uuid.UUID, start, end time.Time) ([]*Appointment, error)
	ListByProviderRange(ctx context.Context, providerID uuid.UUID, start, end time.Time) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
