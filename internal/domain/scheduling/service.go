package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carehub/carehub/internal/platform/calendar"
	"github.com/carehub/carehub/internal/platform/calendarsync"
)

// ProviderInfo is the slice of the provider record scheduling needs.
type ProviderInfo struct {
	ID          uuid.UUID
	DisplayName string
	Active      bool
}

// ProviderDirectory resolves providers for booking validation.
// Implementations return ErrProviderNotFound when the ID is unknown.
type ProviderDirectory interface {
	GetProvider(ctx context.Context, id uuid.UUID) (*ProviderInfo, error)
}

// Options tunes service behavior at construction time.
type Options struct {
	// Location is the clinic timezone booking strings are interpreted in.
	// Defaults to time.Local.
	Location *time.Location
	// OverlapCheck enables provider double-booking rejection. Off by
	// default: bookings at a taken slot succeed unless it is turned on.
	OverlapCheck bool
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service coordinates appointment booking, rescheduling, status changes
// and calendar reads.
type Service struct {
	repo         AppointmentRepository
	providers    ProviderDirectory
	calendar     calendarsync.Calendar
	logger       zerolog.Logger
	loc          *time.Location
	overlapCheck bool
	now          func() time.Time
}

func NewService(repo AppointmentRepository, providers ProviderDirectory, cal calendarsync.Calendar, logger zerolog.Logger, opts Options) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	if cal == nil {
		cal = calendarsync.NoopCalendar{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:         repo,
		providers:    providers,
		calendar:     cal,
		logger:       logger,
		loc:          loc,
		overlapCheck: opts.OverlapCheck,
		now:          now,
	}
}

// Location is the clinic timezone used for all booking and calendar
// date parsing.
func (s *Service) Location() *time.Location {
	return s.loc
}

// BookingInput carries the fields of a booking request. Date and Time are
// the raw portal strings ("2025-04-28", "2:00 PM").
type BookingInput struct {
	PatientID       uuid.UUID
	ProviderID      uuid.UUID
	Date            string
	Time            string
	VisitType       VisitType
	Reason          string
	Notes           string
	DurationMinutes *int
}

// BookingResult is a successful write plus an optional sync warning. The
// warning is non-fatal: the appointment is committed even when the
// external calendar could not be updated.
type BookingResult struct {
	Appointment *Appointment `json:"appointment"`
	SyncWarning string       `json:"sync_warning,omitempty"`
}

// Book validates the request and creates a Scheduled appointment.
func (s *Service) Book(ctx context.Context, in BookingInput) (*BookingResult, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id", ErrMissingField)
	}
	if in.ProviderID == uuid.Nil {
		return nil, fmt.Errorf("%w: provider_id", ErrMissingField)
	}
	visitType := in.VisitType
	if visitType == "" {
		visitType = VisitInPerson
	}
	if !visitType.Valid() {
		return nil, fmt.Errorf("%w: visit type %q", ErrInvalidFormat, in.VisitType)
	}

	ts, err := ParseBookingDateTime(in.Date, in.Time, s.loc)
	if err != nil {
		return nil, err
	}

	prov, err := s.providers.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if !prov.Active {
		return nil, ErrProviderInactive
	}

	a := &Appointment{
		PatientID:       in.PatientID,
		ProviderID:      in.ProviderID,
		ScheduledAt:     ts,
		DurationMinutes: in.DurationMinutes,
		VisitType:       visitType,
		Status:          StatusScheduled,
		Reason:          in.Reason,
		Notes:           in.Notes,
	}

	if s.overlapCheck {
		if err := s.checkOverlap(ctx, a, uuid.Nil); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return &BookingResult{Appointment: a, SyncWarning: s.pushEvent(ctx, a)}, nil
}

// Reschedule moves an existing appointment to a new date and time. The
// status is left untouched.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, dateStr, timeStr string) (*BookingResult, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ts, err := ParseBookingDateTime(dateStr, timeStr, s.loc)
	if err != nil {
		return nil, err
	}
	a.ScheduledAt = ts

	if s.overlapCheck {
		if err := s.checkOverlap(ctx, a, a.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return &BookingResult{Appointment: a, SyncWarning: s.pushEvent(ctx, a)}, nil
}

// SetStatus moves an appointment to a new lifecycle status. The only
// guard is membership in the six known statuses; an unknown status leaves
// the stored record untouched. Cancellation additionally removes the
// external calendar event, best effort.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*BookingResult, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = newStatus
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	var warning string
	if newStatus == StatusCancelled {
		if err := s.calendar.RemoveEvent(ctx, a.ID.String()); err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).
				Msg("external calendar removal failed")
			warning = "external calendar sync failed: " + err.Error()
		}
	}
	return &BookingResult{Appointment: a, SyncWarning: warning}, nil
}

// Get returns one appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// CanJoin reports whether the appointment's video visit can be joined now.
func (s *Service) CanJoin(ctx context.Context, id uuid.UUID) (bool, string, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, "", err
	}
	allowed, reason := CanJoin(a, s.now())
	return allowed, reason, nil
}

// ListByPatient returns the patient's appointments, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// ListByProvider returns the provider's appointments, newest first.
func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByProvider(ctx, providerID, limit, offset)
}

// upcomingHorizon bounds the dashboard's forward look.
const upcomingHorizon = 30 * 24 * time.Hour

// ListUpcoming returns the owner's next live appointments, soonest first.
// Cancelled and no-show visits are excluded.
func (s *Service) ListUpcoming(ctx context.Context, patientID, providerID uuid.UUID, limit int) ([]*Appointment, error) {
	if patientID == uuid.Nil && providerID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id or provider_id", ErrMissingField)
	}
	start := s.now()
	end := start.Add(upcomingHorizon)

	var (
		appts []*Appointment
		err   error
	)
	if providerID != uuid.Nil {
		appts, err = s.repo.ListByProviderRange(ctx, providerID, start, end)
	} else {
		appts, err = s.repo.ListByPatientRange(ctx, patientID, start, end)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*Appointment, 0, limit)
	for _, a := range appts {
		if a.Status == StatusCancelled || a.Status == StatusNoShow {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// CalendarQuery selects the window and owner of a calendar read. Exactly
// one of PatientID and ProviderID must be set. A zero Anchor means today.
type CalendarQuery struct {
	PatientID  uuid.UUID
	ProviderID uuid.UUID
	View       calendar.ViewType
	Anchor     time.Time
}

// CalendarView is the transient projection served to the portals. It is
// rebuilt on every read and never stored.
type CalendarView struct {
	Range calendar.Range `json:"range"`
	Grid  *Grid          `json:"grid"`
}

// BuildCalendarView resolves the requested range, loads the owner's
// appointments and shapes them into the view grid.
func (s *Service) BuildCalendarView(ctx context.Context, q CalendarQuery) (*CalendarView, error) {
	if q.PatientID == uuid.Nil && q.ProviderID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id or provider_id", ErrMissingField)
	}

	anchor := q.Anchor
	if anchor.IsZero() {
		anchor = s.now()
	}
	rng := calendar.ResolveRange(anchor.In(s.loc), q.View)

	// The month grid shows spillover days from adjacent months, so the
	// fetch window covers the full 42 cells, not just the month itself.
	fetchStart := rng.Start
	fetchEnd := rng.End.AddDate(0, 0, 1)
	if rng.View == calendar.ViewMonth {
		fetchStart = calendar.WeekStart(rng.Start)
		fetchEnd = fetchStart.AddDate(0, 0, 42)
	}

	var (
		appts []*Appointment
		err   error
	)
	if q.ProviderID != uuid.Nil {
		appts, err = s.repo.ListByProviderRange(ctx, q.ProviderID, fetchStart, fetchEnd)
	} else {
		appts, err = s.repo.ListByPatientRange(ctx, q.PatientID, fetchStart, fetchEnd)
	}
	if err != nil {
		return nil, err
	}

	return &CalendarView{Range: rng, Grid: BuildGrid(appts, rng, s.now())}, nil
}

// checkOverlap rejects the booking when the provider already has a live
// appointment whose interval intersects the candidate's. Cancelled and
// no-show visits do not block the slot.
func (s *Service) checkOverlap(ctx context.Context, candidate *Appointment, excludeID uuid.UUID) error {
	start := candidate.ScheduledAt.Add(-24 * time.Hour)
	end := candidate.ScheduledAt.Add(24 * time.Hour)
	existing, err := s.repo.ListByProviderRange(ctx, candidate.ProviderID, start, end)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == excludeID {
			continue
		}
		if other.Status == StatusCancelled || other.Status == StatusNoShow {
			continue
		}
		if candidate.ScheduledAt.Before(other.EndsAt()) && other.ScheduledAt.Before(candidate.EndsAt()) {
			return ErrTimeConflict
		}
	}
	return nil
}

func (s *Service) pushEvent(ctx context.Context, a *Appointment) string {
	summary := a.Reason
	if summary == "" {
		summary = string(a.VisitType) + " visit"
	}
	ev := calendarsync.Event{
		AppointmentID: a.ID.String(),
		Summary:       summary,
		Start:         a.ScheduledAt,
		End:           a.EndsAt(),
	}
	if err := s.calendar.UpsertEvent(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).
			Msg("external calendar sync failed")
		return "external calendar sync failed: " + err.Error()
	}
	return ""
}
