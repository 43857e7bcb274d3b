package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carehub/carehub/internal/platform/auth"
	"github.com/carehub/carehub/internal/platform/calendarsync"
)

func newTestServer(t *testing.T) (*echo.Echo, *fixture) {
	t.Helper()
	repo := newMockApptRepo()
	cal := calendarsync.NewRecordingCalendar()
	providerID := uuid.New()
	dir := &mockDirectory{providers: map[uuid.UUID]*ProviderInfo{
		providerID: {ID: providerID, DisplayName: "Dr. Reyes", Active: true},
	}}
	svc := NewService(repo, dir, cal, zerolog.Nop(), Options{Location: time.UTC})

	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))

	return e, &fixture{
		svc:        svc,
		repo:       repo,
		cal:        cal,
		patientID:  uuid.New(),
		providerID: providerID,
	}
}

func doJSON(e *echo.Echo, actor auth.Actor, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithActor(context.Background(), actor))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func staffActor() auth.Actor {
	return auth.Actor{UserID: "staff-1", Roles: []string{auth.RoleStaff}}
}

func TestBookAppointmentEndpoint(t *testing.T) {
	e, f := newTestServer(t)

	body := `{"patient_id":"` + f.patientID.String() + `","provider_id":"` + f.providerID.String() +
		`","date":"2025-05-01","time":"9:00 AM","visit_type":"Virtual","reason":"Follow-up"}`
	rec := doJSON(e, staffActor(), http.MethodPost, "/api/v1/appointments", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result BookingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Appointment.Status != StatusScheduled {
		t.Errorf("status = %q", result.Appointment.Status)
	}
	if result.Appointment.VisitType != VisitVirtual {
		t.Errorf("visit type = %q", result.Appointment.VisitType)
	}
}

func TestBookAppointmentPatientPinnedToSelf(t *testing.T) {
	e, f := newTestServer(t)

	self := uuid.New()
	actor := auth.Actor{UserID: "u1", Roles: []string{auth.RolePatient}, PatientID: self}
	// Body claims a different patient; the actor's own ID wins.
	body := `{"patient_id":"` + uuid.New().String() + `","provider_id":"` + f.providerID.String() +
		`","date":"2025-05-01","time":"9:00 AM"}`
	rec := doJSON(e, actor, http.MethodPost, "/api/v1/appointments", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result BookingResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result.Appointment.PatientID != self {
		t.Errorf("patient_id = %v, want the actor's own %v", result.Appointment.PatientID, self)
	}
}

func TestBookAppointmentValidationErrors(t *testing.T) {
	e, f := newTestServer(t)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing time", `{"patient_id":"` + f.patientID.String() + `","provider_id":"` + f.providerID.String() + `","date":"2025-05-01"}`, http.StatusBadRequest},
		{"bad date format", `{"patient_id":"` + f.patientID.String() + `","provider_id":"` + f.providerID.String() + `","date":"05/01/2025","time":"9:00 AM"}`, http.StatusBadRequest},
		{"unknown provider", `{"patient_id":"` + f.patientID.String() + `","provider_id":"` + uuid.New().String() + `","date":"2025-05-01","time":"9:00 AM"}`, http.StatusNotFound},
		{"malformed provider id", `{"patient_id":"` + f.patientID.String() + `","provider_id":"nope","date":"2025-05-01","time":"9:00 AM"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := doJSON(e, staffActor(), http.MethodPost, "/api/v1/appointments", tc.body)
		if rec.Code != tc.code {
			t.Errorf("%s: status = %d, want %d (body %s)", tc.name, rec.Code, tc.code, rec.Body.String())
		}
	}
}

func TestAppointmentAccessScopedToOwner(t *testing.T) {
	e, f := newTestServer(t)
	a := f.book(t, "2025-05-01", "9:00 AM")
	path := "/api/v1/appointments/" + a.ID.String()

	stranger := auth.Actor{UserID: "u2", Roles: []string{auth.RolePatient}, PatientID: uuid.New()}
	if rec := doJSON(e, stranger, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("foreign get: code = %d, want 404", rec.Code)
	}
	if rec := doJSON(e, stranger, http.MethodGet, path+"/join", ""); rec.Code != http.StatusNotFound {
		t.Errorf("foreign join: code = %d, want 404", rec.Code)
	}
	rec := doJSON(e, stranger, http.MethodPut, path+"/reschedule", `{"date":"2025-06-01","time":"1:00 PM"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign reschedule: code = %d, want 404", rec.Code)
	}
	stored, err := f.svc.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.ScheduledAt.Equal(a.ScheduledAt) {
		t.Errorf("scheduled_at moved to %v by a foreign actor", stored.ScheduledAt)
	}

	otherProvider := auth.Actor{UserID: "u3", Roles: []string{auth.RoleProvider}, ProviderID: uuid.New()}
	if rec := doJSON(e, otherProvider, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("foreign provider get: code = %d, want 404", rec.Code)
	}

	owner := auth.Actor{UserID: "u1", Roles: []string{auth.RolePatient}, PatientID: f.patientID}
	if rec := doJSON(e, owner, http.MethodGet, path, ""); rec.Code != http.StatusOK {
		t.Errorf("owner get: code = %d, want 200", rec.Code)
	}
}

func TestSetStatusEndpoint(t *testing.T) {
	e, f := newTestServer(t)
	a := f.book(t, "2025-05-01", "9:00 AM")

	rec := doJSON(e, staffActor(), http.MethodPut, "/api/v1/appointments/"+a.ID.String()+"/status", `{"status":"Checked In"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, staffActor(), http.MethodPut, "/api/v1/appointments/"+a.ID.String()+"/status", `{"status":"Bogus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus status: code = %d, want 400", rec.Code)
	}

	rec = doJSON(e, staffActor(), http.MethodPut, "/api/v1/appointments/"+uuid.New().String()+"/status", `{"status":"Completed"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: code = %d, want 404", rec.Code)
	}
}

func TestSetStatusRequiresClinicalRole(t *testing.T) {
	e, f := newTestServer(t)
	a := f.book(t, "2025-05-01", "9:00 AM")

	patient := auth.Actor{UserID: "u1", Roles: []string{auth.RolePatient}, PatientID: f.patientID}
	rec := doJSON(e, patient, http.MethodPut, "/api/v1/appointments/"+a.ID.String()+"/status", `{"status":"Completed"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", rec.Code)
	}
}

func TestRescheduleEndpoint(t *testing.T) {
	e, f := newTestServer(t)
	a := f.book(t, "2025-05-01", "9:00 AM")

	rec := doJSON(e, staffActor(), http.MethodPut, "/api/v1/appointments/"+a.ID.String()+"/reschedule", `{"date":"2025-05-02","time":"3:30 PM"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result BookingResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	want := time.Date(2025, time.May, 2, 15, 30, 0, 0, time.UTC)
	if !result.Appointment.ScheduledAt.Equal(want) {
		t.Errorf("scheduled_at = %v, want %v", result.Appointment.ScheduledAt, want)
	}
}

func TestJoinEndpoint(t *testing.T) {
	e, f := newTestServer(t)
	result, err := f.svc.Book(context.Background(), BookingInput{
		PatientID:  f.patientID,
		ProviderID: f.providerID,
		Date:       "2030-01-01",
		Time:       "9:00 AM",
		VisitType:  VisitVirtual,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := doJSON(e, staffActor(), http.MethodGet, "/api/v1/appointments/"+result.Appointment.ID.String()+"/join", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp joinResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Allowed {
		t.Error("joining years early should be rejected")
	}
	if !strings.Contains(resp.Reason, "minutes") {
		t.Errorf("reason = %q", resp.Reason)
	}
}

func TestGetCalendarEndpoint(t *testing.T) {
	e, f := newTestServer(t)
	f.book(t, "2025-04-28", "9:15 AM")

	rec := doJSON(e, staffActor(), http.MethodGet,
		"/api/v1/calendar?view=day&date=2025-04-28&patient_id="+f.patientID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var view CalendarView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if view.Range.Label != "Monday, April 28, 2025" {
		t.Errorf("label = %q", view.Range.Label)
	}
	if len(view.Grid.Hours) != 12 {
		t.Errorf("hours = %d, want 12", len(view.Grid.Hours))
	}
}

func TestGetCalendarPatientScopedToSelf(t *testing.T) {
	e, f := newTestServer(t)
	mine := f.book(t, "2025-04-28", "9:15 AM")

	other := uuid.New()
	actor := auth.Actor{UserID: "u1", Roles: []string{auth.RolePatient}, PatientID: f.patientID}
	// Query asks for another patient's calendar; the pin wins.
	rec := doJSON(e, actor, http.MethodGet,
		"/api/v1/calendar?view=week&date=2025-04-28&patient_id="+other.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var view CalendarView
	json.Unmarshal(rec.Body.Bytes(), &view)
	var found bool
	for _, day := range view.Grid.Days {
		for _, entry := range day.Appointments {
			if entry.Appointment.ID == mine.ID {
				found = true
			}
		}
	}
	if !found {
		t.Error("actor's own appointment missing from their calendar")
	}
}

func TestGetCalendarUnknownViewFallsBackToWeek(t *testing.T) {
	e, f := newTestServer(t)
	rec := doJSON(e, staffActor(), http.MethodGet,
		"/api/v1/calendar?view=agenda&date=2025-04-28&patient_id="+f.patientID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var view CalendarView
	json.Unmarshal(rec.Body.Bytes(), &view)
	if len(view.Grid.Days) != 7 {
		t.Errorf("days = %d, want week fallback", len(view.Grid.Days))
	}
}

func TestGetCalendarRequiresOwner(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(e, staffActor(), http.MethodGet, "/api/v1/calendar?view=week", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListAppointmentsEndpoint(t *testing.T) {
	e, f := newTestServer(t)
	f.book(t, "2025-05-01", "9:00 AM")
	f.book(t, "2025-05-02", "9:00 AM")

	rec := doJSON(e, staffActor(), http.MethodGet,
		"/api/v1/appointments?patient_id="+f.patientID.String()+"&limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
}

func TestUpcomingAppointmentsEndpoint(t *testing.T) {
	now := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	repo := newMockApptRepo()
	providerID := uuid.New()
	dir := &mockDirectory{providers: map[uuid.UUID]*ProviderInfo{
		providerID: {ID: providerID, DisplayName: "Dr. Reyes", Active: true},
	}}
	svc := NewService(repo, dir, calendarsync.NewRecordingCalendar(), zerolog.Nop(),
		Options{Location: time.UTC, Now: func() time.Time { return now }})

	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))

	patientID := uuid.New()
	if _, err := svc.Book(context.Background(), BookingInput{
		PatientID:  patientID,
		ProviderID: providerID,
		Date:       "2025-05-02",
		Time:       "9:00 AM",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := doJSON(e, staffActor(), http.MethodGet,
		"/api/v1/appointments/upcoming?patient_id="+patientID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data []*Appointment `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("data = %d appointments, want 1", len(resp.Data))
	}
}
