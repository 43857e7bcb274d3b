package scheduling

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carehub/carehub/internal/platform/auth"
	"github.com/carehub/carehub/internal/platform/calendar"
	"github.com/carehub/carehub/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/calendar", h.GetCalendar)

	api.POST("/appointments", h.BookAppointment)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/upcoming", h.UpcomingAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.PUT("/appointments/:id/reschedule", h.RescheduleAppointment)
	api.PUT("/appointments/:id/status", h.SetAppointmentStatus,
		auth.RequireRole(auth.RoleProvider, auth.RoleStaff))
	api.GET("/appointments/:id/join", h.JoinAppointment)
}

// httpError maps domain sentinels onto HTTP statuses. Unrecognized errors
// surface as 500 without leaking internals.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrProviderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidFormat), errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTimeConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrProviderInactive):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

type bookRequest struct {
	PatientID       string `json:"patient_id"`
	ProviderID      string `json:"provider_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	VisitType       string `json:"visit_type"`
	Reason          string `json:"reason"`
	Notes           string `json:"notes"`
	DurationMinutes *int   `json:"duration_minutes"`
}

func (h *Handler) BookAppointment(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in := BookingInput{
		Date:            req.Date,
		Time:            req.Time,
		VisitType:       VisitType(req.VisitType),
		Reason:          req.Reason,
		Notes:           req.Notes,
		DurationMinutes: req.DurationMinutes,
	}
	if req.PatientID != "" {
		id, err := uuid.Parse(req.PatientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		in.PatientID = id
	}
	if req.ProviderID != "" {
		id, err := uuid.Parse(req.ProviderID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
		}
		in.ProviderID = id
	}

	// Patients always book for themselves, whatever the body says.
	actor := auth.ActorFromContext(c.Request().Context())
	if actor.HasRole(auth.RolePatient) && !actor.HasRole(auth.RoleStaff) && actor.PatientID != uuid.Nil {
		in.PatientID = actor.PatientID
	}

	result, err := h.svc.Book(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	a, err := h.loadOwned(c, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// loadOwned fetches an appointment and verifies the actor may access it.
// Patients and providers only ever see their own appointments; a foreign
// ID answers 404 so record existence is not disclosed.
func (h *Handler) loadOwned(c echo.Context, id uuid.UUID) (*Appointment, error) {
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return nil, httpError(err)
	}

	actor := auth.ActorFromContext(c.Request().Context())
	if actor.HasRole(auth.RoleStaff) {
		return a, nil
	}
	if actor.HasRole(auth.RolePatient) && actor.PatientID != uuid.Nil && a.PatientID != actor.PatientID {
		return nil, echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	if actor.HasRole(auth.RoleProvider) && actor.ProviderID != uuid.Nil && a.ProviderID != actor.ProviderID {
		return nil, echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	return a, nil
}

func (h *Handler) ListAppointments(c echo.Context) error {
	p := pagination.FromContext(c)
	patientID, providerID, err := h.resolveOwner(c)
	if err != nil {
		return err
	}

	var (
		items []*Appointment
		total int
	)
	if providerID != uuid.Nil {
		items, total, err = h.svc.ListByProvider(c.Request().Context(), providerID, p.Limit, p.Offset)
	} else {
		items, total, err = h.svc.ListByPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
	}
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

// UpcomingAppointments serves the portal dashboard's "next visits" list.
func (h *Handler) UpcomingAppointments(c echo.Context) error {
	patientID, providerID, err := h.resolveOwner(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	items, err := h.svc.ListUpcoming(c.Request().Context(), patientID, providerID, p.Limit)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": items})
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *Handler) RescheduleAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.loadOwned(c, id); err != nil {
		return err
	}
	result, err := h.svc.Reschedule(c.Request().Context(), id, req.Date, req.Time)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetAppointmentStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.loadOwned(c, id); err != nil {
		return err
	}
	result, err := h.svc.SetStatus(c.Request().Context(), id, Status(req.Status))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

type joinResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func (h *Handler) JoinAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	if _, err := h.loadOwned(c, id); err != nil {
		return err
	}
	allowed, reason, err := h.svc.CanJoin(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, joinResponse{Allowed: allowed, Reason: reason})
}

func (h *Handler) GetCalendar(c echo.Context) error {
	q := CalendarQuery{View: calendar.ParseViewType(c.QueryParam("view"))}

	if dateStr := c.QueryParam("date"); dateStr != "" {
		anchor, err := time.ParseInLocation("2006-01-02", dateStr, h.svc.Location())
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		q.Anchor = anchor
	}

	patientID, providerID, err := h.resolveOwner(c)
	if err != nil {
		return err
	}
	q.PatientID = patientID
	q.ProviderID = providerID

	view, err := h.svc.BuildCalendarView(c.Request().Context(), q)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// resolveOwner decides whose appointments a read is scoped to. Patients
// and providers are pinned to their own record; staff and admin may pick
// any owner via query parameters.
func (h *Handler) resolveOwner(c echo.Context) (patientID, providerID uuid.UUID, err error) {
	actor := auth.ActorFromContext(c.Request().Context())

	trusted := actor.HasRole(auth.RoleStaff)
	switch {
	case !trusted && actor.HasRole(auth.RolePatient) && actor.PatientID != uuid.Nil:
		return actor.PatientID, uuid.Nil, nil
	case !trusted && actor.HasRole(auth.RoleProvider) && actor.ProviderID != uuid.Nil:
		return uuid.Nil, actor.ProviderID, nil
	}

	if s := c.QueryParam("patient_id"); s != "" {
		id, perr := uuid.Parse(s)
		if perr != nil {
			return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		return id, uuid.Nil, nil
	}
	if s := c.QueryParam("provider_id"); s != "" {
		id, perr := uuid.Parse(s)
		if perr != nil {
			return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
		}
		return uuid.Nil, id, nil
	}
	return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "patient_id or provider_id is required")
}
