// This file orchestrates the event registration workflow.  Each
// mutation is a single transaction: load the event row FOR UPDATE,
// apply the ledger transition in memory, persist the ledger plus the
// recomputed counter, commit.  The row lock is what keeps two
// concurrent registrations from both seeing the last free seat.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studenthub/outreach-api/internal/model"
	"github.com/studenthub/outreach-api/internal/repository"
)

// RegistrationHandler bundles the repositories the workflow touches.
type RegistrationHandler struct {
	Events   *repository.OpenDayRepo
	Students *repository.StudentRepo
}

func NewRegistrationHandler(events *repository.OpenDayRepo, students *repository.StudentRepo) *RegistrationHandler {
	if events == nil || students == nil {
		panic("nil repository passed to NewRegistrationHandler")
	}
	return &RegistrationHandler{Events: events, Students: students}
}

// registrationResp is the response body for both register and cancel.
type registrationResp struct {
	EventName         string `json:"event_name"`
	RegisteredCount   int    `json:"registered_count"`
	RemainingCapacity int    `json:"remaining_capacity"`
}

// Register handles POST /api/opendays/:id/register.  Identity comes
// from the token; the body is empty.  Eligibility is recomputed before
// the workflow runs, and the capacity policy is re-evaluated inside
// the transaction, at the instant of registration.
func (h *RegistrationHandler) Register(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}
	ctx := c.Request().Context()

	student, err := h.Students.RefreshEligibility(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return fail(c, http.StatusUnauthorized, "unauthorized")
		}
		return fail(c, http.StatusInternalServerError, "failed to load account")
	}
	if !student.IsEligible {
		return fail(c, http.StatusForbidden, "you are not eligible to register for events")
	}

	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := h.Events.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOpenDayNotFound) {
			return fail(c, http.StatusNotFound, "open day event not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load event")
	}

	if err := o.Register(uid, student.FullName, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, model.ErrAlreadyRegistered):
			return fail(c, http.StatusConflict, err.Error())
		case errors.Is(err, model.ErrRegistrationClosed):
			return fail(c, http.StatusBadRequest, err.Error())
		}
		return fail(c, http.StatusInternalServerError, "registration failed")
	}

	if err := h.Events.SaveLedgerTx(ctx, tx, &o); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to save registration")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit transaction")
	}
	committed = true

	return ok(c, http.StatusOK, "successfully registered for the event", registrationResp{
		EventName:         o.EventName,
		RegisteredCount:   o.RegisteredCount,
		RemainingCapacity: o.RemainingCapacity(),
	})
}

// Cancel handles POST /api/opendays/:id/cancel.  The ledger entry is
// kept with status cancelled; only the counter changes.
func (h *RegistrationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}
	ctx := c.Request().Context()

	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := h.Events.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOpenDayNotFound) {
			return fail(c, http.StatusNotFound, "open day event not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load event")
	}

	if err := o.Cancel(uid); err != nil {
		if errors.Is(err, model.ErrNotRegistered) {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		return fail(c, http.StatusInternalServerError, "cancellation failed")
	}

	if err := h.Events.SaveLedgerTx(ctx, tx, &o); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to save cancellation")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit transaction")
	}
	committed = true

	return ok(c, http.StatusOK, "registration cancelled successfully", registrationResp{
		EventName:         o.EventName,
		RegisteredCount:   o.RegisteredCount,
		RemainingCapacity: o.RemainingCapacity(),
	})
}

// Upcoming handles GET /api/opendays/upcoming?limit=.
func (h *RegistrationHandler) Upcoming(c echo.Context) error {
	limit := queryInt(c, "limit", 10)
	events, err := h.Events.Upcoming(c.Request().Context(), limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load events")
	}
	return ok(c, http.StatusOK, "", echo.Map{"opendays": toOpenDayViews(events)})
}

// parseRangeDate accepts either a bare date or a full RFC3339 stamp.
func parseRangeDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// ByDateRange handles GET /api/opendays/date-range.  An inverted or
// empty range never reaches the database.
func (h *RegistrationHandler) ByDateRange(c echo.Context) error {
	startRaw := c.QueryParam("start_date")
	endRaw := c.QueryParam("end_date")
	if startRaw == "" || endRaw == "" {
		return fail(c, http.StatusBadRequest, "start date and end date are required")
	}
	start, err := parseRangeDate(startRaw)
	if err != nil {
		return fail(c, http.StatusBadRequest, "please provide a valid start date")
	}
	end, err := parseRangeDate(endRaw)
	if err != nil {
		return fail(c, http.StatusBadRequest, "please provide a valid end date")
	}
	if !start.Before(end) {
		return fail(c, http.StatusBadRequest, "start date must be before end date")
	}

	events, err := h.Events.ByDateRange(c.Request().Context(), start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load events")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"opendays":   toOpenDayViews(events),
		"date_range": echo.Map{"start": start.UTC(), "end": end.UTC()},
	})
}

// Available handles GET /api/opendays/available: future, open events
// with seats left.
func (h *RegistrationHandler) Available(c echo.Context) error {
	events, err := h.Events.AvailableForRegistration(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load events")
	}
	return ok(c, http.StatusOK, "", echo.Map{"opendays": toOpenDayViews(events)})
}

// MyRegistrations handles GET /api/opendays/my-registrations.
func (h *RegistrationHandler) MyRegistrations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	events, err := h.Events.RegisteredFor(c.Request().Context(), uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load registrations")
	}
	return ok(c, http.StatusOK, "", echo.Map{"registrations": toOpenDayViews(events)})
}

// Attendees handles GET /api/opendays/:id/attendees (admin only): the
// full ledger including cancelled entries.
func (h *RegistrationHandler) Attendees(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}
	o, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOpenDayNotFound) {
			return fail(c, http.StatusNotFound, "open day event not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load event")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"event_name":       o.EventName,
		"registered_count": o.RegisteredCount,
		"capacity":         o.Capacity,
		"attendees":        o.Attendees,
	})
}
