package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studenthub/outreach-api/internal/model"
	"github.com/studenthub/outreach-api/internal/repository"
)

// OpenDayHandler serves event CRUD.  The registration workflow lives in
// RegistrationHandler; this type only manages event records themselves.
type OpenDayHandler struct {
	Events *repository.OpenDayRepo
}

func NewOpenDayHandler(events *repository.OpenDayRepo) *OpenDayHandler {
	if events == nil {
		panic("nil repository passed to NewOpenDayHandler")
	}
	return &OpenDayHandler{Events: events}
}

type openDayReq struct {
	EventName            string   `json:"event_name"`
	Description          string   `json:"description"`
	Date                 string   `json:"date"` // RFC3339
	Location             string   `json:"location"`
	Capacity             *int     `json:"capacity"`
	RegistrationDeadline string   `json:"registration_deadline"`
	IsRegistrationOpen   *bool    `json:"is_registration_open"`
	EventType            string   `json:"event_type"`
	VirtualLink          string   `json:"virtual_link"`
	Tags                 []string `json:"tags"`
}

// openDayView is the wire representation of an event without its
// ledger; the ledger is only exposed via the admin attendees endpoint.
type openDayView struct {
	ID                   uint64     `json:"id"`
	EventName            string     `json:"event_name"`
	Description          string     `json:"description"`
	Date                 time.Time  `json:"date"`
	Location             string     `json:"location"`
	Capacity             int        `json:"capacity"`
	RegisteredCount      int        `json:"registered_count"`
	RemainingCapacity    int        `json:"remaining_capacity"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	IsRegistrationOpen   bool       `json:"is_registration_open"`
	IsFull               bool       `json:"is_full"`
	CanRegister          bool       `json:"can_register"`
	EventType            string     `json:"event_type"`
	VirtualLink          *string    `json:"virtual_link,omitempty"`
	Tags                 []string   `json:"tags"`
	CreatedBy            uint64     `json:"created_by"`
}

func toOpenDayView(o model.OpenDay) openDayView {
	return openDayView{
		ID:                   o.ID,
		EventName:            o.EventName,
		Description:          o.Description,
		Date:                 o.Date,
		Location:             o.Location,
		Capacity:             o.Capacity,
		RegisteredCount:      o.RegisteredCount,
		RemainingCapacity:    o.RemainingCapacity(),
		RegistrationDeadline: o.RegistrationDeadline,
		IsRegistrationOpen:   o.IsRegistrationOpen,
		IsFull:               o.IsFull(),
		CanRegister:          o.CanRegister(time.Now().UTC()),
		EventType:            o.EventType,
		VirtualLink:          o.VirtualLink,
		Tags:                 o.Tags,
		CreatedBy:            o.CreatedBy,
	}
}

func toOpenDayViews(events []model.OpenDay) []openDayView {
	out := make([]openDayView, 0, len(events))
	for _, o := range events {
		out = append(out, toOpenDayView(o))
	}
	return out
}

// upcomingOnlyParam reads the upcoming_only query parameter.  The
// filter defaults to on; only the literal "true" enables it when the
// parameter is present, so "false", "0" and "no" all disable it.
func upcomingOnlyParam(c echo.Context) bool {
	v := c.QueryParam("upcoming_only")
	if v == "" {
		v = "true"
	}
	return v == "true"
}

// List handles GET /api/opendays with pagination and optional
// upcoming-only, type and search filters.
func (h *OpenDayHandler) List(c echo.Context) error {
	f := repository.OpenDayFilter{
		UpcomingOnly: upcomingOnlyParam(c),
		EventType:    c.QueryParam("event_type"),
		Search:       strings.TrimSpace(c.QueryParam("search")),
		Page:         queryInt(c, "page", 1),
		Limit:        queryInt(c, "limit", 10),
	}
	if f.EventType != "" && !model.ValidEventType(f.EventType) {
		return fail(c, http.StatusBadRequest, "invalid event type")
	}
	events, total, err := h.Events.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load events")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"opendays":   toOpenDayViews(events),
		"pagination": paginate(f.Page, f.Limit, total),
	})
}

// Get handles GET /api/opendays/:id.
func (h *OpenDayHandler) Get(c echo.Context) error {
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
	return ok(c, http.StatusOK, "", echo.Map{"openday": toOpenDayView(o)})
}

// validateOpenDay checks creation payloads; update reuses the pieces
// it needs.
func validateOpenDay(req *openDayReq) (model.OpenDay, []string) {
	var errs []string
	var o model.OpenDay

	req.EventName = strings.TrimSpace(req.EventName)
	req.Description = strings.TrimSpace(req.Description)
	req.Location = strings.TrimSpace(req.Location)

	if n := len(req.EventName); n < 3 || n > 200 {
		errs = append(errs, "event name must be between 3 and 200 characters")
	}
	if n := len(req.Description); n < 10 || n > 2000 {
		errs = append(errs, "description must be between 10 and 2000 characters")
	}
	if n := len(req.Location); n < 3 || n > 300 {
		errs = append(errs, "location must be between 3 and 300 characters")
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		errs = append(errs, "please provide a valid date")
	} else if !date.After(time.Now().UTC()) {
		errs = append(errs, "event date must be in the future")
	}

	capacity := model.DefaultCapacity
	if req.Capacity != nil {
		capacity = *req.Capacity
	}
	if capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}

	var deadline *time.Time
	if req.RegistrationDeadline != "" {
		d, err := time.Parse(time.RFC3339, req.RegistrationDeadline)
		if err != nil {
			errs = append(errs, "please provide a valid registration deadline")
		} else if !date.IsZero() && d.After(date) {
			errs = append(errs, "registration deadline must be before or on the event date")
		} else {
			deadline = &d
		}
	}

	eventType := req.EventType
	if eventType == "" {
		eventType = model.EventTypePhysical
	}
	if !model.ValidEventType(eventType) {
		errs = append(errs, "event type must be virtual, physical or hybrid")
	}

	var link *string
	if req.VirtualLink != "" {
		if !strings.HasPrefix(req.VirtualLink, "http://") && !strings.HasPrefix(req.VirtualLink, "https://") {
			errs = append(errs, "please provide a valid virtual meeting link")
		} else {
			link = &req.VirtualLink
		}
	}

	open := true
	if req.IsRegistrationOpen != nil {
		open = *req.IsRegistrationOpen
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	o = model.OpenDay{
		EventName:            req.EventName,
		Description:          req.Description,
		Date:                 date.UTC(),
		Location:             req.Location,
		Capacity:             capacity,
		RegistrationDeadline: deadline,
		IsRegistrationOpen:   open,
		EventType:            eventType,
		VirtualLink:          link,
		Tags:                 tags,
		Attendees:            []model.Attendee{},
	}
	return o, errs
}

// Create handles POST /api/opendays (admin only; enforced by route
// middleware).
func (h *OpenDayHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req openDayReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	o, errs := validateOpenDay(&req)
	if len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "validation failed", errs...)
	}
	o.CreatedBy = uid

	if err := h.Events.Create(c.Request().Context(), &o); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to create event")
	}
	return ok(c, http.StatusCreated, "open day event created successfully", echo.Map{"openday": toOpenDayView(o)})
}

// Update handles PUT /api/opendays/:id.  Admins may edit any event,
// other callers only their own.  Fields are patched individually; the
// ledger is untouchable here.
func (h *OpenDayHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}
	var req openDayReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	o, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOpenDayNotFound) {
			return fail(c, http.StatusNotFound, "open day event not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load event")
	}
	if getRole(c) != model.RoleAdmin && o.CreatedBy != uid {
		return fail(c, http.StatusForbidden, "access denied")
	}

	var errs []string
	if req.EventName != "" {
		name := strings.TrimSpace(req.EventName)
		if n := len(name); n < 3 || n > 200 {
			errs = append(errs, "event name must be between 3 and 200 characters")
		} else {
			o.EventName = name
		}
	}
	if req.Description != "" {
		desc := strings.TrimSpace(req.Description)
		if n := len(desc); n < 10 || n > 2000 {
			errs = append(errs, "description must be between 10 and 2000 characters")
		} else {
			o.Description = desc
		}
	}
	if req.Date != "" {
		date, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			errs = append(errs, "please provide a valid date")
		} else {
			o.Date = date.UTC()
		}
	}
	if req.Location != "" {
		loc := strings.TrimSpace(req.Location)
		if n := len(loc); n < 3 || n > 300 {
			errs = append(errs, "location must be between 3 and 300 characters")
		} else {
			o.Location = loc
		}
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			errs = append(errs, "capacity must be at least 1")
		} else {
			o.Capacity = *req.Capacity
		}
	}
	if req.RegistrationDeadline != "" {
		d, err := time.Parse(time.RFC3339, req.RegistrationDeadline)
		switch {
		case err != nil:
			errs = append(errs, "please provide a valid registration deadline")
		case d.After(o.Date):
			errs = append(errs, "registration deadline must be before or on the event date")
		default:
			dd := d.UTC()
			o.RegistrationDeadline = &dd
		}
	}
	if req.IsRegistrationOpen != nil {
		o.IsRegistrationOpen = *req.IsRegistrationOpen
	}
	if req.EventType != "" {
		if !model.ValidEventType(req.EventType) {
			errs = append(errs, "event type must be virtual, physical or hybrid")
		} else {
			o.EventType = req.EventType
		}
	}
	if req.VirtualLink != "" {
		o.VirtualLink = &req.VirtualLink
	}
	if req.Tags != nil {
		o.Tags = req.Tags
	}
	if len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "validation failed", errs...)
	}

	if err := h.Events.Update(ctx, &o); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to update event")
	}
	return ok(c, http.StatusOK, "open day event updated successfully", echo.Map{"openday": toOpenDayView(o)})
}

// Delete handles DELETE /api/opendays/:id.  Events with active
// registrations cannot be removed.
func (h *OpenDayHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}
	ctx := c.Request().Context()
	o, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOpenDayNotFound) {
			return fail(c, http.StatusNotFound, "open day event not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load event")
	}
	if getRole(c) != model.RoleAdmin && o.CreatedBy != uid {
		return fail(c, http.StatusForbidden, "access denied")
	}

	if err := h.Events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrHasAttendees) {
			return fail(c, http.StatusBadRequest, "cannot delete event with registered attendees")
		}
		if errors.Is(err, repository.ErrOpenDayNotFound) {
			return fail(c, http.StatusNotFound, "open day event not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to delete event")
	}
	return ok(c, http.StatusOK, "open day event deleted successfully", nil)
}
