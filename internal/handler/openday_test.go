package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studenthub/outreach-api/internal/model"
)

func TestUpcomingOnlyParam(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"", true}, // filter is on by default
		{"upcoming_only=true", true},
		{"upcoming_only=false", false},
		{"upcoming_only=0", false},
		{"upcoming_only=no", false},
		{"upcoming_only=TRUE", false}, // only the exact literal enables it
	}
	e := echo.New()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/opendays?"+tc.query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, tc.want, upcomingOnlyParam(c), "query %q", tc.query)
	}
}

func validOpenDayReq() openDayReq {
	date := time.Now().UTC().Add(30 * 24 * time.Hour)
	return openDayReq{
		EventName:   "Campus Open Day",
		Description: "A guided tour of the campus with faculty talks.",
		Date:        date.Format(time.RFC3339),
		Location:    "Main Hall, Building A",
	}
}

func TestValidateOpenDayDefaults(t *testing.T) {
	req := validOpenDayReq()
	o, errs := validateOpenDay(&req)
	require.Empty(t, errs)

	assert.Equal(t, model.DefaultCapacity, o.Capacity)
	assert.Equal(t, model.EventTypePhysical, o.EventType)
	assert.True(t, o.IsRegistrationOpen)
	assert.Nil(t, o.RegistrationDeadline)
	assert.Nil(t, o.VirtualLink)
	assert.NotNil(t, o.Tags)
	assert.NotNil(t, o.Attendees)
	assert.Equal(t, 0, o.RegisteredCount)
}

func TestValidateOpenDayFieldErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*openDayReq)
		want   string
	}{
		{"short name", func(r *openDayReq) { r.EventName = "ab" }, "event name must be between 3 and 200 characters"},
		{"short description", func(r *openDayReq) { r.Description = "too short" }, "description must be between 10 and 2000 characters"},
		{"short location", func(r *openDayReq) { r.Location = "x" }, "location must be between 3 and 300 characters"},
		{"bad date", func(r *openDayReq) { r.Date = "2026-09-15" }, "please provide a valid date"},
		{"past date", func(r *openDayReq) {
			r.Date = time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
		}, "event date must be in the future"},
		{"zero capacity", func(r *openDayReq) { zero := 0; r.Capacity = &zero }, "capacity must be at least 1"},
		{"bad deadline", func(r *openDayReq) { r.RegistrationDeadline = "soon" }, "please provide a valid registration deadline"},
		{"deadline after date", func(r *openDayReq) {
			r.RegistrationDeadline = time.Now().UTC().Add(60 * 24 * time.Hour).Format(time.RFC3339)
		}, "registration deadline must be before or on the event date"},
		{"bad type", func(r *openDayReq) { r.EventType = "metaverse" }, "event type must be virtual, physical or hybrid"},
		{"bad link", func(r *openDayReq) { r.VirtualLink = "ftp://meet.example.com" }, "please provide a valid virtual meeting link"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validOpenDayReq()
			tc.mutate(&req)
			_, errs := validateOpenDay(&req)
			assert.Contains(t, errs, tc.want)
		})
	}
}

func TestValidateOpenDayDeadlineOnEventDate(t *testing.T) {
	req := validOpenDayReq()
	req.RegistrationDeadline = req.Date
	o, errs := validateOpenDay(&req)
	require.Empty(t, errs)
	require.NotNil(t, o.RegistrationDeadline)
}

func TestValidateOpenDayCollectsAllErrors(t *testing.T) {
	req := openDayReq{EventName: "x", Description: "y", Date: "bad", Location: "z"}
	_, errs := validateOpenDay(&req)
	assert.GreaterOrEqual(t, len(errs), 4)
}

func TestValidateOpenDayVirtualEvent(t *testing.T) {
	req := validOpenDayReq()
	req.EventType = model.EventTypeVirtual
	req.VirtualLink = "https://meet.example.com/open-day"
	req.Tags = []string{"stem", "tour"}

	o, errs := validateOpenDay(&req)
	require.Empty(t, errs)
	assert.Equal(t, model.EventTypeVirtual, o.EventType)
	require.NotNil(t, o.VirtualLink)
	assert.Equal(t, "https://meet.example.com/open-day", *o.VirtualLink)
	assert.Equal(t, []string{"stem", "tour"}, o.Tags)
}
