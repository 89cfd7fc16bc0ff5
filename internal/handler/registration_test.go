package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studenthub/outreach-api/internal/repository"
)

// newRangeContext builds an echo context for the date-range endpoint.
// The handler validates the range before touching the database, so a
// nil-DB repository is enough for the rejection paths.
func newRangeContext(t *testing.T, params url.Values) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/opendays/date-range?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestByDateRangeMissingParams(t *testing.T) {
	h := NewRegistrationHandler(repository.NewOpenDayRepo(nil), repository.NewStudentRepo(nil))

	cases := []url.Values{
		{},
		{"start_date": {"2026-09-01"}},
		{"end_date": {"2026-09-30"}},
	}
	for _, params := range cases {
		c, rec := newRangeContext(t, params)
		require.NoError(t, h.ByDateRange(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "start date and end date are required")
	}
}

func TestByDateRangeInvalidDates(t *testing.T) {
	h := NewRegistrationHandler(repository.NewOpenDayRepo(nil), repository.NewStudentRepo(nil))

	c, rec := newRangeContext(t, url.Values{"start_date": {"not-a-date"}, "end_date": {"2026-09-30"}})
	require.NoError(t, h.ByDateRange(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "valid start date")

	c, rec = newRangeContext(t, url.Values{"start_date": {"2026-09-01"}, "end_date": {"30/09/2026"}})
	require.NoError(t, h.ByDateRange(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "valid end date")
}

func TestByDateRangeInvertedRange(t *testing.T) {
	h := NewRegistrationHandler(repository.NewOpenDayRepo(nil), repository.NewStudentRepo(nil))

	// Inverted and zero-width ranges are both rejected.
	for _, pair := range [][2]string{
		{"2026-09-30", "2026-09-01"},
		{"2026-09-01", "2026-09-01"},
	} {
		c, rec := newRangeContext(t, url.Values{"start_date": {pair[0]}, "end_date": {pair[1]}})
		require.NoError(t, h.ByDateRange(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "start date must be before end date")
	}
}

func TestParseRangeDate(t *testing.T) {
	got, err := parseRangeDate("2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = parseRangeDate("2026-09-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC), got)

	_, err = parseRangeDate("15.09.2026")
	assert.Error(t, err)
}

func TestRegisterRequiresAuthenticatedUser(t *testing.T) {
	h := NewRegistrationHandler(repository.NewOpenDayRepo(nil), repository.NewStudentRepo(nil))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/opendays/1/register", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
