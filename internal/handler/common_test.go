package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studenthub/outreach-api/internal/model"
)

func TestPaginate(t *testing.T) {
	p := paginate(2, 10, 35)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 4, p.Pages)
	assert.Equal(t, 35, p.Total)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = paginate(1, 10, 5)
	assert.Equal(t, 1, p.Pages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)

	// Out-of-range inputs fall back to defaults.
	p = paginate(0, -1, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 0, p.Pages)
}

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGetUserID(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := getUserID(c)
	assert.Error(t, err)

	c.Set("user_id", uint64(0))
	_, err = getUserID(c)
	assert.Error(t, err)

	c.Set("user_id", uint64(42))
	uid, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
}

func TestGetRole(t *testing.T) {
	c, _ := newTestContext(t)
	assert.Equal(t, model.Role(""), getRole(c))

	c.Set("role", model.RoleAdmin)
	assert.Equal(t, model.RoleAdmin, getRole(c))

	// A raw string never satisfies the typed read.
	c.Set("role", "admin")
	assert.Equal(t, model.Role(""), getRole(c))
}

func TestPathID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	c.SetParamNames("id")
	c.SetParamValues("17")
	id, err := pathID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		c.SetParamValues(bad)
		_, err := pathID(c)
		assert.Error(t, err, "value %q", bad)
	}
}

func TestQueryInt(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&bad=xyz", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, 25, queryInt(c, "limit", 10))
	assert.Equal(t, 10, queryInt(c, "bad", 10))
	assert.Equal(t, 10, queryInt(c, "missing", 10))
}
