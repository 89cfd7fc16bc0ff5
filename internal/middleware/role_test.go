package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studenthub/outreach-api/internal/model"
)

func runRole(t *testing.T, ctxRole interface{}, allowed ...model.Role) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if ctxRole != nil {
		c.Set("role", ctxRole)
	}

	var reached bool
	h := RequireRole(allowed...)(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, reached
}

func TestRequireRoleAllows(t *testing.T) {
	rec, reached := runRole(t, model.RoleAdmin, model.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestRequireRoleMultipleAllowed(t *testing.T) {
	rec, reached := runRole(t, model.RoleStudent, model.RoleStudent, model.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestRequireRoleRejectsWrongRole(t *testing.T) {
	rec, reached := runRole(t, model.RoleStudent, model.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
	assert.Contains(t, rec.Body.String(), "insufficient privileges")
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	rec, reached := runRole(t, nil, model.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}

func TestRequireRoleRejectsNonRoleValue(t *testing.T) {
	// A raw string in the context must not satisfy the typed check.
	rec, reached := runRole(t, "admin", model.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}
