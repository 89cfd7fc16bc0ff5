package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studenthub/outreach-api/internal/config"
	"github.com/studenthub/outreach-api/internal/model"
	"github.com/studenthub/outreach-api/internal/repository"
)

func newUserHandler() *UserHandler {
	return NewUserHandler(config.Config{}, repository.NewStudentRepo(nil), repository.NewTokenRepo(nil))
}

// newUserContext builds an authenticated context targeting /:id.
func newUserContext(t *testing.T, method, body string, uid uint64, role model.Role, targetID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uid)
	c.Set("role", role)
	c.SetParamNames("id")
	c.SetParamValues(targetID)
	return c, rec
}

func TestApplyUserUpdatePatchesFields(t *testing.T) {
	s := model.Student{
		FullName:    "Jamie Doe",
		Email:       "jamie@example.com",
		DateOfBirth: time.Date(2009, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	req := userUpdateReq{
		FullName:    "  Jamie Q. Doe  ",
		Email:       " New@Example.COM ",
		DateOfBirth: "2008-06-01",
	}
	errs := applyUserUpdate(&req, &s)
	require.Empty(t, errs)
	assert.Equal(t, "Jamie Q. Doe", s.FullName)
	assert.Equal(t, "new@example.com", s.Email)
	assert.Equal(t, time.Date(2008, 6, 1, 0, 0, 0, 0, time.UTC), s.DateOfBirth)
}

func TestApplyUserUpdateKeepsUnsetFields(t *testing.T) {
	s := model.Student{
		FullName:    "Jamie Doe",
		Email:       "jamie@example.com",
		DateOfBirth: time.Date(2009, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	errs := applyUserUpdate(&userUpdateReq{}, &s)
	require.Empty(t, errs)
	assert.Equal(t, "Jamie Doe", s.FullName)
	assert.Equal(t, "jamie@example.com", s.Email)
	assert.Equal(t, 2009, s.DateOfBirth.Year())
}

func TestApplyUserUpdateFieldErrors(t *testing.T) {
	cases := []struct {
		name string
		req  userUpdateReq
		want string
	}{
		{"short name", userUpdateReq{FullName: "J"}, "full name must be between 2 and 100 characters"},
		{"bad email", userUpdateReq{Email: "not-an-email"}, "please provide a valid email address"},
		{"bad dob", userUpdateReq{DateOfBirth: "01/06/2008"}, "please provide a valid date of birth (YYYY-MM-DD)"},
		{"future dob", userUpdateReq{
			DateOfBirth: time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02"),
		}, "date of birth must be in the past"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := model.Student{FullName: "Jamie", Email: "jamie@example.com"}
			errs := applyUserUpdate(&tc.req, &s)
			assert.Contains(t, errs, tc.want)
		})
	}
}

func TestUserGetRejectsOtherAccounts(t *testing.T) {
	h := newUserHandler()
	c, rec := newUserContext(t, http.MethodGet, "", 7, model.RoleStudent, "8")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "access denied")
}

func TestUserUpdateRoleChangeRequiresAdmin(t *testing.T) {
	h := newUserHandler()
	c, rec := newUserContext(t, http.MethodPut, `{"role":"admin"}`, 7, model.RoleStudent, "7")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "only admin can change user roles")
}

func TestUserDeleteRejectsAdminSelfDelete(t *testing.T) {
	h := newUserHandler()
	c, rec := newUserContext(t, http.MethodDelete, "", 1, model.RoleAdmin, "1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin cannot delete their own account")
}

func TestChangePasswordOwnerOnly(t *testing.T) {
	h := newUserHandler()
	c, rec := newUserContext(t, http.MethodPut, `{"current_password":"a","new_password":"abcdef"}`, 7, model.RoleAdmin, "8")
	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "your own password")
}

func TestChangePasswordValidation(t *testing.T) {
	h := newUserHandler()

	c, rec := newUserContext(t, http.MethodPut, `{"new_password":"abcdef"}`, 7, model.RoleStudent, "7")
	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "current password is required")

	c, rec = newUserContext(t, http.MethodPut, `{"current_password":"a","new_password":"12345"}`, 7, model.RoleStudent, "7")
	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "new password must be at least 6 characters long")
}

func TestSetEligibilityRequiresBoolean(t *testing.T) {
	h := newUserHandler()
	c, rec := newUserContext(t, http.MethodPut, `{}`, 1, model.RoleAdmin, "7")
	require.NoError(t, h.SetEligibility(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "eligibility status must be a boolean value")
}

func TestEligibilityRate(t *testing.T) {
	assert.Equal(t, "0%", eligibilityRate(0, 0))
	assert.Equal(t, "0.00%", eligibilityRate(0, 5))
	assert.Equal(t, "50.00%", eligibilityRate(1, 2))
	assert.Equal(t, "66.67%", eligibilityRate(2, 3))
	assert.Equal(t, "100.00%", eligibilityRate(3, 3))
}
