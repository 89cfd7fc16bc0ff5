package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studenthub/outreach-api/internal/config"
	"github.com/studenthub/outreach-api/internal/model"
	"github.com/studenthub/outreach-api/internal/repository"
	"github.com/studenthub/outreach-api/internal/utils"
)

// UserHandler serves account management: listing and statistics for
// admins, profile editing, deletion and password changes for account
// owners, and the admin eligibility override.
type UserHandler struct {
	Cfg      config.Config
	Students *repository.StudentRepo
	Tokens   *repository.TokenRepo
}

func NewUserHandler(cfg config.Config, s *repository.StudentRepo, t *repository.TokenRepo) *UserHandler {
	if s == nil || t == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Students: s, Tokens: t}
}

func toUserParts(students []model.Student) []userPart {
	out := make([]userPart, 0, len(students))
	for _, s := range students {
		out = append(out, toUserPart(s))
	}
	return out
}

// List handles GET /api/users (admin only): all accounts with
// eligibility, role and search filters.
func (h *UserHandler) List(c echo.Context) error {
	f := repository.StudentFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	}
	if raw := c.QueryParam("role"); raw != "" {
		role, okRole := model.ParseRole(raw)
		if !okRole {
			return fail(c, http.StatusBadRequest, "invalid role filter")
		}
		f.Role = role
	}
	switch c.QueryParam("eligible_only") {
	case "true":
		v := true
		f.Eligible = &v
	case "false":
		v := false
		f.Eligible = &v
	}

	students, total, err := h.Students.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load users")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"users":      toUserParts(students),
		"pagination": paginate(f.Page, f.Limit, total),
	})
}

// Eligible handles GET /api/users/eligible (admin only).
func (h *UserHandler) Eligible(c echo.Context) error {
	eligible := true
	f := repository.StudentFilter{
		Eligible: &eligible,
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 10),
	}
	students, total, err := h.Students.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load users")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"users":      toUserParts(students),
		"pagination": paginate(f.Page, f.Limit, total),
	})
}

// eligibilityRate formats the eligible share as a percentage string.
func eligibilityRate(eligible, total int) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(eligible)/float64(total)*100)
}

// Stats handles GET /api/users/stats (admin only).
func (h *UserHandler) Stats(c echo.Context) error {
	s, err := h.Students.Stats(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load statistics")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"stats": echo.Map{
			"total_users":          s.TotalUsers,
			"eligible_users":       s.EligibleUsers,
			"ineligible_users":     s.IneligibleUsers,
			"admin_users":          s.AdminUsers,
			"student_users":        s.StudentUsers,
			"recent_registrations": s.RecentRegistrations,
			"eligibility_rate":     eligibilityRate(s.EligibleUsers, s.TotalUsers),
		},
	})
}

// canAccessAccount reports whether the caller may act on the account:
// admins always, everyone else only on their own.
func canAccessAccount(c echo.Context, uid, targetID uint64) bool {
	return getRole(c) == model.RoleAdmin || uid == targetID
}

// Get handles GET /api/users/:id (admin or account owner).
func (h *UserHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if !canAccessAccount(c, uid, id) {
		return fail(c, http.StatusForbidden, "access denied")
	}

	s, err := h.Students.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load user")
	}
	return ok(c, http.StatusOK, "", echo.Map{"user": toUserPart(s)})
}

type userUpdateReq struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
	Role        string `json:"role"`
}

// applyUserUpdate patches the non-role fields onto s, collecting field
// errors.  Role changes are permission-gated and handled separately.
func applyUserUpdate(req *userUpdateReq, s *model.Student) []string {
	var errs []string
	if req.FullName != "" {
		name := strings.TrimSpace(req.FullName)
		if n := len(name); n < 2 || n > 100 {
			errs = append(errs, "full name must be between 2 and 100 characters")
		} else {
			s.FullName = name
		}
	}
	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if !strings.Contains(email, "@") || strings.Count(email, "@") != 1 {
			errs = append(errs, "please provide a valid email address")
		} else {
			s.Email = email
		}
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		switch {
		case err != nil:
			errs = append(errs, "please provide a valid date of birth (YYYY-MM-DD)")
		case !dob.Before(time.Now().UTC()):
			errs = append(errs, "date of birth must be in the past")
		default:
			s.DateOfBirth = dob
		}
	}
	return errs
}

// Update handles PUT /api/users/:id (admin or account owner).
// Changing the date of birth recomputes eligibility when the row is
// written; changing the role is admin only.
func (h *UserHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if !canAccessAccount(c, uid, id) {
		return fail(c, http.StatusForbidden, "access denied")
	}
	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Role != "" && getRole(c) != model.RoleAdmin {
		return fail(c, http.StatusForbidden, "only admin can change user roles")
	}

	ctx := c.Request().Context()
	s, err := h.Students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load user")
	}

	if req.Role != "" {
		role, okRole := model.ParseRole(req.Role)
		if !okRole {
			return fail(c, http.StatusBadRequest, "validation failed", "role must be student or admin")
		}
		s.Role = role
	}
	if errs := applyUserUpdate(&req, &s); len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "validation failed", errs...)
	}

	if err := h.Students.UpdateProfile(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "email is already taken")
		}
		if errors.Is(err, repository.ErrStudentNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to update user")
	}
	return ok(c, http.StatusOK, "user updated successfully", echo.Map{"user": toUserPart(s)})
}

// Delete handles DELETE /api/users/:id (admin or account owner).  All
// refresh tokens die with the account.  An admin cannot delete their
// own account, so the bootstrap admin can never be removed by accident.
func (h *UserHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if !canAccessAccount(c, uid, id) {
		return fail(c, http.StatusForbidden, "access denied")
	}
	if uid == id && getRole(c) == model.RoleAdmin {
		return fail(c, http.StatusBadRequest, "admin cannot delete their own account")
	}

	ctx := c.Request().Context()
	if _, err := h.Students.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load user")
	}
	if err := h.Tokens.RevokeAllForStudent(ctx, id); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to delete user")
	}
	if err := h.Students.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to delete user")
	}
	return ok(c, http.StatusOK, "user account deleted successfully", nil)
}

type passwordChangeReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles PUT /api/users/:id/password (account owner
// only).  Every refresh token is revoked afterwards, so stolen sessions
// do not survive a password change.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if uid != id {
		return fail(c, http.StatusForbidden, "you can only change your own password")
	}
	var req passwordChangeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.CurrentPassword == "" {
		return fail(c, http.StatusBadRequest, "validation failed", "current password is required")
	}
	if len(req.NewPassword) < 6 {
		return fail(c, http.StatusBadRequest, "validation failed", "new password must be at least 6 characters long")
	}

	ctx := c.Request().Context()
	s, err := h.Students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load user")
	}
	if !utils.VerifyPassword(s.PasswordHash, req.CurrentPassword) {
		return fail(c, http.StatusBadRequest, "current password is incorrect")
	}

	if err := h.Students.UpdatePassword(ctx, id, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to change password")
	}
	if err := h.Tokens.RevokeAllForStudent(ctx, id); err != nil {
		c.Logger().Errorf("revoking sessions after password change failed for user %d: %v", id, err)
	}
	return ok(c, http.StatusOK, "password changed successfully", nil)
}

type eligibilityReq struct {
	IsEligible *bool `json:"is_eligible"`
}

// SetEligibility handles PUT /api/users/:id/eligibility (admin only):
// a manual override of the derived flag.  The override lasts until the
// next automatic recomputation against the date of birth.
func (h *UserHandler) SetEligibility(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	var req eligibilityReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.IsEligible == nil {
		return fail(c, http.StatusBadRequest, "eligibility status must be a boolean value")
	}

	ctx := c.Request().Context()
	s, err := h.Students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to load user")
	}
	if err := h.Students.SetEligibility(ctx, id, *req.IsEligible); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to update eligibility")
	}
	return ok(c, http.StatusOK, "user eligibility updated successfully", echo.Map{
		"user_id":     id,
		"is_eligible": *req.IsEligible,
		"age":         s.Age(time.Now().UTC()),
	})
}
