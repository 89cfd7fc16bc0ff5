package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studenthub/outreach-api/internal/config"
	"github.com/studenthub/outreach-api/internal/model"
	"github.com/studenthub/outreach-api/internal/repository"
	"github.com/studenthub/outreach-api/internal/utils"
)

// AuthHandler bundles dependencies for account endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Students *repository.StudentRepo
	Tokens   *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, s *repository.StudentRepo, t *repository.TokenRepo) *AuthHandler {
	if s == nil || t == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Students: s, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
	Password    string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID         uint64 `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Age        int    `json:"age"`
	IsEligible bool   `json:"is_eligible"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(s model.Student) userPart {
	return userPart{
		ID:         s.ID,
		FullName:   s.FullName,
		Email:      s.Email,
		Role:       s.Role.String(),
		Age:        s.Age(time.Now().UTC()),
		IsEligible: s.IsEligible,
	}
}

// validateRegister collects field errors instead of stopping at the
// first one, so the client can render them all.
func validateRegister(req *registerReq) (time.Time, []string) {
	var errs []string
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if n := len(req.FullName); n < 2 || n > 100 {
		errs = append(errs, "full name must be between 2 and 100 characters")
	}
	if !strings.Contains(req.Email, "@") || strings.Count(req.Email, "@") != 1 {
		errs = append(errs, "please provide a valid email address")
	}
	if len(req.Password) < 6 {
		errs = append(errs, "password must be at least 6 characters long")
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		errs = append(errs, "please provide a valid date of birth (YYYY-MM-DD)")
	} else if !dob.Before(time.Now().UTC()) {
		errs = append(errs, "date of birth must be in the past")
	}
	return dob, errs
}

// Register creates a student account, computes eligibility at creation
// and returns the account plus a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	dob, errs := validateRegister(&req)
	if len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "validation failed", errs...)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Students.Create(ctx, req.FullName, req.Email, dob, req.Password, model.RoleStudent, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "user already exists with this email")
		}
		return fail(c, http.StatusInternalServerError, "create account failed")
	}
	s, err := h.Students.GetByID(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load account failed")
	}

	resp, err := h.issueTokenPair(ctx, s)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return ok(c, http.StatusCreated, "user registered successfully", resp)
}

// Login verifies credentials and returns a fresh token pair.  Unknown
// email and wrong password produce the same message so accounts cannot
// be enumerated.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Students.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusUnauthorized, "invalid email or password")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if !utils.VerifyPassword(s.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid email or password")
	}

	resp, err := h.issueTokenPair(ctx, s)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return ok(c, http.StatusOK, "login successful", resp)
}

// Refresh validates a refresh token by hash, revokes it and issues a
// new pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	s, err := h.Students.GetByID(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load account failed")
	}
	resp, err := h.issueTokenPair(ctx, s)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return ok(c, http.StatusOK, "token refreshed successfully", resp)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return fail(c, http.StatusInternalServerError, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Profile returns the authenticated student.  Eligibility is refreshed
// on read because it decays with time.
func (h *AuthHandler) Profile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Students.RefreshEligibility(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "load account failed")
	}
	return ok(c, http.StatusOK, "", echo.Map{"user": toUserPart(s)})
}

// EligibilityCheck recomputes and returns eligibility for any account.
func (h *AuthHandler) EligibilityCheck(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Students.RefreshEligibility(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "eligibility check failed")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"user_id":          s.ID,
		"is_eligible":      s.IsEligible,
		"age":              s.Age(time.Now().UTC()),
		"min_age_required": model.MinEligibleAge,
		"max_age_required": model.MaxEligibleAge,
	})
}

func (h *AuthHandler) issueTokenPair(ctx context.Context, s model.Student) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, s.ID, s.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, s.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    toUserPart(s),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}
