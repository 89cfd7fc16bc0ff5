package handler // HTTP handlers for the outreach API

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/studenthub/outreach-api/internal/model"
)

// response is the standard JSON envelope: success flag, optional
// human-readable message, payload and field-level errors.
type response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ok writes a success envelope.
func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, response{Success: true, Message: message, Data: data})
}

// fail writes an error envelope.
func fail(c echo.Context, status int, message string, errs ...string) error {
	return c.JSON(status, response{Success: false, Message: message, Errors: errs})
}

// pagination summarizes a paged result set for list responses.
type pagination struct {
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

func paginate(page, limit, total int) pagination {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	pages := (total + limit - 1) / limit
	return pagination{
		Page:    page,
		Pages:   pages,
		Total:   total,
		Limit:   limit,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// getUserID extracts the authenticated student id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if v, ok := c.Get("user_id").(uint64); ok && v != 0 {
		return v, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the authenticated role stored by JWTAuth.
func getRole(c echo.Context) model.Role {
	if r, ok := c.Get("role").(model.Role); ok {
		return r
	}
	return ""
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}
