package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studenthub/outreach-api/internal/model"
)

// RequireRole enforces that the authenticated account holds one of the
// given roles.  Roles form a closed enumeration, so anything the
// middleware does not recognize is rejected.  Assumes JWTAuth already
// stored the role under "role".
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(model.Role)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, envelope{Success: false, Message: "access denied, insufficient privileges"})
			}
			return next(c)
		}
	}
}
