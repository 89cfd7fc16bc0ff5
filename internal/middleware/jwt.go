package middleware // reusable HTTP middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/studenthub/outreach-api/internal/model"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the subject and role claims into the request
// context.  Handlers read them via c.Get("user_id") (uint64) and
// c.Get("role") (model.Role).  The secret must match the one used at
// issuance.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "access denied, no token provided"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Only HMAC-signed tokens are issued here; reject others.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil {
				if strings.Contains(err.Error(), "expired") {
					return c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "token has expired"})
				}
				return c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "token is invalid"})
			}
			if !tok.Valid {
				return c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "token is invalid"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "token is invalid"})
			}

			uid, ok := subjectID(claims["sub"])
			if !ok {
				return c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "token is invalid"})
			}
			role, ok := model.ParseRole(asString(claims["role"]))
			if !ok {
				return c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "token is invalid"})
			}

			c.Set("user_id", uid)
			c.Set("role", role)
			return next(c)
		}
	}
}

// envelope is the standard response shape; duplicated here so the
// middleware package does not import the handler package.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// subjectID normalizes the numeric sub claim.  JWT numbers decode as
// float64; some issuers stringify them.
func subjectID(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		return uint64(t), true
	case int64:
		return uint64(t), true
	case uint64:
		return t, true
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
