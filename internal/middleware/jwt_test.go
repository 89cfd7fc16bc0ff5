package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studenthub/outreach-api/internal/model"
	"github.com/studenthub/outreach-api/internal/utils"
)

const testSecret = "unit-test-secret"

// runJWT sends a request through JWTAuth and a terminal handler that
// records the injected context values.
func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, uint64, model.Role, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		gotUID  uint64
		gotRole model.Role
		reached bool
	)
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		reached = true
		gotUID, _ = c.Get("user_id").(uint64)
		gotRole, _ = c.Get("role").(model.Role)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, gotUID, gotRole, reached
}

func TestJWTAuthValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 42, model.RoleStudent, 15)
	require.NoError(t, err)

	rec, uid, role, reached := runJWT(t, "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, model.RoleStudent, role)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _, _, reached := runJWT(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
	assert.Contains(t, rec.Body.String(), "no token provided")
}

func TestJWTAuthMalformedToken(t *testing.T) {
	rec, _, _, reached := runJWT(t, "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
	assert.Contains(t, rec.Body.String(), "token is invalid")
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("another-secret", 42, model.RoleStudent, 15)
	require.NoError(t, err)

	rec, _, _, reached := runJWT(t, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  uint64(7),
		"role": "student",
		"exp":  time.Now().UTC().Add(-time.Hour).Unix(),
		"iat":  time.Now().UTC().Add(-2 * time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec, _, _, reached := runJWT(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
	assert.Contains(t, rec.Body.String(), "token has expired")
}

func TestJWTAuthUnknownRoleClaim(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  uint64(7),
		"role": "superuser",
		"exp":  time.Now().UTC().Add(time.Hour).Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec, _, _, reached := runJWT(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestSubjectIDNormalization(t *testing.T) {
	cases := []struct {
		in   interface{}
		want uint64
		ok   bool
	}{
		{float64(42), 42, true},
		{int64(7), 7, true},
		{uint64(9), 9, true},
		{"123", 123, true},
		{"abc", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := subjectID(tc.in)
		assert.Equal(t, tc.ok, ok)
		assert.Equal(t, tc.want, got)
	}
}
