package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"hub-service/pkg/config"
	"hub-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invokeAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tenants/current", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := AuthMiddleware(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, c, reached
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	rec, _, reached := invokeAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthMiddleware_BadFormat(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	rec, _, reached := invokeAuth(t, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: -1})
	token, err := jwtutil.GenerateToken(jwtutil.SessionClaims{UserID: 7, TenantID: 42})
	require.NoError(t, err)

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	rec, _, reached := invokeAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token_expired")
	assert.False(t, reached)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	token, err := jwtutil.GenerateToken(jwtutil.SessionClaims{
		UserID:   7,
		TenantID: 42,
		Email:    "dr.silva@clinic.example",
		Role:     "admin",
	})
	require.NoError(t, err)

	rec, c, reached := invokeAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)

	assert.Equal(t, uint(7), c.Get("user_id"))
	assert.Equal(t, "dr.silva@clinic.example", c.Get("email"))
	assert.Equal(t, "admin", c.Get("user_role"))

	claims, ok := c.Get("claims").(*jwtutil.SessionClaims)
	require.True(t, ok)
	assert.Equal(t, uint(42), claims.TenantID)
}
