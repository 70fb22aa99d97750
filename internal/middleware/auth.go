package middleware

import (
	"errors"
	"net/http"
	"strings"

	"hub-service/pkg/jwtutil"
	"hub-service/pkg/logger"
	"hub-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token from the Authorization header
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, jwtutil.ErrTokenExpired) {
				log.Warn("Expired JWT token")
				prometheus.RecordAuthError("token_expired")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token_expired"})
			}
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token"})
		}

		// Store session info in context for later use
		c.Set("claims", claims)
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("user_role", claims.Role)
		if claims.PlatformRole != nil {
			c.Set("platform_role", *claims.PlatformRole)
		}

		// Enrich the request logger with the authenticated identity
		log = log.With(
			zap.Uint("user_id", claims.UserID),
			zap.String("email", claims.Email),
		)
		c.Set("logger", log)

		return next(c)
	}
}

// RequirePlatformAdmin restricts a route to platform operators
func RequirePlatformAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		role, ok := c.Get("platform_role").(string)
		if !ok || role != "admin" {
			log.Warn("Platform admin access denied")
			prometheus.RecordAuthError("platform_role_required")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "platform administrator role required"})
		}

		return next(c)
	}
}
