package handler

import (
	"errors"
	"net/http"
	"time"

	"hub-service/internal/license"
	"hub-service/internal/model"
	"hub-service/internal/tenant"
	"hub-service/pkg/database"
	"hub-service/pkg/jwtutil"
	"hub-service/pkg/logger"
	"hub-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Login authenticates a user within a tenant and issues a session token.
// The tenant id is required up front: tokens always carry the numeric
// tenant id and are never issued without one.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		TenantID *uint  `json:"tenant_id"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.TenantID == nil || *req.TenantID == 0 {
		log.Warn("Login without tenant context", zap.String("email", req.Email))
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "missing_tenant_context",
			"message": "tenant_id is required",
		})
	}

	identity, err := tenant.Resolve(tenant.NewGormRegistry(database.GetDB()), *req.TenantID)
	if err != nil {
		log.Warn("Login against unknown tenant", zap.Uint("tenant_id", *req.TenantID))
		prometheus.RecordAuthError("tenant_not_found")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_not_found"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Preload("UserType").
		Where("tenant_id = ? AND email = ?", identity.TenantID, req.Email).
		First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials"})
	}

	allowedApps, err := license.ActiveAppSlugs(database.GetDB(), user.ID, identity.TenantID)
	if err != nil {
		log.Error("Failed to resolve allowed applications", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	token, err := jwtutil.GenerateToken(jwtutil.SessionClaims{
		UserID:      user.ID,
		TenantID:    identity.TenantID,
		Email:       user.Email,
		Role:        user.Role,
		Schema:      identity.Schema,
		Timezone:    identity.Timezone,
		Locale:      identity.Locale,
		AllowedApps: allowedApps,
		UserType: jwtutil.UserType{
			ID:             user.UserType.ID,
			Slug:           user.UserType.Slug,
			HierarchyLevel: user.UserType.HierarchyLevel,
		},
		PlatformRole: user.PlatformRole,
	})
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", identity.TenantID),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
		"tenant": map[string]interface{}{
			"id":         identity.TenantID,
			"identifier": identity.Identifier,
			"timezone":   identity.Timezone,
			"locale":     identity.Locale,
		},
		"allowed_apps": allowedApps,
	})
}

// RefreshToken re-issues a still-valid session token with a fresh expiry
func RefreshToken(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Token string `json:"token"`
	}

	if err := c.Bind(&req); err != nil || req.Token == "" {
		log.Error("Failed to parse refresh request")
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	token, err := jwtutil.RefreshToken(req.Token)
	if err != nil {
		if errors.Is(err, jwtutil.ErrTokenExpired) {
			log.Warn("Refresh of expired token")
			prometheus.RecordAuthError("token_expired")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token_expired"})
		}
		log.Warn("Refresh of invalid token", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token"})
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// ChangePassword updates the authenticated user's password
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse password change request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if len(req.NewPassword) < minPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "password_too_short",
			"message": "new password must be at least 8 characters",
		})
	}
	if req.NewPassword == req.CurrentPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "password_unchanged",
			"message": "new password must differ from the current password",
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		log.Error("User not found", zap.Uint("user_id", userID))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		log.Warn("Password change with wrong current password", zap.Uint("user_id", userID))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	if err := database.GetDB().Model(&user).Update("password", string(hashed)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	log.Info("Password changed", zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed successfully"})
}
