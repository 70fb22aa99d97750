package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"hub-service/internal/license"
	"hub-service/pkg/database"
	"hub-service/pkg/logger"
	"hub-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListLicenses returns every license of the request tenant. Status and seat
// counts in the response are derived at read time.
func ListLicenses(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLicenseOperation("list")

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Error("Missing tenant context in license listing")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_tenant_context"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	views, summary, err := license.List(database.GetDB(), tenantID)
	if err != nil {
		log.Error("Failed to list licenses", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list licenses"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"licenses": views,
		"summary":  summary,
	})
}

// GrantAccess assigns a user to an application under the request tenant.
// Only tenant admins may grant seats.
func GrantAccess(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLicenseOperation("grant")

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_tenant_context"})
	}

	if role, _ := c.Get("user_role").(string); role != "admin" && role != "owner" {
		log.Warn("Grant attempted without admin role", zap.String("role", role))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant administrator role required"})
	}

	var req struct {
		UserID        uint    `json:"user_id"`
		ApplicationID uint    `json:"application_id"`
		Role          string  `json:"role"`
		Price         float64 `json:"price"`
		Currency      string  `json:"currency"`
		UserTypeSlug  string  `json:"user_type_slug"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse grant request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.UserID == 0 || req.ApplicationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and application_id are required"})
	}
	if req.Role == "" {
		req.Role = "member"
	}
	if req.Currency == "" {
		req.Currency = "BRL"
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := license.Grant(database.GetDB(), req.UserID, tenantID, req.ApplicationID, req.Role, license.PricingSnapshot{
		Price:        req.Price,
		Currency:     req.Currency,
		UserTypeSlug: req.UserTypeSlug,
	})
	if err != nil {
		switch {
		case errors.Is(err, license.ErrSeatLimitExceeded):
			log.Warn("Seat limit exceeded",
				zap.Uint("tenant_id", tenantID),
				zap.Uint("application_id", req.ApplicationID))
			prometheus.SeatLimitExceededCounter.Inc()
			return c.JSON(http.StatusConflict, echo.Map{
				"error":   "seat_limit_exceeded",
				"message": "all purchased seats for this application are in use",
			})
		case errors.Is(err, license.ErrLicenseNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "license_not_found"})
		default:
			log.Error("Failed to grant access", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "grant failed"})
		}
	}

	log.Info("Access granted",
		zap.Uint("user_id", req.UserID),
		zap.Uint("tenant_id", tenantID),
		zap.Uint("application_id", req.ApplicationID),
		zap.String("role", req.Role))

	return c.JSON(http.StatusCreated, echo.Map{"message": "access granted"})
}

// RevokeAccess deactivates a user's grant for an application. The grant row
// and its pricing snapshot are kept.
func RevokeAccess(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLicenseOperation("revoke")

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_tenant_context"})
	}

	if role, _ := c.Get("user_role").(string); role != "admin" && role != "owner" {
		log.Warn("Revoke attempted without admin role", zap.String("role", role))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant administrator role required"})
	}

	applicationID, err := strconv.ParseUint(c.Param("application_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := license.Revoke(database.GetDB(), uint(userID), tenantID, uint(applicationID)); err != nil {
		if errors.Is(err, license.ErrGrantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "grant_not_found"})
		}
		log.Error("Failed to revoke access", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}

	log.Info("Access revoked",
		zap.Uint64("user_id", userID),
		zap.Uint("tenant_id", tenantID),
		zap.Uint64("application_id", applicationID))

	return c.JSON(http.StatusOK, echo.Map{"message": "access revoked"})
}
