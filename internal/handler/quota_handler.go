package handler

import (
	"errors"
	"net/http"
	"time"

	"hub-service/internal/quota"
	"hub-service/pkg/logger"
	"hub-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetTranscriptionUsage returns the tenant's monthly transcription usage
// against its effective limit, plus the per-month history
func GetTranscriptionUsage(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordQuotaOperation("get_usage")

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_tenant_context"})
	}
	schema, ok := c.Get("tenant_schema").(string)
	if !ok || schema == "" {
		log.Error("Missing tenant schema in usage lookup", zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_tenant_context"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	report, err := quota.GetUsage(tenantID, schema, time.Now())
	if err != nil {
		if errors.Is(err, quota.ErrTranscriptionNotConfigured) {
			log.Warn("Transcription not configured", zap.Uint("tenant_id", tenantID))
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "transcription_not_configured",
				"message": "transcription is not enabled for this tenant",
			})
		}
		log.Error("Failed to load transcription usage", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load usage"})
	}

	return c.JSON(http.StatusOK, report)
}

// RecordTranscriptionUsage appends one immutable usage row for a finished
// recording. It never blocks on the limit; the recording client decides
// whether to record based on GetTranscriptionUsage.
func RecordTranscriptionUsage(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordQuotaOperation("record_usage")

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_tenant_context"})
	}
	schema, ok := c.Get("tenant_schema").(string)
	if !ok || schema == "" {
		log.Error("Missing tenant schema in usage recording", zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_tenant_context"})
	}

	var req struct {
		AudioDurationSeconds int    `json:"audio_duration_seconds"`
		Model                string `json:"model"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse usage request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.AudioDurationSeconds <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid_audio_duration",
			"message": "audio_duration_seconds must be positive",
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	row, err := quota.RecordUsage(tenantID, schema, req.AudioDurationSeconds, req.Model, time.Now())
	if err != nil {
		if errors.Is(err, quota.ErrTranscriptionNotConfigured) {
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "transcription_not_configured",
				"message": "transcription is not enabled for this tenant",
			})
		}
		log.Error("Failed to record usage", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record usage"})
	}

	prometheus.RecordTranscriptionMinutes(tenantID, row.Minutes)
	log.Info("Transcription usage recorded",
		zap.Uint("tenant_id", tenantID),
		zap.Int("audio_seconds", row.AudioSeconds),
		zap.Int("minutes", row.Minutes),
		zap.String("model", row.Model))

	return c.JSON(http.StatusCreated, echo.Map{"usage": row})
}

// UpdateTranscriptionConfig applies a plan-gated config patch. Config
// mutation failures name the violated rule so the admin UI can explain it.
func UpdateTranscriptionConfig(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordQuotaOperation("update_config")

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_tenant_context"})
	}

	if role, _ := c.Get("user_role").(string); role != "admin" && role != "owner" {
		log.Warn("Config update attempted without admin role", zap.String("role", role))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant administrator role required"})
	}

	var patch quota.ConfigPatch
	if err := c.Bind(&patch); err != nil {
		log.Error("Failed to parse config patch", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	cfg, err := quota.UpdateConfig(tenantID, patch)
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrTranscriptionNotConfigured):
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "transcription_not_configured",
				"message": "transcription is not enabled for this tenant",
			})
		case errors.Is(err, quota.ErrEmptyConfigUpdate):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "empty_config_update",
				"message": "at least one field must be provided",
			})
		case errors.Is(err, quota.ErrCustomLimitsNotAllowed):
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "custom_limits_not_allowed",
				"message": "the tenant's plan does not allow custom monthly limits",
			})
		case errors.Is(err, quota.ErrCustomLimitBelowPlanMinimum):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "custom_limit_below_plan_minimum",
				"message": "the custom limit cannot be below the plan's included minutes",
			})
		case errors.Is(err, quota.ErrOverageNotAllowed):
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "overage_not_allowed",
				"message": "the tenant's plan does not allow overage",
			})
		case errors.Is(err, quota.ErrUnsupportedLanguage):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "unsupported_transcription_language",
				"message": "supported languages are pt-BR and en-US",
			})
		default:
			log.Error("Failed to update transcription config", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "config update failed"})
		}
	}

	log.Info("Transcription config updated", zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"config": cfg})
}
