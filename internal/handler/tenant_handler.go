package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"hub-service/internal/model"
	"hub-service/internal/tenant"
	"hub-service/pkg/database"
	"hub-service/pkg/logger"
	"hub-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateTenant provisions a new tenant: the registry row, its isolated
// schema, default licenses for the shipped applications and a transcription
// config on the requested plan. Everything happens in one transaction so a
// failed provisioning leaves nothing behind.
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Identifier string `json:"identifier"`
		Name       string `json:"name"`
		Timezone   string `json:"timezone"`
		Locale     string `json:"locale"`
		Plan       string `json:"plan"`
		HubSeats   int    `json:"hub_seats"`
		TQSeats    int    `json:"tq_seats"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	schema, err := tenant.SchemaName(req.Identifier)
	if err != nil {
		log.Warn("Invalid tenant identifier", zap.String("identifier", req.Identifier))
		prometheus.RecordTenantError("invalid_tenant_identifier")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "invalid_tenant_identifier",
			"message": "identifier must be 2-50 lowercase alphanumerics, underscore or hyphen",
		})
	}

	if req.Plan == "" {
		req.Plan = model.PlanSlugStarter
	}
	if req.HubSeats <= 0 {
		req.HubSeats = 1
	}
	if req.TQSeats <= 0 {
		req.TQSeats = 1
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	t := model.Tenant{
		Identifier: req.Identifier,
		Name:       req.Name,
		Status:     model.TenantStatusActive,
	}
	if req.Timezone != "" {
		t.Timezone = req.Timezone
	}
	if req.Locale != "" {
		t.Locale = req.Locale
	}

	if result := tx.Create(&t); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create tenant", zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"error": "tenant creation failed"})
	}

	// Provision the isolated schema and its usage table
	if err := database.CreateSchema(tx, schema); err != nil {
		tx.Rollback()
		log.Error("Failed to create tenant schema", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "schema provisioning failed"})
	}
	if err := provisionTenantTables(tx, schema); err != nil {
		tx.Rollback()
		log.Error("Failed to provision tenant tables", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "schema provisioning failed"})
	}

	// Default licenses for the shipped applications
	seats := map[string]int{
		model.AppSlugHub: req.HubSeats,
		model.AppSlugTQ:  req.TQSeats,
	}
	for slug, count := range seats {
		var app model.Application
		if err := tx.Where("slug = ?", slug).First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			tx.Rollback()
			log.Error("Failed to look up application", zap.String("slug", slug), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
		}
		lic := model.License{
			TenantID:       t.ID,
			ApplicationID:  app.ID,
			SeatsPurchased: count,
			Status:         model.LicenseStatusActive,
		}
		if result := tx.Create(&lic); result.Error != nil {
			tx.Rollback()
			log.Error("Failed to create license", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
		}
	}

	// Transcription config on the requested plan
	var plan model.TranscriptionPlan
	if err := tx.Where("slug = ?", req.Plan).First(&plan).Error; err != nil {
		tx.Rollback()
		log.Warn("Unknown transcription plan", zap.String("plan", req.Plan))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown transcription plan"})
	}
	cfg := model.TenantTranscriptionConfig{
		TenantID: t.ID,
		PlanID:   plan.ID,
		Enabled:  true,
		Language: model.TranscriptionLangPTBR,
	}
	if result := tx.Create(&cfg); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create transcription config", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit tenant provisioning", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	prometheus.ActiveTenantsGauge.Inc()
	log.Info("Tenant provisioned",
		zap.Uint("id", t.ID),
		zap.String("identifier", t.Identifier),
		zap.String("schema", schema),
		zap.String("plan", plan.Slug))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "tenant created successfully",
		"tenant":  t,
	})
}

// GetCurrentTenant returns the resolved tenant record for the request
func GetCurrentTenant(c echo.Context) error {
	log := logger.FromContext(c)

	identity, ok := c.Get("tenant").(*tenant.Identity)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_tenant_context"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var t model.Tenant
	if result := database.GetDB().First(&t, identity.TenantID); result.Error != nil {
		log.Error("Tenant record not found", zap.Uint("tenant_id", identity.TenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant_not_found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tenant": t})
}

// provisionTenantTables creates the tenant-schema tables. The schema name
// is already validated by tenant.SchemaName.
func provisionTenantTables(tx *gorm.DB, schema string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q.transcription_usages (
		id bigserial PRIMARY KEY,
		month varchar(7) NOT NULL,
		audio_seconds integer NOT NULL,
		minutes integer NOT NULL,
		model varchar(50),
		created_at timestamptz NOT NULL DEFAULT now()
	)`, schema)
	if err := tx.Exec(ddl).Error; err != nil {
		return err
	}
	return tx.Exec(fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_transcription_usages_month ON %q.transcription_usages (month)`, schema)).Error
}
