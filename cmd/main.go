package main

import (
	"hub-service/internal/ai"
	"hub-service/internal/handler"
	"hub-service/internal/middleware"
	"hub-service/internal/model"
	"hub-service/internal/tenant"
	"hub-service/pkg/config"
	"hub-service/pkg/database"
	"hub-service/pkg/jwtutil"
	"hub-service/pkg/logger"
	"hub-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting hub service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Shared-schema tables; tenant-schema tables are provisioned per tenant
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.UserType{},
		&model.User{},
		&model.Application{},
		&model.License{},
		&model.UserAccessGrant{},
		&model.TranscriptionPlan{},
		&model.TenantTranscriptionConfig{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	if err := seedCatalog(db); err != nil {
		log.Fatal("Failed to seed catalog data", zap.Error(err))
	}

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// External template-fill completion service used by the TQ endpoints
	if cfg.AI.BaseURL != "" {
		handler.InitTemplateFill(ai.NewClient(&cfg.AI, log))
		log.Info("Template-fill client configured", zap.String("base_url", cfg.AI.BaseURL))
	} else {
		log.Warn("Template-fill client not configured, /api/tq endpoints disabled")
	}

	registry := tenant.NewGormRegistry(db)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication, no tenant context
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes - tenant id travels in the request body here,
	// before any token exists
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/refresh", handler.RefreshToken)

	// Platform routes - authenticated platform operators, no tenant context
	platform := e.Group("/platform")
	platform.Use(middleware.AuthMiddleware)
	platform.Use(middleware.RequirePlatformAdmin)
	platform.POST("/tenants", handler.CreateTenant)

	// Product API routes - authentication plus resolved tenant context
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)
	api.Use(middleware.TenantContext(registry))

	api.GET("/tenants/current", handler.GetCurrentTenant)
	api.POST("/users/change-password", handler.ChangePassword)

	licenses := api.Group("/licenses")
	licenses.GET("", handler.ListLicenses)
	licenses.POST("/grants", handler.GrantAccess)
	licenses.DELETE("/:application_id/grants/:user_id", handler.RevokeAccess)

	transcription := api.Group("/transcription")
	transcription.GET("/usage", handler.GetTranscriptionUsage)
	transcription.POST("/usage", handler.RecordTranscriptionUsage)
	transcription.PATCH("/config", handler.UpdateTranscriptionConfig)

	tq := api.Group("/tq")
	tq.POST("/template-fill", handler.FillTemplate)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}

// seedCatalog inserts the fixed application and plan catalog rows when they
// are missing. Plan capability flags are part of the product definition,
// not tenant data.
func seedCatalog(db *gorm.DB) error {
	apps := []model.Application{
		{Slug: model.AppSlugHub, Name: "Hub", Status: "active"},
		{Slug: model.AppSlugTQ, Name: "TQ", Status: "active"},
	}
	for _, app := range apps {
		if err := db.Where(model.Application{Slug: app.Slug}).FirstOrCreate(&app).Error; err != nil {
			return err
		}
	}

	plans := []model.TranscriptionPlan{
		{Slug: model.PlanSlugStarter, Name: "Starter", IncludedMinutes: 600},
		{Slug: model.PlanSlugBasic, Name: "Basic", IncludedMinutes: 2400},
		{Slug: model.PlanSlugVIP, Name: "VIP", IncludedMinutes: 6000, AllowsCustomLimits: true, AllowsOverage: true},
	}
	for _, plan := range plans {
		if err := db.Where(model.TranscriptionPlan{Slug: plan.Slug}).FirstOrCreate(&plan).Error; err != nil {
			return err
		}
	}

	return nil
}
