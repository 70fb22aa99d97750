package quota

import (
	"errors"
	"time"

	"hub-service/internal/model"
	"hub-service/pkg/database"

	"gorm.io/gorm"
)

// MonthKey formats a timestamp as the usage month key (YYYY-MM)
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthUsage is one month's aggregated minutes
type MonthUsage struct {
	Month       string `json:"month"`
	MinutesUsed int    `json:"minutes_used"`
}

// CurrentUsage describes the running month against the effective limit
type CurrentUsage struct {
	Month          string  `json:"month"`
	MinutesUsed    int     `json:"minutes_used"`
	Limit          int     `json:"limit"`
	Remaining      int     `json:"remaining"`
	PercentUsed    float64 `json:"percent_used"`
	OverageAllowed bool    `json:"overage_allowed"`
}

// PlanView is the plan descriptor included in usage reports
type PlanView struct {
	Slug               string `json:"slug"`
	Name               string `json:"name"`
	AllowsCustomLimits bool   `json:"allows_custom_limits"`
	AllowsOverage      bool   `json:"allows_overage"`
}

// ConfigView is the tenant config echoed in usage reports
type ConfigView struct {
	CustomMonthlyLimit *int   `json:"custom_monthly_limit,omitempty"`
	OverageAllowed     bool   `json:"overage_allowed"`
	Enabled            bool   `json:"enabled"`
	Language           string `json:"language"`
}

// UsageReport is the full transcription usage response for a tenant
type UsageReport struct {
	Current CurrentUsage `json:"current"`
	History []MonthUsage `json:"history"`
	Plan    PlanView     `json:"plan"`
	Config  ConfigView   `json:"config"`
}

// LoadConfig returns the tenant's transcription config with its plan, or
// ErrTranscriptionNotConfigured when none exists or it is disabled.
func LoadConfig(db *gorm.DB, tenantID uint) (*model.TenantTranscriptionConfig, error) {
	var cfg model.TenantTranscriptionConfig
	result := db.Preload("Plan").Where("tenant_id = ?", tenantID).First(&cfg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTranscriptionNotConfigured
		}
		return nil, result.Error
	}
	if !cfg.Enabled {
		return nil, ErrTranscriptionNotConfigured
	}
	return &cfg, nil
}

// GetUsage returns the tenant's usage report: the running month summarized
// against the effective limit plus the full per-month history. Usage rows
// live in the tenant's schema; the monthly totals are summed at read time.
func GetUsage(tenantID uint, schema string, now time.Time) (*UsageReport, error) {
	cfg, err := LoadConfig(database.GetDB(), tenantID)
	if err != nil {
		return nil, err
	}

	tx, err := database.TenantTx(schema)
	if err != nil {
		return nil, err
	}

	var history []MonthUsage
	result := tx.Model(&model.TranscriptionUsage{}).
		Select("month, COALESCE(SUM(minutes), 0) AS minutes_used").
		Group("month").
		Order("month DESC").
		Scan(&history)
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	currentMonth := MonthKey(now)
	minutesUsed := 0
	for _, m := range history {
		if m.Month == currentMonth {
			minutesUsed = m.MinutesUsed
			break
		}
	}

	limit := EffectiveLimit(cfg.Plan, cfg)
	remaining, percentUsed := Summarize(minutesUsed, limit)

	return &UsageReport{
		Current: CurrentUsage{
			Month:          currentMonth,
			MinutesUsed:    minutesUsed,
			Limit:          limit,
			Remaining:      remaining,
			PercentUsed:    percentUsed,
			OverageAllowed: cfg.OverageAllowed,
		},
		History: history,
		Plan: PlanView{
			Slug:               cfg.Plan.Slug,
			Name:               cfg.Plan.Name,
			AllowsCustomLimits: cfg.Plan.AllowsCustomLimits,
			AllowsOverage:      cfg.Plan.AllowsOverage,
		},
		Config: ConfigView{
			CustomMonthlyLimit: cfg.CustomMonthlyLimit,
			OverageAllowed:     cfg.OverageAllowed,
			Enabled:            cfg.Enabled,
			Language:           cfg.Language,
		},
	}, nil
}

// RecordUsage appends one immutable usage row for the running month in the
// tenant's schema. Limit enforcement is the caller's policy decision, made
// from GetUsage's remaining/overage fields before recording.
func RecordUsage(tenantID uint, schema string, audioSeconds int, modelName string, now time.Time) (*model.TranscriptionUsage, error) {
	if _, err := LoadConfig(database.GetDB(), tenantID); err != nil {
		return nil, err
	}

	tx, err := database.TenantTx(schema)
	if err != nil {
		return nil, err
	}

	row := model.TranscriptionUsage{
		Month:        MonthKey(now),
		AudioSeconds: audioSeconds,
		Minutes:      MinutesRounded(audioSeconds),
		Model:        modelName,
	}
	if result := tx.Create(&row); result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateConfig applies a plan-gated patch to the tenant's config. Every
// field passes through CanMutate before anything is written.
func UpdateConfig(tenantID uint, patch ConfigPatch) (*model.TenantTranscriptionConfig, error) {
	db := database.GetDB()

	cfg, err := LoadConfig(db, tenantID)
	if err != nil {
		return nil, err
	}

	if err := CanMutate(cfg.Plan, patch); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.CustomMonthlyLimit != nil {
		updates["custom_monthly_limit"] = *patch.CustomMonthlyLimit
		cfg.CustomMonthlyLimit = patch.CustomMonthlyLimit
	}
	if patch.OverageAllowed != nil {
		updates["overage_allowed"] = *patch.OverageAllowed
		cfg.OverageAllowed = *patch.OverageAllowed
	}
	if patch.Language != nil {
		updates["language"] = *patch.Language
		cfg.Language = *patch.Language
	}

	if result := db.Model(cfg).Updates(updates); result.Error != nil {
		return nil, result.Error
	}
	return cfg, nil
}
