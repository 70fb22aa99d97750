package model

import (
	"time"

	"gorm.io/gorm"
)

// Transcription plan slugs
const (
	PlanSlugStarter = "starter"
	PlanSlugBasic   = "basic"
	PlanSlugVIP     = "vip"
)

// Supported transcription languages
const (
	TranscriptionLangPTBR = "pt-BR"
	TranscriptionLangENUS = "en-US"
)

// TranscriptionPlan is a quota tier with fixed capability flags.
// IncludedMinutes is both the default monthly limit and the floor for any
// custom limit.
type TranscriptionPlan struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	Slug               string `json:"slug" gorm:"type:varchar(20);uniqueIndex;not null"`
	Name               string `json:"name" gorm:"type:varchar(50);not null"`
	IncludedMinutes    int    `json:"included_minutes" gorm:"not null"`
	AllowsCustomLimits bool   `json:"allows_custom_limits" gorm:"not null;default:false"`
	AllowsOverage      bool   `json:"allows_overage" gorm:"not null;default:false"`
}

// TenantTranscriptionConfig holds one tenant's transcription settings.
// Plan-gated fields (CustomMonthlyLimit, OverageAllowed) may only be set
// when the plan's capability flags allow it.
type TenantTranscriptionConfig struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	TenantID           uint           `json:"tenant_id" gorm:"uniqueIndex;not null"`
	PlanID             uint           `json:"plan_id" gorm:"not null"`
	CustomMonthlyLimit *int           `json:"custom_monthly_limit,omitempty"`
	OverageAllowed     bool           `json:"overage_allowed" gorm:"not null;default:false"`
	Enabled            bool           `json:"enabled" gorm:"not null;default:true"`
	Language           string         `json:"language" gorm:"type:varchar(10);not null;default:'pt-BR'"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`

	Plan TranscriptionPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

// TranscriptionUsage is one immutable recording event. Rows live in the
// tenant's own schema, so there is no tenant_id column; monthly totals are
// summed at read time and never mutated in place.
type TranscriptionUsage struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Month        string    `json:"month" gorm:"type:varchar(7);index;not null"` // YYYY-MM
	AudioSeconds int       `json:"audio_seconds" gorm:"not null"`
	Minutes      int       `json:"minutes" gorm:"not null"` // audio seconds rounded up to whole minutes
	Model        string    `json:"model" gorm:"type:varchar(50)"`
	CreatedAt    time.Time `json:"created_at"`
}
