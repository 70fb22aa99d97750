package model

import (
	"time"

	"gorm.io/gorm"
)

// License statuses. "expired" is never stored; it is derived at read time
// by comparing ExpiresAt with the clock.
const (
	LicenseStatusActive    = "active"
	LicenseStatusSuspended = "suspended"
	LicenseStatusExpired   = "expired"
)

// License is a (tenant, application) entitlement bounding purchased seats.
// SeatsUsed is not stored: it is always recomputed from active grants.
type License struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	TenantID       uint           `json:"tenant_id" gorm:"uniqueIndex:idx_licenses_tenant_app;not null"`
	ApplicationID  uint           `json:"application_id" gorm:"uniqueIndex:idx_licenses_tenant_app;not null"`
	SeatsPurchased int            `json:"seats_purchased" gorm:"not null;default:1"`
	Status         string         `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"` // nil means the license never expires
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	Application Application `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
}
