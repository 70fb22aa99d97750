package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant statuses
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

// Tenant represents a customer organization. Each tenant maps 1:1 to an
// isolated database schema derived from its identifier; the schema name is
// never stored, only derived.
type Tenant struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Identifier string         `json:"identifier" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name       string         `json:"name" gorm:"type:varchar(100)"`
	Status     string         `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	Timezone   string         `json:"timezone" gorm:"type:varchar(50);default:'America/Sao_Paulo'"`
	Locale     string         `json:"locale" gorm:"type:varchar(10);default:'pt-BR'"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
