package model

import (
	"time"

	"gorm.io/gorm"
)

// UserAccessGrant records one user's access to one application under a
// tenant. Revocation deactivates the grant; rows are never hard-deleted so
// the pricing snapshot taken at grant time stays available for billing.
type UserAccessGrant struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	UserID        uint   `json:"user_id" gorm:"uniqueIndex:idx_grants_user_tenant_app;not null"`
	TenantID      uint   `json:"tenant_id" gorm:"uniqueIndex:idx_grants_user_tenant_app;not null"`
	ApplicationID uint   `json:"application_id" gorm:"uniqueIndex:idx_grants_user_tenant_app;not null"`
	Role          string `json:"role" gorm:"type:varchar(50);not null;default:'member'"`
	Active        bool   `json:"active" gorm:"not null;default:true"`

	// Pricing snapshot taken when the grant is created or reactivated.
	// Later price-table changes must not alter historical billing.
	Price        float64 `json:"price" gorm:"type:numeric(10,2)"`
	Currency     string  `json:"currency" gorm:"type:varchar(3);default:'BRL'"`
	UserTypeSlug string  `json:"user_type_slug" gorm:"type:varchar(50)"`

	GrantedAt time.Time      `json:"granted_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
