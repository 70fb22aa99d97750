package model

import (
	"time"

	"gorm.io/gorm"
)

// UserType classifies users within the platform hierarchy (e.g. clinic
// owner, practitioner, assistant). Lower hierarchy levels outrank higher.
type UserType struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	Slug           string `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name           string `json:"name" gorm:"type:varchar(100)"`
	HierarchyLevel int    `json:"hierarchy_level" gorm:"not null;default:99"`
}

// User represents a user account scoped to a tenant
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TenantID     uint           `json:"tenant_id" gorm:"uniqueIndex:idx_users_tenant_email;not null"`
	Email        string         `json:"email" gorm:"type:varchar(100);uniqueIndex:idx_users_tenant_email;not null"`
	Password     string         `json:"-" gorm:"type:varchar(255)"`
	Role         string         `json:"role" gorm:"type:varchar(50);not null;default:'member'"` // Role within the tenant: 'admin', 'member'
	UserTypeID   uint           `json:"user_type_id" gorm:"index"`
	PlatformRole *string        `json:"platform_role,omitempty" gorm:"type:varchar(50)"` // Set only for platform operators
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	UserType UserType `json:"user_type,omitempty" gorm:"foreignKey:UserTypeID"`
}

// IsTenantAdmin reports whether the user can manage tenant configuration
func (u *User) IsTenantAdmin() bool {
	return u.Role == "admin" || u.Role == "owner"
}
