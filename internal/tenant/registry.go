package tenant

import (
	"errors"

	"hub-service/internal/model"

	"gorm.io/gorm"
)

// Identity is a fully resolved tenant: the numeric id used at every trust
// boundary plus the derived schema name used to scope data access.
type Identity struct {
	TenantID   uint
	Identifier string
	Schema     string
	Timezone   string
	Locale     string
}

// Registry looks up tenant records. The GORM implementation reads the
// shared tenants table; tests substitute an in-memory one.
type Registry interface {
	ByID(id uint) (*model.Tenant, error)
	ByIdentifier(identifier string) (*model.Tenant, error)
}

// GormRegistry is the production Registry backed by the shared schema
type GormRegistry struct {
	db *gorm.DB
}

// NewGormRegistry creates a Registry over the given database handle
func NewGormRegistry(db *gorm.DB) *GormRegistry {
	return &GormRegistry{db: db}
}

// ByID returns the active tenant with the given numeric id
func (r *GormRegistry) ByID(id uint) (*model.Tenant, error) {
	var t model.Tenant
	result := r.db.Where("id = ? AND status = ?", id, model.TenantStatusActive).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, result.Error
	}
	return &t, nil
}

// ByIdentifier returns the active tenant with the given identifier. Used
// only for human-facing lookups before token issuance; the numeric id is
// the canonical form everywhere else.
func (r *GormRegistry) ByIdentifier(identifier string) (*model.Tenant, error) {
	if err := ValidateIdentifier(identifier); err != nil {
		return nil, err
	}
	var t model.Tenant
	result := r.db.Where("identifier = ? AND status = ?", identifier, model.TenantStatusActive).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, result.Error
	}
	return &t, nil
}

// Resolve maps a numeric tenant id to a full Identity via the registry
func Resolve(reg Registry, id uint) (*Identity, error) {
	t, err := reg.ByID(id)
	if err != nil {
		return nil, err
	}
	schema, err := SchemaName(t.Identifier)
	if err != nil {
		// A stored identifier that fails validation means the registry row
		// was corrupted out of band; treat it as unresolvable.
		return nil, ErrTenantNotFound
	}
	return &Identity{
		TenantID:   t.ID,
		Identifier: t.Identifier,
		Schema:     schema,
		Timezone:   t.Timezone,
		Locale:     t.Locale,
	}, nil
}
