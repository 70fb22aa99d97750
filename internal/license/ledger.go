package license

import (
	"errors"
	"time"

	"hub-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrSeatLimitExceeded is returned when a grant would exceed the
	// purchased seat count
	ErrSeatLimitExceeded = errors.New("seat_limit_exceeded")
	// ErrLicenseNotFound is returned when a tenant holds no license for the
	// requested application
	ErrLicenseNotFound = errors.New("license_not_found")
	// ErrGrantNotFound is returned when revoking a grant that does not exist
	ErrGrantNotFound = errors.New("grant_not_found")
)

// GrantedUser is one active seat holder in a license listing
type GrantedUser struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	GrantedAt time.Time `json:"granted_at"`
}

// View is one license row as returned to callers. Status and SeatsUsed are
// derived at read time, never read from storage.
type View struct {
	ApplicationID  uint          `json:"application_id"`
	Slug           string        `json:"slug"`
	Name           string        `json:"name"`
	Status         string        `json:"status"`
	SeatsUsed      int           `json:"seats_used"`
	SeatsPurchased int           `json:"seats_purchased"`
	Users          []GrantedUser `json:"users"`
}

// Summary aggregates a license listing
type Summary struct {
	Apps      int `json:"apps"`
	SeatsUsed int `json:"seats_used"`
}

// PricingSnapshot is the pricing captured onto a grant at grant time
type PricingSnapshot struct {
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	UserTypeSlug string  `json:"user_type_slug"`
}

// List returns every license of the tenant with derived status, the
// recomputed active-grant count and the users holding active grants.
func List(db *gorm.DB, tenantID uint) ([]View, Summary, error) {
	var licenses []model.License
	if result := db.Preload("Application").Where("tenant_id = ?", tenantID).Find(&licenses); result.Error != nil {
		return nil, Summary{}, result.Error
	}

	now := time.Now()
	views := make([]View, 0, len(licenses))
	summary := Summary{}

	for _, lic := range licenses {
		var grants []model.UserAccessGrant
		result := db.Preload("User").
			Where("tenant_id = ? AND application_id = ? AND active = ?", tenantID, lic.ApplicationID, true).
			Order("granted_at").
			Find(&grants)
		if result.Error != nil {
			return nil, Summary{}, result.Error
		}

		users := make([]GrantedUser, 0, len(grants))
		for _, g := range grants {
			users = append(users, GrantedUser{
				Email:     g.User.Email,
				Role:      g.Role,
				GrantedAt: g.GrantedAt,
			})
		}

		views = append(views, View{
			ApplicationID:  lic.ApplicationID,
			Slug:           lic.Application.Slug,
			Name:           lic.Application.Name,
			Status:         EffectiveStatus(lic.Status, lic.ExpiresAt, now),
			SeatsUsed:      len(grants),
			SeatsPurchased: lic.SeatsPurchased,
			Users:          users,
		})

		summary.Apps++
		summary.SeatsUsed += len(grants)
	}

	return views, summary, nil
}

// Grant gives a user access to an application under a tenant, snapshotting
// current pricing onto the grant. The seat check and the insert run in one
// transaction with the license row locked, so two concurrent grants cannot
// both take the last seat.
func Grant(db *gorm.DB, userID, tenantID, applicationID uint, role string, snap PricingSnapshot) error {
	return db.Transaction(func(tx *gorm.DB) error {
		query := tx.Where("tenant_id = ? AND application_id = ?", tenantID, applicationID)
		if tx.Dialector.Name() == "postgres" {
			// SQLite serializes writers and does not accept FOR UPDATE
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var lic model.License
		result := query.First(&lic)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrLicenseNotFound
			}
			return result.Error
		}

		// An already-active grant holds its seat; re-granting is a no-op.
		var existing model.UserAccessGrant
		err := tx.Where("user_id = ? AND tenant_id = ? AND application_id = ?", userID, tenantID, applicationID).
			First(&existing).Error
		if err == nil && existing.Active {
			return nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var activeCount int64
		if result := tx.Model(&model.UserAccessGrant{}).
			Where("tenant_id = ? AND application_id = ? AND active = ?", tenantID, applicationID, true).
			Count(&activeCount); result.Error != nil {
			return result.Error
		}
		if activeCount >= int64(lic.SeatsPurchased) {
			return ErrSeatLimitExceeded
		}

		now := time.Now()
		if existing.ID != 0 {
			// Reactivate the revoked grant with a fresh snapshot
			updates := map[string]interface{}{
				"active":         true,
				"role":           role,
				"price":          snap.Price,
				"currency":       snap.Currency,
				"user_type_slug": snap.UserTypeSlug,
				"granted_at":     now,
			}
			return tx.Model(&existing).Updates(updates).Error
		}

		grant := model.UserAccessGrant{
			UserID:        userID,
			TenantID:      tenantID,
			ApplicationID: applicationID,
			Role:          role,
			Active:        true,
			Price:         snap.Price,
			Currency:      snap.Currency,
			UserTypeSlug:  snap.UserTypeSlug,
			GrantedAt:     now,
		}
		return tx.Create(&grant).Error
	})
}

// Revoke deactivates a grant. The row and its pricing snapshot are kept.
func Revoke(db *gorm.DB, userID, tenantID, applicationID uint) error {
	result := db.Model(&model.UserAccessGrant{}).
		Where("user_id = ? AND tenant_id = ? AND application_id = ? AND active = ?", userID, tenantID, applicationID, true).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// ActiveAppSlugs returns the application slugs the user can access: slugs of
// applications where the user holds an active grant under a currently valid
// license. Used at token issuance.
func ActiveAppSlugs(db *gorm.DB, userID, tenantID uint) ([]string, error) {
	var grants []model.UserAccessGrant
	if result := db.Where("user_id = ? AND tenant_id = ? AND active = ?", userID, tenantID, true).Find(&grants); result.Error != nil {
		return nil, result.Error
	}

	now := time.Now()
	slugs := make([]string, 0, len(grants))
	for _, g := range grants {
		var lic model.License
		err := db.Preload("Application").
			Where("tenant_id = ? AND application_id = ?", tenantID, g.ApplicationID).
			First(&lic).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		if EffectiveStatus(lic.Status, lic.ExpiresAt, now) != model.LicenseStatusActive {
			continue
		}
		slugs = append(slugs, lic.Application.Slug)
	}
	return slugs, nil
}
