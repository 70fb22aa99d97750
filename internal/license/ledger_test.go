package license

import (
	"errors"
	"testing"
	"time"

	"hub-service/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-memory SQLite gives every pooled connection its own database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.UserType{},
		&model.User{},
		&model.Application{},
		&model.License{},
		&model.UserAccessGrant{},
	))
	return db
}

// seedLedger creates one application, a license for tenant 1 with the given
// seat count and three tenant-1 users.
func seedLedger(t *testing.T, db *gorm.DB, seats int) (model.Application, []model.User) {
	t.Helper()

	app := model.Application{Slug: model.AppSlugHub, Name: "Hub", Status: "active"}
	require.NoError(t, db.Create(&app).Error)
	require.NoError(t, db.Create(&model.License{
		TenantID:       1,
		ApplicationID:  app.ID,
		SeatsPurchased: seats,
		Status:         model.LicenseStatusActive,
	}).Error)

	users := make([]model.User, 0, 3)
	for _, email := range []string{"ana@clinic.test", "bruno@clinic.test", "carla@clinic.test"} {
		u := model.User{TenantID: 1, Email: email, Role: "member"}
		require.NoError(t, db.Create(&u).Error)
		users = append(users, u)
	}
	return app, users
}

func TestGrantRecountsSeats(t *testing.T) {
	db := newLedgerDB(t)
	app, users := seedLedger(t, db, 2)

	require.NoError(t, Grant(db, users[0].ID, 1, app.ID, "admin", PricingSnapshot{Price: 100, Currency: "BRL"}))

	views, summary, err := List(db, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].SeatsUsed)
	assert.Equal(t, 2, views[0].SeatsPurchased)
	assert.Equal(t, model.LicenseStatusActive, views[0].Status)
	require.Len(t, views[0].Users, 1)
	assert.Equal(t, "ana@clinic.test", views[0].Users[0].Email)
	assert.Equal(t, 1, summary.SeatsUsed)

	require.NoError(t, Grant(db, users[1].ID, 1, app.ID, "member", PricingSnapshot{Price: 100, Currency: "BRL"}))

	views, summary, err = List(db, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, views[0].SeatsUsed)
	assert.Equal(t, 2, summary.SeatsUsed)

	require.NoError(t, Revoke(db, users[0].ID, 1, app.ID))

	views, summary, err = List(db, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, views[0].SeatsUsed)
	require.Len(t, views[0].Users, 1)
	assert.Equal(t, "bruno@clinic.test", views[0].Users[0].Email)
	assert.Equal(t, 1, summary.SeatsUsed)
}

func TestGrantSeatLimit(t *testing.T) {
	db := newLedgerDB(t)
	app, users := seedLedger(t, db, 1)

	require.NoError(t, Grant(db, users[0].ID, 1, app.ID, "member", PricingSnapshot{}))

	err := Grant(db, users[1].ID, 1, app.ID, "member", PricingSnapshot{})
	assert.ErrorIs(t, err, ErrSeatLimitExceeded)

	// The rejected grant must leave no row behind
	var rows int64
	require.NoError(t, db.Model(&model.UserAccessGrant{}).Where("user_id = ?", users[1].ID).Count(&rows).Error)
	assert.Zero(t, rows)

	_, summary, err := List(db, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SeatsUsed)

	// Freeing the seat makes the same grant succeed
	require.NoError(t, Revoke(db, users[0].ID, 1, app.ID))
	require.NoError(t, Grant(db, users[1].ID, 1, app.ID, "member", PricingSnapshot{}))

	_, summary, err = List(db, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SeatsUsed)
}

func TestConcurrentGrantsLastSeat(t *testing.T) {
	db := newLedgerDB(t)
	app, users := seedLedger(t, db, 1)

	errs := make(chan error, 2)
	for _, u := range users[:2] {
		go func(userID uint) {
			errs <- Grant(db, userID, 1, app.ID, "member", PricingSnapshot{})
		}(u.ID)
	}

	var granted, rejected int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			granted++
		case errors.Is(err, ErrSeatLimitExceeded):
			rejected++
		default:
			t.Fatalf("unexpected grant error: %v", err)
		}
	}
	assert.Equal(t, 1, granted)
	assert.Equal(t, 1, rejected)

	_, summary, err := List(db, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SeatsUsed)
}

func TestGrantActiveIsNoop(t *testing.T) {
	db := newLedgerDB(t)
	app, users := seedLedger(t, db, 1)

	require.NoError(t, Grant(db, users[0].ID, 1, app.ID, "member", PricingSnapshot{Price: 100, Currency: "BRL"}))
	require.NoError(t, Grant(db, users[0].ID, 1, app.ID, "admin", PricingSnapshot{Price: 150, Currency: "BRL"}))

	var grants []model.UserAccessGrant
	require.NoError(t, db.Where("user_id = ?", users[0].ID).Find(&grants).Error)
	require.Len(t, grants, 1)
	// Re-granting an active seat keeps the original snapshot
	assert.Equal(t, 100.0, grants[0].Price)
	assert.Equal(t, "member", grants[0].Role)
}

func TestReactivationRefreshesSnapshot(t *testing.T) {
	db := newLedgerDB(t)
	app, users := seedLedger(t, db, 1)

	require.NoError(t, Grant(db, users[0].ID, 1, app.ID, "member", PricingSnapshot{Price: 100, Currency: "BRL"}))
	require.NoError(t, Revoke(db, users[0].ID, 1, app.ID))
	require.NoError(t, Grant(db, users[0].ID, 1, app.ID, "admin", PricingSnapshot{Price: 150, Currency: "BRL"}))

	var grants []model.UserAccessGrant
	require.NoError(t, db.Where("user_id = ?", users[0].ID).Find(&grants).Error)
	require.Len(t, grants, 1)
	assert.True(t, grants[0].Active)
	assert.Equal(t, 150.0, grants[0].Price)
	assert.Equal(t, "admin", grants[0].Role)
}

func TestGrantAndRevokeErrors(t *testing.T) {
	db := newLedgerDB(t)
	app, users := seedLedger(t, db, 1)

	t.Run("grant without license", func(t *testing.T) {
		err := Grant(db, users[0].ID, 1, app.ID+99, "member", PricingSnapshot{})
		assert.ErrorIs(t, err, ErrLicenseNotFound)
	})

	t.Run("revoke without grant", func(t *testing.T) {
		err := Revoke(db, users[0].ID, 1, app.ID)
		assert.ErrorIs(t, err, ErrGrantNotFound)
	})

	t.Run("revoke twice", func(t *testing.T) {
		require.NoError(t, Grant(db, users[0].ID, 1, app.ID, "member", PricingSnapshot{}))
		require.NoError(t, Revoke(db, users[0].ID, 1, app.ID))
		assert.ErrorIs(t, Revoke(db, users[0].ID, 1, app.ID), ErrGrantNotFound)
	})
}

func TestListScopedToTenant(t *testing.T) {
	db := newLedgerDB(t)
	app, users := seedLedger(t, db, 1)

	require.NoError(t, db.Create(&model.License{
		TenantID:       2,
		ApplicationID:  app.ID,
		SeatsPurchased: 5,
		Status:         model.LicenseStatusActive,
	}).Error)
	other := model.User{TenantID: 2, Email: "dora@other.test", Role: "member"}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, Grant(db, other.ID, 2, app.ID, "member", PricingSnapshot{}))

	require.NoError(t, Grant(db, users[0].ID, 1, app.ID, "member", PricingSnapshot{}))

	views, summary, err := List(db, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].SeatsUsed)
	assert.Equal(t, 1, summary.SeatsUsed)
	require.Len(t, views[0].Users, 1)
	assert.Equal(t, "ana@clinic.test", views[0].Users[0].Email)
}

func TestActiveAppSlugsFiltersLicenses(t *testing.T) {
	db := newLedgerDB(t)
	hub, users := seedLedger(t, db, 1)

	expired := time.Now().Add(-24 * time.Hour)
	tq := model.Application{Slug: model.AppSlugTQ, Name: "TQ", Status: "active"}
	require.NoError(t, db.Create(&tq).Error)
	require.NoError(t, db.Create(&model.License{
		TenantID:       1,
		ApplicationID:  tq.ID,
		SeatsPurchased: 1,
		Status:         model.LicenseStatusActive,
		ExpiresAt:      &expired,
	}).Error)

	require.NoError(t, Grant(db, users[0].ID, 1, hub.ID, "member", PricingSnapshot{}))
	require.NoError(t, Grant(db, users[0].ID, 1, tq.ID, "member", PricingSnapshot{}))

	slugs, err := ActiveAppSlugs(db, users[0].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{model.AppSlugHub}, slugs)
}
