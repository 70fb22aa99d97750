package license

import (
	"time"

	"hub-service/internal/model"
)

// EffectiveStatus derives the status returned to callers from the stored
// status and the expiry timestamp. It is the single expiry rule shared by
// every read path: a nil expiry never expires, a past expiry downgrades
// "active" to "expired", and "suspended" is an administrative override that
// expiry never upgrades.
func EffectiveStatus(stored string, expiresAt *time.Time, now time.Time) string {
	if stored == model.LicenseStatusActive && expiresAt != nil && expiresAt.Before(now) {
		return model.LicenseStatusExpired
	}
	return stored
}
