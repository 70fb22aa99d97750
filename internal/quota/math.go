package quota

import "hub-service/internal/model"

// MinutesRounded converts an audio duration to billable minutes, rounding
// up to the next whole minute. 61s bills as 2 minutes, 120s as 2.
func MinutesRounded(audioSeconds int) int {
	if audioSeconds <= 0 {
		return 0
	}
	return (audioSeconds + 59) / 60
}

// EffectiveLimit returns the tenant's monthly minute limit: the custom
// limit when one is set and the plan permits custom limits, otherwise the
// plan's included minutes.
func EffectiveLimit(plan model.TranscriptionPlan, cfg *model.TenantTranscriptionConfig) int {
	if plan.AllowsCustomLimits && cfg.CustomMonthlyLimit != nil {
		return *cfg.CustomMonthlyLimit
	}
	return plan.IncludedMinutes
}

// Summarize computes the remaining balance and used fraction for a month.
// Remaining never goes negative even when overage pushes usage past the
// limit; PercentUsed can exceed 1.
func Summarize(minutesUsed, limit int) (remaining int, percentUsed float64) {
	remaining = limit - minutesUsed
	if remaining < 0 {
		remaining = 0
	}
	if limit > 0 {
		percentUsed = float64(minutesUsed) / float64(limit)
	}
	return remaining, percentUsed
}
