package quota

import (
	"errors"

	"hub-service/internal/model"
)

var (
	// ErrTranscriptionNotConfigured is returned when the tenant has no
	// enabled transcription config
	ErrTranscriptionNotConfigured = errors.New("transcription_not_configured")
	// ErrCustomLimitsNotAllowed is returned when the plan does not permit
	// custom monthly limits
	ErrCustomLimitsNotAllowed = errors.New("custom_limits_not_allowed")
	// ErrCustomLimitBelowPlanMinimum is returned for custom limits under
	// the plan's included minutes
	ErrCustomLimitBelowPlanMinimum = errors.New("custom_limit_below_plan_minimum")
	// ErrOverageNotAllowed is returned when the plan does not permit overage
	ErrOverageNotAllowed = errors.New("overage_not_allowed")
	// ErrUnsupportedLanguage is returned for languages outside the
	// supported set
	ErrUnsupportedLanguage = errors.New("unsupported_transcription_language")
	// ErrEmptyConfigUpdate is returned when a config mutation carries no
	// fields
	ErrEmptyConfigUpdate = errors.New("empty_config_update")
)

// ConfigPatch is a partial update to a tenant's transcription config.
// Nil fields are left untouched.
type ConfigPatch struct {
	CustomMonthlyLimit *int    `json:"custom_monthly_limit,omitempty"`
	OverageAllowed     *bool   `json:"overage_allowed,omitempty"`
	Language           *string `json:"language,omitempty"`
}

// Empty reports whether the patch carries no fields
func (p ConfigPatch) Empty() bool {
	return p.CustomMonthlyLimit == nil && p.OverageAllowed == nil && p.Language == nil
}

// CanMutate is the single policy gate for transcription config mutation.
// Every config endpoint evaluates patches through it, so plan capability
// rules live in exactly one place.
func CanMutate(plan model.TranscriptionPlan, patch ConfigPatch) error {
	if patch.Empty() {
		return ErrEmptyConfigUpdate
	}
	if patch.CustomMonthlyLimit != nil {
		if !plan.AllowsCustomLimits {
			return ErrCustomLimitsNotAllowed
		}
		if *patch.CustomMonthlyLimit < plan.IncludedMinutes {
			return ErrCustomLimitBelowPlanMinimum
		}
	}
	if patch.OverageAllowed != nil && *patch.OverageAllowed && !plan.AllowsOverage {
		return ErrOverageNotAllowed
	}
	if patch.Language != nil {
		switch *patch.Language {
		case model.TranscriptionLangPTBR, model.TranscriptionLangENUS:
		default:
			return ErrUnsupportedLanguage
		}
	}
	return nil
}
