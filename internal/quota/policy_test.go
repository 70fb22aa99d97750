package quota

import (
	"testing"

	"hub-service/internal/model"

	"github.com/stretchr/testify/assert"
)

var (
	basicPlan = model.TranscriptionPlan{
		Slug:            model.PlanSlugBasic,
		IncludedMinutes: 2400,
	}
	vipPlan = model.TranscriptionPlan{
		Slug:               model.PlanSlugVIP,
		IncludedMinutes:    6000,
		AllowsCustomLimits: true,
		AllowsOverage:      true,
	}
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestCanMutate(t *testing.T) {
	tests := []struct {
		name    string
		plan    model.TranscriptionPlan
		patch   ConfigPatch
		wantErr error
	}{
		{
			name:    "empty patch rejected",
			plan:    vipPlan,
			patch:   ConfigPatch{},
			wantErr: ErrEmptyConfigUpdate,
		},
		{
			name:    "basic plan cannot set any custom limit",
			plan:    basicPlan,
			patch:   ConfigPatch{CustomMonthlyLimit: intPtr(10000)},
			wantErr: ErrCustomLimitsNotAllowed,
		},
		{
			name:    "vip custom limit below floor rejected",
			plan:    vipPlan,
			patch:   ConfigPatch{CustomMonthlyLimit: intPtr(5999)},
			wantErr: ErrCustomLimitBelowPlanMinimum,
		},
		{
			name:  "vip custom limit at floor allowed",
			plan:  vipPlan,
			patch: ConfigPatch{CustomMonthlyLimit: intPtr(6000)},
		},
		{
			name:  "vip custom limit above floor allowed",
			plan:  vipPlan,
			patch: ConfigPatch{CustomMonthlyLimit: intPtr(12000)},
		},
		{
			name:    "basic plan cannot enable overage",
			plan:    basicPlan,
			patch:   ConfigPatch{OverageAllowed: boolPtr(true)},
			wantErr: ErrOverageNotAllowed,
		},
		{
			name:  "disabling overage is always allowed",
			plan:  basicPlan,
			patch: ConfigPatch{OverageAllowed: boolPtr(false)},
		},
		{
			name:  "vip can enable overage",
			plan:  vipPlan,
			patch: ConfigPatch{OverageAllowed: boolPtr(true)},
		},
		{
			name:  "supported language accepted",
			plan:  basicPlan,
			patch: ConfigPatch{Language: strPtr(model.TranscriptionLangENUS)},
		},
		{
			name:    "unsupported language rejected",
			plan:    basicPlan,
			patch:   ConfigPatch{Language: strPtr("fr-FR")},
			wantErr: ErrUnsupportedLanguage,
		},
		{
			name: "first violation wins on combined patch",
			plan: basicPlan,
			patch: ConfigPatch{
				CustomMonthlyLimit: intPtr(10000),
				Language:           strPtr("fr-FR"),
			},
			wantErr: ErrCustomLimitsNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMutate(tt.plan, tt.patch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
