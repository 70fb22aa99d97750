package quota

import (
	"testing"

	"hub-service/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestMinutesRounded(t *testing.T) {
	tests := []struct {
		seconds int
		want    int
	}{
		{0, 0},
		{-10, 0},
		{1, 1},
		{59, 1},
		{60, 1},
		{61, 2},
		{120, 2},
		{121, 3},
		{3600, 60},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MinutesRounded(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestEffectiveLimit(t *testing.T) {
	customLimit := 9000

	t.Run("plan floor when no custom limit", func(t *testing.T) {
		plan := model.TranscriptionPlan{IncludedMinutes: 2400, AllowsCustomLimits: true}
		cfg := &model.TenantTranscriptionConfig{}
		assert.Equal(t, 2400, EffectiveLimit(plan, cfg))
	})

	t.Run("custom limit honored when plan allows", func(t *testing.T) {
		plan := model.TranscriptionPlan{IncludedMinutes: 6000, AllowsCustomLimits: true}
		cfg := &model.TenantTranscriptionConfig{CustomMonthlyLimit: &customLimit}
		assert.Equal(t, 9000, EffectiveLimit(plan, cfg))
	})

	t.Run("custom limit ignored when plan forbids", func(t *testing.T) {
		plan := model.TranscriptionPlan{IncludedMinutes: 2400, AllowsCustomLimits: false}
		cfg := &model.TenantTranscriptionConfig{CustomMonthlyLimit: &customLimit}
		assert.Equal(t, 2400, EffectiveLimit(plan, cfg))
	})
}

func TestSummarize(t *testing.T) {
	t.Run("basic plan scenario", func(t *testing.T) {
		remaining, percentUsed := Summarize(1800, 2400)
		assert.Equal(t, 600, remaining)
		assert.InDelta(t, 0.75, percentUsed, 1e-9)
	})

	t.Run("overage clamps remaining to zero", func(t *testing.T) {
		remaining, percentUsed := Summarize(3000, 2400)
		assert.Equal(t, 0, remaining)
		assert.InDelta(t, 1.25, percentUsed, 1e-9)
	})

	t.Run("zero limit yields zero percent", func(t *testing.T) {
		remaining, percentUsed := Summarize(100, 0)
		assert.Equal(t, 0, remaining)
		assert.Zero(t, percentUsed)
	})
}
