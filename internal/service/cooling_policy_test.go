package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ermuhamett/slagfield-api/internal/models"
)

func slagProfile() []models.CoolingStage {
	return []models.CoolingStage{
		{TotalDurationMinutes: 2880, VisualCode: models.VisualRed, MinHours: 0, MaxHours: 12},
		{TotalDurationMinutes: 2880, VisualCode: models.VisualYellow, MinHours: 12, MaxHours: 24},
		{TotalDurationMinutes: 2880, VisualCode: models.VisualBlue, MinHours: 24, MaxHours: 36},
		{TotalDurationMinutes: 2880, VisualCode: models.VisualGreen, MinHours: 36, MaxHours: 48},
	}
}

func TestCoolingPolicyEarlyStage(t *testing.T) {
	policy := CoolingPolicy{}
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := start.Add(6 * time.Hour)

	out := policy.Assess(slagProfile(), start, now)

	assert.InDelta(t, 6, out.ElapsedHours, 1e-9)
	require.NotNil(t, out.Stage)
	assert.Equal(t, models.VisualRed, out.Stage.VisualCode)
	assert.False(t, out.Eligible)
	require.NotNil(t, out.EligibleAfterHours)
	assert.InDelta(t, 36, *out.EligibleAfterHours, 1e-9)
	assert.False(t, out.ExceedsMaxDuration)
}

func TestCoolingPolicyFinalStageEligible(t *testing.T) {
	policy := CoolingPolicy{}
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := start.Add(40 * time.Hour)

	out := policy.Assess(slagProfile(), start, now)

	require.NotNil(t, out.Stage)
	assert.Equal(t, models.VisualGreen, out.Stage.VisualCode)
	assert.True(t, out.Eligible)
	assert.Nil(t, out.EligibleAfterHours)
	assert.False(t, out.ExceedsMaxDuration)
}

func TestCoolingPolicyBeyondTotalDuration(t *testing.T) {
	policy := CoolingPolicy{}
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := start.Add(50 * time.Hour)

	out := policy.Assess(slagProfile(), start, now)

	// Past every stage window: no current stage, but still emptyable.
	assert.Nil(t, out.Stage)
	assert.True(t, out.Eligible)
	assert.True(t, out.ExceedsMaxDuration)
	assert.InDelta(t, 48, out.MaxDurationHours, 1e-9)
}

func TestCoolingPolicyStageBoundaryIsHalfOpen(t *testing.T) {
	policy := CoolingPolicy{}
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	out := policy.Assess(slagProfile(), start, start.Add(12*time.Hour))
	require.NotNil(t, out.Stage)
	assert.Equal(t, models.VisualYellow, out.Stage.VisualCode)
}

func TestCoolingPolicyExactTotalDurationNotExceeding(t *testing.T) {
	policy := CoolingPolicy{}
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	out := policy.Assess(slagProfile(), start, start.Add(48*time.Hour))
	assert.True(t, out.Eligible)
	assert.False(t, out.ExceedsMaxDuration, "exceeds flag is strict, 48h equals the total")
}

func TestCoolingPolicyNoStagesAlwaysEligible(t *testing.T) {
	policy := CoolingPolicy{}
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	out := policy.Assess(nil, start, start.Add(time.Minute))
	assert.True(t, out.Eligible)
	assert.Nil(t, out.Stage)
	assert.False(t, out.ExceedsMaxDuration)
}
