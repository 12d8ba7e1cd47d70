package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"topdown-racer/internal/config"
)

func TestComputeRewardComponents(t *testing.T) {
	cfg := config.Default()
	ai := cfg.AI

	tests := []struct {
		name  string
		info  StepInfo
		check func(t *testing.T, b Breakdown)
	}{
		{
			name: "checkpoint collection",
			info: StepInfo{CheckpointReached: true},
			check: func(t *testing.T, b Breakdown) {
				assert.Equal(t, ai.CheckpointReward, b.Checkpoint)
			},
		},
		{
			name: "lap completion",
			info: StepInfo{LapCompleted: true},
			check: func(t *testing.T, b Breakdown) {
				assert.Equal(t, ai.LapCompletionBonus, b.Lap)
			},
		},
		{
			name: "speed scales linearly",
			info: StepInfo{Speed: cfg.Car.MaxSpeed / 2},
			check: func(t *testing.T, b Breakdown) {
				assert.InDelta(t, 0.5*ai.SpeedRewardScale, b.Speed, 1e-9)
			},
		},
		{
			name: "speed saturates at max",
			info: StepInfo{Speed: 2 * cfg.Car.MaxSpeed},
			check: func(t *testing.T, b Breakdown) {
				assert.InDelta(t, ai.SpeedRewardScale, b.Speed, 1e-9)
			},
		},
		{
			name: "forward progress rewarded",
			info: StepInfo{ForwardProgress: 0.1},
			check: func(t *testing.T, b Breakdown) {
				assert.InDelta(t, 0.1*ai.ForwardProgressRewardScale, b.ForwardProgress, 1e-9)
			},
		},
		{
			name: "backward progress penalized more gently",
			info: StepInfo{ForwardProgress: -0.1},
			check: func(t *testing.T, b Breakdown) {
				assert.InDelta(t, -0.1*ai.BackwardProgressPenalty, b.ForwardProgress, 1e-9)
				assert.Less(t, ai.BackwardProgressPenalty, ai.ForwardProgressRewardScale)
			},
		},
		{
			name: "lateral offset penalized",
			info: StepInfo{LateralOffset: 60},
			check: func(t *testing.T, b Breakdown) {
				assert.InDelta(t, -60*ai.LateralPenaltyScale, b.LateralPenalty, 1e-9)
			},
		},
		{
			name: "wall damage penalized",
			info: StepInfo{WallDamage: 30},
			check: func(t *testing.T, b Breakdown) {
				assert.InDelta(t, -30*ai.WallDamagePenaltyScale, b.WallPenalty, 1e-9)
			},
		},
		{
			name: "death penalty",
			info: StepInfo{Dead: true},
			check: func(t *testing.T, b Breakdown) {
				assert.Equal(t, -ai.DeathPenalty, b.DeathPenalty)
			},
		},
		{
			name: "stuck costs as much as dying",
			info: StepInfo{IsStuck: true},
			check: func(t *testing.T, b Breakdown) {
				assert.Equal(t, -ai.DeathPenalty, b.StuckPenalty)
			},
		},
		{
			name: "smooth steering bonus",
			info: StepInfo{PrevSteering: 0.3, CurrSteering: 0.35},
			check: func(t *testing.T, b Breakdown) {
				assert.Equal(t, ai.SmoothSteeringBonus, b.SmoothSteering)
			},
		},
		{
			name: "jerky steering gets no bonus",
			info: StepInfo{PrevSteering: -0.5, CurrSteering: 0.5},
			check: func(t *testing.T, b Breakdown) {
				assert.Zero(t, b.SmoothSteering)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ComputeReward(tt.info, cfg)
			tt.check(t, b)

			// The time drain applies on every tick, whatever else happened.
			assert.Equal(t, -ai.TimePenalty, b.TimePenalty)
		})
	}
}

func TestBreakdownTotalSumsAllFields(t *testing.T) {
	b := Breakdown{
		Checkpoint:      2,
		Lap:             20,
		Speed:           0.1,
		ForwardProgress: 0.2,
		LateralPenalty:  -0.3,
		WallPenalty:     -5,
		DeathPenalty:    -20,
		TimePenalty:     -0.01,
		SmoothSteering:  0.01,
		StuckPenalty:    -20,
	}
	assert.InDelta(t, -23.0, b.Total(), 1e-9)
}

func TestComputeRewardIdleTick(t *testing.T) {
	cfg := config.Default()

	// A stationary, uneventful tick on the centerline costs exactly the time
	// drain minus the smooth-steering bonus.
	b := ComputeReward(StepInfo{}, cfg)
	assert.InDelta(t, -cfg.AI.TimePenalty+cfg.AI.SmoothSteeringBonus, b.Total(), 1e-9)
}

func TestRewardRangeBoundsTypicalTicks(t *testing.T) {
	cfg := config.Default()
	min, max := RewardRange(cfg)

	assert.Less(t, min, 0.0)
	assert.Greater(t, max, 0.0)

	infos := []StepInfo{
		{},
		{CheckpointReached: true, LapCompleted: true, Speed: cfg.Car.MaxSpeed},
		{Dead: true, IsStuck: true, WallDamage: cfg.Damage.MaxHealth, LateralOffset: cfg.Track.TrackWidth / 2},
		{ForwardProgress: -0.5},
		{Speed: 100, ForwardProgress: 0.05, LateralOffset: 20},
	}
	for i, info := range infos {
		total := ComputeReward(info, cfg).Total()
		assert.GreaterOrEqual(t, total, min, "info %d", i)
		assert.LessOrEqual(t, total, max, "info %d", i)
	}
}
