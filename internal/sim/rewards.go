package sim

import (
	"math"

	"topdown-racer/internal/config"
)

// StepInfo carries everything the reward function may look at for one tick.
type StepInfo struct {
	CheckpointReached bool
	LapCompleted      bool
	WallDamage        float64
	Dead              bool
	Speed             float64 // absolute value, units/sec
	PrevSteering      float64
	CurrSteering      float64
	IsStuck           bool
	ForwardProgress   float64 // fractional centerline indices, signed
	LateralOffset     float64 // units from centerline
}

// Breakdown is the fixed-field per-component reward record. Positive fields
// are rewards, negative are penalties; Total sums them all.
type Breakdown struct {
	Checkpoint      float64 `json:"checkpoint"`
	Lap             float64 `json:"lap"`
	Speed           float64 `json:"speed"`
	ForwardProgress float64 `json:"forward_progress"`
	LateralPenalty  float64 `json:"lateral_penalty"`
	WallPenalty     float64 `json:"wall_penalty"`
	DeathPenalty    float64 `json:"death_penalty"`
	TimePenalty     float64 `json:"time_penalty"`
	SmoothSteering  float64 `json:"smooth_steering"`
	StuckPenalty    float64 `json:"stuck_penalty"`
}

// Total sums every component.
func (b Breakdown) Total() float64 {
	return b.Checkpoint + b.Lap + b.Speed + b.ForwardProgress +
		b.LateralPenalty + b.WallPenalty + b.DeathPenalty +
		b.TimePenalty + b.SmoothSteering + b.StuckPenalty
}

// ComputeReward is a pure function from one tick's StepInfo to its reward
// breakdown. All weights come from the AI config section.
func ComputeReward(info StepInfo, cfg config.Config) Breakdown {
	ai := cfg.AI
	var b Breakdown

	// Checkpoint collection is the primary learning signal.
	if info.CheckpointReached {
		b.Checkpoint = ai.CheckpointReward
	}
	if info.LapCompleted {
		b.Lap = ai.LapCompletionBonus
	}

	// Small continuous reward for moving at all.
	speedFraction := math.Min(info.Speed/cfg.Car.MaxSpeed, 1)
	b.Speed = speedFraction * ai.SpeedRewardScale

	// Progress along the centerline, with a milder penalty for going
	// backward than the reward for going forward.
	if info.ForwardProgress > 0 {
		b.ForwardProgress = info.ForwardProgress * ai.ForwardProgressRewardScale
	} else if info.ForwardProgress < 0 {
		b.ForwardProgress = info.ForwardProgress * ai.BackwardProgressPenalty
	}

	if info.LateralOffset > 0 {
		b.LateralPenalty = -info.LateralOffset * ai.LateralPenaltyScale
	}

	if info.WallDamage > 0 {
		b.WallPenalty = -info.WallDamage * ai.WallDamagePenaltyScale
	}

	if info.Dead {
		b.DeathPenalty = -ai.DeathPenalty
	}

	// Constant drain: sitting still is never free.
	b.TimePenalty = -ai.TimePenalty

	if math.Abs(info.CurrSteering-info.PrevSteering) < 0.1 {
		b.SmoothSteering = ai.SmoothSteeringBonus
	}

	// Being stuck is effectively terminal, so it costs as much as dying.
	if info.IsStuck {
		b.StuckPenalty = -ai.DeathPenalty
	}

	return b
}

// RewardRange returns the theoretical (min, max) single-step reward, for
// consumers that want declared bounds.
func RewardRange(cfg config.Config) (float64, float64) {
	ai := cfg.AI

	// Worst case: death and stuck together, a full-health wall hit, the time
	// drain, one index of backward progress, and the car parked at a wall.
	maxWallPenalty := cfg.Damage.MaxHealth * ai.WallDamagePenaltyScale
	maxLateralPenalty := cfg.Track.TrackWidth / 2 * ai.LateralPenaltyScale
	min := -(ai.DeathPenalty + ai.DeathPenalty + maxWallPenalty +
		ai.TimePenalty + ai.BackwardProgressPenalty + maxLateralPenalty)

	// Best case: checkpoint plus lap plus full speed plus smooth steering,
	// with a generous forward-progress allowance.
	max := ai.CheckpointReward + ai.LapCompletionBonus + ai.SpeedRewardScale +
		ai.SmoothSteeringBonus + 0.1*ai.ForwardProgressRewardScale

	return min, max
}
