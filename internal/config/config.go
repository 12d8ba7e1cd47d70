// Package config holds every tunable numeric parameter of the simulation in
// one immutable struct. The struct is built once (from Default or Load),
// validated, and passed by value into each component's constructor. Nothing
// in the engine reads configuration sources at runtime.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Car groups the vehicle dynamics parameters.
type Car struct {
	MaxSpeed            float64 `json:"max_speed"`             // units/sec forward cap
	Acceleration        float64 `json:"acceleration"`          // units/sec^2
	BrakeForce          float64 `json:"brake_force"`           // units/sec^2 while moving forward
	ReverseMaxSpeed     float64 `json:"reverse_max_speed"`     // units/sec reverse cap (positive)
	SteeringSpeed       float64 `json:"steering_speed"`        // rad/sec at full speed
	NormalGrip          float64 `json:"normal_grip"`           // velocity lerp factor, 1 = no slide
	DriftGripMultiplier float64 `json:"drift_grip_multiplier"` // grip while handbrake held
	Width               float64 `json:"width"`
	Length              float64 `json:"length"`
	FrictionPerSecond   float64 `json:"friction_per_second"` // coast decay, speed *= f^dt
}

// Damage groups wall impact tuning.
type Damage struct {
	WallDamageMultiplier float64 `json:"wall_damage_multiplier"`
	MinDamageSpeed       float64 `json:"min_damage_speed"` // impacts slower than this are free
	MaxHealth            float64 `json:"max_health"`
}

// Drift groups the drift trail presentation parameters.
type Drift struct {
	TrailLifetime  float64 `json:"trail_lifetime"`   // seconds before a trail point expires
	TrailMaxPoints int     `json:"trail_max_points"` // hard cap on the trail buffer
}

// Track groups the geometry parameters.
type Track struct {
	CenterlinePoints [][2]float64 `json:"centerline_points"` // closed loop, >= 2 points
	TrackWidth       float64      `json:"track_width"`
}

// AI groups sensing, checkpoint and reward parameters.
type AI struct {
	RayMaxDistance             float64 `json:"ray_max_distance"`
	CheckpointSpacing          float64 `json:"training_checkpoint_spacing"`
	CheckpointRadius           float64 `json:"training_checkpoint_radius"`
	CurvatureThreshold         float64 `json:"curvature_threshold"` // rad, tight-section cutoff
	ZigzagSpacingMultiplier    float64 `json:"zigzag_spacing_multiplier"`
	CurvatureLookaheadSteps    int     `json:"curvature_lookahead_steps"`
	MaxEpisodeSteps            int     `json:"max_episode_steps"`
	StuckSpeedThreshold        float64 `json:"stuck_speed_threshold"`
	StuckTimeout               float64 `json:"stuck_timeout"`           // seconds
	CollectionGracePeriod      float64 `json:"collection_grace_period"` // seconds after reset
	MinCollectionSpeed         float64 `json:"min_collection_speed"`    // forward units/sec
	AutoAdvanceMultiplier      float64 `json:"auto_advance_multiplier"` // x average spacing
	CheckpointReward           float64 `json:"training_checkpoint_reward"`
	LapCompletionBonus         float64 `json:"lap_completion_bonus"`
	SpeedRewardScale           float64 `json:"speed_reward_scale"`
	ForwardProgressRewardScale float64 `json:"forward_progress_reward_scale"`
	BackwardProgressPenalty    float64 `json:"backward_progress_penalty_scale"`
	LateralPenaltyScale        float64 `json:"lateral_displacement_penalty_scale"`
	WallDamagePenaltyScale     float64 `json:"wall_damage_penalty_scale"`
	DeathPenalty               float64 `json:"death_penalty"`
	TimePenalty                float64 `json:"time_penalty"`
	SmoothSteeringBonus        float64 `json:"smooth_steering_bonus"`
}

// Config is the full simulation configuration.
type Config struct {
	FPS    int    `json:"fps"`
	Car    Car    `json:"car"`
	Damage Damage `json:"damage"`
	Drift  Drift  `json:"drift"`
	Track  Track  `json:"track"`
	AI     AI     `json:"ai"`
}

// Dt returns the fixed timestep in seconds.
func (c Config) Dt() float64 {
	return 1.0 / float64(c.FPS)
}

// Default returns the canonical configuration: a 60 TPS simulation with the
// reference oval track.
func Default() Config {
	return Config{
		FPS: 60,
		Car: Car{
			MaxSpeed:            400,
			Acceleration:        200,
			BrakeForce:          300,
			ReverseMaxSpeed:     150,
			SteeringSpeed:       3.0,
			NormalGrip:          1.0,
			DriftGripMultiplier: 0.3,
			Width:               20,
			Length:              40,
			FrictionPerSecond:   0.3,
		},
		Damage: Damage{
			WallDamageMultiplier: 0.3,
			MinDamageSpeed:       50,
			MaxHealth:            200,
		},
		Drift: Drift{
			TrailLifetime:  2.0,
			TrailMaxPoints: 400,
		},
		Track: Track{
			CenterlinePoints: DefaultCenterline(),
			TrackWidth:       150,
		},
		AI: AI{
			RayMaxDistance:             400,
			CheckpointSpacing:          150,
			CheckpointRadius:           40,
			CurvatureThreshold:         0.3,
			ZigzagSpacingMultiplier:    0.7,
			CurvatureLookaheadSteps:    3,
			MaxEpisodeSteps:            3000,
			StuckSpeedThreshold:        5,
			StuckTimeout:               5,
			CollectionGracePeriod:      1.0,
			MinCollectionSpeed:         10,
			AutoAdvanceMultiplier:      1.5,
			CheckpointReward:           2.0,
			LapCompletionBonus:         20.0,
			SpeedRewardScale:           0.1,
			ForwardProgressRewardScale: 2.0,
			BackwardProgressPenalty:    0.5,
			LateralPenaltyScale:        0.005,
			WallDamagePenaltyScale:     0.5,
			DeathPenalty:               20.0,
			TimePenalty:                0.01,
			SmoothSteeringBonus:        0.01,
		},
	}
}

// DefaultCenterline returns a 16-point rounded rectangle loop, roughly
// 2600x1400 world units.
func DefaultCenterline() [][2]float64 {
	return [][2]float64{
		{400, 200}, {1000, 150}, {1600, 150}, {2200, 200},
		{2500, 500}, {2550, 800}, {2400, 1100}, {2000, 1300},
		{1500, 1350}, {1000, 1350}, {600, 1300}, {300, 1100},
		{150, 800}, {200, 500}, {280, 330}, {340, 250},
	}
}

// Load reads a config JSON file. Missing fields fall back to Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects out-of-range parameters. Called once at construction;
// per-tick code relies on these bounds and never re-checks them.
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("config: fps must be positive, got %d", c.FPS)
	}
	if c.Car.MaxSpeed <= 0 {
		return fmt.Errorf("config: car.max_speed must be positive, got %g", c.Car.MaxSpeed)
	}
	if c.Car.Acceleration <= 0 {
		return fmt.Errorf("config: car.acceleration must be positive, got %g", c.Car.Acceleration)
	}
	if c.Car.BrakeForce <= 0 {
		return fmt.Errorf("config: car.brake_force must be positive, got %g", c.Car.BrakeForce)
	}
	if c.Car.ReverseMaxSpeed < 0 {
		return fmt.Errorf("config: car.reverse_max_speed must not be negative, got %g", c.Car.ReverseMaxSpeed)
	}
	if c.Car.SteeringSpeed <= 0 {
		return fmt.Errorf("config: car.steering_speed must be positive, got %g", c.Car.SteeringSpeed)
	}
	if c.Car.NormalGrip <= 0 || c.Car.NormalGrip > 1 {
		return fmt.Errorf("config: car.normal_grip must be in (0, 1], got %g", c.Car.NormalGrip)
	}
	if c.Car.DriftGripMultiplier <= 0 || c.Car.DriftGripMultiplier > c.Car.NormalGrip {
		return fmt.Errorf("config: car.drift_grip_multiplier must be in (0, normal_grip], got %g", c.Car.DriftGripMultiplier)
	}
	if c.Car.Width <= 0 || c.Car.Length <= 0 {
		return fmt.Errorf("config: car dimensions must be positive, got %gx%g", c.Car.Width, c.Car.Length)
	}
	if c.Car.FrictionPerSecond <= 0 || c.Car.FrictionPerSecond >= 1 {
		return fmt.Errorf("config: car.friction_per_second must be in (0, 1), got %g", c.Car.FrictionPerSecond)
	}
	if c.Damage.MaxHealth <= 0 {
		return fmt.Errorf("config: damage.max_health must be positive, got %g", c.Damage.MaxHealth)
	}
	if c.Damage.MinDamageSpeed < 0 {
		return fmt.Errorf("config: damage.min_damage_speed must not be negative, got %g", c.Damage.MinDamageSpeed)
	}
	if c.Drift.TrailLifetime <= 0 {
		return fmt.Errorf("config: drift.trail_lifetime must be positive, got %g", c.Drift.TrailLifetime)
	}
	if c.Drift.TrailMaxPoints <= 0 {
		return fmt.Errorf("config: drift.trail_max_points must be positive, got %d", c.Drift.TrailMaxPoints)
	}
	if len(c.Track.CenterlinePoints) < 2 {
		return fmt.Errorf("config: track needs at least 2 centerline points, got %d", len(c.Track.CenterlinePoints))
	}
	if c.Track.TrackWidth <= 0 {
		return fmt.Errorf("config: track.track_width must be positive, got %g", c.Track.TrackWidth)
	}
	if c.AI.RayMaxDistance <= 0 {
		return fmt.Errorf("config: ai.ray_max_distance must be positive, got %g", c.AI.RayMaxDistance)
	}
	if c.AI.CheckpointSpacing <= 0 {
		return fmt.Errorf("config: ai.training_checkpoint_spacing must be positive, got %g", c.AI.CheckpointSpacing)
	}
	if c.AI.CheckpointRadius <= 0 {
		return fmt.Errorf("config: ai.training_checkpoint_radius must be positive, got %g", c.AI.CheckpointRadius)
	}
	if c.AI.ZigzagSpacingMultiplier <= 0 || c.AI.ZigzagSpacingMultiplier > 1 {
		return fmt.Errorf("config: ai.zigzag_spacing_multiplier must be in (0, 1], got %g", c.AI.ZigzagSpacingMultiplier)
	}
	if c.AI.CurvatureLookaheadSteps <= 0 {
		return fmt.Errorf("config: ai.curvature_lookahead_steps must be positive, got %d", c.AI.CurvatureLookaheadSteps)
	}
	if c.AI.MaxEpisodeSteps <= 0 {
		return fmt.Errorf("config: ai.max_episode_steps must be positive, got %d", c.AI.MaxEpisodeSteps)
	}
	if c.AI.StuckTimeout <= 0 {
		return fmt.Errorf("config: ai.stuck_timeout must be positive, got %g", c.AI.StuckTimeout)
	}
	if c.AI.AutoAdvanceMultiplier <= 0 {
		return fmt.Errorf("config: ai.auto_advance_multiplier must be positive, got %g", c.AI.AutoAdvanceMultiplier)
	}
	return nil
}
