// Package sim ties the physics, track, and sensing layers into a single
// episode environment with a step/reset contract. One Env owns one car and
// one track; each tick runs to completion before the next begins, so the Env
// needs no locking. Independent Envs are independently deterministic.
package sim

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"topdown-racer/internal/config"
	"topdown-racer/internal/physics"
	"topdown-racer/internal/track"
)

// Action is the continuous control input: steering in [-1, 1], throttle in
// [-1, 1], drift in [0, 1].
type Action struct {
	Steering float64
	Throttle float64
	Drift    float64
}

// Input engagement thresholds for quantizing Action to Controls.
const (
	steerThreshold    = 0.1
	throttleThreshold = 0.1
	driftThreshold    = 0.5
)

// Info is the fixed-field telemetry contract reported on every step.
type Info struct {
	EpisodeID          string    `json:"episode_id"`
	LapsCompleted      int       `json:"laps_completed"`
	LapTimes           []float64 `json:"lap_times"`
	WallHits           int       `json:"wall_hits"`
	CheckpointReached  bool      `json:"training_checkpoint_reached"`
	CheckpointsSkipped int       `json:"training_checkpoints_skipped"`
	LapCompleted       bool      `json:"lap_completed"`
	WallDamage         float64   `json:"wall_damage"`
	Dead               bool      `json:"dead"`
	RewardBreakdown    Breakdown `json:"reward_breakdown"`
}

// StepResult is everything one tick produces.
type StepResult struct {
	Observation []float64
	Reward      float64
	Breakdown   Breakdown
	Terminated  bool
	Truncated   bool
	Info        Info
}

// Env is the episode environment.
type Env struct {
	cfg     config.Config
	track   *track.Track
	tracker *track.Tracker
	car     *physics.Car
	walls   []physics.Segment

	// Reusable per-tick buffers; sized once, never reallocated in the loop.
	colBuf []physics.Collision
	obs    []float64

	episodeID    string
	stepCount    int
	wallHits     int
	stuckSteps   int
	lapStartStep int
	lapTimes     []float64
	prevAction   Action
	prevProgress float64
}

// NewEnv validates the config and constructs the track, checkpoints, car,
// and episode state. Call Reset before the first Step.
func NewEnv(cfg config.Config) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	trk, err := track.New(cfg)
	if err != nil {
		return nil, err
	}

	tight := track.TightSectionIndices(trk, cfg.AI.CurvatureThreshold)
	checkpoints := track.GenerateCheckpoints(
		trk, cfg.AI.CheckpointSpacing, tight, cfg.AI.ZigzagSpacingMultiplier,
	)
	if len(checkpoints) == 0 {
		return nil, fmt.Errorf("sim: track produced no checkpoints")
	}

	spawn, heading := trk.SpawnPose()

	e := &Env{
		cfg:     cfg,
		track:   trk,
		tracker: track.NewTracker(trk, checkpoints, cfg.AI),
		car:     physics.NewCar(cfg, spawn.X, spawn.Y, heading),
		walls:   trk.WallSegments(),
		colBuf:  make([]physics.Collision, 0, 16),
		obs:     make([]float64, ObsSize(cfg)),
	}
	return e, nil
}

// Track exposes the geometry for read-only consumers (renderer, tooling).
func (e *Env) Track() *track.Track { return e.track }

// Tracker exposes the checkpoint tracker for read-only consumers.
func (e *Env) Tracker() *track.Tracker { return e.tracker }

// Car exposes the vehicle state for read-only consumers.
func (e *Env) Car() *physics.Car { return e.car }

// Config returns the configuration the env was built with.
func (e *Env) Config() config.Config { return e.cfg }

// Reset reinitializes the episode: car back at spawn with full health, the
// checkpoint cursor at the first checkpoint ahead of the spawn heading, and
// all counters zeroed. Returns the initial observation and info.
func (e *Env) Reset() ([]float64, Info) {
	spawn, heading := e.track.SpawnPose()
	e.car.Reset(spawn.X, spawn.Y, heading)
	e.tracker.Reset(spawn, heading)

	e.episodeID = uuid.NewString()
	e.stepCount = 0
	e.wallHits = 0
	e.stuckSteps = 0
	e.lapStartStep = 0
	e.lapTimes = e.lapTimes[:0]
	e.prevAction = Action{}
	e.prevProgress = e.track.Progress(e.car.Position)

	buildObservation(e.obs, e.car, e.walls, e.tracker.Next().Pos, e.track, e.prevProgress, e.cfg)

	return append([]float64(nil), e.obs...), e.info(track.Event{}, 0)
}

// Step advances the simulation by one fixed timestep: dynamics, collision
// resolution, checkpoint/progress update, sensing, observation assembly,
// reward. Terminated is true iff health reached zero this tick; truncated is
// true iff the step budget ran out or the car has been stuck too long.
func (e *Env) Step(a Action) StepResult {
	dt := e.cfg.Dt()

	// Quantize the continuous action to discrete control flags.
	e.car.Step(dt, physics.Controls{
		Accelerate: a.Throttle > throttleThreshold,
		Brake:      a.Throttle < -throttleThreshold,
		SteerLeft:  a.Steering < -steerThreshold,
		SteerRight: a.Steering > steerThreshold,
		Handbrake:  a.Drift > driftThreshold,
	})

	// Collisions: each hit resolved independently against the mutated state,
	// in detection order.
	wallDamage := 0.0
	e.colBuf = physics.Detect(e.car.Corners(), e.walls, e.colBuf)
	for _, col := range e.colBuf {
		damage := physics.Resolve(e.car, col)
		e.car.ApplyDamage(damage)
		wallDamage += damage
		e.wallHits++
	}

	// Track progress, wrapped to the shorter way around the loop.
	progress := e.track.Progress(e.car.Position)
	n := float64(e.track.NumPoints())
	delta := progress - e.prevProgress
	if delta > n/2 {
		delta -= n
	} else if delta < -n/2 {
		delta += n
	}
	e.prevProgress = progress

	// Checkpoint collection and lap accounting.
	ev := e.tracker.Update(dt, e.car.Position, e.car.Speed, progress)
	if ev.LapCompleted {
		lapSteps := e.stepCount - e.lapStartStep
		e.lapTimes = append(e.lapTimes, float64(lapSteps)*dt)
		e.lapStartStep = e.stepCount
	}

	isStuck := e.updateStuck()
	terminated := !e.car.IsAlive()
	truncated := e.stepCount+1 >= e.cfg.AI.MaxEpisodeSteps || isStuck

	breakdown := ComputeReward(StepInfo{
		CheckpointReached: ev.CheckpointReached,
		LapCompleted:      ev.LapCompleted,
		WallDamage:        wallDamage,
		Dead:              terminated,
		Speed:             math.Abs(e.car.Speed),
		PrevSteering:      e.prevAction.Steering,
		CurrSteering:      a.Steering,
		IsStuck:           isStuck,
		ForwardProgress:   delta,
		LateralOffset:     e.track.LateralDisplacement(e.car.Position),
	}, e.cfg)

	buildObservation(e.obs, e.car, e.walls, e.tracker.Next().Pos, e.track, progress, e.cfg)

	e.prevAction = a
	e.stepCount++

	info := e.info(ev, wallDamage)
	info.RewardBreakdown = breakdown

	return StepResult{
		Observation: append([]float64(nil), e.obs...),
		Reward:      breakdown.Total(),
		Breakdown:   breakdown,
		Terminated:  terminated,
		Truncated:   truncated,
		Info:        info,
	}
}

// updateStuck counts consecutive ticks below the stuck speed threshold and
// reports whether the timeout has elapsed.
func (e *Env) updateStuck() bool {
	if math.Abs(e.car.Speed) < e.cfg.AI.StuckSpeedThreshold {
		e.stuckSteps++
	} else {
		e.stuckSteps = 0
	}
	limit := int(e.cfg.AI.StuckTimeout / e.cfg.Dt())
	return e.stuckSteps >= limit
}

func (e *Env) info(ev track.Event, wallDamage float64) Info {
	return Info{
		EpisodeID:          e.episodeID,
		LapsCompleted:      e.tracker.Laps(),
		LapTimes:           append([]float64(nil), e.lapTimes...),
		WallHits:           e.wallHits,
		CheckpointReached:  ev.CheckpointReached,
		CheckpointsSkipped: ev.Skipped,
		LapCompleted:       ev.LapCompleted,
		WallDamage:         wallDamage,
		Dead:               !e.car.IsAlive(),
	}
}
