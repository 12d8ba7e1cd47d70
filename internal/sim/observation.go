package sim

import (
	"fmt"
	"math"

	"topdown-racer/internal/common"
	"topdown-racer/internal/config"
	"topdown-racer/internal/physics"
	"topdown-racer/internal/track"
)

// Observation layout: NumRays normalized ray distances, then speed, angular
// velocity, drift flag, health fraction, angle to next checkpoint, then the
// configured number of curvature lookahead values. Every value lies in
// [0, 1]; 0.5 means "neutral" for the centered channels.
const numStateValues = 5

// ObsSize returns the observation vector length for a given config.
func ObsSize(cfg config.Config) int {
	return physics.NumRays + numStateValues + cfg.AI.CurvatureLookaheadSteps
}

// buildObservation assembles the vector into dst, which must have length
// ObsSize(cfg). A fresh ray cast happens here; everything else is read from
// the already-updated tick state.
func buildObservation(
	dst []float64,
	car *physics.Car,
	walls []physics.Segment,
	nextCheckpoint common.Vec2,
	trk *track.Track,
	progress float64,
	cfg config.Config,
) {
	var rays [physics.NumRays]float64
	physics.CastRays(&rays, car.Position, car.Heading, walls, cfg.AI.RayMaxDistance)
	copy(dst, rays[:])

	i := physics.NumRays

	// Speed magnitude. The agent sees how fast, not which way.
	dst[i] = clamp01(math.Abs(car.Speed) / cfg.Car.MaxSpeed)
	i++

	// Angular velocity remapped from [-steeringSpeed, steeringSpeed];
	// 0.5 = no turn.
	maxAng := cfg.Car.SteeringSpeed
	dst[i] = clamp01((car.AngularVel + maxAng) / (2 * maxAng))
	i++

	if car.IsDrifting {
		dst[i] = 1
	} else {
		dst[i] = 0
	}
	i++

	dst[i] = clamp01(car.Health / cfg.Damage.MaxHealth)
	i++

	// Relative angle to the next checkpoint, remapped from [-Pi, Pi];
	// 0.5 = pointing straight at it.
	rel := common.WrapAngle(nextCheckpoint.Sub(car.Position).Heading() - car.Heading)
	dst[i] = (rel + math.Pi) / (2 * math.Pi)
	i++

	for _, curv := range trk.CurvatureLookahead(progress, cfg.AI.CurvatureLookaheadSteps) {
		dst[i] = curv
		i++
	}

	// A non-finite observation is a reproducible bug upstream, never a
	// runtime condition to clamp away.
	for idx, v := range dst {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			panic(fmt.Sprintf("sim: non-finite observation at index %d: %v", idx, v))
		}
	}
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
