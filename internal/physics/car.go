package physics

import (
	"math"

	"topdown-racer/internal/common"
	"topdown-racer/internal/config"
)

// Steering and drift only engage above this speed. Below it the car is
// effectively parked and the wheel does nothing.
const minSteerSpeed = 10.0

// Angular velocity multipliers applied every tick. The drift boost swings
// the rear out while the handbrake is held; the damping stops the car from
// spinning forever once input is released.
const (
	driftSpinBoost  = 1.05
	angularDamping  = 0.92
	residualCutoff  = 0.01
	speedSnapToZero = 1.0
)

// Controls are the discretized driver inputs for one tick.
type Controls struct {
	Accelerate bool
	Brake      bool
	SteerLeft  bool
	SteerRight bool
	Handbrake  bool
}

// TrailPoint is one rear-wheel sample of the drift trail.
type TrailPoint struct {
	Pos     common.Vec2
	Age     float64
	Opacity float64
}

// Car owns a single vehicle's kinematic state and advances it one fixed
// timestep at a time. Heading 0 faces +x, counter-clockwise positive.
type Car struct {
	Position     common.Vec2
	PrevPosition common.Vec2
	Velocity     common.Vec2
	Heading      float64
	Speed        float64 // signed scalar, positive = forward
	AngularVel   float64
	Health       float64
	IsDrifting   bool
	TrailPoints  []TrailPoint

	cfg config.Car
	dmg config.Damage
	dft config.Drift
}

// NewCar creates a car at the given pose with full health and zero velocity.
func NewCar(cfg config.Config, x, y, heading float64) *Car {
	c := &Car{
		cfg: cfg.Car,
		dmg: cfg.Damage,
		dft: cfg.Drift,
	}
	c.Reset(x, y, heading)
	return c
}

// Reset fully reinitializes the car state for a respawn.
func (c *Car) Reset(x, y, heading float64) {
	c.Position = common.Vec2{X: x, Y: y}
	c.PrevPosition = c.Position
	c.Velocity = common.Vec2{}
	c.Heading = heading
	c.Speed = 0
	c.AngularVel = 0
	c.Health = c.dmg.MaxHealth
	c.IsDrifting = false
	c.TrailPoints = c.TrailPoints[:0]
}

// Step advances the car by exactly dt seconds. The caller supplies regular
// fixed ticks; there is no sub-stepping.
func (c *Car) Step(dt float64, in Controls) {
	// 1. Speed update
	switch {
	case in.Accelerate:
		c.Speed += c.cfg.Acceleration * dt
		if c.Speed > c.cfg.MaxSpeed {
			c.Speed = c.cfg.MaxSpeed
		}
	case in.Brake:
		if c.Speed > 0 {
			c.Speed -= c.cfg.BrakeForce * dt
			if c.Speed < 0 {
				c.Speed = 0
			}
		} else {
			// Already stopped (or reversing): brake input accelerates in reverse.
			c.Speed -= c.cfg.Acceleration * dt
			if c.Speed < -c.cfg.ReverseMaxSpeed {
				c.Speed = -c.cfg.ReverseMaxSpeed
			}
		}
	default:
		// Coasting: exponential decay, snapped to zero to avoid creep.
		c.Speed *= math.Pow(c.cfg.FrictionPerSecond, dt)
		if math.Abs(c.Speed) < speedSnapToZero {
			c.Speed = 0
		}
	}

	// 2. Steering (bicycle model). Turn rate scales with the fraction of max
	// speed and flips sign with the sign of speed, so reversing steers
	// opposite.
	if math.Abs(c.Speed) > minSteerSpeed {
		speedFraction := c.Speed / c.cfg.MaxSpeed
		turnAmount := c.cfg.SteeringSpeed * dt * speedFraction

		switch {
		case in.SteerLeft:
			c.Heading += turnAmount
			c.AngularVel = c.cfg.SteeringSpeed * speedFraction
		case in.SteerRight:
			c.Heading -= turnAmount
			c.AngularVel = -c.cfg.SteeringSpeed * speedFraction
		}
		// With no steer key held, the angular velocity is left to the
		// damping below so it decays instead of cutting dead. This is what
		// keeps the car rotating after the wheel is released mid-drift.
	}

	// 3. Drift: handbrake drops grip and amplifies angular velocity.
	grip := c.cfg.NormalGrip
	if in.Handbrake && math.Abs(c.Speed) > minSteerSpeed {
		c.IsDrifting = true
		grip = c.cfg.DriftGripMultiplier
		c.AngularVel *= driftSpinBoost
	} else {
		c.IsDrifting = false
	}

	c.AngularVel *= angularDamping

	// Residual angular velocity keeps the car rotating after the wheel is
	// released mid-drift. Only integrated when no steer key is held, since
	// steering already moved the heading above.
	if !in.SteerLeft && !in.SteerRight && math.Abs(c.AngularVel) > residualCutoff {
		c.Heading += c.AngularVel * dt
	}

	// 4. Velocity blending: lerp the actual velocity toward the heading-
	// aligned intended velocity. grip=1 snaps instantly, lower grip lets the
	// velocity lag behind the heading for a lateral slide.
	intended := common.FromAngle(c.Heading).Scale(c.Speed)
	c.Velocity = c.Velocity.Lerp(intended, grip)

	// 5. Position update. Previous position is retained for crossing checks.
	c.PrevPosition = c.Position
	c.Position = c.Position.Add(c.Velocity.Scale(dt))

	c.updateTrail(dt)
}

// updateTrail appends rear-wheel samples while drifting at speed, then ages
// and culls the buffer.
func (c *Car) updateTrail(dt float64) {
	if c.IsDrifting && math.Abs(c.Speed) > c.dmg.MinDamageSpeed {
		halfL := c.cfg.Length / 2
		halfW := c.cfg.Width / 2
		cosA := math.Cos(c.Heading)
		sinA := math.Sin(c.Heading)

		rearLeft := common.Vec2{
			X: c.Position.X - cosA*halfL + sinA*halfW,
			Y: c.Position.Y - sinA*halfL - cosA*halfW,
		}
		rearRight := common.Vec2{
			X: c.Position.X - cosA*halfL - sinA*halfW,
			Y: c.Position.Y - sinA*halfL + cosA*halfW,
		}
		c.TrailPoints = append(c.TrailPoints,
			TrailPoint{Pos: rearLeft, Opacity: 1},
			TrailPoint{Pos: rearRight, Opacity: 1},
		)
	}

	keep := c.TrailPoints[:0]
	for i := range c.TrailPoints {
		p := &c.TrailPoints[i]
		p.Age += dt
		if p.Age >= c.dft.TrailLifetime {
			continue
		}
		p.Opacity = 1 - p.Age/c.dft.TrailLifetime
		keep = append(keep, *p)
	}
	c.TrailPoints = keep

	// Hard cap: drop the oldest samples first.
	if over := len(c.TrailPoints) - c.dft.TrailMaxPoints; over > 0 {
		c.TrailPoints = append(c.TrailPoints[:0], c.TrailPoints[over:]...)
	}
}

// Corners returns the rectangle corners in order front-left, front-right,
// rear-right, rear-left. Collision edge indexing relies on this order.
func (c *Car) Corners() [4]common.Vec2 {
	halfL := c.cfg.Length / 2
	halfW := c.cfg.Width / 2
	cosA := math.Cos(c.Heading)
	sinA := math.Sin(c.Heading)

	forward := common.Vec2{X: cosA * halfL, Y: sinA * halfL}
	right := common.Vec2{X: sinA * halfW, Y: -cosA * halfW}

	return [4]common.Vec2{
		c.Position.Add(forward).Sub(right), // front-left
		c.Position.Add(forward).Add(right), // front-right
		c.Position.Sub(forward).Add(right), // rear-right
		c.Position.Sub(forward).Sub(right), // rear-left
	}
}

// ApplyDamage subtracts health, floored at zero.
func (c *Car) ApplyDamage(amount float64) {
	c.Health = math.Max(0, c.Health-amount)
}

// IsAlive reports whether the car has health remaining.
func (c *Car) IsAlive() bool {
	return c.Health > 0
}
