package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topdown-racer/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Car.MaxSpeed = 400
	cfg.Car.Acceleration = 200
	return cfg
}

func TestCarAccelerateOneSecond(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)

	dt := 1.0 / 60.0
	for i := 0; i < 60; i++ {
		car.Step(dt, Controls{Accelerate: true})
	}

	// acceleration=200 for exactly 1s from rest, below the 400 cap.
	assert.InDelta(t, 200.0, car.Speed, 1e-9)
}

func TestCarSpeedClamps(t *testing.T) {
	cfg := testConfig()
	dt := cfg.Dt()

	t.Run("forward cap", func(t *testing.T) {
		car := NewCar(cfg, 0, 0, 0)
		for i := 0; i < 60*10; i++ {
			car.Step(dt, Controls{Accelerate: true})
			require.LessOrEqual(t, car.Speed, cfg.Car.MaxSpeed)
		}
		assert.Equal(t, cfg.Car.MaxSpeed, car.Speed)
	})

	t.Run("reverse cap", func(t *testing.T) {
		car := NewCar(cfg, 0, 0, 0)
		for i := 0; i < 60*10; i++ {
			car.Step(dt, Controls{Brake: true})
			require.GreaterOrEqual(t, car.Speed, -cfg.Car.ReverseMaxSpeed)
		}
		assert.Equal(t, -cfg.Car.ReverseMaxSpeed, car.Speed)
	})
}

func TestCarBrakeStopsBeforeReversing(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)
	car.Speed = 3

	// One braking tick at 300 units/s^2 overshoots 3 units/s: the model
	// floors at zero instead of jumping into reverse.
	car.Step(cfg.Dt(), Controls{Brake: true})
	assert.Equal(t, 0.0, car.Speed)

	// Holding brake from standstill then reverses.
	car.Step(cfg.Dt(), Controls{Brake: true})
	assert.Negative(t, car.Speed)
}

func TestCarFrictionSnapsToZero(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)
	car.Speed = 50

	dt := cfg.Dt()
	for i := 0; i < 60*10; i++ {
		car.Step(dt, Controls{})
	}

	// Exponential decay alone never reaches zero; the snap threshold does.
	assert.Equal(t, 0.0, car.Speed)
}

func TestCarSteeringRequiresSpeed(t *testing.T) {
	cfg := testConfig()

	t.Run("parked car does not turn", func(t *testing.T) {
		car := NewCar(cfg, 0, 0, 0)
		car.Step(cfg.Dt(), Controls{SteerLeft: true})
		assert.Equal(t, 0.0, car.Heading)
	})

	t.Run("moving car turns left", func(t *testing.T) {
		car := NewCar(cfg, 0, 0, 0)
		car.Speed = 200
		car.Step(cfg.Dt(), Controls{SteerLeft: true})
		assert.Positive(t, car.Heading)
	})

	t.Run("reversing steers opposite", func(t *testing.T) {
		car := NewCar(cfg, 0, 0, 0)
		car.Speed = -100
		car.Step(cfg.Dt(), Controls{SteerLeft: true})
		assert.Negative(t, car.Heading)
	})
}

func TestCarTurnRateScalesWithSpeed(t *testing.T) {
	cfg := testConfig()
	dt := cfg.Dt()

	slow := NewCar(cfg, 0, 0, 0)
	slow.Speed = 100
	slow.Step(dt, Controls{SteerRight: true})

	fast := NewCar(cfg, 0, 0, 0)
	fast.Speed = 400
	fast.Step(dt, Controls{SteerRight: true})

	assert.Less(t, fast.Heading, slow.Heading) // right turn = negative heading
	assert.InDelta(t, 4.0, fast.Heading/slow.Heading, 0.05)
}

func TestCarDriftFlag(t *testing.T) {
	cfg := testConfig()
	dt := cfg.Dt()

	car := NewCar(cfg, 0, 0, 0)
	car.Speed = 200
	car.Step(dt, Controls{Handbrake: true})
	assert.True(t, car.IsDrifting)

	// Too slow for the handbrake to matter.
	car.Speed = 5
	car.Step(dt, Controls{Handbrake: true})
	assert.False(t, car.IsDrifting)

	// Released.
	car.Speed = 200
	car.Step(dt, Controls{})
	assert.False(t, car.IsDrifting)
}

func TestCarDriftResidualRotation(t *testing.T) {
	cfg := testConfig()
	dt := cfg.Dt()

	car := NewCar(cfg, 0, 0, 0)
	car.Speed = 200

	// One steering tick to load angular velocity, then handbrake only.
	car.Step(dt, Controls{SteerLeft: true, Accelerate: true})
	headingAfterSteer := car.Heading

	for i := 0; i < 10; i++ {
		car.Step(dt, Controls{Handbrake: true, Accelerate: true})
	}

	// Residual angular velocity must keep rotating the car even with the
	// wheel centered.
	assert.Greater(t, car.Heading, headingAfterSteer)
}

func TestCarDriftGripProducesSlide(t *testing.T) {
	cfg := testConfig()
	dt := cfg.Dt()

	drive := func(handbrake bool) *Car {
		car := NewCar(cfg, 0, 0, 0)
		// Straight run-up so the velocity aligns with the heading.
		for i := 0; i < 120; i++ {
			car.Step(dt, Controls{Accelerate: true})
		}
		// Hard left turn, with or without the handbrake.
		for i := 0; i < 30; i++ {
			car.Step(dt, Controls{Accelerate: true, SteerLeft: true, Handbrake: handbrake})
		}
		return car
	}

	gripCar := drive(false)
	driftCar := drive(true)

	slip := func(c *Car) float64 {
		return math.Abs(c.Velocity.Heading() - c.Heading)
	}

	// With normal grip the velocity snaps to the heading every tick; during
	// a drift it lags behind, producing the lateral slide.
	assert.Less(t, slip(gripCar), 1e-6)
	assert.Greater(t, slip(driftCar), slip(gripCar))
}

func TestCarCornersOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Car.Width = 20
	cfg.Car.Length = 40
	car := NewCar(cfg, 100, 100, 0)

	corners := car.Corners()

	// Heading 0 faces +x: front corners at x=120, rear at x=80. Front-left
	// is at lower y with y-axis CCW convention.
	assert.InDelta(t, 120.0, corners[0].X, 1e-9) // front-left
	assert.InDelta(t, 120.0, corners[1].X, 1e-9) // front-right
	assert.InDelta(t, 80.0, corners[2].X, 1e-9)  // rear-right
	assert.InDelta(t, 80.0, corners[3].X, 1e-9)  // rear-left

	assert.InDelta(t, corners[0].Y, corners[3].Y, 1e-9)
	assert.InDelta(t, corners[1].Y, corners[2].Y, 1e-9)
	assert.NotEqual(t, corners[0].Y, corners[1].Y)
}

func TestCarDamageAndHealth(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)

	require.True(t, car.IsAlive())
	require.Equal(t, cfg.Damage.MaxHealth, car.Health)

	car.ApplyDamage(50)
	assert.Equal(t, cfg.Damage.MaxHealth-50, car.Health)
	assert.True(t, car.IsAlive())

	// Overkill floors at zero.
	car.ApplyDamage(10 * cfg.Damage.MaxHealth)
	assert.Equal(t, 0.0, car.Health)
	assert.False(t, car.IsAlive())
}

func TestCarHealthStaysBounded(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)

	for i := 0; i < 100; i++ {
		car.ApplyDamage(7.3)
		require.GreaterOrEqual(t, car.Health, 0.0)
		require.LessOrEqual(t, car.Health, cfg.Damage.MaxHealth)
	}
}

func TestCarTrailAgesAndExpires(t *testing.T) {
	cfg := testConfig()
	cfg.Drift.TrailLifetime = 0.1
	car := NewCar(cfg, 0, 0, 0)
	dt := cfg.Dt()

	// Drift fast enough to lay down trail points.
	car.Speed = 200
	car.Step(dt, Controls{Handbrake: true, Accelerate: true})
	require.NotEmpty(t, car.TrailPoints)
	first := car.TrailPoints[0]
	assert.InDelta(t, 1.0, first.Opacity, 0.2)

	// Coast until every point has outlived the lifetime.
	for i := 0; i < 20; i++ {
		car.Step(dt, Controls{})
	}
	assert.Empty(t, car.TrailPoints)
}

func TestCarTrailBounded(t *testing.T) {
	cfg := testConfig()
	cfg.Drift.TrailMaxPoints = 10
	cfg.Drift.TrailLifetime = 100
	car := NewCar(cfg, 0, 0, 0)
	dt := cfg.Dt()

	for i := 0; i < 200; i++ {
		car.Speed = 200
		car.Step(dt, Controls{Handbrake: true, Accelerate: true})
		require.LessOrEqual(t, len(car.TrailPoints), 10)
	}
}

func TestCarResetClearsState(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)
	dt := cfg.Dt()

	for i := 0; i < 30; i++ {
		car.Step(dt, Controls{Accelerate: true, SteerLeft: true})
	}
	car.ApplyDamage(40)

	car.Reset(5, 6, 1.5)

	assert.Equal(t, 5.0, car.Position.X)
	assert.Equal(t, 6.0, car.Position.Y)
	assert.Equal(t, car.Position, car.PrevPosition)
	assert.Equal(t, 1.5, car.Heading)
	assert.Equal(t, 0.0, car.Speed)
	assert.Equal(t, 0.0, car.AngularVel)
	assert.Equal(t, cfg.Damage.MaxHealth, car.Health)
	assert.False(t, car.IsDrifting)
	assert.Empty(t, car.TrailPoints)
}

func TestCarPrevPositionRetained(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)
	dt := cfg.Dt()

	car.Speed = 200
	before := car.Position
	car.Step(dt, Controls{Accelerate: true})

	assert.Equal(t, before, car.PrevPosition)
	assert.NotEqual(t, car.Position, car.PrevPosition)
}

func TestCarSpeedStaysBoundedUnderMixedInput(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)
	dt := cfg.Dt()

	inputs := []Controls{
		{Accelerate: true},
		{Accelerate: true, SteerLeft: true},
		{Brake: true},
		{Handbrake: true, Accelerate: true},
		{},
		{Brake: true, SteerRight: true},
	}
	for i := 0; i < 600; i++ {
		car.Step(dt, inputs[i%len(inputs)])
		require.GreaterOrEqual(t, car.Speed, -cfg.Car.ReverseMaxSpeed)
		require.LessOrEqual(t, car.Speed, cfg.Car.MaxSpeed)
		require.False(t, math.IsNaN(car.Heading))
	}
}
