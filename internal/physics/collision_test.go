package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topdown-racer/internal/common"
)

func TestSegmentIntersection(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2, p3, p4 common.Vec2
		wantHit        bool
		wantPoint      common.Vec2
	}{
		{
			name: "perpendicular cross",
			p1:   common.Vec2{X: -10, Y: 0}, p2: common.Vec2{X: 10, Y: 0},
			p3: common.Vec2{X: 0, Y: -10}, p4: common.Vec2{X: 0, Y: 10},
			wantHit: true, wantPoint: common.Vec2{X: 0, Y: 0},
		},
		{
			name: "diagonal cross",
			p1:   common.Vec2{X: 0, Y: 0}, p2: common.Vec2{X: 10, Y: 10},
			p3: common.Vec2{X: 0, Y: 10}, p4: common.Vec2{X: 10, Y: 0},
			wantHit: true, wantPoint: common.Vec2{X: 5, Y: 5},
		},
		{
			name: "parallel",
			p1:   common.Vec2{X: 0, Y: 0}, p2: common.Vec2{X: 10, Y: 0},
			p3: common.Vec2{X: 0, Y: 5}, p4: common.Vec2{X: 10, Y: 5},
			wantHit: false,
		},
		{
			name: "colinear",
			p1:   common.Vec2{X: 0, Y: 0}, p2: common.Vec2{X: 10, Y: 0},
			p3: common.Vec2{X: 5, Y: 0}, p4: common.Vec2{X: 15, Y: 0},
			wantHit: false,
		},
		{
			name: "lines cross but segments too short",
			p1:   common.Vec2{X: -10, Y: 0}, p2: common.Vec2{X: -5, Y: 0},
			p3: common.Vec2{X: 0, Y: -10}, p4: common.Vec2{X: 0, Y: 10},
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point, ok := SegmentIntersection(tt.p1, tt.p2, tt.p3, tt.p4)
			require.Equal(t, tt.wantHit, ok)
			if tt.wantHit {
				assert.InDelta(t, tt.wantPoint.X, point.X, 1e-9)
				assert.InDelta(t, tt.wantPoint.Y, point.Y, 1e-9)
			}
		})
	}
}

func TestDetectFrontEdgeHit(t *testing.T) {
	cfg := testConfig()
	cfg.Car.Width = 20
	cfg.Car.Length = 40

	// The car straddles the wall line with a slight rotation, positioned
	// near the wall's lower end so only the front edge crosses within the
	// wall segment's extent.
	car := NewCar(cfg, -20, 4, 0.1)
	wall := Segment{A: common.Vec2{X: 0, Y: 0}, B: common.Vec2{X: 0, Y: 100}}

	collisions := Detect(car.Corners(), []Segment{wall}, nil)

	require.Len(t, collisions, 1)
	col := collisions[0]
	assert.Equal(t, EdgeFront, col.CarEdgeIndex)
	assert.InDelta(t, -1.0, col.Normal.X, 1e-9)
	assert.InDelta(t, 0.0, col.Normal.Y, 1e-9)
	assert.GreaterOrEqual(t, col.Penetration, 1.0)
	assert.Equal(t, wall, col.Wall)
}

func TestDetectSkipsDegenerateWalls(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)

	// A zero-length wall sitting inside the car contributes no geometry.
	degenerate := Segment{A: common.Vec2{X: 0, Y: 0}, B: common.Vec2{X: 0, Y: 0}}
	collisions := Detect(car.Corners(), []Segment{degenerate}, nil)
	assert.Empty(t, collisions)
}

func TestDetectReusesBuffer(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, -20, 4, 0.1)
	wall := Segment{A: common.Vec2{X: 0, Y: 0}, B: common.Vec2{X: 0, Y: 100}}

	buf := make([]Collision, 0, 8)
	first := Detect(car.Corners(), []Segment{wall}, buf)
	require.Len(t, first, 1)

	// Same backing array: detection appends into the reset front.
	second := Detect(car.Corners(), []Segment{wall}, first)
	require.Len(t, second, 1)
	assert.Equal(t, &first[0], &second[0])
}

func TestDetectNoWalls(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)
	assert.Empty(t, Detect(car.Corners(), nil, nil))
}

func TestResolvePushOutAndBounce(t *testing.T) {
	cfg := testConfig()
	cfg.Damage.MinDamageSpeed = 50
	cfg.Damage.WallDamageMultiplier = 0.3

	car := NewCar(cfg, -20, 4, 0)
	car.Speed = 200
	car.Velocity = common.Vec2{X: 200, Y: 0}

	col := Collision{
		Point:       common.Vec2{X: 0, Y: 4},
		Normal:      common.Vec2{X: -1, Y: 0},
		Penetration: 2,
	}

	posBefore := car.Position
	damage := Resolve(car, col)

	// Pushed out along the normal by the penetration.
	assert.InDelta(t, posBefore.X-2, car.Position.X, 1e-9)

	// Into-wall component removed with 30% rebound.
	assert.InDelta(t, -60.0, car.Velocity.X, 1e-9)
	assert.InDelta(t, 0.0, car.Velocity.Y, 1e-9)

	// Scalar speed recomputed from the new velocity, forward sign kept.
	assert.InDelta(t, 60.0, car.Speed, 1e-9)

	// Impact at 200 against a 50 threshold, scaled by 0.3.
	assert.InDelta(t, (200-50)*0.3, damage, 1e-9)
}

func TestResolveReverseSignPreserved(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)
	car.Speed = -100
	car.Velocity = common.Vec2{X: -100, Y: 0}

	col := Collision{
		Normal:      common.Vec2{X: 1, Y: 0},
		Penetration: 1,
	}
	Resolve(car, col)

	assert.Negative(t, car.Speed)
}

func TestResolveMovingAwayNoVelocityChange(t *testing.T) {
	cfg := testConfig()
	car := NewCar(cfg, 0, 0, 0)
	car.Speed = 100
	car.Velocity = common.Vec2{X: 100, Y: 0}

	// Normal points the same way the car moves: grazing contact while
	// leaving. Only the positional push-out applies, and no damage.
	col := Collision{
		Normal:      common.Vec2{X: 1, Y: 0},
		Penetration: 1.5,
	}
	damage := Resolve(car, col)

	assert.Equal(t, common.Vec2{X: 100, Y: 0}, car.Velocity)
	assert.Equal(t, 100.0, car.Speed)
	assert.Equal(t, 0.0, damage)
}

func TestResolveSlowImpactNoDamage(t *testing.T) {
	cfg := testConfig()
	cfg.Damage.MinDamageSpeed = 50
	car := NewCar(cfg, 0, 0, 0)
	car.Speed = 30
	car.Velocity = common.Vec2{X: 30, Y: 0}

	col := Collision{
		Normal:      common.Vec2{X: -1, Y: 0},
		Penetration: 1,
	}
	assert.Equal(t, 0.0, Resolve(car, col))
}

func TestResolveMonotonicPushOut(t *testing.T) {
	cfg := testConfig()
	cfg.Car.Width = 20
	cfg.Car.Length = 40

	car := NewCar(cfg, -18, 4, 0.1)
	car.Speed = 150
	car.Velocity = common.Vec2{X: 150, Y: 0}
	wall := Segment{A: common.Vec2{X: 0, Y: 0}, B: common.Vec2{X: 0, Y: 100}}
	walls := []Segment{wall}

	collisions := Detect(car.Corners(), walls, nil)
	require.NotEmpty(t, collisions)
	deepest := 0.0
	for _, c := range collisions {
		if c.Penetration > deepest {
			deepest = c.Penetration
		}
	}

	for _, c := range collisions {
		car.ApplyDamage(Resolve(car, c))
	}

	// Re-detection after resolution must not report a deeper penetration:
	// resolution only ever pushes the car out.
	after := Detect(car.Corners(), walls, nil)
	for _, c := range after {
		assert.LessOrEqual(t, c.Penetration, deepest+1e-9)
	}
}
