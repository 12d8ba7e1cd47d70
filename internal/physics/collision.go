package physics

import (
	"math"

	"topdown-racer/internal/common"
)

// Car edge indices as produced by Detect. Edges are built from the corner
// order returned by Car.Corners.
const (
	EdgeFront = iota
	EdgeRight
	EdgeBack
	EdgeLeft
)

// parallelEps is the cross-product magnitude below which two segments are
// treated as parallel and non-intersecting. Frequent and expected, never an
// error.
const parallelEps = 1e-10

// minPenetration floors the estimated overlap so resolution always produces
// a visible push-out.
const minPenetration = 1.0

// bounceFactor is the fraction of the removed normal velocity component
// re-added as rebound.
const bounceFactor = 0.3

// Segment is a wall line segment in world coordinates.
type Segment struct {
	A, B common.Vec2
}

// Collision describes one intersection between a car edge and a wall
// segment. Produced transiently per tick, never persisted.
type Collision struct {
	Point        common.Vec2
	Normal       common.Vec2 // unit, oriented toward the car center
	Penetration  float64     // >= minPenetration
	Wall         Segment
	CarEdgeIndex int
}

// SegmentIntersection finds the crossing point of segments p1-p2 and p3-p4
// using the parametric cross-product method. Returns ok=false for parallel,
// coincident, or non-overlapping segments.
func SegmentIntersection(p1, p2, p3, p4 common.Vec2) (common.Vec2, bool) {
	d1 := p2.Sub(p1)
	d2 := p4.Sub(p3)

	denom := d1.Cross(d2)
	if math.Abs(denom) < parallelEps {
		return common.Vec2{}, false
	}

	d3 := p3.Sub(p1)
	t := d3.Cross(d2) / denom
	s := d3.Cross(d1) / denom

	if t < 0 || t > 1 || s < 0 || s > 1 {
		return common.Vec2{}, false
	}
	return p1.Add(d1.Scale(t)), true
}

// Detect tests the four car edges against every wall segment and appends a
// Collision for each hit into buf, which is reused across ticks to avoid
// per-tick allocation. The returned slice is buf with results appended to
// its reset front.
func Detect(corners [4]common.Vec2, walls []Segment, buf []Collision) []Collision {
	out := buf[:0]

	edges := [4][2]common.Vec2{
		{corners[0], corners[1]}, // front
		{corners[1], corners[2]}, // right
		{corners[2], corners[3]}, // back
		{corners[3], corners[0]}, // left
	}

	center := corners[0].Add(corners[1]).Add(corners[2]).Add(corners[3]).Scale(0.25)

	for edgeIdx, edge := range edges {
		for _, wall := range walls {
			hit, ok := SegmentIntersection(edge[0], edge[1], wall.A, wall.B)
			if !ok {
				continue
			}

			wallDir := wall.B.Sub(wall.A)
			wallLen := wallDir.Len()
			if wallLen < parallelEps {
				// Degenerate wall, contributes no geometry.
				continue
			}

			// Wall normal, oriented toward the car center.
			normal := common.Vec2{X: -wallDir.Y / wallLen, Y: wallDir.X / wallLen}
			if normal.Dot(center.Sub(hit)) < 0 {
				normal = normal.Scale(-1)
			}

			out = append(out, Collision{
				Point:        hit,
				Normal:       normal,
				Penetration:  math.Max(estimatePenetration(corners, wall.A, normal), minPenetration),
				Wall:         wall,
				CarEdgeIndex: edgeIdx,
			})
		}
	}

	return out
}

// estimatePenetration projects every car corner onto the wall normal and
// returns the deepest crossing past the wall line. Corners with non-negative
// signed distance are on the safe side.
func estimatePenetration(corners [4]common.Vec2, wallPoint, normal common.Vec2) float64 {
	maxPen := 0.0
	for _, corner := range corners {
		dist := corner.Sub(wallPoint).Dot(normal)
		if dist < 0 && -dist > maxPen {
			maxPen = -dist
		}
	}
	return maxPen
}

// Resolve pushes the car out of the wall along the collision normal, removes
// the into-wall velocity component with a partial bounce, and returns the
// damage for the impact. The caller applies the damage via ApplyDamage.
// Simultaneous collisions are resolved independently, in detection order,
// each against the already-mutated car state.
func Resolve(car *Car, col Collision) float64 {
	car.Position = car.Position.Add(col.Normal.Scale(col.Penetration))

	vAlongNormal := car.Velocity.Dot(col.Normal)
	if vAlongNormal >= 0 {
		// Moving away from the wall, already resolved by an earlier
		// collision this tick. Position correction only, no damage.
		return 0
	}

	// Moving into the wall: remove that component, re-add a fraction as
	// rebound.
	car.Velocity = car.Velocity.Sub(col.Normal.Scale(vAlongNormal * (1 + bounceFactor)))

	// Recompute scalar speed from the new velocity, preserving the
	// forward/reverse sign.
	newSpeed := car.Velocity.Len()
	if car.Speed >= 0 {
		car.Speed = newSpeed
	} else {
		car.Speed = -newSpeed
	}

	impactSpeed := -vAlongNormal
	if impactSpeed > car.dmg.MinDamageSpeed {
		return (impactSpeed - car.dmg.MinDamageSpeed) * car.dmg.WallDamageMultiplier
	}
	return 0
}
