package physics

import (
	"math"

	"topdown-racer/internal/common"
)

// RayAnglesDeg is the fixed 240-degree forward fan, relative to the car
// heading. The observation vector depends on both the count and the order.
var RayAnglesDeg = [13]float64{
	-120, -100, -75, -50, -30, -10,
	0,
	10, 30, 50, 75, 100, 120,
}

// NumRays is the size of the fan.
const NumRays = len(RayAnglesDeg)

var rayAnglesRad [NumRays]float64

func init() {
	for i, deg := range RayAnglesDeg {
		rayAnglesRad[i] = deg * math.Pi / 180
	}
}

// CastRays casts the fan from the given pose and writes one normalized
// distance per ray into dst: distance/maxDistance in [0, 1], exactly 1.0
// when no wall is hit within range. Zero wall segments is valid input and
// yields an all-1.0 fan.
func CastRays(dst *[NumRays]float64, position common.Vec2, heading float64, walls []Segment, maxDistance float64) {
	for i, offset := range rayAnglesRad {
		rayDir := common.FromAngle(heading + offset).Scale(maxDistance)

		// Minimum valid ray parameter among all hits; > 1 means miss.
		minT := math.Inf(1)

		for _, wall := range walls {
			wallDir := wall.B.Sub(wall.A)

			denom := rayDir.Cross(wallDir)
			if math.Abs(denom) < parallelEps {
				continue
			}

			toWall := wall.A.Sub(position)
			t := toWall.Cross(wallDir) / denom
			s := toWall.Cross(rayDir) / denom

			if t >= 0 && t <= 1 && s >= 0 && s <= 1 && t < minT {
				minT = t
			}
		}

		if math.IsInf(minT, 1) {
			dst[i] = 1.0
			continue
		}
		// t is already distance/maxDistance since the ray direction has
		// length maxDistance.
		dst[i] = math.Min(math.Max(minT, 0), 1)
	}
}
