// Package track owns the closed-loop centerline geometry: derived wall
// boundaries, spawn pose, progress and lateral-offset queries, and the dense
// breadcrumb checkpoints used for lap detection and reward shaping.
package track

import (
	"fmt"
	"math"

	"topdown-racer/internal/common"
	"topdown-racer/internal/config"
	"topdown-racer/internal/physics"
)

const zeroSegmentEps = 1e-9

// Track is the immutable track geometry. All fields are computed once at
// construction and never mutated, so concurrent readers need no locking.
type Track struct {
	centerline []common.Vec2
	segLengths []float64 // length of segment i -> i+1 (cyclic)
	cumLengths []float64 // arc length from point 0 to point i
	perimeter  float64
	width      float64
	walls      []physics.Segment
}

// New builds the track from the configured centerline. Fewer than 2 points
// or a zero-length segment is a construction error, not a runtime
// degradation.
func New(cfg config.Config) (*Track, error) {
	pts := cfg.Track.CenterlinePoints
	if len(pts) < 2 {
		return nil, fmt.Errorf("track: need at least 2 centerline points, got %d", len(pts))
	}

	t := &Track{
		centerline: make([]common.Vec2, len(pts)),
		segLengths: make([]float64, len(pts)),
		cumLengths: make([]float64, len(pts)),
		width:      cfg.Track.TrackWidth,
	}
	for i, p := range pts {
		t.centerline[i] = common.Vec2{X: p[0], Y: p[1]}
	}

	n := len(t.centerline)
	total := 0.0
	for i := 0; i < n; i++ {
		t.cumLengths[i] = total
		segLen := t.centerline[(i+1)%n].Sub(t.centerline[i]).Len()
		if segLen < zeroSegmentEps {
			return nil, fmt.Errorf("track: zero-length centerline segment at index %d", i)
		}
		t.segLengths[i] = segLen
		total += segLen
	}
	t.perimeter = total

	t.buildWalls()
	return t, nil
}

// buildWalls offsets the centerline by half the track width along each
// vertex normal, producing the inner and outer boundary loops.
func (t *Track) buildWalls() {
	n := len(t.centerline)
	inner := make([]common.Vec2, n)
	outer := make([]common.Vec2, n)
	half := t.width / 2

	for i := 0; i < n; i++ {
		prev := t.centerline[(i-1+n)%n]
		next := t.centerline[(i+1)%n]

		// Vertex normal: perpendicular of the prev->next chord.
		tangent := next.Sub(prev)
		normal := common.Vec2{X: -tangent.Y, Y: tangent.X}.Normalize()

		outer[i] = t.centerline[i].Add(normal.Scale(half))
		inner[i] = t.centerline[i].Sub(normal.Scale(half))
	}

	t.walls = make([]physics.Segment, 0, 2*n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		t.walls = append(t.walls,
			physics.Segment{A: outer[i], B: outer[j]},
			physics.Segment{A: inner[i], B: inner[j]},
		)
	}
}

// Centerline returns the closed centerline loop.
func (t *Track) Centerline() []common.Vec2 {
	return t.centerline
}

// WallSegments returns the derived boundary segments. Static for the
// lifetime of the track.
func (t *Track) WallSegments() []physics.Segment {
	return t.walls
}

// Perimeter returns the total centerline arc length.
func (t *Track) Perimeter() float64 {
	return t.perimeter
}

// NumPoints returns the number of centerline points.
func (t *Track) NumPoints() int {
	return len(t.centerline)
}

// SpawnPose returns the spawn position and heading: the first centerline
// point, facing the second.
func (t *Track) SpawnPose() (common.Vec2, float64) {
	heading := t.centerline[1%len(t.centerline)].Sub(t.centerline[0]).Heading()
	return t.centerline[0], heading
}

// Progress maps a world point to a continuous fractional centerline index
// by nearest-segment projection. The value wraps modulo NumPoints.
func (t *Track) Progress(p common.Vec2) float64 {
	progress, _ := t.project(p)
	return progress
}

// LateralDisplacement returns the perpendicular distance from the point to
// the nearest centerline segment.
func (t *Track) LateralDisplacement(p common.Vec2) float64 {
	_, lateral := t.project(p)
	return lateral
}

// project finds the nearest point on any centerline segment and returns the
// fractional index and the distance to it.
func (t *Track) project(p common.Vec2) (progress, lateral float64) {
	n := len(t.centerline)
	bestDistSq := math.MaxFloat64

	for i := 0; i < n; i++ {
		a := t.centerline[i]
		seg := t.centerline[(i+1)%n].Sub(a)

		// Clamped projection parameter along the segment.
		u := p.Sub(a).Dot(seg) / seg.LenSq()
		u = math.Min(math.Max(u, 0), 1)

		closest := a.Add(seg.Scale(u))
		distSq := p.Sub(closest).LenSq()
		if distSq < bestDistSq {
			bestDistSq = distSq
			progress = float64(i) + u
		}
	}

	return math.Mod(progress, float64(n)), math.Sqrt(bestDistSq)
}

// ArcLength converts a fractional centerline index to arc length from point
// 0, wrapping modulo the perimeter.
func (t *Track) ArcLength(progress float64) float64 {
	n := float64(len(t.centerline))
	progress = math.Mod(progress, n)
	if progress < 0 {
		progress += n
	}
	idx := int(progress)
	frac := progress - float64(idx)
	return math.Mod(t.cumLengths[idx]+frac*t.segLengths[idx], t.perimeter)
}

// turnAngle returns the signed turn angle at centerline vertex i: the angle
// between the incoming and outgoing segment directions, counter-clockwise
// positive.
func (t *Track) turnAngle(i int) float64 {
	n := len(t.centerline)
	prev := t.centerline[(i-1+n)%n]
	curr := t.centerline[i]
	next := t.centerline[(i+1)%n]

	in := curr.Sub(prev)
	out := next.Sub(curr)
	return math.Atan2(in.Cross(out), in.Dot(out))
}

// CurvatureLookahead returns curvature estimates at n successive vertices
// ahead of the given progress, each normalized so 0.5 = straight, values
// toward 0 = sharp left turn, toward 1 = sharp right turn.
func (t *Track) CurvatureLookahead(progress float64, n int) []float64 {
	numPts := len(t.centerline)
	base := int(math.Mod(progress, float64(numPts)))
	if base < 0 {
		base += numPts
	}

	out := make([]float64, n)
	for k := 1; k <= n; k++ {
		signed := t.turnAngle((base + k) % numPts)
		// Map [-Pi, Pi] onto [1, 0]: a full-left hairpin reads 0, a
		// full-right hairpin reads 1.
		curv := 0.5 - signed/(2*math.Pi)
		out[k-1] = math.Min(math.Max(curv, 0), 1)
	}
	return out
}
