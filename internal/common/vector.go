package common

import "math"

// Vec2 represents a 2D vector.
type Vec2 struct {
	X, Y float64
}

// Add adds two vectors.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts other from v.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale multiplies the vector by a scalar.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and other.
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Cross returns the 2D cross product (z component) of v and other.
func (v Vec2) Cross(other Vec2) float64 {
	return v.X*other.Y - v.Y*other.X
}

// Len returns the length (magnitude) of the vector.
func (v Vec2) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// LenSq returns the squared length, avoiding the sqrt.
func (v Vec2) LenSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns a unit vector in the same direction.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Lerp blends v toward target by factor t (t=1 returns target).
func (v Vec2) Lerp(target Vec2, t float64) Vec2 {
	return Vec2{
		X: v.X*(1-t) + target.X*t,
		Y: v.Y*(1-t) + target.Y*t,
	}
}

// Heading returns the angle of the vector in radians.
func (v Vec2) Heading() float64 {
	return math.Atan2(v.Y, v.X)
}

// FromAngle returns the unit vector pointing at the given angle.
func FromAngle(angle float64) Vec2 {
	return Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
}

// WrapAngle normalizes an angle to the range [-Pi, Pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
