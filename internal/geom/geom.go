package geom

import (
	"fmt"
	"math"
)

// Vec2 is a 2-D point or direction in simulation units (meters).
type Vec2 struct {
	X float64
	Y float64
}

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(f float64) Vec2 { return Vec2{a.X * f, a.Y * f} }
func (a Vec2) Dot(b Vec2) float64   { return a.X*b.X + a.Y*b.Y }

// Cross returns the z component of the 3-D cross product. Positive when b
// points to the left of a.
func (a Vec2) Cross(b Vec2) float64 { return a.X*b.Y - a.Y*b.X }

func (a Vec2) Norm() float64 { return math.Hypot(a.X, a.Y) }

func (a Vec2) Distance(b Vec2) float64 { return a.Sub(b).Norm() }

func (a Vec2) Normalize() Vec2 {
	n := a.Norm()
	if n == 0 {
		return Vec2{}
	}
	return a.Scale(1 / n)
}

// Rotate rotates a counterclockwise by theta radians.
func (a Vec2) Rotate(theta float64) Vec2 {
	s, c := math.Sincos(theta)
	return Vec2{a.X*c - a.Y*s, a.X*s + a.Y*c}
}

// Angle returns the direction of a in radians.
func (a Vec2) Angle() float64 { return math.Atan2(a.Y, a.X) }

// Unit returns the unit vector pointing at angle theta.
func Unit(theta float64) Vec2 {
	s, c := math.Sincos(theta)
	return Vec2{c, s}
}

// GeometryError reports an invalid geometric construction, such as a
// degenerate segment or a segment chain that does not close.
type GeometryError struct {
	Msg string
}

func (e *GeometryError) Error() string { return "geom: " + e.Msg }

func Errorf(format string, args ...any) *GeometryError {
	return &GeometryError{Msg: fmt.Sprintf(format, args...)}
}
