package track

import (
	"math"

	"github.com/san-kum/linesim/internal/geom"
)

func mustLine(x0, y0, x1, y1 float64) geom.Segment {
	l, err := geom.NewLine(geom.Vec2{X: x0, Y: y0}, geom.Vec2{X: x1, Y: y1})
	if err != nil {
		panic(err)
	}
	return l
}

func mustArc(cx, cy, r, theta0, theta1 float64) geom.Segment {
	a, err := geom.NewArc(geom.Vec2{X: cx, Y: cy}, r, theta0, theta1)
	if err != nil {
		panic(err)
	}
	return a
}

// Predefined returns the 11-segment demo course: two straight stretches
// joined by a chicane and three sweeping corners, about 55 m around.
func Predefined() *Track {
	t, err := New([]geom.Segment{
		mustLine(0, -4, 8, -4),
		mustLine(8, -4, 8, -9),
		mustArc(7, -9, 1, 0, -math.Pi/2),
		mustLine(7, -10, 3, -10),
		mustArc(3, -11, 1, math.Pi/2, 3*math.Pi/2),
		mustLine(3, -12, 8, -12),
		mustArc(8, -10, 2, -math.Pi/2, 0),
		mustLine(10, -10, 10, -2),
		mustArc(8, -2, 2, 0, math.Pi/2),
		mustLine(8, 0, 0, 0),
		mustArc(0, -2, 2, math.Pi/2, 3*math.Pi/2),
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Circle returns a circular track of radius r traversed counterclockwise,
// split into two half arcs.
func Circle(center geom.Vec2, r float64) *Track {
	t, err := New([]geom.Segment{
		mustArc(center.X, center.Y, r, 0, math.Pi),
		mustArc(center.X, center.Y, r, math.Pi, 2*math.Pi),
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Builtin looks up a named built-in figure.
func Builtin(name string) (*Track, bool) {
	switch name {
	case "predefined", "demo":
		return Predefined(), true
	case "circle":
		return Circle(geom.Vec2{}, 2), true
	default:
		return nil, false
	}
}

// Builtins lists the names accepted by Builtin.
func Builtins() []string { return []string{"predefined", "circle"} }
