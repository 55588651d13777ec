package sensor

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/linesim/internal/geom"
	"github.com/san-kum/linesim/internal/robot"
	"github.com/san-kum/linesim/internal/track"
)

func squareTrack(t *testing.T) *track.Track {
	t.Helper()
	mk := func(x0, y0, x1, y1 float64) geom.Segment {
		l, err := geom.NewLine(geom.Vec2{X: x0, Y: y0}, geom.Vec2{X: x1, Y: y1})
		if err != nil {
			t.Fatal(err)
		}
		return l
	}
	trk, err := track.New([]geom.Segment{
		mk(0, 0, 10, 0),
		mk(10, 0, 10, 10),
		mk(10, 10, 0, 10),
		mk(0, 10, 0, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	return trk
}

func TestNewRejectsBadGeometry(t *testing.T) {
	if _, err := New(0, 0.02, 0.06, 0.02); !errors.Is(err, ErrBadArray) {
		t.Errorf("expected ErrBadArray for zero count, got %v", err)
	}
	if _, err := New(5, 0.02, 0.06, 0); !errors.Is(err, ErrBadArray) {
		t.Errorf("expected ErrBadArray for zero range, got %v", err)
	}
	if _, err := New(3, -0.01, 0.06, 0.02); !errors.Is(err, ErrBadArray) {
		t.Errorf("expected ErrBadArray for negative spacing, got %v", err)
	}
}

func TestCenteredOnStraightLineReadsZero(t *testing.T) {
	trk := squareTrack(t)
	arr := Default()

	// Robot centered on the bottom edge, heading parallel to it, at
	// several positions along the segment.
	for _, x := range []float64{1, 4.2, 7.7} {
		pose := robot.Pose{Pos: geom.Vec2{X: x, Y: 0}, Heading: 0}
		r := arr.Read(pose, trk)
		if e := arr.Error(r); math.Abs(e) > 1e-12 {
			t.Errorf("centered robot at x=%g read error %g", x, e)
		}
		// Center sensor sits exactly on the line.
		if r[arr.Count()/2] != 0 {
			t.Errorf("center sensor read %g, want 0", r[arr.Count()/2])
		}
	}
}

func TestReadingsSaturate(t *testing.T) {
	trk := squareTrack(t)
	arr := Default()

	// Far off the track: every sensor pegged at the same sign.
	pose := robot.Pose{Pos: geom.Vec2{X: 5, Y: 3}, Heading: 0}
	r := arr.Read(pose, trk)
	for i, v := range r {
		if v != 1 {
			t.Errorf("sensor %d read %g, want saturated 1", i, v)
		}
	}
}

func TestErrorSign(t *testing.T) {
	trk := squareTrack(t)
	arr := Default()

	// Robot shifted left of the bottom edge (+y): the line is to its
	// right, error negative.
	left := robot.Pose{Pos: geom.Vec2{X: 5, Y: 0.01}, Heading: 0}
	if e := arr.Error(arr.Read(left, trk)); e >= 0 {
		t.Errorf("robot left of line: want negative error, got %g", e)
	}

	// Shifted right (-y): line to the left, error positive.
	right := robot.Pose{Pos: geom.Vec2{X: 5, Y: -0.01}, Heading: 0}
	if e := arr.Error(arr.Read(right, trk)); e <= 0 {
		t.Errorf("robot right of line: want positive error, got %g", e)
	}
}

func TestErrorOffLinePegsToSpanEdge(t *testing.T) {
	arr := Default()

	allLeft := make(Readings, arr.Count())
	for i := range allLeft {
		allLeft[i] = 1 // robot entirely left of the track
	}
	e := arr.Error(allLeft)
	if e >= 0 {
		t.Errorf("want pegged negative error, got %g", e)
	}
	if math.Abs(e) < DefaultSpacing {
		t.Errorf("pegged error %g suspiciously small", e)
	}
}

func TestReadRotatesWithHeading(t *testing.T) {
	trk := squareTrack(t)
	arr := Default()

	// On the right edge (x=10) heading +y: the track under the array is
	// vertical, and a centered robot still reads zero.
	pose := robot.Pose{Pos: geom.Vec2{X: 10, Y: 5}, Heading: math.Pi / 2}
	if e := arr.Error(arr.Read(pose, trk)); math.Abs(e) > 1e-12 {
		t.Errorf("centered on vertical segment: error %g", e)
	}
}
