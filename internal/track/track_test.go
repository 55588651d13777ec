package track

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/linesim/internal/geom"
)

func TestPredefinedCloses(t *testing.T) {
	trk := Predefined()
	assert.Len(t, trk.Segments(), 11)
	assert.Greater(t, trk.Length(), 50.0)

	// Walking one full length returns to the start point.
	start, _ := trk.Start()
	end := trk.PointAt(trk.Length())
	assert.InDelta(t, start.X, end.X, 1e-9)
	assert.InDelta(t, start.Y, end.Y, 1e-9)
}

func TestNewRejectsOpenChain(t *testing.T) {
	l1, err := geom.NewLine(geom.Vec2{X: 0, Y: 0}, geom.Vec2{X: 1, Y: 0})
	require.NoError(t, err)
	l2, err := geom.NewLine(geom.Vec2{X: 1, Y: 0}, geom.Vec2{X: 1, Y: 1})
	require.NoError(t, err)

	// Two lines that do not loop back.
	_, err = New([]geom.Segment{l1, l2})
	require.Error(t, err)
	var gerr *geom.GeometryError
	assert.ErrorAs(t, err, &gerr)

	// A single segment is never a loop.
	_, err = New([]geom.Segment{l1})
	require.Error(t, err)
}

// Nearest must beat (or tie) every densely sampled point on the track.
func TestNearestGlobalMinimum(t *testing.T) {
	trk := Predefined()

	queries := []geom.Vec2{
		{X: 4, Y: -2}, {X: 9.5, Y: -6}, {X: -1, Y: -2},
		{X: 5, Y: -11}, {X: 2.5, Y: -10.5}, {X: 12, Y: 1}, {X: 4, Y: -6},
	}
	const samples = 20000
	step := trk.Length() / samples

	for _, q := range queries {
		res := trk.Nearest(q)
		best := math.Abs(res.Offset)
		assert.InDelta(t, best, q.Distance(res.Point), 1e-9)
		for i := 0; i < samples; i++ {
			d := q.Distance(trk.PointAt(float64(i) * step))
			require.LessOrEqual(t, best, d+1e-6, "query (%g,%g) beaten at s=%g", q.X, q.Y, float64(i)*step)
		}
	}
}

func TestNearestTieBreakAtJoint(t *testing.T) {
	l1, _ := geom.NewLine(geom.Vec2{X: 0, Y: 0}, geom.Vec2{X: 2, Y: 0})
	l2, _ := geom.NewLine(geom.Vec2{X: 2, Y: 0}, geom.Vec2{X: 2, Y: 2})
	l3, _ := geom.NewLine(geom.Vec2{X: 2, Y: 2}, geom.Vec2{X: 0, Y: 2})
	l4, _ := geom.NewLine(geom.Vec2{X: 0, Y: 2}, geom.Vec2{X: 0, Y: 0})
	trk, err := New([]geom.Segment{l1, l2, l3, l4})
	require.NoError(t, err)

	// Exactly at the joint between segment 0 and 1: the earlier segment
	// wins, so the reported arc length is the end of segment 0 and the
	// tangent is segment 0's.
	res := trk.Nearest(geom.Vec2{X: 2, Y: 0})
	assert.InDelta(t, 2.0, res.S, 1e-12)
	assert.InDelta(t, 1.0, res.Tangent.X, 1e-12)
	assert.InDelta(t, 0.0, res.Tangent.Y, 1e-12)
}

func TestPointAtWraps(t *testing.T) {
	trk := Circle(geom.Vec2{}, 2)
	assert.InDelta(t, 4*math.Pi, trk.Length(), 1e-12)

	p1 := trk.PointAt(1.5)
	p2 := trk.PointAt(1.5 + trk.Length())
	p3 := trk.PointAt(1.5 - trk.Length())
	assert.InDelta(t, p1.X, p2.X, 1e-9)
	assert.InDelta(t, p1.Y, p2.Y, 1e-9)
	assert.InDelta(t, p1.X, p3.X, 1e-9)
	assert.InDelta(t, p1.Y, p3.Y, 1e-9)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.yaml")
	orig := Predefined()
	require.NoError(t, SaveFile(path, orig))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Segments(), len(orig.Segments()))
	assert.InDelta(t, orig.Length(), loaded.Length(), 1e-9)

	for _, s := range []float64{0, 3.7, 20, 41.2} {
		po, pl := orig.PointAt(s), loaded.PointAt(s)
		assert.InDelta(t, po.X, pl.X, 1e-9)
		assert.InDelta(t, po.Y, pl.Y, 1e-9)
	}
}
