// Package track models a closed line-follower course assembled from
// straight and circular segments, with exact nearest-point and
// arc-length queries against it.
package track

import (
	"math"
	"sort"

	"github.com/san-kum/linesim/internal/geom"
)

// CloseTolerance is the largest endpoint gap allowed between consecutive
// segments when chaining them into a loop.
const CloseTolerance = 1e-6

// Track is an immutable closed loop of segments. It is safe to share one
// Track across concurrent simulation runs; nothing mutates it after New.
type Track struct {
	segments []geom.Segment
	starts   []float64 // cumulative arc length at each segment start
	length   float64
}

// New validates that the segments chain into a closed loop (each segment
// starts where the previous one ends, and the last ends at the first's
// start) and builds the track. Returns a *geom.GeometryError otherwise.
func New(segments []geom.Segment) (*Track, error) {
	if len(segments) < 2 {
		return nil, geom.Errorf("track needs at least 2 segments, got %d", len(segments))
	}
	starts := make([]float64, len(segments))
	total := 0.0
	for i, seg := range segments {
		starts[i] = total
		total += seg.Length()

		next := segments[(i+1)%len(segments)]
		gap := seg.End().Distance(next.Start())
		if gap > CloseTolerance {
			return nil, geom.Errorf("track does not close: gap of %g between segment %d and %d", gap, i, (i+1)%len(segments))
		}
	}
	return &Track{segments: segments, starts: starts, length: total}, nil
}

// Length is the total arc length of the loop.
func (t *Track) Length() float64 { return t.length }

// Segments returns the underlying loop in traversal order. Callers must
// treat the slice as read-only.
func (t *Track) Segments() []geom.Segment { return t.segments }

// NearestPoint is the result of projecting a query point onto the track.
type NearestPoint struct {
	Point   geom.Vec2
	Tangent geom.Vec2 // unit direction of travel at Point
	Offset  float64   // signed lateral distance, left of travel positive
	S       float64   // arc length along the loop at Point
}

// Nearest projects p onto the track: the globally closest point over all
// segments. Ties at segment joints resolve to the segment that comes first
// in traversal order, which keeps sensor readings reproducible.
func (t *Track) Nearest(p geom.Vec2) NearestPoint {
	bestIdx := 0
	best := t.segments[0].Nearest(p)
	for i, seg := range t.segments[1:] {
		res := seg.Nearest(p)
		if math.Abs(res.Offset) < math.Abs(best.Offset) {
			best = res
			bestIdx = i + 1
		}
	}
	return NearestPoint{
		Point:   best.Point,
		Tangent: t.segments[bestIdx].TangentAt(best.ArcLen),
		Offset:  best.Offset,
		S:       t.starts[bestIdx] + best.ArcLen,
	}
}

// wrap maps an arc length onto [0, length).
func (t *Track) wrap(s float64) float64 {
	s = math.Mod(s, t.length)
	if s < 0 {
		s += t.length
	}
	return s
}

func (t *Track) segmentAt(s float64) (geom.Segment, float64) {
	s = t.wrap(s)
	i := sort.SearchFloat64s(t.starts, s)
	if i == len(t.starts) || t.starts[i] > s {
		i--
	}
	return t.segments[i], s - t.starts[i]
}

// PointAt returns the point at arc length s from the start of the loop.
// s wraps modulo the track length.
func (t *Track) PointAt(s float64) geom.Vec2 {
	seg, d := t.segmentAt(s)
	return seg.PointAt(d)
}

// TangentAt returns the unit direction of travel at arc length s.
func (t *Track) TangentAt(s float64) geom.Vec2 {
	seg, d := t.segmentAt(s)
	return seg.TangentAt(d)
}

// Start returns the start point of the loop and the heading along it,
// the usual initial condition for a run.
func (t *Track) Start() (geom.Vec2, float64) {
	return t.segments[0].Start(), t.segments[0].TangentAt(0).Angle()
}
