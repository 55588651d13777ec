package geom

import "math"

// NearestResult is the answer to a closest-point query against a segment.
type NearestResult struct {
	Point  Vec2    // closest point on the segment
	ArcLen float64 // distance along the segment from its start to Point
	Offset float64 // signed lateral distance; left of the tangent is positive
}

// Segment is one smooth piece of a track. The set of variants is closed:
// straight lines and circular arcs.
type Segment interface {
	Length() float64
	Start() Vec2
	End() Vec2
	// PointAt returns the point after traveling d along the segment,
	// d in [0, Length()].
	PointAt(d float64) Vec2
	// TangentAt returns the unit tangent at distance d, pointing in the
	// direction of travel.
	TangentAt(d float64) Vec2
	Nearest(p Vec2) NearestResult
}

// Line is a straight segment from P0 to P1.
type Line struct {
	p0, p1 Vec2
	dir    Vec2
	length float64
}

func NewLine(p0, p1 Vec2) (*Line, error) {
	length := p0.Distance(p1)
	if length == 0 {
		return nil, Errorf("line segment has zero length at (%g, %g)", p0.X, p0.Y)
	}
	return &Line{p0: p0, p1: p1, dir: p1.Sub(p0).Scale(1 / length), length: length}, nil
}

func (l *Line) Length() float64 { return l.length }
func (l *Line) Start() Vec2     { return l.p0 }
func (l *Line) End() Vec2       { return l.p1 }

func (l *Line) PointAt(d float64) Vec2 { return l.p0.Add(l.dir.Scale(d)) }

func (l *Line) TangentAt(float64) Vec2 { return l.dir }

func (l *Line) Nearest(p Vec2) NearestResult {
	d := p.Sub(l.p0).Dot(l.dir)
	if d < 0 {
		d = 0
	} else if d > l.length {
		d = l.length
	}
	closest := l.PointAt(d)
	return NearestResult{Point: closest, ArcLen: d, Offset: signedOffset(l.dir, closest, p)}
}

// Arc is a circular segment swept from Theta0 to Theta1 around Center.
// The sweep is counterclockwise when Theta1 > Theta0 and clockwise
// otherwise.
type Arc struct {
	center Vec2
	r      float64
	theta0 float64
	theta1 float64
	ccw    bool
	length float64
}

func NewArc(center Vec2, r, theta0, theta1 float64) (*Arc, error) {
	if r <= 0 {
		return nil, Errorf("arc has non-positive radius %g", r)
	}
	sweep := theta1 - theta0
	if sweep == 0 {
		return nil, Errorf("arc has zero sweep at angle %g", theta0)
	}
	return &Arc{
		center: center,
		r:      r,
		theta0: theta0,
		theta1: theta1,
		ccw:    sweep > 0,
		length: r * math.Abs(sweep),
	}, nil
}

func (a *Arc) Length() float64 { return a.length }
func (a *Arc) Center() Vec2    { return a.center }
func (a *Arc) Radius() float64 { return a.r }

// Angles returns the start and end angles of the sweep.
func (a *Arc) Angles() (float64, float64) { return a.theta0, a.theta1 }

func (a *Arc) Start() Vec2 { return a.center.Add(Unit(a.theta0).Scale(a.r)) }
func (a *Arc) End() Vec2   { return a.center.Add(Unit(a.theta1).Scale(a.r)) }

func (a *Arc) angleAt(d float64) float64 {
	if a.ccw {
		return a.theta0 + d/a.r
	}
	return a.theta0 - d/a.r
}

func (a *Arc) PointAt(d float64) Vec2 {
	return a.center.Add(Unit(a.angleAt(d)).Scale(a.r))
}

func (a *Arc) TangentAt(d float64) Vec2 {
	theta := a.angleAt(d)
	t := Vec2{-math.Sin(theta), math.Cos(theta)}
	if !a.ccw {
		t = t.Scale(-1)
	}
	return t
}

func (a *Arc) Nearest(p Vec2) NearestResult {
	v := p.Sub(a.center)
	var d float64
	if v.Norm() == 0 {
		// Query at the exact center: every point on the arc is
		// equidistant, prefer the start.
		d = 0
	} else {
		// Angular travel from theta0 in the direction of the sweep,
		// normalized to [0, 2pi).
		travel := v.Angle() - a.theta0
		if !a.ccw {
			travel = -travel
		}
		travel = math.Mod(travel, 2*math.Pi)
		if travel < 0 {
			travel += 2 * math.Pi
		}
		if travel*a.r <= a.length {
			d = travel * a.r
		} else if p.Distance(a.Start()) <= p.Distance(a.End()) {
			d = 0
		} else {
			d = a.length
		}
	}
	closest := a.PointAt(d)
	return NearestResult{Point: closest, ArcLen: d, Offset: signedOffset(a.TangentAt(d), closest, p)}
}

// signedOffset is the lateral distance from closest to p, positive when p
// lies to the left of the tangent direction. The magnitude is the full
// Euclidean distance so that nearest-segment selection can compare offsets
// directly.
func signedOffset(tangent, closest, p Vec2) float64 {
	to := p.Sub(closest)
	dist := to.Norm()
	if tangent.Cross(to) < 0 {
		return -dist
	}
	return dist
}
