// Package sensor models the array of discrete line sensors mounted ahead
// of the robot's center. Readings are a pure function of pose and track.
package sensor

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/linesim/internal/geom"
	"github.com/san-kum/linesim/internal/robot"
	"github.com/san-kum/linesim/internal/track"
)

// ErrBadArray reports invalid sensor array geometry at construction.
var ErrBadArray = errors.New("sensor: invalid array geometry")

// Reference geometry: a row of 5 sensors spanning 1.1 chassis lengths,
// mounted 3/5 of a chassis length ahead of the center. Each sensor
// saturates at 4/5 of the inter-sensor spacing.
const (
	DefaultCount    = 5
	DefaultSpacing  = 0.11 / 5
	DefaultForward  = 0.1 * 3 / 5
	DefaultMaxRange = 4 * DefaultSpacing / 5
)

// Array is a fixed arrangement of line sensors in the robot's local frame
// (robot at the origin, facing +x, +y to the left). It has no state.
type Array struct {
	offsets  []geom.Vec2
	maxRange float64
	halfSpan float64
}

// New builds a symmetric row of n sensors, spacing apart, forward of the
// robot center. Sensor 0 is the leftmost. maxRange bounds the distance a
// sensor can resolve; readings saturate beyond it.
func New(n int, spacing, forward, maxRange float64) (*Array, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: sensor count %d", ErrBadArray, n)
	}
	if maxRange <= 0 {
		return nil, fmt.Errorf("%w: max range %g", ErrBadArray, maxRange)
	}
	if n > 1 && spacing <= 0 {
		return nil, fmt.Errorf("%w: spacing %g", ErrBadArray, spacing)
	}
	offsets := make([]geom.Vec2, n)
	mid := float64(n-1) / 2
	for i := range offsets {
		offsets[i] = geom.Vec2{X: forward, Y: (mid - float64(i)) * spacing}
	}
	return &Array{
		offsets:  offsets,
		maxRange: maxRange,
		halfSpan: mid * spacing,
	}, nil
}

// Default returns the reference 5-sensor array.
func Default() *Array {
	a, err := New(DefaultCount, DefaultSpacing, DefaultForward, DefaultMaxRange)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Array) Count() int { return len(a.offsets) }

// Readings holds one normalized value per sensor: the track's signed
// lateral offset at the sensor position, saturated to [-1, 1] by the
// array's range. Sensor-left-of-track is positive.
type Readings []float64

// Read transforms each sensor offset into world coordinates using the pose
// and queries the track under it.
func (a *Array) Read(p robot.Pose, trk *track.Track) Readings {
	r := make(Readings, len(a.offsets))
	for i, off := range a.offsets {
		world := p.Pos.Add(off.Rotate(p.Heading))
		near := trk.Nearest(world)
		r[i] = clamp(near.Offset/a.maxRange, -1, 1)
	}
	return r
}

// Error reduces readings to the scalar line-position error consumed by the
// controller: the weighted centroid of the sensor positions, weighted by
// how strongly each sensor sees the line. The result is the line's lateral
// position in the robot frame, in meters, left positive, zero when
// centered.
//
// When every sensor is saturated (the line is outside the array) the error
// pegs to the span edge on the side the line disappeared to, so the
// controller keeps steering toward it instead of going numb.
func (a *Array) Error(r Readings) float64 {
	var weighted, total float64
	for i, v := range r {
		activation := 1 - math.Abs(v)
		weighted += a.offsets[i].Y * activation
		total += activation
	}
	if total > 1e-9 {
		return weighted / total
	}

	var sum float64
	for _, v := range r {
		sum += v
	}
	if sum > 0 {
		// Sensors left of the track: the line is off to the right.
		return -a.halfSpan
	}
	return a.halfSpan
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
