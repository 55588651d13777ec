// Package control implements the discretized PID steering law that maps
// the sensed line-position error to wheel speed commands.
package control

import (
	"errors"
	"fmt"

	"github.com/san-kum/linesim/internal/robot"
)

// ErrBadTiming reports invalid controller timing at construction.
var ErrBadTiming = errors.New("control: invalid sample period")

// DefaultWindupLimit bounds the integral accumulator. Without a bound, a
// sustained off-line episode winds the integral up far enough that the
// robot overshoots hard on reacquisition.
const DefaultWindupLimit = 10.0

// Params are the tunable gains of one run. They are never mutated by the
// controller; the optimizer supplies fresh values per candidate.
type Params struct {
	Kp        float64
	Ki        float64
	Kd        float64
	BaseSpeed float64 // forward wheel speed at zero error, m/s
}

// PID is the discretized feedback law. It runs on its own sample period,
// which must be no finer than the simulation step: between samples the
// orchestrator holds the last command (zero-order hold).
//
// Sign convention: the error is the line's lateral position in the robot
// frame, left positive. A positive correction speeds the right wheel and
// slows the left, turning the robot left, toward the line.
type PID struct {
	params Params
	period float64
	windup float64

	integral   float64
	prevErr    float64
	first      bool
	nextSample float64
	last       robot.WheelCommand
}

// NewPID validates the sample period and returns a controller with its
// state reset. period is the controller sample interval in seconds.
func NewPID(params Params, period, windupLimit float64) (*PID, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrBadTiming, period)
	}
	if windupLimit <= 0 {
		windupLimit = DefaultWindupLimit
	}
	c := &PID{params: params, period: period, windup: windupLimit}
	c.Reset()
	return c, nil
}

func (c *PID) Params() Params  { return c.params }
func (c *PID) Period() float64 { return c.period }

// Reset clears the integral, derivative memory and sample deadline, ready
// for a fresh run.
func (c *PID) Reset() {
	c.integral = 0
	c.prevErr = 0
	c.first = true
	c.nextSample = 0
	c.last = robot.WheelCommand{}
}

// deadlineSlack absorbs float accumulation in the simulation clock so a
// sample lands on every period boundary.
const deadlineSlack = 1e-9

// MaybeUpdate produces a new wheel command when simTime has reached the
// next sample boundary, and reports false otherwise; the caller keeps the
// previous command in that case.
func (c *PID) MaybeUpdate(simTime, err float64) (robot.WheelCommand, bool) {
	if simTime+deadlineSlack < c.nextSample {
		return c.last, false
	}
	c.nextSample += c.period

	c.integral += err * c.period
	if c.integral > c.windup {
		c.integral = c.windup
	} else if c.integral < -c.windup {
		c.integral = -c.windup
	}

	var derivative float64
	if !c.first {
		derivative = (err - c.prevErr) / c.period
	}
	c.prevErr = err
	c.first = false

	turn := c.params.Kp*err + c.params.Ki*c.integral + c.params.Kd*derivative

	c.last = robot.WheelCommand{
		Left:  c.params.BaseSpeed - turn,
		Right: c.params.BaseSpeed + turn,
	}
	return c.last, true
}
