package sim

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/linesim/internal/robot"
)

// CrossTrackRMS reports the root-mean-square lateral offset over a run.
type CrossTrackRMS struct {
	squares []float64
}

func NewCrossTrackRMS() *CrossTrackRMS {
	return &CrossTrackRMS{}
}

func (c *CrossTrackRMS) Name() string { return "cross_track_rms" }

func (c *CrossTrackRMS) Observe(_ robot.State, _ robot.WheelCommand, offset, _ float64) {
	c.squares = append(c.squares, offset*offset)
}

func (c *CrossTrackRMS) Value() float64 {
	if len(c.squares) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(c.squares, nil))
}

func (c *CrossTrackRMS) Reset() { c.squares = c.squares[:0] }

// ControlEffort reports the mean absolute wheel speed differential, a
// proxy for how hard the controller works.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(_ robot.State, cmd robot.WheelCommand, _, _ float64) {
	c.sum += math.Abs(cmd.Right - cmd.Left)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
