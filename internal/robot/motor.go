package robot

import (
	"math"

	"github.com/san-kum/linesim/internal/geom"
	"github.com/san-kum/linesim/internal/ode"
)

// Second-order wheel speed response constants: natural frequency and
// damping ratio of the motor + load, plus the resulting canonical
// coefficients c0*w'' + c1*w' + c2*w = u.
const (
	motorW0 = 20.0
	motorXi = 0.71

	motorC0 = 1.0 / (motorW0 * motorW0)
	motorC1 = 2.0 * motorXi / motorW0
	motorC2 = 1.0
)

// MotorModel is the richer plant: instead of wheels reaching commanded
// speed instantly, each wheel's angular velocity follows a second-order
// response to its drive voltage. State layout:
//
//	[x, y, heading, wl, wl', wr, wr']
//
// with wl, wr the wheel angular velocities in rad/s. It plugs into the
// ode integrators for runs where actuator lag matters.
type MotorModel struct {
	Chassis Chassis
}

func (m MotorModel) StateDim() int   { return 7 }
func (m MotorModel) ControlDim() int { return 2 }

func (m MotorModel) Derive(x ode.State, u ode.Control, _ float64) ode.State {
	theta := x[2]
	wl, dwl := x[3], x[4]
	wr, dwr := x[5], x[6]
	ul, ur := u[0], u[1]

	r := m.Chassis.WheelRadius
	speed := r * (wl + wr) / 2

	return ode.State{
		speed * math.Cos(theta),
		speed * math.Sin(theta),
		r * (wr - wl) / m.Chassis.Wheelbase,
		dwl,
		(ul - motorC1*dwl - motorC2*wl) / motorC0,
		dwr,
		(ur - motorC1*dwr - motorC2*wr) / motorC0,
	}
}

// Voltages converts a wheel rim speed command into the steady-state drive
// voltages of the second-order plant (u = c2 * w at equilibrium).
func (m MotorModel) Voltages(cmd WheelCommand) ode.Control {
	r := m.Chassis.WheelRadius
	return ode.Control{motorC2 * cmd.Left / r, motorC2 * cmd.Right / r}
}

// InitialState embeds a pose into the 7-dimensional motor state with the
// wheels at rest.
func (m MotorModel) InitialState(p Pose) ode.State {
	return ode.State{p.Pos.X, p.Pos.Y, p.Heading, 0, 0, 0, 0}
}

// PoseOf extracts the pose from a 7-dimensional motor state.
func (m MotorModel) PoseOf(x ode.State) Pose {
	return Pose{Pos: geom.Vec2{X: x[0], Y: x[1]}, Heading: x[2]}
}
