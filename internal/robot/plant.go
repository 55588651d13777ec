package robot

import (
	"github.com/san-kum/linesim/internal/ode"
)

// Plant advances the robot under a held wheel command. Implementations
// own their state between steps; Reset rewinds them for a fresh run.
type Plant interface {
	Reset(s State)
	Step(cmd WheelCommand, dt float64) State
}

// KinematicPlant is the ideal plant: wheels reach commanded rim speed
// instantly, position follows the exact constant-curvature update.
type KinematicPlant struct {
	chassis Chassis
	state   State
}

func NewKinematicPlant(c Chassis) *KinematicPlant {
	return &KinematicPlant{chassis: c}
}

func (p *KinematicPlant) Reset(s State) { p.state = s }

func (p *KinematicPlant) Step(cmd WheelCommand, dt float64) State {
	p.state = p.chassis.Integrate(p.state, cmd, dt)
	return p.state
}

// LagPlant drives the second-order MotorModel, so wheel speeds approach
// the command with the motor's rise time instead of jumping to it. The
// 7-dimensional motor state is integrated with RK4.
type LagPlant struct {
	model MotorModel
	integ ode.Integrator
	x     ode.State
	t     float64
}

func NewLagPlant(c Chassis) *LagPlant {
	return &LagPlant{model: MotorModel{Chassis: c}, integ: ode.NewRK4()}
}

// Reset places the plant at the given pose with the wheels at rest. The
// incoming velocities are ignored; a lagged plant always spins up from
// zero.
func (p *LagPlant) Reset(s State) {
	p.x = p.model.InitialState(s.Pose)
	p.t = 0
}

func (p *LagPlant) Step(cmd WheelCommand, dt float64) State {
	u := p.model.Voltages(cmd)
	p.x = p.integ.Step(p.model, p.x, u, p.t, dt)
	p.t += dt

	r := p.model.Chassis.WheelRadius
	wl, wr := p.x[3], p.x[5]
	return State{
		Pose:  p.model.PoseOf(p.x),
		V:     r * (wl + wr) / 2,
		Omega: r * (wr - wl) / p.model.Chassis.Wheelbase,
	}
}
