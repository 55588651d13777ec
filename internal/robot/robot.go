// Package robot models a two-wheel differential-drive chassis moving in
// the plane under an idealized no-slip kinematic model.
package robot

import (
	"math"

	"github.com/san-kum/linesim/internal/geom"
)

// Pose is a rigid-body placement: position plus heading in radians.
type Pose struct {
	Pos     geom.Vec2
	Heading float64
}

// State is the integrated state of the chassis: pose plus the linear and
// angular velocities realized over the last step.
type State struct {
	Pose
	V     float64 // m/s along the heading
	Omega float64 // rad/s, counterclockwise positive
}

// WheelCommand is a pair of wheel rim speeds in m/s. Commands are not
// clamped here; limiting is the controller's business.
type WheelCommand struct {
	Left  float64
	Right float64
}

// Chassis holds the fixed geometry of the robot.
type Chassis struct {
	Wheelbase   float64 // distance between wheel contact points, m
	WheelRadius float64 // m
}

// DefaultChassis matches the reference robot: a 10 cm chassis on 4 cm
// wheels.
func DefaultChassis() Chassis {
	return Chassis{Wheelbase: 0.1, WheelRadius: 0.04}
}

// omegaStraight is the angular speed below which a step is integrated as
// pure translation.
const omegaStraight = 1e-12

// Integrate advances the state by dt under a wheel command held constant
// for the whole step. Pure and deterministic; finite inputs always produce
// a finite state.
//
// The position update is the exact constant-curvature (exponential-map)
// solution: the robot travels a circular arc of radius v/omega during the
// step. Compared to explicit Euler this keeps sharp turns on their true
// circle even at coarse dt; when omega vanishes it reduces to straight-line
// motion along the current heading.
func (c Chassis) Integrate(s State, cmd WheelCommand, dt float64) State {
	v := (cmd.Left + cmd.Right) / 2
	omega := (cmd.Right - cmd.Left) / c.Wheelbase

	theta := s.Heading
	thetaNew := theta + omega*dt

	var delta geom.Vec2
	if math.Abs(omega) < omegaStraight {
		delta = geom.Unit(theta).Scale(v * dt)
	} else {
		r := v / omega
		delta = geom.Vec2{
			X: r * (math.Sin(thetaNew) - math.Sin(theta)),
			Y: r * (math.Cos(theta) - math.Cos(thetaNew)),
		}
	}

	return State{
		Pose:  Pose{Pos: s.Pos.Add(delta), Heading: thetaNew},
		V:     v,
		Omega: omega,
	}
}

// Velocity is the world-frame velocity vector of the state.
func (s State) Velocity() geom.Vec2 {
	return geom.Unit(s.Heading).Scale(s.V)
}
