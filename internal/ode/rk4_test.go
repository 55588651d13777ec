package ode

import (
	"math"
	"testing"
)

// Undamped harmonic oscillator: x'' = -x.
type oscillator struct{}

func (oscillator) Derive(x State, u Control, t float64) State {
	return State{x[1], -x[0]}
}

func (oscillator) StateDim() int   { return 2 }
func (oscillator) ControlDim() int { return 0 }

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	x := State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(oscillator{}, x, Control{}, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-6 {
		t.Errorf("position error too large: got %.8f, expected %.8f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-6 {
		t.Errorf("velocity error too large: got %.8f, expected %.8f", x[1], expectedV)
	}
}

func TestEulerFirstOrder(t *testing.T) {
	integ := NewEuler()

	// dx/dt = -x from 1.0; one step of 0.1 lands exactly on 0.9.
	x := integ.Step(decay{}, State{1.0}, Control{}, 0, 0.1)
	if math.Abs(x[0]-0.9) > 1e-12 {
		t.Errorf("expected 0.9, got %f", x[0])
	}
}

type decay struct{}

func (decay) Derive(x State, u Control, t float64) State { return State{-x[0]} }
func (decay) StateDim() int                              { return 1 }
func (decay) ControlDim() int                            { return 0 }

func TestStateIsValid(t *testing.T) {
	if !(State{1, 2}).IsValid() {
		t.Error("finite state reported invalid")
	}
	if (State{1, math.NaN()}).IsValid() {
		t.Error("NaN state reported valid")
	}
	if (State{math.Inf(1)}).IsValid() {
		t.Error("Inf state reported valid")
	}
}
