package control

import (
	"errors"
	"math"
	"testing"
)

func TestNewPIDRejectsBadPeriod(t *testing.T) {
	for _, period := range []float64{0, -0.01} {
		_, err := NewPID(Params{Kp: 1}, period, 0)
		if !errors.Is(err, ErrBadTiming) {
			t.Errorf("period %g: expected ErrBadTiming, got %v", period, err)
		}
	}
}

func TestPureProportionalResponse(t *testing.T) {
	const E = 0.02
	c, err := NewPID(Params{Kp: 3.0, BaseSpeed: 1.0}, 0.01, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Constant error across N samples: the turn command is Kp*E on every
	// one, no drift from the integral or derivative paths.
	for i := 0; i < 50; i++ {
		cmd, ok := c.MaybeUpdate(float64(i)*0.01, E)
		if !ok {
			t.Fatalf("sample %d did not fire", i)
		}
		turn := (cmd.Right - cmd.Left) / 2
		if math.Abs(turn-3.0*E) > 1e-12 {
			t.Fatalf("sample %d: turn %g, want %g", i, turn, 3.0*E)
		}
		if math.Abs((cmd.Left+cmd.Right)/2-1.0) > 1e-12 {
			t.Fatalf("sample %d: base speed drifted", i)
		}
	}
}

func TestZeroOrderHold(t *testing.T) {
	c, err := NewPID(Params{Kp: 1, BaseSpeed: 0.5}, 0.1, 0)
	if err != nil {
		t.Fatal(err)
	}

	first, ok := c.MaybeUpdate(0, 0.5)
	if !ok {
		t.Fatal("first sample did not fire")
	}

	// Calls between sample boundaries return the held command.
	for _, tm := range []float64{0.02, 0.05, 0.09} {
		cmd, ok := c.MaybeUpdate(tm, 123.0) // error must be ignored
		if ok {
			t.Errorf("t=%g fired between boundaries", tm)
		}
		if cmd != first {
			t.Errorf("t=%g: held command changed", tm)
		}
	}

	// The next boundary fires again.
	if _, ok := c.MaybeUpdate(0.1, 0.5); !ok {
		t.Error("t=0.1 did not fire")
	}
}

func TestIntegralWindupClamped(t *testing.T) {
	c, err := NewPID(Params{Ki: 1}, 0.1, 2.0)
	if err != nil {
		t.Fatal(err)
	}

	// Large sustained error: integral contribution must stop at the
	// windup limit.
	var turn float64
	for i := 0; i < 1000; i++ {
		cmd, ok := c.MaybeUpdate(float64(i)*0.1, 50.0)
		if ok {
			turn = (cmd.Right - cmd.Left) / 2
		}
	}
	if math.Abs(turn) > 2.0+1e-9 {
		t.Errorf("turn %g exceeds windup limit", turn)
	}
}

func TestDerivativeKickSuppressedOnFirstSample(t *testing.T) {
	c, err := NewPID(Params{Kd: 100}, 0.01, 0)
	if err != nil {
		t.Fatal(err)
	}

	cmd, ok := c.MaybeUpdate(0, 1.0)
	if !ok {
		t.Fatal("first sample did not fire")
	}
	// No previous error yet, so the derivative term must be zero.
	if cmd.Left != 0 || cmd.Right != 0 {
		t.Errorf("derivative kicked on first sample: %+v", cmd)
	}
}

func TestResetClearsState(t *testing.T) {
	c, err := NewPID(Params{Ki: 1, Kd: 1}, 0.1, 0)
	if err != nil {
		t.Fatal(err)
	}
	c.MaybeUpdate(0, 1.0)
	c.MaybeUpdate(0.1, 2.0)
	c.Reset()

	// After reset the controller behaves like a fresh one.
	cmd, ok := c.MaybeUpdate(0, 0.5)
	if !ok {
		t.Fatal("post-reset sample did not fire")
	}
	want := 0.5 * 0.1 // Ki * err * period, no derivative
	turn := (cmd.Right - cmd.Left) / 2
	if math.Abs(turn-want) > 1e-12 {
		t.Errorf("post-reset turn %g, want %g", turn, want)
	}
}
