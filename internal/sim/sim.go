// Package sim drives the line-follower simulation: it interleaves sensor
// sampling, controller updates and dynamics integration on a fixed step,
// and reports how the run ended.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/linesim/internal/control"
	"github.com/san-kum/linesim/internal/robot"
	"github.com/san-kum/linesim/internal/sensor"
	"github.com/san-kum/linesim/internal/track"
)

// ErrBadConfig reports an invalid simulation configuration at
// construction; no run starts with one.
var ErrBadConfig = errors.New("sim: invalid configuration")

// Outcome is how a run ended. Derailment is an expected outcome, not an
// error: the optimizer relies on it to penalize bad gains.
type Outcome int

const (
	Running Outcome = iota
	LapComplete
	Derailed
	BudgetExhausted
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case LapComplete:
		return "lap complete"
	case Derailed:
		return "derailed"
	case BudgetExhausted:
		return "budget exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Config is the timing and termination policy of one run.
type Config struct {
	DtSim        float64 // integration step, s
	MaxTicks     int     // tick budget before BudgetExhausted
	DerailOffset float64 // lateral offset that counts as losing the line, m

	// MotorLag selects the second-order wheel response plant instead of
	// the instant-speed kinematic one.
	MotorLag bool
}

func DefaultConfig() Config {
	return Config{
		DtSim:        1.0 / 240,
		MaxTicks:     240 * 120,
		DerailOffset: 0.3,
	}
}

// Observer is notified after every tick.
type Observer interface {
	OnStep(s robot.State, cmd robot.WheelCommand, offset, t float64)
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(s robot.State, cmd robot.WheelCommand, offset, t float64)
	Value() float64
	Reset()
}

// Result is the per-tick trace and summary of a finished run.
type Result struct {
	Outcome Outcome
	Ticks   int
	Time    float64
	States  []robot.State
	Times   []float64
	Offsets []float64 // signed lateral offset per tick
	Fitness float64
	Metrics map[string]float64
}

// Simulation owns all mutable state of one run: robot state, controller
// state, held command and lap progress. The track is shared read-only, so
// any number of simulations can run concurrently against one Track.
type Simulation struct {
	trk     *track.Track
	plant   robot.Plant
	sensors *sensor.Array
	pid     *control.PID
	cfg     Config

	start robot.State
	state robot.State
	held  robot.WheelCommand

	time     float64
	tick     int
	progress float64
	lastS    float64
	offset   float64
	fitness  float64
	outcome  Outcome

	states  []robot.State
	times   []float64
	offsets []float64

	metrics   []Metric
	observers []Observer
}

// New validates the configuration eagerly and prepares a run starting from
// start. The controller's sample period must be at least the simulation
// step, otherwise samples would be skipped.
func New(trk *track.Track, chassis robot.Chassis, sensors *sensor.Array, pid *control.PID, start robot.State, cfg Config) (*Simulation, error) {
	if trk == nil || sensors == nil || pid == nil {
		return nil, fmt.Errorf("%w: nil collaborator", ErrBadConfig)
	}
	if cfg.DtSim <= 0 {
		return nil, fmt.Errorf("%w: dt_sim %g", ErrBadConfig, cfg.DtSim)
	}
	if pid.Period() < cfg.DtSim {
		return nil, fmt.Errorf("%w: controller period %g finer than dt_sim %g", ErrBadConfig, pid.Period(), cfg.DtSim)
	}
	if cfg.MaxTicks <= 0 {
		return nil, fmt.Errorf("%w: max ticks %d", ErrBadConfig, cfg.MaxTicks)
	}
	if cfg.DerailOffset <= 0 {
		return nil, fmt.Errorf("%w: derail offset %g", ErrBadConfig, cfg.DerailOffset)
	}
	var plant robot.Plant
	if cfg.MotorLag {
		plant = robot.NewLagPlant(chassis)
	} else {
		plant = robot.NewKinematicPlant(chassis)
	}
	s := &Simulation{
		trk:     trk,
		plant:   plant,
		sensors: sensors,
		pid:     pid,
		cfg:     cfg,
		start:   start,
	}
	s.Reset()
	return s, nil
}

// StartState builds the usual initial condition: the robot at rest on the
// track's start point, facing along the line.
func StartState(trk *track.Track) robot.State {
	pos, heading := trk.Start()
	return robot.State{Pose: robot.Pose{Pos: pos, Heading: heading}}
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Reset rewinds the run to its initial condition, clearing the trace and
// all controller state. The same Simulation can then replay
// deterministically.
func (s *Simulation) Reset() {
	s.state = s.start
	s.plant.Reset(s.start)
	s.held = robot.WheelCommand{}
	s.time = 0
	s.tick = 0
	s.progress = 0
	s.lastS = s.trk.Nearest(s.start.Pos).S
	s.offset = s.trk.Nearest(s.start.Pos).Offset
	s.fitness = 0
	s.outcome = Running
	s.states = s.states[:0]
	s.times = s.times[:0]
	s.offsets = s.offsets[:0]
	s.pid.Reset()
	for _, m := range s.metrics {
		m.Reset()
	}
}

func (s *Simulation) State() robot.State { return s.state }
func (s *Simulation) Time() float64      { return s.time }
func (s *Simulation) Tick() int          { return s.tick }
func (s *Simulation) Outcome() Outcome   { return s.outcome }
func (s *Simulation) Offset() float64    { return s.offset }
func (s *Simulation) Config() Config     { return s.cfg }

// Progress is the fraction of one lap covered so far.
func (s *Simulation) Progress() float64 { return s.progress / s.trk.Length() }

// Step advances the run by one dt_sim tick: read sensors at the current
// pose, give the controller a chance to sample (zero-order hold
// otherwise), then integrate the dynamics under the held command. Returns
// the outcome, which stays Running until a termination condition fires.
func (s *Simulation) Step() Outcome {
	if s.outcome != Running {
		return s.outcome
	}

	readings := s.sensors.Read(s.state.Pose, s.trk)
	errEst := s.sensors.Error(readings)
	if cmd, ok := s.pid.MaybeUpdate(s.time, errEst); ok {
		s.held = cmd
	}

	s.state = s.plant.Step(s.held, s.cfg.DtSim)
	s.time += s.cfg.DtSim
	s.tick++

	near := s.trk.Nearest(s.state.Pos)
	s.offset = near.Offset
	s.progress += wrapDelta(near.S-s.lastS, s.trk.Length())
	s.lastS = near.S

	s.accumulateFitness(near)

	s.states = append(s.states, s.state)
	s.times = append(s.times, s.time)
	s.offsets = append(s.offsets, s.offset)

	for _, m := range s.metrics {
		m.Observe(s.state, s.held, s.offset, s.time)
	}
	for _, o := range s.observers {
		o.OnStep(s.state, s.held, s.offset, s.time)
	}

	switch {
	case math.Abs(s.offset) > s.cfg.DerailOffset:
		s.outcome = Derailed
	case s.progress >= s.trk.Length():
		s.outcome = LapComplete
	case s.tick >= s.cfg.MaxTicks:
		s.outcome = BudgetExhausted
	}
	return s.outcome
}

// accumulateFitness integrates the optimizer's reward: forward speed along
// the line, minus the squared distance to the moving reference point,
// minus a heavy penalty on lateral offset.
func (s *Simulation) accumulateFitness(near track.NearestPoint) {
	velReward := s.state.Velocity().Dot(near.Tangent)
	ref := s.trk.PointAt(s.pid.Params().BaseSpeed * s.time)
	d := ref.Sub(s.state.Pos)
	refErr := d.Dot(d)
	s.fitness += (velReward - refErr - 100*s.offset*s.offset) * s.cfg.DtSim
}

// Run steps to termination. Context cancellation aborts the run and
// returns the trace so far along with the context's error; the simulation
// state stays consistent and can be Reset and rerun.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	for s.outcome == Running {
		select {
		case <-ctx.Done():
			return s.Result(), ctx.Err()
		default:
		}
		s.Step()
	}
	return s.Result(), nil
}

// Result snapshots the trace and summary so far. The slices alias the
// simulation's internal trace; callers must copy before the next Reset.
func (s *Simulation) Result() *Result {
	r := &Result{
		Outcome: s.outcome,
		Ticks:   s.tick,
		Time:    s.time,
		States:  s.states,
		Times:   s.times,
		Offsets: s.offsets,
		Fitness: s.fitness,
		Metrics: make(map[string]float64, len(s.metrics)),
	}
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
	return r
}

// wrapDelta maps an arc-length difference onto (-L/2, L/2], undoing the
// wrap at the loop seam.
func wrapDelta(d, length float64) float64 {
	if d > length/2 {
		d -= length
	} else if d < -length/2 {
		d += length
	}
	return d
}
