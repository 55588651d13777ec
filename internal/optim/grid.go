// Package optim searches controller gains by replaying the simulation
// over a parameter grid. Candidate runs are independent, so they are
// evaluated on a pool of goroutines sharing one read-only track.
package optim

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/linesim/internal/control"
	"github.com/san-kum/linesim/internal/robot"
	"github.com/san-kum/linesim/internal/sensor"
	"github.com/san-kum/linesim/internal/sim"
	"github.com/san-kum/linesim/internal/track"
)

// ErrEmptyGrid reports a grid with no candidates.
var ErrEmptyGrid = errors.New("optim: empty parameter grid")

// Candidate is one evaluated parameter set.
type Candidate struct {
	Params  control.Params
	Fitness float64
	Outcome sim.Outcome
	Ticks   int
}

// Grid is the cartesian set of gains to sweep.
type Grid struct {
	Kp    []float64
	Ki    []float64
	Kd    []float64
	Speed []float64

	// Workers caps the evaluation goroutines; 0 means GOMAXPROCS.
	Workers int
}

func (g Grid) candidates() []control.Params {
	out := make([]control.Params, 0, len(g.Kp)*len(g.Ki)*len(g.Kd)*len(g.Speed))
	for _, kp := range g.Kp {
		for _, ki := range g.Ki {
			for _, kd := range g.Kd {
				for _, speed := range g.Speed {
					out = append(out, control.Params{Kp: kp, Ki: ki, Kd: kd, BaseSpeed: speed})
				}
			}
		}
	}
	return out
}

// Evaluator runs one candidate to completion and scores it.
type Evaluator func(ctx context.Context, params control.Params) (Candidate, error)

// SimEvaluator builds the standard evaluator: a fresh simulation per
// candidate on the shared track, starting from the track's start pose.
// Derailed and exhausted runs are not errors; their (poor) fitness is the
// penalty signal the search needs.
func SimEvaluator(trk *track.Track, chassis robot.Chassis, sensors *sensor.Array, ctrlPeriod, windupLimit float64, cfg sim.Config) Evaluator {
	return func(ctx context.Context, params control.Params) (Candidate, error) {
		pid, err := control.NewPID(params, ctrlPeriod, windupLimit)
		if err != nil {
			return Candidate{}, err
		}
		s, err := sim.New(trk, chassis, sensors, pid, sim.StartState(trk), cfg)
		if err != nil {
			return Candidate{}, err
		}
		res, err := s.Run(ctx)
		if err != nil {
			return Candidate{}, err
		}
		return Candidate{
			Params:  params,
			Fitness: res.Fitness,
			Outcome: res.Outcome,
			Ticks:   res.Ticks,
		}, nil
	}
}

// Search evaluates every grid point and returns the candidate with the
// highest fitness plus the full ranking. Cancelling the context stops the
// sweep early.
func Search(ctx context.Context, grid Grid, eval Evaluator) (Candidate, []Candidate, error) {
	params := grid.candidates()
	if len(params) == 0 {
		return Candidate{}, nil, ErrEmptyGrid
	}

	workers := grid.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(params) {
		workers = len(params)
	}

	log := logrus.WithField("candidates", len(params))
	log.Info("starting grid search")

	jobs := make(chan control.Params)
	results := make([]Candidate, 0, len(params))
	errs := make([]error, 0)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				cand, err := eval(ctx, p)
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else {
					results = append(results, cand)
					if len(results)%50 == 0 {
						log.WithField("done", len(results)).Info("grid search progress")
					}
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, p := range params {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Candidate{}, results, err
	}
	for _, err := range errs {
		if err != nil {
			return Candidate{}, results, err
		}
	}

	best := lo.MaxBy(results, func(a, b Candidate) bool {
		return a.Fitness > b.Fitness || math.IsNaN(b.Fitness)
	})
	log.WithFields(logrus.Fields{
		"kp":      best.Params.Kp,
		"ki":      best.Params.Ki,
		"kd":      best.Params.Kd,
		"speed":   best.Params.BaseSpeed,
		"fitness": best.Fitness,
		"outcome": best.Outcome.String(),
	}).Info("grid search finished")

	return best, results, nil
}

// Around builds a small grid centered on p, scaling each gain by the
// given factors. Useful for refining a known-good tuning.
func Around(p control.Params, factors []float64) Grid {
	scale := func(v float64) []float64 {
		return lo.Map(factors, func(f float64, _ int) float64 { return v * f })
	}
	return Grid{
		Kp:    scale(p.Kp),
		Ki:    scale(p.Ki),
		Kd:    scale(p.Kd),
		Speed: scale(p.BaseSpeed),
	}
}
