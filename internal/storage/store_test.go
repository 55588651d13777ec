package storage

import (
	"testing"

	"github.com/san-kum/linesim/internal/control"
	"github.com/san-kum/linesim/internal/geom"
	"github.com/san-kum/linesim/internal/robot"
	"github.com/san-kum/linesim/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Outcome: sim.LapComplete,
		Ticks:   3,
		Time:    3.0 / 240,
		States: []robot.State{
			{Pose: robot.Pose{Pos: geom.Vec2{X: 0, Y: 0}, Heading: 0}, V: 1},
			{Pose: robot.Pose{Pos: geom.Vec2{X: 0.004, Y: 0}, Heading: 0.01}, V: 1},
			{Pose: robot.Pose{Pos: geom.Vec2{X: 0.008, Y: 0.001}, Heading: 0.02}, V: 1},
		},
		Times:   []float64{1.0 / 240, 2.0 / 240, 3.0 / 240},
		Offsets: []float64{0, 0.001, -0.002},
		Fitness: 12.5,
		Metrics: map[string]float64{"cross_track_rms": 0.0015},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	params := control.Params{Kp: 3.1, Ki: 73, Kd: 11.2, BaseSpeed: 1.67}
	cfg := sim.DefaultConfig()
	id, err := store.Save("predefined", params, 1.0/120, cfg, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	meta, err := store.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Track != "predefined" {
		t.Errorf("track: expected predefined, got %s", meta.Track)
	}
	if meta.Outcome != sim.LapComplete.String() {
		t.Errorf("outcome: expected %s, got %s", sim.LapComplete, meta.Outcome)
	}
	if meta.Kp != 3.1 || meta.BaseSpeed != 1.67 {
		t.Errorf("gains not preserved: %+v", meta)
	}
	if meta.Metrics["cross_track_rms"] != 0.0015 {
		t.Errorf("metrics not preserved: %v", meta.Metrics)
	}

	trace, err := store.LoadTrace(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 3 {
		t.Fatalf("expected 3 trace points, got %d", len(trace))
	}
	if trace[2].Offset != -0.002 {
		t.Errorf("offset: expected -0.002, got %g", trace[2].Offset)
	}
	if trace[1].X != 0.004 {
		t.Errorf("x: expected 0.004, got %g", trace[1].X)
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	params := control.Params{Kp: 1, BaseSpeed: 1}
	cfg := sim.DefaultConfig()
	first, err := store.Save("circle", params, 1.0/120, cfg, sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Save("circle", params, 1.0/120, cfg, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
}

func TestListEmptyStore(t *testing.T) {
	store := New(t.TempDir() + "/missing")
	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
