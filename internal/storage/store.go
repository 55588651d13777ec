// Package storage persists finished runs under a data directory, one
// directory per run: metadata as JSON and the state trace as CSV.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/linesim/internal/control"
	"github.com/san-kum/linesim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Track     string             `json:"track"`
	Outcome   string             `json:"outcome"`
	Ticks     int                `json:"ticks"`
	Duration  float64            `json:"duration_s"`
	DtSim     float64            `json:"dt_sim"`
	DtCtrl    float64            `json:"dt_ctrl"`
	Kp        float64            `json:"kp"`
	Ki        float64            `json:"ki"`
	Kd        float64            `json:"kd"`
	BaseSpeed float64            `json:"base_speed"`
	Fitness   float64            `json:"fitness"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// TracePoint is one CSV row of a stored trace.
type TracePoint struct {
	Time    float64
	X, Y    float64
	Heading float64
	Offset  float64
}

// Save writes one finished run and returns its id.
func (s *Store) Save(trackName string, params control.Params, dtCtrl float64, cfg sim.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Track:     trackName,
		Outcome:   result.Outcome.String(),
		Ticks:     result.Ticks,
		Duration:  result.Time,
		DtSim:     cfg.DtSim,
		DtCtrl:    dtCtrl,
		Kp:        params.Kp,
		Ki:        params.Ki,
		Kd:        params.Kd,
		BaseSpeed: params.BaseSpeed,
		Fitness:   result.Fitness,
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"time", "x", "y", "heading", "offset"}); err != nil {
		return "", err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for i, st := range result.States {
		row := []string{f(result.Times[i]), f(st.Pos.X), f(st.Pos.Y), f(st.Heading), f(result.Offsets[i])}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return runID, w.Error()
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue // skip foreign directories
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrace reads back a stored state trace.
func (s *Store) LoadTrace(runID string) ([]TracePoint, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "trace.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("run %s: empty trace", runID)
	}

	points := make([]TracePoint, 0, len(rows)-1)
	for _, row := range rows[1:] { // skip header
		if len(row) != 5 {
			return nil, fmt.Errorf("run %s: malformed trace row %v", runID, row)
		}
		vals := make([]float64, 5)
		for i, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: %w", runID, err)
			}
			vals[i] = v
		}
		points = append(points, TracePoint{
			Time: vals[0], X: vals[1], Y: vals[2], Heading: vals[3], Offset: vals[4],
		})
	}
	return points, nil
}
