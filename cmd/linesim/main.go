package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/linesim/internal/config"
	"github.com/san-kum/linesim/internal/control"
	"github.com/san-kum/linesim/internal/optim"
	"github.com/san-kum/linesim/internal/robot"
	"github.com/san-kum/linesim/internal/sensor"
	"github.com/san-kum/linesim/internal/sim"
	"github.com/san-kum/linesim/internal/storage"
	"github.com/san-kum/linesim/internal/track"
	"github.com/san-kum/linesim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	trackName  string
	kp         float64
	ki         float64
	kd         float64
	baseSpeed  float64
	dtSim      float64
	dtCtrl     float64
	maxTicks   int
	derail     float64
	motorLag   bool
	noSave     bool
	// Optimizer
	workers int
	factors []float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "linesim",
		Short: "line follower robot simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".linesim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation to completion",
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "skip persisting the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live terminal visualization",
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search controller gains",
		RunE:  runOptimize,
	}
	addSimFlags(optimizeCmd)
	optimizeCmd.Flags().IntVar(&workers, "workers", 0, "parallel evaluations (0 = NumCPU)")
	optimizeCmd.Flags().Float64SliceVar(&factors, "factors", []float64{0.5, 0.75, 1, 1.5, 2},
		"multipliers applied around the current gains")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "render a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the run trace as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	tracksCmd := &cobra.Command{
		Use:   "tracks",
		Short: "list builtin tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range track.Builtins() {
				fmt.Println(name)
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, optimizeCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, tracksCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset configuration")
	cmd.Flags().StringVar(&trackName, "track", "", "builtin track name or track file path")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	cmd.Flags().Float64Var(&baseSpeed, "speed", config.DefaultSpeed, "base wheel speed (m/s)")
	cmd.Flags().Float64Var(&dtSim, "dt-sim", config.DefaultDtSim, "physics timestep (s)")
	cmd.Flags().Float64Var(&dtCtrl, "dt-ctrl", config.DefaultDtCtrl, "controller sampling period (s)")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", config.DefaultMaxTicks, "tick budget")
	cmd.Flags().Float64Var(&derail, "derail", config.DefaultDerailOffset, "derailment offset (m)")
	cmd.Flags().BoolVar(&motorLag, "motor-lag", false, "simulate second-order wheel response")
}

// loadConfig resolves the layered configuration: defaults, then preset,
// then config file, then any explicitly changed CLI flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("track") {
		cfg.Track = trackName
	}
	if cmd.Flags().Changed("kp") {
		cfg.Controller.Kp = kp
	}
	if cmd.Flags().Changed("ki") {
		cfg.Controller.Ki = ki
	}
	if cmd.Flags().Changed("kd") {
		cfg.Controller.Kd = kd
	}
	if cmd.Flags().Changed("speed") {
		cfg.Controller.BaseSpeed = baseSpeed
	}
	if cmd.Flags().Changed("dt-sim") {
		cfg.DtSim = dtSim
	}
	if cmd.Flags().Changed("dt-ctrl") {
		cfg.DtCtrl = dtCtrl
	}
	if cmd.Flags().Changed("max-ticks") {
		cfg.MaxTicks = maxTicks
	}
	if cmd.Flags().Changed("derail") {
		cfg.DerailOffset = derail
	}
	if cmd.Flags().Changed("motor-lag") {
		cfg.MotorLag = motorLag
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildTrack(cfg *config.Config) (*track.Track, error) {
	if trk, ok := track.Builtin(cfg.Track); ok {
		return trk, nil
	}
	if _, err := os.Stat(cfg.Track); err == nil {
		return track.LoadFile(cfg.Track)
	}
	return nil, fmt.Errorf("unknown track %q (builtins: %v)", cfg.Track, track.Builtins())
}

func buildSimulation(cfg *config.Config) (*sim.Simulation, *track.Track, error) {
	trk, err := buildTrack(cfg)
	if err != nil {
		return nil, nil, err
	}

	sensors, err := sensor.New(cfg.Sensors.Count, cfg.Sensors.Spacing, cfg.Sensors.Forward, cfg.Sensors.MaxRange)
	if err != nil {
		return nil, nil, err
	}

	params := control.Params{
		Kp:        cfg.Controller.Kp,
		Ki:        cfg.Controller.Ki,
		Kd:        cfg.Controller.Kd,
		BaseSpeed: cfg.Controller.BaseSpeed,
	}
	pid, err := control.NewPID(params, cfg.DtCtrl, cfg.Controller.WindupLimit)
	if err != nil {
		return nil, nil, err
	}

	chassis := robot.Chassis{Wheelbase: cfg.Chassis.Wheelbase, WheelRadius: cfg.Chassis.WheelRadius}
	simCfg := sim.Config{DtSim: cfg.DtSim, MaxTicks: cfg.MaxTicks, DerailOffset: cfg.DerailOffset, MotorLag: cfg.MotorLag}

	s, err := sim.New(trk, chassis, sensors, pid, sim.StartState(trk), simCfg)
	if err != nil {
		return nil, nil, err
	}
	return s, trk, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, _, err := buildSimulation(cfg)
	if err != nil {
		return err
	}
	s.AddMetric(sim.NewCrossTrackRMS())
	s.AddMetric(sim.NewControlEffort())

	fmt.Printf("running on %s track...\n", cfg.Track)
	start := time.Now()

	result, err := s.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("outcome: %s\n", result.Outcome)
	fmt.Printf("ticks: %d (%.2fs simulated)\n", result.Ticks, result.Time)
	fmt.Printf("fitness: %.3f\n", result.Fitness)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	params := control.Params{
		Kp: cfg.Controller.Kp, Ki: cfg.Controller.Ki, Kd: cfg.Controller.Kd,
		BaseSpeed: cfg.Controller.BaseSpeed,
	}
	simCfg := sim.Config{DtSim: cfg.DtSim, MaxTicks: cfg.MaxTicks, DerailOffset: cfg.DerailOffset, MotorLag: cfg.MotorLag}
	runID, err := st.Save(cfg.Track, params, cfg.DtCtrl, simCfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, trk, err := buildSimulation(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(s, trk, cfg.Track))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	trk, err := buildTrack(cfg)
	if err != nil {
		return err
	}
	sensors, err := sensor.New(cfg.Sensors.Count, cfg.Sensors.Spacing, cfg.Sensors.Forward, cfg.Sensors.MaxRange)
	if err != nil {
		return err
	}

	center := control.Params{
		Kp: cfg.Controller.Kp, Ki: cfg.Controller.Ki, Kd: cfg.Controller.Kd,
		BaseSpeed: cfg.Controller.BaseSpeed,
	}
	grid := optim.Around(center, factors)
	grid.Workers = workers

	chassis := robot.Chassis{Wheelbase: cfg.Chassis.Wheelbase, WheelRadius: cfg.Chassis.WheelRadius}
	simCfg := sim.Config{DtSim: cfg.DtSim, MaxTicks: cfg.MaxTicks, DerailOffset: cfg.DerailOffset, MotorLag: cfg.MotorLag}
	eval := optim.SimEvaluator(trk, chassis, sensors, cfg.DtCtrl, cfg.Controller.WindupLimit, simCfg)

	start := time.Now()
	best, all, err := optim.Search(context.Background(), grid, eval)
	if err != nil {
		return err
	}

	completed := 0
	for _, c := range all {
		if c.Outcome == sim.LapComplete {
			completed++
		}
	}

	fmt.Printf("\nsearched %d candidates in %v (%d completed a lap)\n", len(all), time.Since(start), completed)
	fmt.Printf("best: kp=%.6g ki=%.6g kd=%.6g speed=%.6g\n",
		best.Params.Kp, best.Params.Ki, best.Params.Kd, best.Params.BaseSpeed)
	fmt.Printf("fitness=%.3f outcome=%s ticks=%d\n", best.Fitness, best.Outcome, best.Ticks)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTRACK\tTIME\tOUTCOME\tTICKS\tFITNESS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\n",
			run.ID,
			run.Track,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Outcome,
			run.Ticks,
			run.Fitness,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to plot")
	}

	trk, ok := track.Builtin(meta.Track)
	if !ok {
		trk, err = track.LoadFile(meta.Track)
		if err != nil {
			return fmt.Errorf("track %q unavailable: %w", meta.Track, err)
		}
	}

	fmt.Println(viz.RenderRun(trk, meta, trace, 90, 30))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	if err := w.Write([]string{"time", "x", "y", "heading", "offset"}); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, p := range trace {
		if err := w.Write([]string{f(p.Time), f(p.X), f(p.Y), f(p.Heading), f(p.Offset)}); err != nil {
			return err
		}
	}
	return nil
}
