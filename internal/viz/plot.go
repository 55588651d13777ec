package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/linesim/internal/geom"
	"github.com/san-kum/linesim/internal/storage"
	"github.com/san-kum/linesim/internal/track"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	chartStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

// RenderRun draws the track with the recorded trajectory overlaid, the
// offset trace chart, and a metadata summary.
func RenderRun(trk *track.Track, meta *storage.RunMetadata, trace []storage.TracePoint, width, height int) string {
	canvas := NewCanvas(width, height)
	vp := FitViewport(trk, width, height, 0.3)
	DrawTrack(canvas, vp, trk)

	points := make([]geom.Vec2, len(trace))
	offsets := make([]float64, len(trace))
	for i, p := range trace {
		points[i] = geom.Vec2{X: p.X, Y: p.Y}
		offsets[i] = p.Offset
	}
	DrawTrajectory(canvas, vp, points)
	if n := len(trace); n > 0 {
		DrawRobot(canvas, vp, points[n-1], trace[n-1].Heading)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("RUN "+meta.ID) + "\n\n")
	b.WriteString(canvas.String())
	b.WriteString(OffsetChart(offsets, width-10))
	b.WriteString("\n" + Summary(meta))
	return b.String()
}

// OffsetChart plots the signed lateral offset over the run.
func OffsetChart(offsets []float64, width int) string {
	if len(offsets) < 2 {
		return ""
	}
	// Downsample so the chart stays readable for long runs.
	if len(offsets) > width*4 {
		step := len(offsets) / (width * 4)
		sampled := make([]float64, 0, width*4)
		for i := 0; i < len(offsets); i += step {
			sampled = append(sampled, offsets[i])
		}
		offsets = sampled
	}
	chart := asciigraph.Plot(offsets,
		asciigraph.Height(8),
		asciigraph.Width(width),
		asciigraph.Caption("lateral offset (m)"))
	return chartStyle.Render(chart)
}

// Summary formats run metadata as a label/value panel.
func Summary(meta *storage.RunMetadata) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	outcome := meta.Outcome
	if outcome == "lap complete" {
		outcome = goodStyle.Render(outcome)
	} else if outcome == "derailed" {
		outcome = badStyle.Render(outcome)
	}
	b.WriteString(labelStyle.Render("Outcome") + outcome + "\n")
	row("Track", meta.Track)
	row("Duration", fmt.Sprintf("%.2fs (%d ticks)", meta.Duration, meta.Ticks))
	row("Gains", fmt.Sprintf("kp=%.4g ki=%.4g kd=%.4g", meta.Kp, meta.Ki, meta.Kd))
	row("Base speed", fmt.Sprintf("%.3g m/s", meta.BaseSpeed))
	row("Fitness", fmt.Sprintf("%.3f", meta.Fitness))

	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row(name, fmt.Sprintf("%.5g", meta.Metrics[name]))
	}
	return b.String()
}
