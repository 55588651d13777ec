package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/linesim/internal/geom"
	"github.com/san-kum/linesim/internal/sim"
	"github.com/san-kum/linesim/internal/track"
)

const (
	canvasWidth  = 80
	canvasHeight = 28
	frameRate    = 30
	trailLimit   = 4000
	chartHistory = 600
)

var (
	canvasPanel = lipgloss.NewStyle().Padding(1, 2)
	statsPanel  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).Width(42)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model is the live view: it owns a simulation and steps it in real time,
// several physics ticks per rendered frame.
type Model struct {
	s       *sim.Simulation
	trk     *track.Track
	name    string
	canvas  *Canvas
	vp      Viewport
	running bool
	speedup float64
	trail   []geom.Vec2
	offsets []float64
}

func NewModel(s *sim.Simulation, trk *track.Track, trackName string) Model {
	return Model{
		s:       s,
		trk:     trk,
		name:    trackName,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		vp:      FitViewport(trk, canvasWidth, canvasHeight, 0.3),
		running: true,
		speedup: 1,
		trail:   make([]geom.Vec2, 0, trailLimit),
		offsets: make([]float64, 0, chartHistory),
	}
}

func frameTick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return frameTick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.s.Reset()
			m.trail = m.trail[:0]
			m.offsets = m.offsets[:0]
			m.running = true
		case "+", "=":
			if m.speedup < 8 {
				m.speedup *= 2
			}
		case "-", "_":
			if m.speedup > 0.25 {
				m.speedup /= 2
			}
		}
	case TickMsg:
		if m.running && m.s.Outcome() == sim.Running {
			m.advance()
		}
		return m, frameTick()
	}
	return m, nil
}

// advance runs enough physics ticks to cover one frame of wall time.
func (m *Model) advance() {
	dt := m.s.Config().DtSim
	steps := int(m.speedup / (frameRate * dt))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		if m.s.Step() != sim.Running {
			break
		}
		m.trail = append(m.trail, m.s.State().Pos)
		m.offsets = append(m.offsets, m.s.Offset())
	}
	if len(m.trail) > trailLimit {
		m.trail = m.trail[len(m.trail)-trailLimit:]
	}
	if len(m.offsets) > chartHistory {
		m.offsets = m.offsets[len(m.offsets)-chartHistory:]
	}
}

func (m Model) View() string {
	m.canvas.Clear()
	DrawTrack(m.canvas, m.vp, m.trk)
	DrawTrajectory(m.canvas, m.vp, m.trail)
	st := m.s.State()
	DrawRobot(m.canvas, m.vp, st.Pos, st.Heading)

	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(m.name)) + "\n")
	b.WriteString(m.status() + "\n\n")

	if len(m.offsets) > 1 {
		chart := asciigraph.Plot(m.offsets,
			asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("offset"))
		b.WriteString(chartStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs (x%g)", m.s.Time(), m.speedup))
	row("Offset", fmt.Sprintf("%+.4f m", m.s.Offset()))
	row("Progress", fmt.Sprintf("%.1f%%", m.s.Progress()*100))
	row("Speed", fmt.Sprintf("%.2f m/s", st.V))

	b.WriteString(helpStyle.Render("\nSP:Pause R:Reset Q:Quit +/-:Speed"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		canvasPanel.Render(m.canvas.String()),
		statsPanel.Render(b.String()))
}

func (m Model) status() string {
	switch {
	case m.s.Outcome() == sim.LapComplete:
		return goodStyle.Render("LAP COMPLETE")
	case m.s.Outcome() == sim.Derailed:
		return badStyle.Render("DERAILED")
	case m.s.Outcome() == sim.BudgetExhausted:
		return badStyle.Render("OUT OF TIME")
	case !m.running:
		return "PAUSED"
	default:
		return "RUNNING"
	}
}
