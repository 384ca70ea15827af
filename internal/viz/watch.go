package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/tetrasim/internal/sim"
)

const (
	canvasWidth   = 60
	canvasHeight  = 22
	energyHistory = 300
)

type tickMsg time.Time

type frameMsg struct {
	vis  sim.Visualization
	snap sim.Snapshot
	err  error
}

type actionMsg struct{ err error }

// Model is the bubbletea model of the watch view. It polls the API on every
// tick and renders particles in (w1, w2, w3) space with w4 as head size.
type Model struct {
	client   *Client
	interval time.Duration

	scene  *Scene
	theme  Theme
	frame  sim.Visualization
	snap   sim.Snapshot
	energy []float64
	stable map[string][]float64
	err    error

	lastTime float64
	showHelp bool
}

func NewModel(client *Client, interval time.Duration, theme string) Model {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return Model{
		client:   client,
		interval: interval,
		scene:    NewScene(canvasWidth, canvasHeight),
		theme:    GetTheme(theme),
		stable:   make(map[string][]float64),
		lastTime: -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) fetch() tea.Cmd {
	client := m.client
	timeout := m.interval * 5
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		vis, err := client.Visualization(ctx)
		if err != nil {
			return frameMsg{err: err}
		}
		snap, err := client.State(ctx)
		return frameMsg{vis: vis, snap: snap, err: err}
	}
}

func (m Model) action(fn func(context.Context) error) tea.Cmd {
	timeout := m.interval * 5
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return actionMsg{err: fn(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())
	case frameMsg:
		m.err = msg.err
		if msg.err == nil {
			m.apply(msg.vis, msg.snap)
		}
	case actionMsg:
		m.err = msg.err
		return m, m.fetch()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.snap.IsRunning {
			return m, m.action(m.client.Stop)
		}
		return m, m.action(m.client.Start)
	case "r":
		m.scene.Reset()
		m.energy = m.energy[:0]
		m.stable = make(map[string][]float64)
		return m, m.action(m.client.Reset)
	case "n":
		return m, m.action(func(ctx context.Context) error {
			_, err := m.client.CreateRandom(ctx)
			return err
		})
	case "d":
		if n := len(m.frame.Particles); n > 0 {
			id := m.frame.Particles[n-1].ID
			return m, m.action(func(ctx context.Context) error { return m.client.Remove(ctx, id) })
		}
	case "left", "h":
		m.scene.Camera.Orbit(0, -0.1)
	case "right", "l":
		m.scene.Camera.Orbit(0, 0.1)
	case "up", "k":
		m.scene.Camera.Orbit(-0.1, 0)
	case "down", "j":
		m.scene.Camera.Orbit(0.1, 0)
	case "+", "=":
		m.scene.Camera.ZoomIn()
	case "-", "_":
		m.scene.Camera.ZoomOut()
	case "t":
		m.theme = m.theme.Next()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// apply folds a polled frame into the model. Repeated frames of a paused
// simulation do not extend the charts.
func (m *Model) apply(vis sim.Visualization, snap sim.Snapshot) {
	m.frame, m.snap = vis, snap
	if vis.Timestamp == m.lastTime {
		return
	}
	if vis.Timestamp < m.lastTime {
		m.scene.Reset()
		m.energy = m.energy[:0]
	}
	m.lastTime = vis.Timestamp

	m.scene.Push(vis)
	m.energy = appendCapped(m.energy, snap.GlobalMetrics.TotalEnergy, energyHistory)

	live := make(map[string][]float64, len(vis.Particles))
	for _, p := range vis.Particles {
		live[p.ID] = appendCapped(m.stable[p.ID], p.Stability, 20)
	}
	m.stable = live
}

func appendCapped(s []float64, v float64, limit int) []float64 {
	s = append(s, v)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}

func (m Model) View() string {
	canvas := panelStyle.Render(m.scene.Render(m.frame))

	var s strings.Builder
	s.WriteString(m.theme.header().Render("TETRASIM") + "  " + m.theme.status(m.snap.IsRunning) + "\n\n")

	gm := m.snap.GlobalMetrics
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.snap.SimulationTime))
	row("Particles", fmt.Sprintf("%d", m.snap.OscillatorCount))
	row("FPS", fmt.Sprintf("%.1f", gm.CurrentFPS))
	row("Energy", fmt.Sprintf("%.3f", gm.TotalEnergy))
	row("Stability", fmt.Sprintf("%.3f", gm.AverageStability))
	row("Coupling", fmt.Sprintf("%.3f", gm.GlobalCoupling))
	row("Noise", fmt.Sprintf("%.3f", gm.EnvironmentalNoise))

	if len(m.energy) > 1 {
		s.WriteString("\n" + asciigraph.Plot(m.energy,
			asciigraph.Height(5),
			asciigraph.Width(32),
			asciigraph.Caption("total energy"),
		) + "\n")
	}

	s.WriteString("\n")
	for _, p := range m.frame.Particles {
		marker := lipgloss.NewStyle().Foreground(m.theme.Intensity(p.ColorIntensity)).Render("●")
		s.WriteString(fmt.Sprintf("%s %-18s %s %s\n",
			marker, truncate(p.ID, 18), m.theme.Bar(p.Stability, 8), Sparkline(m.stable[p.ID], 12)))
	}

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + hintStyle.Render("SP:Start/Stop R:Reset N:New D:Drop Q:Quit ?:Help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, canvas, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `Keys
  Space      start or stop the simulation
  R          reset (removes all particles)
  N          add a random particle
  D          remove the newest particle
  Arrows     orbit the camera (hjkl)
  + / -      zoom
  T          cycle theme
  Q          quit`

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// Watch runs the watch view until the user quits.
func Watch(baseURL string, interval time.Duration, theme string) error {
	_, err := tea.NewProgram(NewModel(NewClient(baseURL), interval, theme), tea.WithAltScreen()).Run()
	return err
}
