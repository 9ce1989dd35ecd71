package mission

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"droneops-scout/internal/config"
	"droneops-scout/internal/grid"
	"droneops-scout/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

type logMsg struct{ line string }

type frameMsg struct{ GridFrame }

type stateMsg struct{ telemetry.MissionStateRow }

const maxLogLines = 500

var (
	styleTime     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleMove     = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleObserve  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	styleOK       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleFail     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleVisited  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleObstacle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleFree     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleVehicle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	styleBest     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	styleDivider  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TUIWriter renders mission rows using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.MissionConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case grid.Failed.String(), telemetry.StatusFailure:
		return styleFail
	case grid.Skipped.String(), telemetry.StatusLowBattery:
		return styleWarn
	}
	return styleOK
}

// WritePose implements Writer.
func (w *TUIWriter) WritePose(r telemetry.PoseRow) error {
	line := fmt.Sprintf("%s %s %-18s pos=(%.1f,%.1f) yaw=%5.1f° %-3s batt=%.1f %s",
		styleTime.Render(r.Timestamp.Format("15:04:05")),
		styleMove.Render("MOVE"),
		r.Command,
		r.X, r.Y, r.Yaw*180/math.Pi, r.Sector, r.Battery,
		statusStyle(r.Status).Render(fmt.Sprintf("%s/%d", r.Status, r.Cells)),
	)
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteObservation implements Writer.
func (w *TUIWriter) WriteObservation(r telemetry.ObservationRow) error {
	line := fmt.Sprintf("%s %s score=%.2f obstacle=%.1f best=(%d,%d) v=%.2f %s",
		styleTime.Render(r.Timestamp.Format("15:04:05")),
		styleObserve.Render("SEE "),
		r.Score, r.ObstacleRange, r.BestX, r.BestY, r.BestValue,
		statusStyle(r.Status).Render(fmt.Sprintf("%s/%d", r.Status, r.Cells)),
	)
	if r.TopObject != "" {
		line += fmt.Sprintf(" top=%s(%.2f)", r.TopObject, r.TopScore)
	}
	if r.Error != "" {
		line += " " + styleFail.Render(r.Error)
	}
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteState implements StateWriter.
func (w *TUIWriter) WriteState(r telemetry.MissionStateRow) error {
	w.program.Send(stateMsg{r})
	return nil
}

// WriteFrame implements FrameWriter.
func (w *TUIWriter) WriteFrame(f GridFrame) error {
	w.program.Send(frameMsg{f})
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	table      table.Model
	vp         viewport.Model
	logs       []string
	frame      GridFrame
	haveFrame  bool
	state      telemetry.MissionStateRow
	wrap       bool
	autoscroll bool
	showGrid   bool
	help       bool
	width      int
	height     int
}

func newTUIModel(cfg *config.MissionConfig) tuiModel {
	cols := []table.Column{
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 10},
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 10},
	}
	rows := []table.Row{
		{"Grid (m)", fmt.Sprintf("%.0fx%.0f", cfg.Grid.Width, cfg.Grid.Height), "Cell Size (m)", fmt.Sprintf("%.2f", cfg.Grid.CellSize)},
		{"FOV (deg)", fmt.Sprintf("%.0f", cfg.Perception.FOVDeg), "Range", fmt.Sprintf("%.1f", cfg.Perception.MaxRange)},
		{"Move (cm)", fmt.Sprintf("%.0f-%.0f", cfg.Vehicle.MinCm, cfg.Vehicle.MaxCm), "Battery Min (%)", fmt.Sprintf("%.0f", cfg.Vehicle.BatteryMinPct)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
		showGrid:   true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
		case "g":
			m.showGrid = !m.showGrid
			m.updateViewportHeight()
		case "h", "?":
			m.help = !m.help
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case frameMsg:
		m.frame = msg.GridFrame
		m.haveFrame = true
		m.updateViewportHeight()
	case stateMsg:
		m.state = msg.MissionStateRow
	}
	return m, nil
}

func (m *tuiModel) updateViewportHeight() {
	used := lipgloss.Height(m.table.View()) + lipgloss.Height(m.renderBottom()) + 3
	if m.showGrid && m.haveFrame {
		used += lipgloss.Height(renderGrid(m.frame)) + 1
	}
	m.vp.Height = max(0, m.height-used)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return renderHelp()
	}
	divider := styleDivider.Render(strings.Repeat("─", max(m.width, 1)))
	sections := []string{m.table.View(), divider}
	if m.showGrid && m.haveFrame {
		sections = append(sections, renderGrid(m.frame), divider)
	}
	sections = append(sections, m.vp.View(), divider, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderBottom() string {
	s := m.state
	return fmt.Sprintf("visited=%d free=%d obstacles=%d observed=%d mean=%.2f max=%.2f batt=%s  [w]rap [s]croll [g]rid [h]elp [q]uit",
		s.Visited, s.Free, s.Obstacles, s.Observed, s.MeanValue, s.MaxValue,
		statusStyle(s.VehicleStatus).Render(fmt.Sprintf("%.1f%%", s.Battery)))
}

// renderGrid draws the frame with +y up.
func renderGrid(f GridFrame) string {
	var b strings.Builder
	size := 2*f.Radius + 1
	for row := size - 1; row >= 0; row-- {
		for col := 0; col < size; col++ {
			x := f.Center.X - f.Radius + col
			y := f.Center.Y - f.Radius + row
			switch {
			case x == f.Center.X && y == f.Center.Y:
				b.WriteString(styleVehicle.Render(headingIcon(f.Pose.Yaw)))
			case f.BestFound && x == f.Best.X && y == f.Best.Y:
				b.WriteString(styleBest.Render("*"))
			default:
				b.WriteString(cellGlyph(f.Local(col, row)))
			}
		}
		if row > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func cellGlyph(s grid.State) string {
	g := string(s.Symbol())
	switch s {
	case grid.Visited:
		return styleVisited.Render(g)
	case grid.Obstacle:
		return styleObstacle.Render(g)
	case grid.Free:
		return styleFree.Render(g)
	}
	return g
}

// headingIcon maps a yaw (clockwise from +y) onto an arrow.
func headingIcon(yaw float64) string {
	icons := []string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}
	idx := (grid.SectorIndex(yaw) + 1) / 2 % len(icons)
	return icons[idx]
}

func renderHelp() string {
	return strings.Join([]string{
		"Keys:",
		"  w  toggle line wrap",
		"  s  toggle autoscroll",
		"  g  toggle grid window",
		"  ↑/↓ pgup/pgdn  scroll log",
		"  h  toggle help",
		"  q  quit",
	}, "\n")
}
