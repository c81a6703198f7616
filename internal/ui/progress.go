// Package ui renders batch progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/learnercorpus/errmap/internal/pipeline"
)

// maxRows bounds the unit list; a batch can hold thousands of units.
const maxRows = 12

type progressModel struct {
	title   string
	events  <-chan pipeline.Event
	spinner spinner.Model
	prog    progress.Model
	items   []unitItem
	index   map[int]int
	active  []int // indices of units in flight, oldest first
	done    int
	failed  int
	width   int
	closed  bool
}

type unitItem struct {
	id     string
	status string
	stage  pipeline.Stage
	err    error
}

type eventMsg pipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that follows a batch over
// total units. It quits once events is closed.
func NewProgressModel(title string, total int, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   make([]unitItem, total),
		index:   make(map[int]int, total),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(pipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.closed = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s  %d/%d", m.title, m.done, len(m.items))
	if m.failed > 0 {
		header += fmt.Sprintf(", %d failed", m.failed)
	}
	if m.closed {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := m.width - 16
	if nameWidth < 20 {
		nameWidth = 20
	}
	for _, i := range m.visible() {
		item := m.items[i]
		status := styleStatus(item.status).Render(fmt.Sprintf("%10s", item.status))
		line := "unit " + item.id
		if item.err != nil {
			line += ": " + item.err.Error()
		}
		b.WriteString("  ")
		b.WriteString(status)
		b.WriteString(" ")
		b.WriteString(truncate(line, nameWidth))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.closed {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

// visible returns the units worth showing: those in flight, then the most
// recent failures, bounded by maxRows.
func (m *progressModel) visible() []int {
	rows := make([]int, 0, maxRows)
	for _, i := range m.active {
		if len(rows) == maxRows {
			return rows
		}
		rows = append(rows, i)
	}
	for i := len(m.items) - 1; i >= 0 && len(rows) < maxRows; i-- {
		if m.items[i].status == "error" {
			rows = append(rows, i)
		}
	}
	return rows
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev pipeline.Event) tea.Cmd {
	if ev.Index < 0 || ev.Index >= len(m.items) {
		return nil
	}
	item := &m.items[ev.Index]
	item.id = ev.Unit
	item.stage = ev.Stage

	switch {
	case ev.Err != nil:
		item.status, item.err = "error", ev.Err
		m.failed++
		m.done++
		m.finish(ev.Index)
	case ev.Stage == pipeline.StageDone:
		item.status = "done"
		m.done++
		m.finish(ev.Index)
	default:
		item.status = stageLabel(ev.Stage)
		if _, ok := m.index[ev.Index]; !ok {
			m.index[ev.Index] = len(m.active)
			m.active = append(m.active, ev.Index)
		}
	}

	total := 0.0
	for _, it := range m.items {
		switch it.status {
		case "done", "error":
			total += 1.0
		default:
			total += progressFromStage(it.stage)
		}
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

func (m *progressModel) finish(idx int) {
	if _, ok := m.index[idx]; !ok {
		return
	}
	delete(m.index, idx)
	out := m.active[:0]
	for _, i := range m.active {
		if i != idx {
			out = append(out, i)
		}
	}
	m.active = out
	for pos, i := range m.active {
		m.index[i] = pos
	}
}

func progressFromStage(stage pipeline.Stage) float64 {
	switch stage {
	case pipeline.StageMap:
		return 0.1
	case pipeline.StageTag:
		return 0.3
	case pipeline.StageAlign:
		return 0.9
	default:
		return 0.0
	}
}

func stageLabel(stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageStart:
		return "queued"
	case pipeline.StageMap:
		return "mapping"
	case pipeline.StageTag:
		return "tagging"
	case pipeline.StageAlign:
		return "aligning"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "mapping", "tagging", "aligning":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
