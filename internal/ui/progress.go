// Package ui renders live run progress with Bubble Tea. The model consumes
// pipeline events from a channel; files are not known up front, they join
// the view as the walker finds them.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"reqtrace/internal/pipeline"
)

// maxVisibleRows caps the per-file listing; a tree-wide trace can touch
// hundreds of files and the terminal should not scroll them all.
const maxVisibleRows = 12

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type taskRow struct {
	path   string
	stage  pipeline.Stage
	status pipeline.Status
}

type runModel struct {
	title   string
	events  <-chan pipeline.Event
	spinner spinner.Model
	bar     progress.Model

	rows    []taskRow
	rowOf   map[string]int
	phase   string // run-scope label from file-less events
	width   int
	done    int
	failed  int
	stopped bool
}

type eventMsg pipeline.Event
type drainedMsg struct{}

// NewProgressModel returns a Bubble Tea model fed by the given event
// channel. The model quits once the channel is closed and drained.
func NewProgressModel(title string, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	return &runModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		rowOf:   make(map[string]int),
		width:   80,
	}
}

func (m *runModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.nextEvent())
}

func (m *runModel) nextEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return drainedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		barCmd := m.consume(pipeline.Event(msg))
		return m, tea.Batch(barCmd, m.nextEvent())
	case drainedMsg:
		m.stopped = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.stopped {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// consume folds one event into the model and returns the progress bar
// animation command, if the completion fraction moved.
func (m *runModel) consume(ev pipeline.Event) tea.Cmd {
	if ev.File == "" {
		if ev.Status == pipeline.StatusWorking {
			m.phase = string(ev.Stage)
		}
		return nil
	}

	i, seen := m.rowOf[ev.File]
	if !seen {
		i = len(m.rows)
		m.rows = append(m.rows, taskRow{path: ev.File})
		m.rowOf[ev.File] = i
	}
	prev := m.rows[i].status
	m.rows[i].stage = ev.Stage
	m.rows[i].status = ev.Status

	switch {
	case ev.Status == pipeline.StatusDone && prev != pipeline.StatusDone:
		m.done++
	case ev.Status == pipeline.StatusError && prev != pipeline.StatusError:
		m.failed++
	}
	return m.bar.SetPercent(m.fraction())
}

// fraction estimates run completion: finished files count in full, files in
// flight count by how deep in the pipeline their last event was.
func (m *runModel) fraction() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	var sum float64
	for _, row := range m.rows {
		switch row.status {
		case pipeline.StatusDone, pipeline.StatusError:
			sum += 1
		case pipeline.StatusWorking:
			sum += stageDepth(row.stage)
		}
	}
	return sum / float64(len(m.rows))
}

func stageDepth(stage pipeline.Stage) float64 {
	for i, s := range pipeline.OrderedStages {
		if s == stage {
			return float64(i+1) / float64(len(pipeline.OrderedStages)+1)
		}
	}
	return 0
}

func (m *runModel) View() string {
	var b strings.Builder

	head := m.title
	if m.phase != "" {
		head += " [" + m.phase + "]"
	}
	if m.stopped {
		b.WriteString(titleStyle.Render(head + " done"))
	} else {
		b.WriteString(m.spinner.View() + " " + titleStyle.Render(head))
	}
	b.WriteByte('\n')
	b.WriteString(idleStyle.Render(m.tally()))
	b.WriteString("\n\n")

	for _, row := range m.visibleRows() {
		label, style := rowLabel(row)
		b.WriteString("  ")
		b.WriteString(style.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(" ")
		b.WriteString(fitWidth(row.path, m.width-14))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.stopped {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

func (m *runModel) tally() string {
	inFlight := len(m.rows) - m.done - m.failed
	s := fmt.Sprintf("%d file(s): %d done", len(m.rows), m.done)
	if m.failed > 0 {
		s += fmt.Sprintf(", %d failed", m.failed)
	}
	if inFlight > 0 && !m.stopped {
		s += fmt.Sprintf(", %d in flight", inFlight)
	}
	return s
}

// visibleRows prefers files that are still moving; finished rows fill the
// remaining slots newest first.
func (m *runModel) visibleRows() []taskRow {
	if len(m.rows) <= maxVisibleRows {
		return m.rows
	}
	out := make([]taskRow, 0, maxVisibleRows)
	for _, row := range m.rows {
		if row.status == pipeline.StatusWorking || row.status == pipeline.StatusQueued {
			out = append(out, row)
			if len(out) == maxVisibleRows {
				return out
			}
		}
	}
	for i := len(m.rows) - 1; i >= 0 && len(out) < maxVisibleRows; i-- {
		row := m.rows[i]
		if row.status == pipeline.StatusDone || row.status == pipeline.StatusError {
			out = append(out, row)
		}
	}
	return out
}

func rowLabel(row taskRow) (string, lipgloss.Style) {
	switch row.status {
	case pipeline.StatusDone:
		return "done", doneStyle
	case pipeline.StatusError:
		return "error", errorStyle
	case pipeline.StatusWorking:
		return string(row.stage), activeStyle
	default:
		return "queued", idleStyle
	}
}

func fitWidth(s string, width int) string {
	if width < 8 {
		width = 8
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width-3, "...")
}
