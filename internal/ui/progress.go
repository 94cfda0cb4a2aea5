// Package ui renders build progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	bp "github.com/thrushlang/thrushc-sub009/internal/buildpipeline"
)

// unitState is what the line of one unit shows.
type unitState string

const (
	stateQueued   unitState = "queued"
	stateDecoding unitState = "decoding"
	stateEmitting unitState = "emitting"
	stateWriting  unitState = "writing"
	stateWritten  unitState = "written"
	stateError    unitState = "error"
	stateSkipped  unitState = "skipped"
)

// weight is the share of the bar a unit contributes in each state.
var weight = map[unitState]float64{
	stateDecoding: 0.1,
	stateEmitting: 0.4,
	stateWriting:  0.9,
	stateWritten:  1,
	stateError:    1,
	stateSkipped:  1,
}

var stateColor = map[unitState]lipgloss.Color{
	stateWritten:  "2",
	stateError:    "1",
	stateSkipped:  "3",
	stateDecoding: "6",
	stateEmitting: "6",
	stateWriting:  "6",
}

func (s unitState) style() lipgloss.Style {
	c, ok := stateColor[s]
	if !ok {
		c = "7"
	}
	return lipgloss.NewStyle().Foreground(c)
}

// stateOf maps a pipeline event to the state shown for its unit. A
// finished decode or emit moves the unit on to the next stage.
func stateOf(stage bp.Stage, status bp.Status) (unitState, bool) {
	switch status {
	case bp.StatusQueued:
		return stateQueued, true
	case bp.StatusError:
		return stateError, true
	case bp.StatusSkipped:
		return stateSkipped, true
	case bp.StatusWorking:
		return running(stage)
	case bp.StatusDone:
		switch stage {
		case bp.StageDecode:
			return stateEmitting, true
		case bp.StageEmit:
			return stateWriting, true
		case bp.StageWrite:
			return stateWritten, true
		}
	}
	return "", false
}

func running(stage bp.Stage) (unitState, bool) {
	switch stage {
	case bp.StageDecode:
		return stateDecoding, true
	case bp.StageEmit:
		return stateEmitting, true
	case bp.StageWrite:
		return stateWriting, true
	}
	return "", false
}

type unitLine struct {
	path   string
	status unitState
}

type progressModel struct {
	title   string
	events  <-chan bp.Event
	spinner spinner.Model
	bar     progress.Model
	items   []unitLine
	byPath  map[string]int
	phase   string
	width   int
	done    bool
	failed  bool
}

type eventMsg bp.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model with one line per unit
// and an overall bar. It quits once events is closed.
func NewProgressModel(title string, files []string, events <-chan bp.Event) tea.Model {
	m := &progressModel{
		title:   title,
		events:  events,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("6")))),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		items:   make([]unitLine, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, f := range files {
		m.items[i] = unitLine{path: f, status: stateQueued}
		m.byPath[f] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

// next waits for the following pipeline event.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.events; ok {
			return eventMsg(ev)
		}
		return doneMsg{}
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(bp.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) apply(ev bp.Event) tea.Cmd {
	m.failed = m.failed || ev.Status == bp.StatusError
	st, ok := stateOf(ev.Stage, ev.Status)
	if !ok {
		return nil
	}
	if ev.File == "" {
		if s, ok := running(ev.Stage); ok && ev.Status != bp.StatusQueued {
			m.phase = string(s)
		}
		return nil
	}
	idx, known := m.byPath[ev.File]
	if !known {
		return nil
	}
	m.items[idx].status = st
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range m.items {
		sum += weight[it.status]
	}
	return sum / float64(len(m.items))
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	header := m.title
	if m.phase != "" {
		header += " (" + m.phase + ")"
	}
	switch {
	case m.done && m.failed:
		header = "failed: " + header
	case m.done:
		header = "done: " + header
	default:
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
	b.WriteString("\n\n")
	const col = 10
	nameWidth := max(m.width-col-4, 20)
	for _, it := range m.items {
		label := it.status.style().Render(fmt.Sprintf("%*s", col, it.status))
		fmt.Fprintf(&b, "  %s %s\n", label, truncate(it.path, nameWidth))
	}
	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

// truncate shortens value to width terminal cells, ending in "...".
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	tail := "..."
	if width <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(value, width, tail)
}
