// Package ui renders batch conversion progress in the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"diagconv/internal/convert"
)

type progressModel struct {
	title   string
	events  <-chan convert.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
}

type fileItem struct {
	path   string
	status string
	stage  convert.Stage
	err    error
}

type eventMsg convert.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that lists files with their
// current stage and an overall progress bar. It quits when events closes.
func NewProgressModel(title string, files []string, events <-chan convert.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, len(files))
	index := make(map[string]int, len(files))
	for i, f := range files {
		items[i] = fileItem{path: f, status: "queued"}
		index[f] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(convert.Event(msg)), m.listen())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = max(msg.Width-4, 10)
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-16, 20)
	for _, it := range m.items {
		status := styleStatus(it.status).Render(fmt.Sprintf("%12s", it.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(it.path, nameWidth))
	}

	converted, failed := m.counts()
	fmt.Fprintf(&b, "\n  %d/%d converted", converted, len(m.items))
	if failed > 0 {
		b.WriteString(styleStatus("failed").Render(fmt.Sprintf(", %d failed", failed)))
	}
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev convert.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	it := &m.items[idx]
	switch ev.Status {
	case convert.StatusQueued:
		it.status = "queued"
	case convert.StatusDone:
		it.status = "done"
	case convert.StatusError:
		it.status, it.err = "failed", ev.Err
	case convert.StatusWorking:
		it.status = stageLabel(ev.Stage)
	}
	it.stage = ev.Stage
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) counts() (converted, failed int) {
	for _, it := range m.items {
		switch it.status {
		case "done":
			converted++
		case "failed":
			failed++
		}
	}
	return converted, failed
}

func (m *progressModel) percent() float64 {
	total := 0.0
	for _, it := range m.items {
		if it.status == "done" || it.status == "failed" {
			total++
			continue
		}
		total += stageWeight(it.stage)
	}
	return total / float64(len(m.items))
}

func stageWeight(s convert.Stage) float64 {
	switch s {
	case convert.StageParse:
		return 0.1
	case convert.StageValidate:
		return 0.5
	case convert.StageEncode:
		return 0.6
	case convert.StageWrite:
		return 0.9
	}
	return 0
}

func stageLabel(s convert.Stage) string {
	switch s {
	case convert.StageRead, convert.StageParse:
		return "parsing"
	case convert.StageValidate:
		return "validating"
	case convert.StageEncode:
		return "encoding"
	case convert.StageWrite:
		return "writing"
	}
	return string(s)
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "failed":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "queued":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

// Run shows the progress view while work runs. work receives the sink to
// report to; Run returns once both the view and work have finished.
func Run(title string, files []string, out io.Writer, work func(convert.ProgressSink)) error {
	events := make(chan convert.Event, 256)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		work(convert.ChannelSink{Ch: events})
		close(events)
	}()

	_, err := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out), tea.WithInput(nil)).Run()
	// при ошибке UI события больше никто не читает
	for range events {
	}
	<-finished
	return err
}
