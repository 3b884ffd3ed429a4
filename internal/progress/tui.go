package progress

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const tuiRefresh = 100 * time.Millisecond

type tickMsg time.Time
type finishMsg struct{}

type progressModel struct {
	title      string
	counters   *Counters
	discovered progress.Model
	fetched    progress.Model
	snap       Snapshot
	width      int
	done       bool
}

func newProgressModel(title string, counters *Counters) *progressModel {
	return &progressModel{
		title:      title,
		counters:   counters,
		discovered: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		fetched:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		width:      80,
	}
}

func tick() tea.Cmd {
	return tea.Tick(tuiRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *progressModel) Init() tea.Cmd {
	return tick()
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.snap = m.counters.Snapshot()
		return m, tick()
	case finishMsg:
		m.snap = m.counters.Snapshot()
		m.done = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			barWidth := min(max(msg.Width-36, 10), 60)
			m.discovered.Width = barWidth
			m.fetched.Width = barWidth
		}
		return m, nil
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))

	header := m.title
	if m.done {
		header = "done: " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  %s %s %s\n",
		labelStyle.Render(fmt.Sprintf("%-10s", "packages")),
		m.discovered.ViewAs(m.snap.DiscoveredRatio()),
		countStyle.Render(fmt.Sprintf("%d/%d", m.snap.Discovered, m.snap.Expected)),
	)
	fmt.Fprintf(&b, "  %s %s %s\n",
		labelStyle.Render(fmt.Sprintf("%-10s", "man pages")),
		m.fetched.ViewAs(m.snap.FetchedRatio()),
		countStyle.Render(fmt.Sprintf("%d/%d", m.snap.Fetched, m.snap.Total)),
	)
	return b.String()
}

// TUIReporter draws two live progress bars with Bubble Tea.
type TUIReporter struct {
	program *tea.Program
	logger  *slog.Logger
	once    sync.Once
	started bool
	done    chan struct{}
}

func NewTUIReporter(counters *Counters, title string, out io.Writer, logger *slog.Logger) *TUIReporter {
	if logger == nil {
		logger = slog.Default()
	}
	model := newProgressModel(title, counters)
	program := tea.NewProgram(model,
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	return &TUIReporter{program: program, logger: logger, done: make(chan struct{})}
}

func (r *TUIReporter) Start() {
	r.started = true
	go func() {
		defer close(r.done)
		if _, err := r.program.Run(); err != nil {
			r.logger.Debug("progress display stopped", "error", err)
		}
	}()
}

func (r *TUIReporter) Stop() {
	if !r.started {
		return
	}
	r.once.Do(func() { r.program.Send(finishMsg{}) })
	<-r.done
}
