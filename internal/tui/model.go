package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/labsync/internal/policy"
	"github.com/billie-coop/labsync/internal/sim"
	"github.com/billie-coop/labsync/internal/tui/components/core"
	"github.com/billie-coop/labsync/internal/tui/components/eventlog"
	"github.com/billie-coop/labsync/internal/tui/components/status"
	"github.com/billie-coop/labsync/internal/tui/styles"
)

// runDoneMsg carries the result of Runner.Run
type runDoneMsg struct {
	stats sim.Stats
	err   error
}

// Model is the live dashboard for one simulation run
type Model struct {
	width  int
	height int

	// Components
	spinner   spinner.Model
	clock     *core.Clock
	eventLog  *eventlog.Model
	statusBar *status.Component
	keys      KeyMap

	// Event system
	runner   *sim.Runner
	eventSub <-chan sim.Event

	// Polled on every clock tick
	progress sim.Stats
	queueLen int
	policy   policy.Stats
	current  string

	// Set once Run returns
	done       bool
	result     sim.Stats
	err        error
	showReport bool
	quitting   bool
}

// New creates a dashboard for r. The run starts with the program.
func New(r *sim.Runner) *Model {
	w := r.Workload()
	m := &Model{
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		clock:     core.NewClock("run", w.Duration, 100*time.Millisecond),
		eventLog:  eventlog.New(500),
		statusBar: status.New(4 * time.Second),
		keys:      DefaultKeyMap(),
		runner:    r,
		eventSub:  r.Broker().Subscribe(),
	}
	if len(w.Policies) > 0 {
		m.current = w.Policies[0]
	}
	m.statusBar.SetHelp(m.help())
	return m
}

// Init starts the run, the clock and event processing
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.clock.Start(),
		m.run(),
		m.listenForEvents(),
	)
}

// Result returns the run's statistics once it has finished
func (m *Model) Result() (sim.Stats, error) {
	return m.result, m.err
}

// Done reports whether the run has finished
func (m *Model) Done() bool {
	return m.done
}

func (m *Model) run() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.runner.Run(context.Background())
		return runDoneMsg{stats: stats, err: err}
	}
}

// Update handles all TUI updates and routes to components
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case sim.Event:
		cmds = append(cmds, m.handleEvent(msg), m.listenForEvents())
		return m, tea.Batch(cmds...)

	case runDoneMsg:
		return m, m.finish(msg)

	case core.TickMsg:
		m.poll()
		m.eventLog.Refresh()
		return m, m.clock.Update(msg)

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	cmds = append(cmds, m.statusBar.Update(msg), m.eventLog.Update(msg))
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.done {
			return tea.Quit, true
		}
		// Quit once Run has returned so the result is complete
		m.quitting = true
		m.runner.Stop()
		return m.statusBar.SetMessage("stopping workers...", status.Warning), true

	case key.Matches(msg, m.keys.Stop):
		if m.done {
			return nil, true
		}
		m.runner.Stop()
		return m.statusBar.SetMessage("stopping workers...", status.Warning), true

	case key.Matches(msg, m.keys.Report):
		if !m.done {
			return m.statusBar.SetMessage("report is ready when the run ends", status.Info), true
		}
		m.toggleReport()
		return nil, true

	case key.Matches(msg, m.keys.Follow):
		m.showReport = false
		m.eventLog.Follow()
		return nil, true
	}
	return nil, false
}

func (m *Model) finish(msg runDoneMsg) tea.Cmd {
	m.done = true
	m.result = msg.stats
	m.err = msg.err
	m.clock.Stop()
	m.poll()
	m.runner.Broker().Unsubscribe(m.eventSub)
	if msg.stats.FinalPolicy != "" {
		m.current = msg.stats.FinalPolicy
	}

	if m.quitting {
		return tea.Quit
	}
	m.statusBar.SetHelp(m.help())
	if msg.err != nil {
		return m.statusBar.SetMessage(msg.err.Error(), status.Error)
	}
	m.showReport = true
	m.eventLog.SetContent(m.renderReport())
	return m.statusBar.SetMessage(
		fmt.Sprintf("run finished: %d produced, %d consumed", msg.stats.Produced, msg.stats.Consumed),
		status.Success)
}

func (m *Model) toggleReport() {
	m.showReport = !m.showReport
	if m.showReport {
		m.eventLog.SetContent(m.renderReport())
		return
	}
	m.eventLog.Follow()
}

// poll reads the live counters straight from the runner. Events can be
// dropped under load, the counters cannot.
func (m *Model) poll() {
	m.progress = m.runner.Progress()
	m.queueLen = m.runner.QueueLen()
	m.policy = m.runner.PolicyStats()
}

func (m *Model) renderReport() string {
	width := max(m.width-m.sidebarWidth()-4, 20)
	return styles.RenderMarkdown(sim.Report(m.result), width)
}

func (m *Model) help() string {
	s := styles.CurrentTheme().S()
	bindings := []key.Binding{m.keys.Stop, m.keys.Follow, m.keys.Quit}
	if m.done {
		bindings = []key.Binding{m.keys.Report, m.keys.Follow, m.keys.Quit}
	}
	var parts []string
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, s.Key.Render(h.Key)+" "+s.Muted.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// View renders the dashboard
func (m *Model) View() tea.View {
	return tea.NewView(m.render())
}

func (m *Model) render() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	theme := styles.CurrentTheme()
	s := theme.S()

	sidebarWidth := m.sidebarWidth()
	contentHeight := m.height - statusBarHeight - headerHeight

	sidebar := s.Panel.
		Width(sidebarWidth - 2).
		Height(contentHeight - 2).
		Render(m.renderSidebar(sidebarWidth - 4))

	main := s.PanelFocused.
		Width(m.width - sidebarWidth - 2).
		Height(contentHeight - 2).
		Render(m.eventLog.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.statusBar.View())
}

func (m *Model) renderHeader() string {
	s := styles.CurrentTheme().S()
	w := m.runner.Workload()

	state := m.spinner.View() + " running"
	switch {
	case m.done && m.err != nil:
		state = s.Error.Render(styles.ErrorIcon + " failed")
	case m.done:
		state = s.Success.Render(styles.StoppedIcon + " finished")
	}

	left := styles.RenderThemeGradient("labsync", true) + " " +
		s.Muted.Render(fmt.Sprintf("%s workload · %s", w.Name, m.runner.Mode()))
	right := state + "  " + s.Value.Render(m.clock.View())

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderSidebar(width int) string {
	s := styles.CurrentTheme().S()
	row := func(label string, value any) string {
		return s.Label.Render(label) + " " + s.Value.Render(fmt.Sprint(value))
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("Orders") + "\n")
	capacity := m.runner.Capacity()
	gauge := styles.RenderGauge(max(width-8, 4), m.queueLen, capacity)
	fmt.Fprintf(&b, "%s %s\n", gauge, s.Value.Render(fmt.Sprintf("%d/%d", m.queueLen, capacity)))
	b.WriteString(row("produced", m.progress.Produced) + "\n")
	b.WriteString(row("consumed", m.progress.Consumed) + "\n")
	b.WriteString(row("peak", m.progress.MaxQueueLen) + "\n")
	b.WriteString(row("avg wait", m.progress.AvgWait.Round(time.Millisecond)) + "\n\n")

	b.WriteString(s.Title.Render("Policy") + "\n")
	b.WriteString(s.Value.Render(m.current) + "\n")
	writer := "idle"
	if m.policy.WriterActive {
		writer = styles.WriterIcon + " writing"
	}
	b.WriteString(row(styles.ReaderIcon+" readers", m.policy.ActiveReaders) + "\n")
	b.WriteString(row("writer", writer) + "\n")
	b.WriteString(row("writers waiting", m.policy.WritersWaiting) + "\n")
	if m.policy.Mode == policy.StrictFair {
		b.WriteString(row("queued", m.policy.Queued) + "\n")
	}
	b.WriteString(row("reads", m.progress.Reads) + "  " + row("writes", m.progress.Writes) + "\n\n")

	b.WriteString(s.Title.Render("Workers") + "\n")
	active := m.runner.ActiveWorkers()
	b.WriteString(row("active", len(active)) + "\n")
	if dropped := m.runner.Broker().Dropped(); dropped > 0 {
		b.WriteString(s.Subtle.Render(fmt.Sprintf("%d events not shown", dropped)) + "\n")
	}

	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}
