package eventlog

import (
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/billie-coop/labsync/internal/csync"
)

// Model is a scrolling log of the most recent lines. While following, new
// lines keep the view pinned to the bottom; scrolling up stops following.
type Model struct {
	viewport viewport.Model
	lines    *csync.Ring[string]
	follow   bool
	dirty    bool
}

// New creates a log that keeps the last capacity lines
func New(capacity int) *Model {
	vp := viewport.New()
	vp.MouseWheelEnabled = true
	return &Model{
		viewport: vp,
		lines:    csync.NewRing[string](capacity),
		follow:   true,
	}
}

// Append adds a line. The viewport is refreshed on the next Refresh.
func (m *Model) Append(line string) {
	m.lines.Push(line)
	m.dirty = true
}

// Lines returns the kept lines, oldest first
func (m *Model) Lines() []string {
	return m.lines.Items()
}

// Total returns how many lines were ever appended
func (m *Model) Total() int {
	return m.lines.Total()
}

// Refresh copies pending lines into the viewport
func (m *Model) Refresh() {
	if !m.dirty {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines.Items(), "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
	m.dirty = false
}

// SetContent replaces the view with fixed content, e.g. a rendered report,
// and stops following
func (m *Model) SetContent(content string) {
	m.follow = false
	m.dirty = false
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

// Follow pins the view to the newest line again
func (m *Model) Follow() {
	m.follow = true
	m.dirty = true
	m.Refresh()
}

func (m *Model) Following() bool {
	return m.follow
}

func (m *Model) SetSize(width, height int) {
	m.viewport = viewport.New(
		viewport.WithWidth(width),
		viewport.WithHeight(height),
	)
	m.viewport.MouseWheelEnabled = true
	m.dirty = true
	m.Refresh()
}

// Update handles scrolling
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok && !m.viewport.AtBottom() {
		m.follow = false
	}
	return cmd
}

func (m *Model) View() string {
	return m.viewport.View()
}
