package tui

const (
	statusBarHeight = 1
	headerHeight    = 1
)

// resize lays the components out for the current window size
func (m *Model) resize() {
	sidebarWidth := m.sidebarWidth()
	contentHeight := m.height - statusBarHeight - headerHeight

	// Bordered panels lose 2 columns and 2 rows to the border
	m.eventLog.SetSize(max(m.width-sidebarWidth-2, 0), max(contentHeight-2, 0))
	m.statusBar.SetWidth(m.width)

	if m.showReport {
		m.eventLog.SetContent(m.renderReport())
	}
}

// sidebarWidth grows the stats panel with the window
func (m *Model) sidebarWidth() int {
	if m.width < 80 {
		return 26
	}
	if m.width < 120 {
		return 32
	}
	return 38
}
