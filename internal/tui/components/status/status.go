package status

import (
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/labsync/internal/tui/styles"
)

// MessageType represents the type of status message
type MessageType int

const (
	Info MessageType = iota
	Warning
	Error
	Success
)

// Message is a transient status bar message
type Message struct {
	Content   string
	Type      MessageType
	Timestamp time.Time
}

// Component is a one-line status bar: key help on the left, the latest
// message on the right until it expires
type Component struct {
	message    *Message
	width      int
	help       string
	clearAfter time.Duration
}

// New creates a status bar whose messages clear after clearAfter
func New(clearAfter time.Duration) *Component {
	if clearAfter <= 0 {
		clearAfter = 4 * time.Second
	}
	return &Component{clearAfter: clearAfter}
}

// clearMessageMsg is sent when a status message should be cleared
type clearMessageMsg struct {
	timestamp time.Time
}

// SetMessage shows content and returns the command that clears it
func (c *Component) SetMessage(content string, msgType MessageType) tea.Cmd {
	msg := &Message{
		Content:   content,
		Type:      msgType,
		Timestamp: time.Now(),
	}
	c.message = msg
	return tea.Tick(c.clearAfter, func(time.Time) tea.Msg {
		return clearMessageMsg{timestamp: msg.Timestamp}
	})
}

// Message returns the message on display, nil if none
func (c *Component) Message() *Message {
	return c.message
}

// SetHelp sets the left side content
func (c *Component) SetHelp(help string) {
	c.help = help
}

func (c *Component) SetWidth(width int) {
	c.width = width
}

// Update clears expired messages
func (c *Component) Update(msg tea.Msg) tea.Cmd {
	if m, ok := msg.(clearMessageMsg); ok {
		if c.message != nil && m.timestamp.Equal(c.message.Timestamp) {
			c.message = nil
		}
	}
	return nil
}

func (c *Component) View() string {
	if c.width == 0 {
		return ""
	}
	s := styles.CurrentTheme().S()

	right := c.formatMessage()
	available := c.width - 2
	gap := available - lipgloss.Width(c.help) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	content := c.help + lipgloss.NewStyle().Width(gap).Render("") + right
	return s.StatusBar.Width(c.width).MaxWidth(c.width).Render(content)
}

func (c *Component) formatMessage() string {
	if c.message == nil {
		return ""
	}
	s := styles.CurrentTheme().S()
	switch c.message.Type {
	case Success:
		return s.Success.Render(styles.CheckIcon + " " + c.message.Content)
	case Warning:
		return s.Warning.Render(styles.WarningIcon + " " + c.message.Content)
	case Error:
		return s.Error.Render(styles.ErrorIcon + " " + c.message.Content)
	default:
		return s.Info.Render(c.message.Content)
	}
}
