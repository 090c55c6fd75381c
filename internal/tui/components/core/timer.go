package core

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
)

// TickMsg is sent periodically while a Clock runs
type TickMsg struct {
	Time    time.Time
	Elapsed time.Duration
	ID      string
}

// Clock measures a run of known length and drives periodic refreshes
type Clock struct {
	id       string
	interval time.Duration
	total    time.Duration

	start   time.Time
	stopped time.Duration
	running bool
}

// NewClock creates a clock for a run of length total that ticks every
// interval once started
func NewClock(id string, total, interval time.Duration) *Clock {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Clock{
		id:       id,
		interval: interval,
		total:    total,
	}
}

// Start begins measuring and returns the first tick
func (c *Clock) Start() tea.Cmd {
	c.start = time.Now()
	c.running = true
	return c.tick()
}

// Stop freezes the elapsed time
func (c *Clock) Stop() {
	if c.running {
		c.stopped = time.Since(c.start)
		c.running = false
	}
}

// Running reports whether the clock is ticking
func (c *Clock) Running() bool {
	return c.running
}

// Started returns when Start was last called
func (c *Clock) Started() time.Time {
	return c.start
}

// Elapsed returns the time since Start, or the frozen time after Stop
func (c *Clock) Elapsed() time.Duration {
	if c.running {
		return time.Since(c.start)
	}
	return c.stopped
}

// Progress returns the elapsed fraction of the total, in [0, 1]
func (c *Clock) Progress() float64 {
	if c.total <= 0 {
		return 0
	}
	return min(1, float64(c.Elapsed())/float64(c.total))
}

// Update continues ticking for this clock's own ticks
func (c *Clock) Update(msg tea.Msg) tea.Cmd {
	if tick, ok := msg.(TickMsg); ok && tick.ID == c.id && c.running {
		return c.tick()
	}
	return nil
}

// View renders "elapsed / total"
func (c *Clock) View() string {
	return FormatSeconds(c.Elapsed()) + " / " + FormatSeconds(c.total)
}

func (c *Clock) tick() tea.Cmd {
	return tea.Tick(c.interval, func(t time.Time) tea.Msg {
		return TickMsg{
			Time:    t,
			Elapsed: c.Elapsed(),
			ID:      c.id,
		}
	})
}

// FormatSeconds formats a duration as "1.2s"
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
