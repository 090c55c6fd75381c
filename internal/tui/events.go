package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/billie-coop/labsync/internal/sim"
	"github.com/billie-coop/labsync/internal/tui/components/core"
	"github.com/billie-coop/labsync/internal/tui/components/status"
	"github.com/billie-coop/labsync/internal/tui/styles"
)

// listenForEvents waits for the next event from the run's broker
func (m *Model) listenForEvents() tea.Cmd {
	sub := m.eventSub
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil
		}
		return event
	}
}

// handleEvent logs the event and updates state it carries
func (m *Model) handleEvent(event sim.Event) tea.Cmd {
	var cmd tea.Cmd

	switch p := event.Payload.(type) {
	case sim.OrderPayload:
		if event.Type == sim.OrderQueuedEvent || event.Type == sim.OrderProcessingEvent {
			m.queueLen = p.QueueLen
		}
	case sim.PolicyPayload:
		if event.Type == sim.PolicyWrittenEvent {
			m.current = p.Value
		}
	case sim.WorkerPayload:
		if p.Failed {
			cmd = m.statusBar.SetMessage(fmt.Sprintf("%s %s: %s", p.Role, event.Worker, p.Reason), status.Warning)
		}
	}

	m.eventLog.Append(m.formatEvent(event))
	return cmd
}

// formatEvent renders one log line: offset into the run, icon, narration
func (m *Model) formatEvent(event sim.Event) string {
	s := styles.CurrentTheme().S()

	offset := s.Subtle.Render(fmt.Sprintf("%6s", core.FormatSeconds(max(event.Time.Sub(m.clock.Started()), 0))))
	text := event.String()

	switch event.Type {
	case sim.RunStartedEvent:
		return offset + " " + s.Info.Render(styles.RunningIcon+" "+text)
	case sim.RunStoppedEvent:
		return offset + " " + s.Info.Render(styles.StoppedIcon+" "+text)
	case sim.WorkerStoppedEvent:
		return offset + " " + s.Muted.Render(styles.StoppedIcon+" "+text)
	case sim.OrderCompletedEvent:
		return offset + " " + s.Success.Render(styles.CheckIcon+" "+text)
	case sim.PolicyWrittenEvent:
		return offset + " " + s.Warning.Render(styles.WriterIcon+" "+text)
	case sim.PolicyReadEvent:
		return offset + " " + s.Muted.Render(styles.ReaderIcon+" "+text)
	}
	return offset + "   " + s.Base.Render(text)
}
