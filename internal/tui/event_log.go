package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/execution"
)

// eventLogEntry is one rendered line of the event log.
type eventLogEntry struct {
	Timestamp time.Time
	Type      execution.EventType
	Message   string
}

// EventLog keeps the most recent manager events.
type EventLog struct {
	entries []eventLogEntry
	maxLogs int
	height  int

	titleStyle lipgloss.Style
	timeStyle  lipgloss.Style
	warnStyle  lipgloss.Style
	infoStyle  lipgloss.Style
}

// NewEventLog creates an EventLog holding up to maxLogs entries.
func NewEventLog(maxLogs int) *EventLog {
	if maxLogs <= 0 {
		maxLogs = 100
	}
	return &EventLog{
		maxLogs: maxLogs,
		height:  8,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),
		timeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		warnStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		infoStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
	}
}

// Add appends an event.
func (l *EventLog) Add(ev execution.Event) {
	l.entries = append(l.entries, eventLogEntry{
		Timestamp: ev.Timestamp,
		Type:      ev.Type,
		Message:   describeEvent(ev),
	})
	if len(l.entries) > l.maxLogs {
		l.entries = l.entries[len(l.entries)-l.maxLogs:]
	}
}

// Len returns the number of stored entries.
func (l *EventLog) Len() int {
	return len(l.entries)
}

// SetHeight sets how many lines View shows.
func (l *EventLog) SetHeight(height int) {
	if height > 0 {
		l.height = height
	}
}

// View renders the newest entries that fit.
func (l *EventLog) View() string {
	var b strings.Builder
	b.WriteString(l.titleStyle.Render("Events"))
	b.WriteString("\n")

	start := 0
	if len(l.entries) > l.height {
		start = len(l.entries) - l.height
	}
	for _, e := range l.entries[start:] {
		style := l.infoStyle
		if e.Type == execution.EventFailed || e.Type == execution.EventCancelled || e.Type == execution.EventQueued {
			style = l.warnStyle
		}
		b.WriteString("  ")
		b.WriteString(l.timeStyle.Render(e.Timestamp.Format("15:04:05")))
		b.WriteString(" ")
		b.WriteString(style.Render(e.Message))
		b.WriteString("\n")
	}
	return b.String()
}

func describeEvent(ev execution.Event) string {
	name := ev.Agent.Name()
	switch ev.Type {
	case execution.EventQueued:
		return fmt.Sprintf("%s queued (%d waiting)", name, ev.QueueLength)
	case execution.EventPromoted:
		return fmt.Sprintf("%s promoted from queue", name)
	case execution.EventUpdated:
		return fmt.Sprintf("%s %d%% %s", name, ev.Session.Progress, ev.Session.CurrentTask)
	case execution.EventFailed:
		return fmt.Sprintf("%s failed: %s", name, ev.Session.CurrentTask)
	default:
		return fmt.Sprintf("%s %s", name, ev.Type)
	}
}
