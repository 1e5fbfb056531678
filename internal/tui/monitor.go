package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/execution"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// Source is the view of the execution manager the monitor needs.
type Source interface {
	ActiveSessions() []models.ExecutionSession
	QueuePosition() int
	CancelExecution(id string)
}

// tickMsg triggers a snapshot refresh.
type tickMsg time.Time

// EventMsg wraps a manager event for the monitor.
type EventMsg struct {
	Event execution.Event
}

// eventsClosedMsg is sent when the event channel closes.
type eventsClosedMsg struct{}

// SimulationDoneMsg signals that the driving workload has finished.
type SimulationDoneMsg struct {
	Err error
}

// Monitor is the bubbletea model for `fixit simulate --tui`.
type Monitor struct {
	src     Source
	events  <-chan execution.Event
	refresh time.Duration
	now     func() time.Time

	panel *SessionsPanel
	log   *EventLog

	width    int
	height   int
	done     bool
	err      error
	quitting bool

	headerStyle lipgloss.Style
	footerStyle lipgloss.Style
}

// NewMonitor creates a Monitor. events may be nil.
func NewMonitor(src Source, events <-chan execution.Event, refresh time.Duration) *Monitor {
	if refresh <= 0 {
		refresh = 250 * time.Millisecond
	}
	return &Monitor{
		src:     src,
		events:  events,
		refresh: refresh,
		now:     time.Now,
		panel:   NewSessionsPanel(),
		log:     NewEventLog(200),

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1),
		footerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(0, 1),
	}
}

// Init implements tea.Model.
func (m *Monitor) Init() tea.Cmd {
	m.snapshot()
	return tea.Batch(m.tick(), m.waitForEvent())
}

func (m *Monitor) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Monitor) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

func (m *Monitor) snapshot() {
	m.panel.SetSessions(m.src.ActiveSessions(), m.src.QueuePosition())
}

// Update implements tea.Model.
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			m.panel.MoveSelection(-1)
		case "down", "j":
			m.panel.MoveSelection(1)
		case "x":
			if s, ok := m.panel.Selected(); ok && s.Status == models.ExecutionRunning {
				m.src.CancelExecution(s.ID)
				m.snapshot()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.panel.SetWidth(msg.Width)
		m.log.SetHeight(msg.Height / 3)

	case tickMsg:
		m.snapshot()
		return m, m.tick()

	case EventMsg:
		m.log.Add(msg.Event)
		m.snapshot()
		return m, m.waitForEvent()

	case eventsClosedMsg:
		m.events = nil

	case SimulationDoneMsg:
		m.done = true
		m.err = msg.Err
		m.snapshot()
	}

	return m, nil
}

// View implements tea.Model.
func (m *Monitor) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerStyle.Render("fixit execution monitor"))
	b.WriteString("\n\n")
	b.WriteString(m.panel.View(m.now()))
	b.WriteString("\n\n")
	b.WriteString(m.log.View())
	b.WriteString("\n")

	footer := "j/k: select  x: cancel  q: quit"
	if m.done {
		footer = "simulation finished  q: quit"
		if m.err != nil {
			footer = "simulation failed: " + m.err.Error() + "  q: quit"
		}
	}
	b.WriteString(m.footerStyle.Render(footer))
	return b.String()
}
