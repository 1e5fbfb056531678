package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// SessionsPanel lists execution sessions with a progress bar each.
type SessionsPanel struct {
	sessions []models.ExecutionSession
	queued   int
	selected int
	width    int
	focused  bool

	bar progress.Model

	// Styles
	titleStyle     lipgloss.Style
	emptyStyle     lipgloss.Style
	selectedStyle  lipgloss.Style
	labelStyle     lipgloss.Style
	statusRunning  lipgloss.Style
	statusDone     lipgloss.Style
	statusFailed   lipgloss.Style
	statusCanceled lipgloss.Style
	queueStyle     lipgloss.Style
}

// NewSessionsPanel creates a new SessionsPanel instance.
func NewSessionsPanel() *SessionsPanel {
	return &SessionsPanel{
		focused: true,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(24)),

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),

		emptyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true),

		selectedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("236")),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		statusRunning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")), // Green

		statusDone: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")), // Dark green

		statusFailed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")), // Red

		statusCanceled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")), // Orange

		queueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
	}
}

// SetSessions replaces the displayed sessions and queue length.
func (p *SessionsPanel) SetSessions(sessions []models.ExecutionSession, queued int) {
	p.sessions = sessions
	p.queued = queued
	if p.selected >= len(p.sessions) {
		p.selected = len(p.sessions) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

// SetWidth updates the panel width.
func (p *SessionsPanel) SetWidth(width int) {
	p.width = width
	barWidth := width - 50
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}
	p.bar.Width = barWidth
}

// MoveSelection moves the cursor by delta rows.
func (p *SessionsPanel) MoveSelection(delta int) {
	p.selected += delta
	if p.selected >= len(p.sessions) {
		p.selected = len(p.sessions) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

// Selected returns the session under the cursor.
func (p *SessionsPanel) Selected() (models.ExecutionSession, bool) {
	if p.selected < 0 || p.selected >= len(p.sessions) {
		return models.ExecutionSession{}, false
	}
	return p.sessions[p.selected], true
}

// View renders the panel as of now.
func (p *SessionsPanel) View(now time.Time) string {
	var b strings.Builder

	b.WriteString(p.titleStyle.Render("Sessions"))
	b.WriteString("\n")

	if len(p.sessions) == 0 {
		b.WriteString(p.emptyStyle.Render("  No active sessions"))
		b.WriteString("\n")
	}

	for i, s := range p.sessions {
		line := fmt.Sprintf("%-5s %s %s %s",
			s.Agent.Name(),
			p.renderStatus(s.Status),
			p.bar.ViewAs(float64(s.Progress)/100),
			p.labelStyle.Render(formatAge(s, now)),
		)
		if s.CurrentTask != "" {
			line += "  " + s.CurrentTask
		}
		if p.focused && i == p.selected {
			line = p.selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(p.queueStyle.Render(fmt.Sprintf("  Queued: %d", p.queued)))
	return b.String()
}

func (p *SessionsPanel) renderStatus(status models.ExecutionStatus) string {
	label := fmt.Sprintf("%-9s", status)
	switch status {
	case models.ExecutionRunning:
		return p.statusRunning.Render(label)
	case models.ExecutionCompleted:
		return p.statusDone.Render(label)
	case models.ExecutionFailed:
		return p.statusFailed.Render(label)
	case models.ExecutionCancelled:
		return p.statusCanceled.Render(label)
	default:
		return label
	}
}

// formatAge returns elapsed time for running sessions and total time for ended ones.
func formatAge(s models.ExecutionSession, now time.Time) string {
	end := now
	if !s.EndedAt.IsZero() {
		end = s.EndedAt
	}
	return end.Sub(s.StartedAt).Truncate(time.Second).String()
}
