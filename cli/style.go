package cli

import (
	"fmt"
	"time"

	"github.com/agentview/core/session"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))

	stateStyles = map[session.State]lipgloss.Style{
		session.StateWorking:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		session.StateReady:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		session.StateWaiting:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		session.StateCompacting: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		session.StateIdle:       mutedStyle,
	}
)

// renderState colors a session state for terminal output.
func renderState(state session.State) string {
	if style, ok := stateStyles[state]; ok {
		return style.Render(string(state))
	}
	return string(state)
}

// formatAge renders a duration the way a human scans a table: the two most
// significant units, no sub-second noise.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	}
}
