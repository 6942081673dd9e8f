package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	quoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("109")).
			Italic(true)

	notifyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	deadlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("179"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)
