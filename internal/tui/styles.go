package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#0EA5E9")
	accentColor  = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	textColor    = lipgloss.Color("#F9FAFB")

	muted = lipgloss.NewStyle().Foreground(mutedColor)

	tabActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 2)

	tabInactive = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 2)

	cardBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	statValue = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	statLabel = lipgloss.NewStyle().Foreground(mutedColor)

	selectedRow = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	favMark     = lipgloss.NewStyle().Foreground(accentColor)
	errText     = lipgloss.NewStyle().Foreground(errorColor)

	statusBar = lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1)
)
