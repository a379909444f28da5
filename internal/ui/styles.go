package ui

import "github.com/charmbracelet/lipgloss"

const (
	accent    = lipgloss.Color("#4CAF50")
	accentAlt = lipgloss.Color("#81C784")
	muted     = lipgloss.Color("#6B7280")
	danger    = lipgloss.Color("#FF4757")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginBottom(1)

	ModeActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accent).
			Bold(true).
			Padding(0, 2)

	ModeInactiveStyle = lipgloss.NewStyle().
				Foreground(muted).
				Background(lipgloss.Color("#2A2A2A")).
				Padding(0, 2)

	FieldStyle = lipgloss.NewStyle().
			Foreground(accentAlt).
			Bold(true)

	CellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(accentAlt).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)
)
