package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240")
	colorHighlight = lipgloss.Color("212") // Pink
	colorError     = lipgloss.Color("196")
)

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted)

	focusedPaneStyle = paneStyle.
				BorderForeground(colorPrimary)

	paneTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHighlight)

	headlineStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	dayHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHighlight)

	todayHeader = dayHeader.
			Underline(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	statusBar = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	statusKey = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)
)
