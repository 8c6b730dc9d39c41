package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#7C9CF5")
	colorText    = lipgloss.Color("#F3F4F6")
	colorDim     = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorDim)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	itemStyle     = lipgloss.NewStyle().Foreground(colorText)
	dimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	helpStyle     = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	successStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	warningStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	labelStyle    = lipgloss.NewStyle().Width(18).Foreground(colorText)
	spinnerStyle  = lipgloss.NewStyle().Foreground(colorAccent)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1)
)

// statusStyle returns the style for a service status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "running":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case "pending":
		return warningStyle
	case "failed":
		return lipgloss.NewStyle().Foreground(colorError)
	}
	return dimStyle
}
