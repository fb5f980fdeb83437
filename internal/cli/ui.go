package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nerrad567/asset-registry/internal/asset"
)

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "2", Dark: "2"} // Green
	colorError   = lipgloss.AdaptiveColor{Light: "1", Dark: "1"} // Red
	colorPrimary = lipgloss.AdaptiveColor{Light: "5", Dark: "5"} // Magenta
	colorInfo    = lipgloss.AdaptiveColor{Light: "6", Dark: "6"} // Cyan
	colorMuted   = lipgloss.AdaptiveColor{Light: "8", Dark: "8"} // Gray
	colorWarning = lipgloss.AdaptiveColor{Light: "3", Dark: "3"} // Yellow

	styleSuccess  = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleInfo     = lipgloss.NewStyle().Foreground(colorInfo)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleWarning  = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleTitle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true)
	styleHeader   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSelected = lipgloss.NewStyle().Reverse(true)
	styleBorder   = lipgloss.NewStyle().Foreground(colorMuted)
	styleCell     = lipgloss.NewStyle().Padding(0, 1)
)

const (
	iconSuccess = "✔"
	iconError   = "✘"
	iconInfo    = "ℹ"
	iconWarning = "⚠"
)

func formatSuccess(msg string) string { return styleSuccess.Render(iconSuccess + " " + msg) }
func formatError(msg string) string   { return styleError.Render(iconError + " " + msg) }
func formatInfo(msg string) string    { return styleInfo.Render(iconInfo + " " + msg) }
func formatWarning(msg string) string { return styleWarning.Render(iconWarning + " " + msg) }

// statusStyle colours a status like the web badges: green, amber, red.
func statusStyle(s asset.Status) lipgloss.Style {
	switch s {
	case asset.StatusRunning:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case asset.StatusMaintenance:
		return lipgloss.NewStyle().Foreground(colorWarning)
	case asset.StatusDown:
		return lipgloss.NewStyle().Foreground(colorError).Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}
