package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
)

var (
	colorRed     = lipgloss.Color("#FF5555")
	colorYellow  = lipgloss.Color("#F1FA8C")
	colorGreen   = lipgloss.Color("#50FA7B")
	colorCyan    = lipgloss.Color("#8BE9FD")
	colorMagenta = lipgloss.Color("#FF79C6")
	colorGray    = lipgloss.Color("#6272A4")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	headerStyle = lipgloss.NewStyle().Foreground(colorMagenta).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(colorGray)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	dimStyle    = lipgloss.NewStyle().Foreground(colorGray)
)

// stdoutIsTerminal allows tests to force color detection.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func priorityStyle(label string) lipgloss.Style {
	switch label {
	case report.PriorityHigh:
		return critStyle
	case report.PriorityMedium:
		return warnStyle
	default:
		return okStyle
	}
}

// deltaStyle colors a change: growth is bad, shrinkage is good.
func deltaStyle(delta float64) lipgloss.Style {
	switch {
	case delta > 0:
		return critStyle
	case delta < 0:
		return okStyle
	default:
		return dimStyle
	}
}
