package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jwulff/glucotrack/internal/bloodsugar"
)

var (
	colorFasting      = lipgloss.Color("#1f77b4")
	colorPostprandial = lipgloss.Color("#ff7f0e")
	colorMuted        = lipgloss.Color("#808080")
	colorBorder       = lipgloss.Color("#5a5a5a")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0e0e0")).MarginBottom(1)

	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	labelStyle = lipgloss.NewStyle().Width(30)

	focusedLabelStyle = labelStyle.Foreground(lipgloss.Color("#ffffff")).Bold(true)

	hintStyle = lipgloss.NewStyle().Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d62728"))

	hba1cStyle = lipgloss.NewStyle().Bold(true)

	chartStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#b0b0b0"))
)

// adviceColors matches the web page's accent colors.
var adviceColors = map[bloodsugar.Advice]lipgloss.Color{
	bloodsugar.AdviceLow:         lipgloss.Color("#d62728"),
	bloodsugar.AdviceNormal:      lipgloss.Color("#2ca02c"),
	bloodsugar.AdvicePrediabetes: lipgloss.Color("#ff7f0e"),
	bloodsugar.AdviceHigh:        lipgloss.Color("#d62728"),
}

func adviceStyle(a bloodsugar.Advice) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(adviceColors[a]).
		PaddingLeft(1)
}
