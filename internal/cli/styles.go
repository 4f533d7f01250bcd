// Package cli renders pantry reports and prompts for the terminal using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	sage  = lipgloss.Color("#7FB069")
	teal  = lipgloss.Color("#4ECDC4")
	mint  = lipgloss.Color("#95E1D3")
	amber = lipgloss.Color("#FFE66D")
	red   = lipgloss.Color("#FF6B6B")
	gray  = lipgloss.Color("#666666")
	rule  = lipgloss.Color("#333")
)

// Message styles, one per kind of status line.
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(teal)
	WarningStyle = lipgloss.NewStyle().Foreground(amber)
	ErrorStyle   = lipgloss.NewStyle().Foreground(red)
	InfoStyle    = lipgloss.NewStyle().Foreground(mint)
	SubtleStyle  = lipgloss.NewStyle().Foreground(gray)
)

// Table styles used by RenderTable.
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(rule)
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(sage).MarginBottom(1)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(sage)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(rule).
			Padding(1, 2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	PantryIcon  = "🧺"
	CartIcon    = "🛒"
	ClockIcon   = "⏳"
	LinkIcon    = "🔗"
)

func withIcon(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

// FormatSuccess reports a completed change, such as an added item.
func FormatSuccess(message string) string { return withIcon(SuccessStyle, SuccessIcon, message) }

// FormatError reports a failed command.
func FormatError(message string) string { return withIcon(ErrorStyle, ErrorIcon, message) }

// FormatWarning reports a degraded result, such as a short consume.
func FormatWarning(message string) string { return withIcon(WarningStyle, WarningIcon, message) }

// FormatInfo adds a neutral note under a report.
func FormatInfo(message string) string { return withIcon(InfoStyle, InfoIcon, message) }

// FormatTitle heads a report.
func FormatTitle(title string) string { return withIcon(titleStyle, PantryIcon, title) }

// FormatPrompt styles a question that waits for input.
func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " → ")
}

// RenderBox frames a short summary under a title.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.UnsetMargins().Render(title),
		content,
	))
}
