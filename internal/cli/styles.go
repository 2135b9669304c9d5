// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Adaptive colors keep codes readable on light terminals.
var (
	PrimaryColor = lipgloss.AdaptiveColor{Light: "#1F6F43", Dark: "#3CB371"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#137A74", Dark: "#4ECDC4"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#FFE66D"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF6B6B"}
	InfoColor    = lipgloss.AdaptiveColor{Light: "#2C6E91", Dark: "#95E1D3"}
	SubtleColor  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#666666"}
	BorderColor  = lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#333333"}
)

var (
	// TitleStyle is used for box titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// CodeStyle highlights a resolved ANZSIC class code.
	CodeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// UnknownStyle marks the "Classification Not Found" sentinel.
	UnknownStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(WarningColor)

	// BoxStyle frames one classified business.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 2)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(BorderColor)

	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	RobotIcon   = "🤖"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// RenderBox renders content under a title in a rounded box.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, TitleStyle.Render(title), content))
}
