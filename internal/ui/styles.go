// Package ui provides consistent styling and components for the niri-spacer CLI
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	// Primary colors
	ColorPrimary = lipgloss.Color("39")  // Bright blue
	ColorSuccess = lipgloss.Color("82")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red

	// Neutral colors
	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray

	// Status colors
	ColorOK     = ColorSuccess
	ColorBroken = ColorError
)

// Base styles - building blocks for other styles
var (
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	ListItemStyle = lipgloss.NewStyle().
			Foreground(ColorText)
)

// Status indicators
var (
	OKIndicator = lipgloss.NewStyle().
			Foreground(ColorOK).
			Render("●")

	BrokenIndicator = lipgloss.NewStyle().
			Foreground(ColorBroken).
			Render("○")
)

// Icons for consistent app-wide usage
var (
	IconSuccess = "✓"
	IconError   = "✗"
	IconSteps   = "→"
)

// FormatAppHeader renders the title bar used by the report commands.
func FormatAppHeader(title, subtitle string) string {
	header := HeaderStyle.Render(title)
	if subtitle != "" {
		header += " " + SubtleStyle.Render(subtitle)
	}
	return header + "\n" + CreateSeparator(50, "─")
}

// FormatStatus renders a status line with a filled or empty indicator.
func FormatStatus(ok bool, status string) string {
	indicator := BrokenIndicator
	if ok {
		indicator = OKIndicator
	}
	return indicator + " " + status
}

// FormatCheck renders a pass/fail line for the session report.
func FormatCheck(ok bool, label string) string {
	if ok {
		return "  " + SuccessStyle.Render(IconSuccess) + " " + TextStyle.Render(label)
	}
	return "  " + ErrorStyle.Render(IconError) + " " + TextStyle.Render(label)
}

// FormatListItem renders a bulleted list entry.
func FormatListItem(item string, active bool) string {
	style := ListItemStyle
	if active {
		style = style.Foreground(ColorPrimary)
	}
	return "  • " + style.Render(item)
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}
	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}
