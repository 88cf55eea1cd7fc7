// Package ui provides consistent styling and components for the monitor-switch CLI
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	// Primary colors
	ColorPrimary   = lipgloss.Color("39")  // Bright blue
	ColorSecondary = lipgloss.Color("205") // Pink/magenta
	ColorSuccess   = lipgloss.Color("82")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorInfo      = lipgloss.Color("86")  // Cyan

	// Neutral colors
	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
	ColorMuted  = lipgloss.Color("238") // Dark gray

	// Input state colors
	ColorCurrent  = ColorSuccess
	ColorFavorite = lipgloss.Color("220") // Gold
	ColorSelected = ColorPrimary
)

// Base styles - building blocks for other styles
var (
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubheaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorMuted).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)
)

// Component-specific styles
var (
	ControlKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	ControlDescStyle = lipgloss.NewStyle().
				Foreground(ColorText)

	CurrentStyle = lipgloss.NewStyle().
			Foreground(ColorCurrent).
			Bold(true)

	FavoriteStyle = lipgloss.NewStyle().
			Foreground(ColorFavorite)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorSelected).
			Bold(true)

	MonitorIDStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Italic(true)
)

// Icons and indicators for consistent app-wide usage
var (
	IconSuccess  = "✓"
	IconError    = "✗"
	IconWarning  = "!"
	IconCurrent  = "●"
	IconFavorite = "★"
	IconCursor   = "›"
	IconSetup    = "»"
	IconSteps    = "→"
)

// FormatControl renders a key hint, e.g. "enter - switch"
func FormatControl(key, desc string) string {
	return ControlKeyStyle.Render(key) + " - " + ControlDescStyle.Render(desc)
}

// FormatInput renders one input line with its current and favorite markers
func FormatInput(label string, current, favorite, selected bool) string {
	cursor := "  "
	if selected {
		cursor = SelectedStyle.Render(IconCursor) + " "
	}

	star := " "
	if favorite {
		star = FavoriteStyle.Render(IconFavorite)
	}

	text := TextStyle.Render(label)
	switch {
	case selected:
		text = SelectedStyle.Render(label)
	case current:
		text = CurrentStyle.Render(label)
	}

	line := cursor + star + " " + text
	if current {
		line += " " + CurrentStyle.Render(IconCurrent)
	}
	return line
}

// FormatMonitor renders a monitor heading with its identity
func FormatMonitor(position int, name, id string) string {
	return SubheaderStyle.Render(fmt.Sprintf("%d  %s", position, name)) + "  " + MonitorIDStyle.Render(id)
}

// FormatCheck renders one host check line
func FormatCheck(status, name, detail string) string {
	var icon string
	var style lipgloss.Style

	switch status {
	case "ok":
		icon, style = IconSuccess, SuccessStyle
	case "warn":
		icon, style = IconWarning, WarningStyle
	default:
		icon, style = IconError, ErrorStyle
	}

	result := "   " + style.Render(icon) + " " + name
	if detail != "" {
		result += " - " + style.Render(detail)
	}
	return result
}

// FormatSetupHeader renders a section title followed by a separator
func FormatSetupHeader(title string) string {
	coloredIcon := InfoStyle.Render(IconSetup)
	header := HeaderStyle.Render(coloredIcon + " " + title)
	return header + "\n" + CreateSeparator(50, "─")
}

// FormatActionItem renders a numbered follow-up step
func FormatActionItem(index int, action string) string {
	return TextStyle.Render(fmt.Sprintf("   %d. %s", index, action))
}

func FormatNextStepsHeader() string {
	return InfoStyle.Bold(true).Render(IconSteps + " Next Steps:")
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50 // Default width
	}
	if char == "" {
		char = "─"
	}

	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}
