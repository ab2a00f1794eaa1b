// Package ui provides the visual styling for the thoth chat interface.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Semantic colors.
var (
	Primary = lipgloss.Color("#7D56F4") // Indigo
	Accent  = lipgloss.Color("#EC6FBC") // Pink
	Muted   = lipgloss.Color("#6B7280") // Gray
	ErrorC  = lipgloss.Color("#E53935") // Red
	Border  = lipgloss.Color("#3B3B4F")
)

// Styles holds the lipgloss styles used across the TUI.
type Styles struct {
	Header    lipgloss.Style
	Bold      lipgloss.Style
	UserLabel lipgloss.Style
	UserInput lipgloss.Style
	Assistant lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Footer    lipgloss.Style
	InputBox  lipgloss.Style
}

// DefaultStyles returns the standard style set.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1),
		Bold: lipgloss.NewStyle().Bold(true),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginTop(1),
		UserInput: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"}).
			PaddingLeft(2),
		Assistant: lipgloss.NewStyle().
			Bold(true).
			Foreground(Accent).
			MarginTop(1),
		Muted: lipgloss.NewStyle().Foreground(Muted),
		Error: lipgloss.NewStyle().Foreground(ErrorC),
		Footer: lipgloss.NewStyle().
			Foreground(Muted).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(Border),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1),
	}
}
