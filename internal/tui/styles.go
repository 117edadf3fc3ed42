package tui

import (
	"sync"

	"charm.land/lipgloss/v2"
)

// Styles holds the computed lipgloss styles for the viewer chrome.
type Styles struct {
	StatusBar    lipgloss.Style
	StatusWarn   lipgloss.Style
	Feedback     lipgloss.Style
	DiagOverlay  lipgloss.Style
	InsertMarker lipgloss.Style
}

var (
	stylesOnce sync.Once
	styles     Styles
)

// GetStyles returns the viewer styles, building them on first access.
func GetStyles() *Styles {
	stylesOnce.Do(func() {
		styles = buildStyles()
	})
	return &styles
}

func buildStyles() Styles {
	return Styles{
		StatusBar: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),

		StatusWarn: lipgloss.NewStyle().
			Background(lipgloss.Color("124")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),

		Feedback: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("240")).
			Padding(0, 1),

		DiagOverlay: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true),

		InsertMarker: lipgloss.NewStyle().
			Background(lipgloss.Color("28")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
	}
}
