package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#14B8A6"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func heading(s string) string { return headingStyle.Render(s) }

func ok(s string) string { return okStyle.Render(s) }

func fail(s string) string { return failStyle.Render(s) }

func dim(s string) string { return dimStyle.Render(s) }
