// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/taskhive/internal/core/task"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

var (
	HeaderStyle  lipgloss.Style
	TitleStyle   lipgloss.Style
	MutedStyle   lipgloss.Style
	BorderStyle  lipgloss.Style
	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	CellStyle    lipgloss.Style

	statusStyles   map[task.Status]lipgloss.Style
	priorityStyles map[task.Priority]lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		Padding(0, 1)
	TitleStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	BorderStyle = lipgloss.NewStyle().Foreground(p.Surface)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	CellStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Padding(0, 1)

	statusStyles = map[task.Status]lipgloss.Style{
		task.StatusPending:    lipgloss.NewStyle().Foreground(p.Foreground),
		task.StatusInProgress: lipgloss.NewStyle().Foreground(p.Secondary),
		task.StatusCompleted:  lipgloss.NewStyle().Foreground(p.Success),
		task.StatusBlocked:    lipgloss.NewStyle().Foreground(p.Error),
		task.StatusCancelled:  lipgloss.NewStyle().Foreground(p.Muted).Strikethrough(true),
	}
	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityLow:      lipgloss.NewStyle().Foreground(p.Muted),
		task.PriorityMedium:   lipgloss.NewStyle().Foreground(p.Foreground),
		task.PriorityHigh:     lipgloss.NewStyle().Foreground(p.Warning),
		task.PriorityCritical: lipgloss.NewStyle().Foreground(p.Error).Bold(true),
	}
}

// Status renders a status with its icon and color.
func Status(s task.Status) string {
	return statusStyles[s].Render(StatusIcon(s) + " " + string(s))
}

// Priority renders a priority in its color.
func Priority(p task.Priority) string {
	return priorityStyles[p].Render(string(p))
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	p, _ := GetPalette(DefaultTheme)
	SetTheme(p)
}
