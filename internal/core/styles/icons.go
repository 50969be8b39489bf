package styles

import "github.com/colonyops/taskhive/internal/core/task"

var (
	IconPending    = "○"
	IconInProgress = "◐"
	IconCompleted  = "●"
	IconBlocked    = "⊘"
	IconCancelled  = "✕"
	IconArchived   = "▣"
)

// StatusIcon returns the glyph shown next to a status.
func StatusIcon(s task.Status) string {
	switch s {
	case task.StatusInProgress:
		return IconInProgress
	case task.StatusCompleted:
		return IconCompleted
	case task.StatusBlocked:
		return IconBlocked
	case task.StatusCancelled:
		return IconCancelled
	default:
		return IconPending
	}
}
