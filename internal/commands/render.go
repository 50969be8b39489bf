package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/colonyops/taskhive/internal/core/analytics"
	"github.com/colonyops/taskhive/internal/core/styles"
	"github.com/colonyops/taskhive/internal/core/task"
)

const titleWidth = 48

// taskTable renders tasks as a bordered table.
func taskTable(tasks []*task.Task) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(time.DateOnly)
		}
		rows = append(rows, []string{
			t.ID,
			styles.Status(t.Status),
			styles.Priority(t.Priority),
			truncate(t.Title, titleWidth),
			t.Assignee,
			t.Category,
			due,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.BorderStyle).
		Headers("ID", "STATUS", "PRIORITY", "TITLE", "ASSIGNEE", "CATEGORY", "DUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.HeaderStyle
			}
			if tasks[row].Archived && col > 2 {
				return styles.MutedStyle.Padding(0, 1)
			}
			return styles.CellStyle
		}).
		String()
}

// writeTask prints one task in detail.
func writeTask(w io.Writer, t *task.Task) {
	field := func(name, value string) {
		if value == "" {
			return
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.MutedStyle.Render(fmt.Sprintf("%-12s", name)), value)
	}

	_, _ = fmt.Fprintln(w, styles.TitleStyle.Render(t.Title))
	field("id", t.ID)
	field("status", styles.Status(t.Status))
	field("priority", styles.Priority(t.Priority))
	field("progress", fmt.Sprintf("%d%%", t.ProgressPercentage))
	field("assignee", t.Assignee)
	field("category", t.Category)
	field("tags", strings.Join(t.Tags, ", "))
	field("depends on", strings.Join(t.Dependencies, ", "))
	field("adrs", strings.Join(t.LinkedADRs, ", "))
	if t.DueDate != nil {
		field("due", t.DueDate.Format(time.DateOnly))
	}
	field("created", t.CreatedAt.Format(time.RFC3339))
	field("updated", t.UpdatedAt.Format(time.RFC3339))
	if t.CompletedAt != nil {
		field("completed", t.CompletedAt.Format(time.RFC3339))
	}
	if t.Archived && t.ArchivedAt != nil {
		field("archived", t.ArchivedAt.Format(time.RFC3339))
	}

	if t.Description != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", t.Description)
	}
	if t.Notes != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n%s\n", styles.HeaderStyle.Render("Notes"), t.Notes)
	}
	if len(t.ChangeLog) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n", styles.HeaderStyle.Render("Changes"))
		for _, e := range t.ChangeLog {
			_, _ = fmt.Fprintf(w, "  %s  %-10s %s\n", styles.MutedStyle.Render(e.Timestamp.Format(time.DateTime)), e.Action, e.Details)
		}
	}
}

// writeReport prints an analytics report.
func writeReport(w io.Writer, r analytics.Report) {
	line := func(name string, value any) {
		_, _ = fmt.Fprintf(w, "  %-24s %v\n", name, value)
	}

	_, _ = fmt.Fprintf(w, "%s %s\n", styles.TitleStyle.Render("Task health"), styles.MutedStyle.Render("("+string(r.Timeframe)+")"))
	line("total", r.Total)
	line("pending", r.Pending)
	line("in progress", r.InProgress)
	line("completed", r.Completed)
	line("blocked", r.Blocked)
	line("cancelled", r.Cancelled)
	line("archived", r.Archived)

	_, _ = fmt.Fprintln(w)
	line("completion rate", fmt.Sprintf("%.1f%%", r.CompletionRate))
	line("priority-weighted score", fmt.Sprintf("%.1f%%", r.PriorityWeightedScore))
	line("average age", fmt.Sprintf("%.1f days", r.AverageAgeDays))
	line("completed in window", r.CompletedInWindow)
	line("weekly velocity", r.WeeklyVelocity)

	critical := fmt.Sprint(r.CriticalRemaining)
	if r.CriticalRemaining > 0 {
		critical = styles.ErrorStyle.Render(critical)
	}
	overdue := fmt.Sprint(r.Overdue)
	if r.Overdue > 0 {
		overdue = styles.WarningStyle.Render(overdue)
	}
	line("critical remaining", critical)
	line("overdue", overdue)

	_, _ = fmt.Fprintln(w)
	for _, p := range task.Priorities {
		pc := r.ByPriority[p]
		pad := strings.Repeat(" ", 25-len(p))
		_, _ = fmt.Fprintf(w, "  %s%s%d/%d\n", styles.Priority(p), pad, pc.Completed, pc.Total)
	}
}
