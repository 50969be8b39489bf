package commands

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/task"
)

// updateFlags binds the patch flags shared by update and bulk update. Only
// flags the user set end up in the patch.
type updateFlags struct {
	title       string
	description string
	status      string
	priority    string
	assignee    string
	category    string
	tags        []string
	dependsOn   []string
	adrs        []string
	due         string
	progress    int
	notes       string
}

func (f *updateFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "new title", Destination: &f.title},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "new description", Destination: &f.description},
		&cli.StringFlag{Name: "status", Usage: "pending, in_progress, completed, blocked, or cancelled", Destination: &f.status},
		&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "low, medium, high, or critical", Destination: &f.priority},
		&cli.StringFlag{Name: "assignee", Aliases: []string{"a"}, Usage: "new assignee (empty clears)", Destination: &f.assignee},
		&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "new category (empty clears)", Destination: &f.category},
		&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "replace tags (repeatable)", Destination: &f.tags},
		&cli.StringSliceFlag{Name: "depends-on", Usage: "replace dependencies (repeatable)", Destination: &f.dependsOn},
		&cli.StringSliceFlag{Name: "adr", Usage: "replace linked decision records (repeatable)", Destination: &f.adrs},
		&cli.StringFlag{Name: "due", Usage: `due date (YYYY-MM-DD or RFC 3339), or "none" to clear`, Destination: &f.due},
		&cli.IntFlag{Name: "progress", Usage: "progress percentage (0-100)", Destination: &f.progress},
		&cli.StringFlag{Name: "notes", Usage: "replace notes", Destination: &f.notes},
	}
}

// build returns the patch for the flags set on c. Dependencies are returned
// as given; callers resolve them.
func (f *updateFlags) build(c *cli.Command) (task.Update, error) {
	var u task.Update

	if c.IsSet("title") {
		u.Title = &f.title
	}
	if c.IsSet("description") {
		u.Description = &f.description
	}
	if c.IsSet("status") {
		s := task.Status(strings.ToLower(f.status))
		u.Status = &s
	}
	if c.IsSet("priority") {
		p := task.Priority(strings.ToLower(f.priority))
		u.Priority = &p
	}
	if c.IsSet("assignee") {
		u.Assignee = &f.assignee
	}
	if c.IsSet("category") {
		u.Category = &f.category
	}
	if c.IsSet("tag") {
		u.Tags = &f.tags
	}
	if c.IsSet("depends-on") {
		u.Dependencies = &f.dependsOn
	}
	if c.IsSet("adr") {
		u.LinkedADRs = &f.adrs
	}
	if c.IsSet("due") {
		if strings.EqualFold(f.due, "none") || f.due == "" {
			u.ClearDueDate = true
		} else {
			due, err := parseDate(f.due)
			if err != nil {
				return task.Update{}, &task.ValidationError{Field: "dueDate", Message: err.Error()}
			}
			u.DueDate = &due
		}
	}
	if c.IsSet("progress") {
		u.ProgressPercentage = &f.progress
	}
	if c.IsSet("notes") {
		u.Notes = &f.notes
	}

	return u, nil
}
