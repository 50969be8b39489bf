package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/task"
	"github.com/colonyops/taskhive/internal/tracker"
	"github.com/colonyops/taskhive/pkg/iojson"
)

type LsCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	statuses   []string
	priorities []string
	assignee   string
	tag        string
	category   string
	section    string
	dependsOn  string
	archived   bool
	sort       string
	reverse    bool
	limit      int
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *tracker.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List tasks",
		UsageText: "taskhive ls [options]",
		Description: `Displays a table of tasks matching the filters, highest priority first.

Category filters are globs: "backend/**" matches every category under backend.
Use --json for one JSON object per line.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "status", Aliases: []string{"s"}, Usage: "only these statuses (repeatable)", Destination: &cmd.statuses},
			&cli.StringSliceFlag{Name: "priority", Aliases: []string{"p"}, Usage: "only these priorities (repeatable)", Destination: &cmd.priorities},
			&cli.StringFlag{Name: "assignee", Aliases: []string{"a"}, Usage: "only tasks with this assignee", Destination: &cmd.assignee},
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "only tasks with this tag", Destination: &cmd.tag},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "category glob", Destination: &cmd.category},
			&cli.StringFlag{Name: "section", Usage: "only tasks in this section", Destination: &cmd.section},
			&cli.StringFlag{Name: "depends-on", Usage: "only tasks depending on this task", Destination: &cmd.dependsOn},
			&cli.BoolFlag{Name: "archived", Usage: "include archived tasks", Destination: &cmd.archived},
			&cli.StringFlag{Name: "sort", Usage: "priority, due, created, updated, or title", Value: string(tracker.SortPriority), Destination: &cmd.sort},
			&cli.BoolFlag{Name: "reverse", Aliases: []string{"r"}, Usage: "reverse the sort order", Destination: &cmd.reverse},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum number of tasks (0 for all)", Destination: &cmd.limit},
			&cli.BoolFlag{Name: "json", Usage: "output as JSON lines", Destination: &cmd.jsonOutput},
		},
		Action: withCommand("ls", cmd.run),
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	filter, err := cmd.filter()
	if err != nil {
		return fail(c, "ls", err)
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	tasks, err := svc.GetTasks(ctx, filter)
	if err != nil {
		return fail(c, "ls", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, t := range tasks {
			if err := iojson.WriteLine(out, t); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(c.Root().ErrWriter, "No tasks found")
		return nil
	}

	_, _ = fmt.Fprintln(out, taskTable(tasks))
	return nil
}

func (cmd *LsCmd) filter() (tracker.Filter, error) {
	sortKey, err := tracker.ParseSortKey(cmd.sort)
	if err != nil {
		return tracker.Filter{}, err
	}

	f := tracker.Filter{
		Assignee:        cmd.assignee,
		Tag:             cmd.tag,
		Category:        cmd.category,
		Section:         cmd.section,
		DependsOn:       cmd.dependsOn,
		IncludeArchived: cmd.archived,
		Sort:            sortKey,
		Reverse:         cmd.reverse,
		Limit:           cmd.limit,
	}

	for _, s := range splitValues(cmd.statuses) {
		status, err := task.ParseStatus(s)
		if err != nil {
			return tracker.Filter{}, err
		}
		f.Statuses = append(f.Statuses, status)
	}
	for _, p := range splitValues(cmd.priorities) {
		priority, err := task.ParsePriority(p)
		if err != nil {
			return tracker.Filter{}, err
		}
		f.Priorities = append(f.Priorities, priority)
	}

	return f, nil
}

// splitValues flattens repeated and comma-separated flag values.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
