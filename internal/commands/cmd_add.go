package commands

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/task"
	"github.com/colonyops/taskhive/internal/tracker"
	"github.com/colonyops/taskhive/pkg/iojson"
)

type AddCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	description string
	priority    string
	assignee    string
	category    string
	tags        []string
	dependsOn   []string
	adrs        []string
	due         string
	notes       string
	section     string
	input       iojson.FileReader[task.Draft]
}

// NewAddCmd creates a new add command
func NewAddCmd(flags *Flags, app *tracker.App) *AddCmd {
	return &AddCmd{flags: flags, app: app}
}

// Register adds the add command to the application
func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Create a task",
		UsageText: "taskhive add <title...> [options]",
		Description: `Creates a pending task. The title is taken from the positional arguments.

Dependencies may be given as ids, id prefixes, or title fragments; each must
resolve to exactly one existing task.

Without a title, a JSON draft is read from --file or stdin:

  echo '{"title":"Write docs","priority":"high","tags":["docs"]}' | taskhive add`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "longer description", Destination: &cmd.description},
			&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "low, medium, high, or critical", Destination: &cmd.priority},
			&cli.StringFlag{Name: "assignee", Aliases: []string{"a"}, Usage: "who owns the task", Destination: &cmd.assignee},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "slash-separated category, e.g. backend/auth", Destination: &cmd.category},
			&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "tag (repeatable)", Destination: &cmd.tags},
			&cli.StringSliceFlag{Name: "depends-on", Usage: "task this one depends on (repeatable)", Destination: &cmd.dependsOn},
			&cli.StringSliceFlag{Name: "adr", Usage: "linked decision record (repeatable)", Destination: &cmd.adrs},
			&cli.StringFlag{Name: "due", Usage: "due date (YYYY-MM-DD or RFC 3339)", Destination: &cmd.due},
			&cli.StringFlag{Name: "notes", Usage: "free-form notes", Destination: &cmd.notes},
			&cli.StringFlag{Name: "section", Aliases: []string{"s"}, Usage: "section to place the task in", Destination: &cmd.section},
			cmd.input.Flag(),
		},
		Action: withCommand("add", cmd.run),
	})

	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	draft, err := cmd.draft(c)
	if err != nil {
		return fail(c, "add", err)
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	deps, err := resolveRefs(ctx, svc, draft.Dependencies)
	if err != nil {
		return fail(c, "add", err)
	}
	draft.Dependencies = deps

	t, err := svc.Create(ctx, draft)
	if err != nil {
		return fail(c, "add", err)
	}

	return writeJSON(c, tracker.OK("Created task "+t.ID, []string{t.ID}, t))
}

func (cmd *AddCmd) draft(c *cli.Command) (task.Draft, error) {
	title := strings.Join(c.Args().Slice(), " ")
	if title == "" && cmd.input.Provided() {
		return cmd.input.Read()
	}

	d := task.Draft{
		Title:        title,
		Description:  cmd.description,
		Priority:     task.Priority(strings.ToLower(cmd.priority)),
		Assignee:     cmd.assignee,
		Category:     cmd.category,
		Tags:         cmd.tags,
		Dependencies: cmd.dependsOn,
		LinkedADRs:   cmd.adrs,
		Notes:        cmd.notes,
		Section:      cmd.section,
	}
	if cmd.due != "" {
		due, err := parseDate(cmd.due)
		if err != nil {
			return task.Draft{}, &task.ValidationError{Field: "dueDate", Message: err.Error()}
		}
		d.DueDate = &due
	}
	return d, nil
}

// resolveRefs maps each reference to a canonical id.
func resolveRefs(ctx context.Context, svc *tracker.Service, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		res, err := svc.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, res.ID)
	}
	return ids, nil
}
