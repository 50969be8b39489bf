package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/styles"
	"github.com/colonyops/taskhive/internal/core/task"
	"github.com/colonyops/taskhive/internal/tracker"
)

type SectionCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	jsonOutput bool
}

// NewSectionCmd creates a new section command
func NewSectionCmd(flags *Flags, app *tracker.App) *SectionCmd {
	return &SectionCmd{flags: flags, app: app}
}

// Register adds the section command to the application
func (cmd *SectionCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "section",
		Usage: "Organize tasks into named sections",
		Description: `Sections group tasks for the markdown export. A task belongs to at most
one section; moving it removes it from any other.`,
		Commands: []*cli.Command{
			{
				Name:          "move",
				Usage:         "Move a task into a section",
				UsageText:     "taskhive section move <ref> [name]",
				Description:   "Places the task in the named section, creating it when needed. Omit the name to unsection the task.",
				ShellComplete: TaskRefCompleter(cmd.app),
				Action:        withCommand("section move", cmd.runMove),
			},
			{
				Name:      "ls",
				Usage:     "List sections and their tasks",
				UsageText: "taskhive section ls [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput},
				},
				Action: withCommand("section ls", cmd.runList),
			},
		},
	})

	return app
}

func (cmd *SectionCmd) runMove(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, 1)
	if err != nil {
		return err
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	t, err := svc.MoveToSection(ctx, args[0], c.Args().Get(1))
	if err != nil {
		return fail(c, "section move", err)
	}

	return writeJSON(c, tracker.OK("Moved task "+t.ID, []string{t.ID}, t))
}

func (cmd *SectionCmd) runList(ctx context.Context, c *cli.Command) error {
	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	sections, err := svc.Sections(ctx)
	if err != nil {
		return fail(c, "section ls", err)
	}

	if cmd.jsonOutput {
		return writeJSON(c, sections)
	}

	if len(sections) == 0 {
		_, _ = fmt.Fprintln(c.Root().ErrWriter, "No sections")
		return nil
	}

	tasks, err := svc.GetTasks(ctx, tracker.Filter{IncludeArchived: true})
	if err != nil {
		return fail(c, "section ls", err)
	}
	byID := make(map[string]*task.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	w := c.Root().Writer
	for _, s := range sections {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.TitleStyle.Render(s.Name), styles.MutedStyle.Render(fmt.Sprintf("(%d)", len(s.TaskIDs))))
		for _, id := range s.TaskIDs {
			t, ok := byID[id]
			if !ok {
				continue
			}
			_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", id, styles.Status(t.Status), t.Title)
		}
	}
	return nil
}
