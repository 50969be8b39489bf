package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/task"
	"github.com/colonyops/taskhive/internal/tracker"
)

type ArchiveCmd struct {
	flags *Flags
	app   *tracker.App
}

// NewArchiveCmd creates the archive and unarchive commands
func NewArchiveCmd(flags *Flags, app *tracker.App) *ArchiveCmd {
	return &ArchiveCmd{flags: flags, app: app}
}

// Register adds the archive and unarchive commands to the application
func (cmd *ArchiveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "archive",
			Usage:     "Archive a task",
			UsageText: "taskhive archive <ref>",
			Description: `Hides a task from listings and searches and drops it from its section.
Use --archived on ls and find to include archived tasks.`,
			ShellComplete: TaskRefCompleter(cmd.app),
			Action:        withCommand("archive", cmd.archive),
		},
		&cli.Command{
			Name:          "unarchive",
			Usage:         "Restore an archived task",
			UsageText:     "taskhive unarchive <ref>",
			ShellComplete: TaskRefCompleter(cmd.app),
			Action:        withCommand("unarchive", cmd.unarchive),
		},
	)

	return app
}

func (cmd *ArchiveCmd) archive(ctx context.Context, c *cli.Command) error {
	return cmd.apply(ctx, c, "archive", "Archived", (*tracker.Service).Archive)
}

func (cmd *ArchiveCmd) unarchive(ctx context.Context, c *cli.Command) error {
	return cmd.apply(ctx, c, "unarchive", "Restored", (*tracker.Service).Unarchive)
}

func (cmd *ArchiveCmd) apply(
	ctx context.Context,
	c *cli.Command,
	op, verb string,
	fn func(*tracker.Service, context.Context, string) (*task.Task, error),
) error {
	args, err := requireArgs(c, 1)
	if err != nil {
		return err
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	t, err := fn(svc, ctx, args[0])
	if err != nil {
		return fail(c, op, err)
	}

	return writeJSON(c, tracker.OK(verb+" task "+t.ID, []string{t.ID}, t))
}
