package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/tracker"
)

type DeleteCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	strategy string
	force    bool
}

// NewDeleteCmd creates a new delete command
func NewDeleteCmd(flags *Flags, app *tracker.App) *DeleteCmd {
	return &DeleteCmd{flags: flags, app: app}
}

// Register adds the delete command to the application
func (cmd *DeleteCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a task",
		UsageText: "taskhive delete <ref> [--strategy block|reassign|cascade] [--force]",
		Description: `Deletes a task. Tasks that depend on it are handled by --strategy:

  block     refuse while live tasks depend on it (default)
  reassign  remove the dependency from every dependent
  cascade   delete every task that depends on it, transitively

--force turns a blocked delete into a reassign. The delete can be undone.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Usage: "dependent handling (block, reassign, cascade)", Value: "block", Destination: &cmd.strategy},
			&cli.BoolFlag{Name: "force", Usage: "detach blocking dependents instead of failing", Destination: &cmd.force},
		},
		ShellComplete: TaskRefCompleter(cmd.app),
		Action:        withCommand("delete", cmd.run),
	})

	return app
}

func (cmd *DeleteCmd) run(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, 1)
	if err != nil {
		return err
	}

	strategy, err := tracker.ParseStrategy(cmd.strategy)
	if err != nil {
		return fail(c, "delete", err)
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	res, err := svc.Delete(ctx, args[0], strategy, cmd.force)
	if err != nil {
		return fail(c, "delete", err)
	}

	return writeJSON(c, tracker.OK("Deleted "+plural(len(res.Deleted), "task"), res.Deleted, res))
}
