package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/tracker"
)

type ShowCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	jsonOutput bool
}

// NewShowCmd creates a new show command
func NewShowCmd(flags *Flags, app *tracker.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "show",
		Usage:         "Show one task with its change log",
		UsageText:     "taskhive show <ref> [--json]",
		Flags:         []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput}},
		ShellComplete: TaskRefCompleter(cmd.app),
		Action:        withCommand("show", cmd.run),
	})

	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, 1)
	if err != nil {
		return err
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	t, err := svc.Get(ctx, args[0])
	if err != nil {
		return fail(c, "show", err)
	}

	if cmd.jsonOutput {
		return writeJSON(c, t)
	}
	writeTask(c.Root().Writer, t)
	return nil
}
