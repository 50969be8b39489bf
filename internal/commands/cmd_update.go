package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/task"
	"github.com/colonyops/taskhive/internal/tracker"
	"github.com/colonyops/taskhive/pkg/iojson"
)

type UpdateCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	patch  updateFlags
	reason string
	input  iojson.FileReader[task.Update]
}

// NewUpdateCmd creates a new update command
func NewUpdateCmd(flags *Flags, app *tracker.App) *UpdateCmd {
	return &UpdateCmd{flags: flags, app: app}
}

// Register adds the update command to the application
func (cmd *UpdateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "update",
		Usage:     "Update fields of a task",
		UsageText: "taskhive update <ref> [options]",
		Description: `Applies a patch to one task. Only the flags given are changed.

The reference may be a full id, an id prefix, or a title fragment.
Without field flags, a JSON patch is read from --file or stdin:

  echo '{"status":"completed"}' | taskhive update a1b2`,
		Flags: append(cmd.patch.flags(),
			&cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Usage: "reason recorded in the change log", Destination: &cmd.reason},
			cmd.input.Flag(),
		),
		ShellComplete: TaskRefCompleter(cmd.app),
		Action:        withCommand("update", cmd.run),
	})

	return app
}

func (cmd *UpdateCmd) run(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, 1)
	if err != nil {
		return err
	}

	u, err := cmd.patch.build(c)
	if err != nil {
		return fail(c, "update", err)
	}
	if u.IsEmpty() && cmd.input.Provided() {
		u, err = cmd.input.Read()
		if err != nil {
			return fail(c, "update", &task.ValidationError{Field: "update", Message: err.Error()})
		}
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	if u.Dependencies != nil {
		deps, err := resolveRefs(ctx, svc, *u.Dependencies)
		if err != nil {
			return fail(c, "update", err)
		}
		u.Dependencies = &deps
	}

	t, err := svc.Update(ctx, args[0], u, cmd.reason)
	if err != nil {
		return fail(c, "update", err)
	}

	return writeJSON(c, tracker.OK("Updated task "+t.ID, []string{t.ID}, t))
}
