package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/styles"
	"github.com/colonyops/taskhive/internal/tracker"
)

type UndoCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	limit      int
	jsonOutput bool
}

// NewUndoCmd creates the undo and history commands
func NewUndoCmd(flags *Flags, app *tracker.App) *UndoCmd {
	return &UndoCmd{flags: flags, app: app}
}

// Register adds the undo and history commands to the application
func (cmd *UndoCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "undo",
			Usage:     "Revert the most recent change",
			UsageText: "taskhive undo",
			Description: `Restores every task touched by the most recent operation to its prior
state and removes the operation from the history.`,
			Action: withCommand("undo", cmd.runUndo),
		},
		&cli.Command{
			Name:      "history",
			Usage:     "List recorded operations",
			UsageText: "taskhive history [--limit n] [--json]",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum number of operations", Value: 20, Destination: &cmd.limit},
				&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput},
			},
			Action: withCommand("history", cmd.runHistory),
		},
	)

	return app
}

func (cmd *UndoCmd) runUndo(ctx context.Context, c *cli.Command) error {
	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	res, err := svc.UndoLast(ctx)
	if err != nil {
		return fail(c, "undo", err)
	}

	return writeJSON(c, tracker.OK("Undid: "+res.Operation.Description, res.Operation.AffectedTaskIDs, res))
}

func (cmd *UndoCmd) runHistory(ctx context.Context, c *cli.Command) error {
	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	ops, err := svc.History(ctx, cmd.limit)
	if err != nil {
		return fail(c, "history", err)
	}

	if cmd.jsonOutput {
		return writeJSON(c, ops)
	}

	if len(ops) == 0 {
		_, _ = fmt.Fprintln(c.Root().ErrWriter, "No recorded operations")
		return nil
	}

	w := c.Root().Writer
	for _, op := range ops {
		_, _ = fmt.Fprintf(w, "%s  %-12s %s %s\n",
			styles.MutedStyle.Render(op.Timestamp.Local().Format(time.DateTime)),
			op.Type,
			op.Description,
			styles.MutedStyle.Render(fmt.Sprintf("(%s)", plural(len(op.AffectedTaskIDs), "task"))),
		)
	}
	return nil
}
