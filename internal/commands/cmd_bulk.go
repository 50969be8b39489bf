package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/tracker"
	"github.com/colonyops/taskhive/pkg/iojson"
)

type BulkCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	patch    updateFlags
	reason   string
	dryRun   bool
	strategy string
	force    bool
	yes      bool
}

// NewBulkCmd creates a new bulk command
func NewBulkCmd(flags *Flags, app *tracker.App) *BulkCmd {
	return &BulkCmd{flags: flags, app: app}
}

// Register adds the bulk command to the application
func (cmd *BulkCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "bulk",
		Usage: "Update or delete many tasks at once",
		Description: `Applies one change to several tasks. References that fail to resolve or
tasks the change cannot apply to are reported and skipped; the rest are
applied together and undone as a single operation.

Use --dry-run to see the outcome without saving.`,
		Commands: []*cli.Command{
			{
				Name:      "update",
				Usage:     "Apply the same patch to several tasks",
				UsageText: "taskhive bulk update <ref...> [field options] [--dry-run]",
				Flags: append(cmd.patch.flags(),
					&cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Usage: "reason recorded in each change log", Destination: &cmd.reason},
					&cli.BoolFlag{Name: "dry-run", Usage: "report the outcome without saving", Destination: &cmd.dryRun},
				),
				ShellComplete: TaskRefCompleter(cmd.app),
				Action:        withCommand("bulk update", cmd.runUpdate),
			},
			{
				Name:      "delete",
				Usage:     "Delete several tasks",
				UsageText: "taskhive bulk delete <ref...> [--strategy block|reassign|cascade] [--force] [--dry-run] [--yes]",
				Description: `Deletes each task with the given strategy. Tasks in the same batch never
block one another. Without --yes, an interactive terminal asks for
confirmation; elsewhere --yes is required.`,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "strategy", Usage: "dependent handling (block, reassign, cascade)", Value: "block", Destination: &cmd.strategy},
					&cli.BoolFlag{Name: "force", Usage: "detach blocking dependents instead of skipping", Destination: &cmd.force},
					&cli.BoolFlag{Name: "dry-run", Usage: "report the outcome without saving", Destination: &cmd.dryRun},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "confirm the delete", Destination: &cmd.yes},
				},
				ShellComplete: TaskRefCompleter(cmd.app),
				Action:        withCommand("bulk delete", cmd.runDelete),
			},
		},
	})

	return app
}

func (cmd *BulkCmd) runUpdate(ctx context.Context, c *cli.Command) error {
	refs, err := requireArgs(c, 1)
	if err != nil {
		return err
	}

	u, err := cmd.patch.build(c)
	if err != nil {
		return fail(c, "bulk update", err)
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	if u.Dependencies != nil {
		deps, err := resolveRefs(ctx, svc, *u.Dependencies)
		if err != nil {
			return fail(c, "bulk update", err)
		}
		u.Dependencies = &deps
	}

	res, err := svc.BulkUpdate(ctx, refs, u, cmd.reason, cmd.dryRun)
	if err != nil {
		return fail(c, "bulk update", err)
	}

	return writeJSON(c, bulkResult("Updated", res))
}

func (cmd *BulkCmd) runDelete(ctx context.Context, c *cli.Command) error {
	refs, err := requireArgs(c, 1)
	if err != nil {
		return err
	}

	strategy, err := tracker.ParseStrategy(cmd.strategy)
	if err != nil {
		return fail(c, "bulk delete", err)
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	confirmed := cmd.yes
	if !cmd.dryRun && !confirmed && iojson.IsTerminal(os.Stdin) {
		confirmed, err = confirmDelete(len(refs), strategy)
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	res, err := svc.BulkDelete(ctx, refs, strategy, cmd.force, cmd.dryRun, confirmed)
	if err != nil {
		return fail(c, "bulk delete", err)
	}

	return writeJSON(c, bulkResult("Deleted", res))
}

func confirmDelete(n int, strategy tracker.Strategy) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %s?", plural(n, "task"))).
		Description(fmt.Sprintf("Dependents are handled with the %s strategy. This can be undone.", strategy)).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return confirmed, err
}

// bulkResult summarizes a bulk run. The run succeeds when at least one item
// did, or when nothing was skipped.
func bulkResult(verb string, res tracker.BulkResult) tracker.Result {
	msg := fmt.Sprintf("%s %d of %d, skipped %d", verb, res.Succeeded, res.Processed, res.Skipped)
	if res.DryRun {
		msg = "Dry run: " + msg
	}
	out := tracker.OK(msg, res.AffectedIDs(), res)
	out.Success = res.Succeeded > 0 || res.Skipped == 0
	return out
}
