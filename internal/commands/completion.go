package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/tracker"
)

// TaskRefCompleter returns a ShellCompleteFunc that suggests live task ids
// as positional completions. Set this as the ShellComplete field on any
// cli.Command that accepts task references.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TaskRefCompleter(app *tracker.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		// Delegate to default flag completion when typing a flag
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		svc, err := app.Tasks()
		if err != nil {
			return
		}
		tasks, err := svc.GetTasks(ctx, tracker.Filter{})
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, t := range tasks {
			_, _ = fmt.Fprintln(w, t.ID)
		}
	}
}
