package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/analytics"
	"github.com/colonyops/taskhive/internal/core/logging"
	"github.com/colonyops/taskhive/internal/core/styles"
	"github.com/colonyops/taskhive/internal/core/task"
	"github.com/colonyops/taskhive/internal/store/jsonfile"
	"github.com/colonyops/taskhive/internal/tracker"
	"github.com/colonyops/taskhive/pkg/iojson"
)

type WatchCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	timeframe  string
	jsonOutput bool
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags, app *tracker.App) *WatchCmd {
	return &WatchCmd{flags: flags, app: app}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Print a fresh report whenever the task file changes",
		UsageText: "taskhive watch [--timeframe week] [--json]",
		Description: `Watches the task file and prints the stats report after every change made
by another taskhive process. The file is read without taking the write lock,
so watch can run alongside other commands. Stop with Ctrl-C.

Use --json for one report per line.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "timeframe", Aliases: []string{"t"}, Usage: "window for velocity metrics", Value: string(analytics.TimeframeWeek), Destination: &cmd.timeframe},
			&cli.BoolFlag{Name: "json", Usage: "output as JSON lines", Destination: &cmd.jsonOutput},
		},
		Action: withCommand("watch", cmd.run),
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	tf, err := analytics.ParseTimeframe(cmd.timeframe)
	if err != nil {
		return fail(c, "watch", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := cmd.app.StorePath()
	log := logging.Component("watch")
	watcher, err := jsonfile.NewWatcher(path, log)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer func() { _ = watcher.Close() }()

	events := watcher.Watch(ctx)

	if err := cmd.report(c, path, tf, log); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			if err := cmd.report(c, path, tf, log); err != nil {
				return err
			}
		}
	}
}

// report prints one report. Unreadable files are logged and skipped so a
// bad write by another process does not end the watch.
func (cmd *WatchCmd) report(c *cli.Command, path string, tf analytics.Timeframe, log zerolog.Logger) error {
	col, err := jsonfile.Read(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		col = task.NewCollection()
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("skipping unreadable task file")
		return nil
	}

	r := analytics.Compute(col, tf, time.Now().UTC())
	w := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteLine(w, r)
	}

	_, _ = fmt.Fprintln(w, styles.MutedStyle.Render("── "+r.GeneratedAt.Local().Format(time.TimeOnly)+" ──"))
	writeReport(w, r)
	_, _ = fmt.Fprintln(w)
	return nil
}
