package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/analytics"
	"github.com/colonyops/taskhive/internal/tracker"
)

type StatsCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	timeframe  string
	jsonOutput bool
}

// NewStatsCmd creates a new stats command
func NewStatsCmd(flags *Flags, app *tracker.App) *StatsCmd {
	return &StatsCmd{flags: flags, app: app}
}

// Register adds the stats command to the application
func (cmd *StatsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "stats",
		Usage:     "Report task health and velocity",
		UsageText: "taskhive stats [--timeframe day|week|month|all] [--json]",
		Description: `Counts tasks by status and priority and reports completion rate,
priority-weighted progress, overdue work, and velocity over the timeframe.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "timeframe", Aliases: []string{"t"}, Usage: "window for velocity metrics", Value: string(analytics.TimeframeWeek), Destination: &cmd.timeframe},
			&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput},
		},
		Action: withCommand("stats", cmd.run),
	})

	return app
}

func (cmd *StatsCmd) run(ctx context.Context, c *cli.Command) error {
	tf, err := analytics.ParseTimeframe(cmd.timeframe)
	if err != nil {
		return fail(c, "stats", err)
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	report, err := svc.Analytics(ctx, tf)
	if err != nil {
		return fail(c, "stats", err)
	}

	if cmd.jsonOutput {
		return writeJSON(c, report)
	}
	writeReport(c.Root().Writer, report)
	return nil
}
