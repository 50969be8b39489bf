package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/tracker"
)

const (
	rootUsage       = "Track tasks, dependencies, and progress from the command line"
	rootUsageText   = "taskhive [global options] command [command options]"
	rootDescription = `Taskhive keeps a task list in a single JSON file with dependency tracking,
ranked search, undo for every change, and a markdown export you can edit
and import back.

Run 'taskhive add' to create a task and 'taskhive ls' to list them.
Run 'taskhive doc agents' for conventions when scripting taskhive.`
)

// NewRoot returns the root command with global flags bound to flags.
func NewRoot(flags *Flags, version string) *cli.Command {
	return &cli.Command{
		Name:        "taskhive",
		Usage:       rootUsage,
		UsageText:   rootUsageText,
		Description: rootDescription,
		Version:     version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TASKHIVE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/taskhive.log)",
				Sources:     cli.EnvVars("TASKHIVE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKHIVE_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKHIVE_DATA_DIR"),
				Value:       DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		EnableShellCompletion: true,
	}
}

// RegisterAll adds every subcommand to root.
func RegisterAll(root *cli.Command, flags *Flags, app *tracker.App) *cli.Command {
	root = NewAddCmd(flags, app).Register(root)
	root = NewShowCmd(flags, app).Register(root)
	root = NewLsCmd(flags, app).Register(root)
	root = NewUpdateCmd(flags, app).Register(root)
	root = NewDeleteCmd(flags, app).Register(root)
	root = NewArchiveCmd(flags, app).Register(root)
	root = NewBulkCmd(flags, app).Register(root)
	root = NewSectionCmd(flags, app).Register(root)
	root = NewFindCmd(flags, app).Register(root)
	root = NewUndoCmd(flags, app).Register(root)
	root = NewStatsCmd(flags, app).Register(root)
	root = NewWatchCmd(flags, app).Register(root)
	root = NewExportCmd(flags, app).Register(root)
	root = NewConfigValidateCmd(flags).Register(root)
	root = NewDoctorCmd(flags, app).Register(root)
	root = NewDocCmd(flags).Register(root)
	return root
}
