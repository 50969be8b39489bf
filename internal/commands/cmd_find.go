package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/search"
	"github.com/colonyops/taskhive/internal/core/styles"
	"github.com/colonyops/taskhive/internal/tracker"
)

type FindCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	strategy   string
	threshold  float64
	fields     []string
	limit      int
	archived   bool
	jsonOutput bool
}

// NewFindCmd creates the find and resolve commands
func NewFindCmd(flags *Flags, app *tracker.App) *FindCmd {
	return &FindCmd{flags: flags, app: app}
}

// Register adds the find and resolve commands to the application
func (cmd *FindCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "find",
			Usage:     "Search tasks",
			UsageText: "taskhive find <query...> [options]",
			Description: `Runs a ranked search. Strategies:

  comprehensive  every strategy below combined, best score wins (default);
                 honors --threshold and --field
  id             exact id or id prefix
  title          title substring
  description    description substring
  fuzzy          edit-distance similarity on titles (see --threshold)
  regex          regular expression over title and description
  multi          weighted match over --field values

When nothing matches, the closest titles are returned as suggestions.`,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "search strategy", Value: string(search.StrategyComprehensive), Destination: &cmd.strategy},
				&cli.FloatFlag{Name: "threshold", Usage: "fuzzy threshold in [0,1]; higher admits looser matches (default from config)", Destination: &cmd.threshold},
				&cli.StringSliceFlag{Name: "field", Aliases: []string{"f"}, Usage: "field for multi search (repeatable)", Destination: &cmd.fields},
				&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum number of matches (0 for all)", Destination: &cmd.limit},
				&cli.BoolFlag{Name: "archived", Usage: "include archived tasks", Destination: &cmd.archived},
				&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput},
			},
			Action: withCommand("find", cmd.runFind),
		},
		&cli.Command{
			Name:      "resolve",
			Usage:     "Resolve a reference to a task id",
			UsageText: "taskhive resolve <ref>",
			Description: `Maps a full id, id prefix, or title fragment to exactly one task id.
Ambiguous references list every candidate.`,
			ShellComplete: TaskRefCompleter(cmd.app),
			Action:        withCommand("resolve", cmd.runResolve),
		},
	)

	return app
}

func (cmd *FindCmd) runFind(ctx context.Context, c *cli.Command) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("usage: %s", "taskhive find <query...>")
	}

	opts, err := cmd.options(c)
	if err != nil {
		return fail(c, "find", err)
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	res, err := svc.FindTask(ctx, query, opts, cmd.archived)
	if err != nil {
		return fail(c, "find", err)
	}

	if cmd.jsonOutput {
		return writeJSON(c, res)
	}

	w := c.Root().Writer
	if len(res.Matches) == 0 {
		_, _ = fmt.Fprintf(c.Root().ErrWriter, "No tasks match %q\n", query)
		for _, s := range res.Suggestions {
			_, _ = fmt.Fprintf(w, "  did you mean %s\n", s)
		}
		return nil
	}
	for _, m := range res.Matches {
		_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n",
			styles.MutedStyle.Render(fmt.Sprintf("%.2f", m.Score)),
			m.Task.ID,
			styles.Status(m.Task.Status),
			m.Task.Title,
		)
	}
	return nil
}

func (cmd *FindCmd) options(c *cli.Command) (search.Options, error) {
	strategy, err := search.ParseStrategy(cmd.strategy)
	if err != nil {
		return search.Options{}, err
	}

	opts := search.Options{Strategy: strategy, Limit: cmd.limit}
	if c.IsSet("threshold") {
		opts.Threshold = &cmd.threshold
	}
	if fields := splitValues(cmd.fields); len(fields) > 0 {
		opts.Fields, err = search.ParseFields(fields)
		if err != nil {
			return search.Options{}, err
		}
	}
	return opts, nil
}

func (cmd *FindCmd) runResolve(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, 1)
	if err != nil {
		return err
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	res, err := svc.Resolve(ctx, args[0])
	if err != nil {
		return fail(c, "resolve", err)
	}

	return writeJSON(c, tracker.OK("Resolved by "+string(res.Method), []string{res.ID}, res))
}
