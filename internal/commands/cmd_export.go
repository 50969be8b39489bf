package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskhive/internal/core/markdown"
	"github.com/colonyops/taskhive/internal/core/styles"
	"github.com/colonyops/taskhive/internal/tracker"
)

type ExportCmd struct {
	flags *Flags
	app   *tracker.App

	// flags
	output string
	title  string
	render bool
}

// NewExportCmd creates the export and import commands
func NewExportCmd(flags *Flags, app *tracker.App) *ExportCmd {
	return &ExportCmd{flags: flags, app: app}
}

// Register adds the export and import commands to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "export",
			Usage:     "Export tasks as a markdown checklist",
			UsageText: "taskhive export [--output file] [--title name] [--render]",
			Description: `Writes the task collection as a markdown document grouped by section.
The document can be edited and applied back with 'taskhive import'.

--render pretty-prints the document for the terminal instead.`,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to file instead of stdout", Destination: &cmd.output},
				&cli.StringFlag{Name: "title", Usage: "document title", Value: markdown.DefaultTitle, Destination: &cmd.title},
				&cli.BoolFlag{Name: "render", Usage: "render for the terminal", Destination: &cmd.render},
			},
			Action: withCommand("export", cmd.runExport),
		},
		&cli.Command{
			Name:      "import",
			Usage:     "Apply an edited markdown checklist",
			UsageText: "taskhive import <file|->",
			Description: `Reads a document in the export format. Items with a known id update that
task; other items create tasks. The import is undone as a single operation.`,
			Action: withCommand("import", cmd.runImport),
		},
	)

	return app
}

func (cmd *ExportCmd) runExport(ctx context.Context, c *cli.Command) error {
	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	doc, err := svc.ExportMarkdown(ctx, cmd.title)
	if err != nil {
		return fail(c, "export", err)
	}

	if cmd.render {
		doc, err = renderMarkdown(markdown.StripFrontmatter(doc), terminalWidth(100))
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}

	if cmd.output == "" {
		_, err = io.WriteString(c.Root().Writer, doc)
		return err
	}

	if err := os.WriteFile(cmd.output, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cmd.output, err)
	}
	return writeJSON(c, tracker.OK("Exported to "+cmd.output, nil, nil))
}

func (cmd *ExportCmd) runImport(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, 1)
	if err != nil {
		return err
	}

	var content []byte
	if args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	svc, err := cmd.app.Tasks()
	if err != nil {
		return err
	}

	res, err := svc.ImportMarkdown(ctx, string(content))
	if err != nil {
		return fail(c, "import", err)
	}

	ids := append(append([]string{}, res.Created...), res.Updated...)
	msg := fmt.Sprintf("Imported: %d created, %d updated, %d unchanged", len(res.Created), len(res.Updated), len(res.Unchanged))
	return writeJSON(c, tracker.OK(msg, ids, res))
}

func renderMarkdown(doc string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(doc)
}
