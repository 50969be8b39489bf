package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
)

type DocCmd struct {
	flags  *Flags
	render bool
}

func NewDocCmd(flags *Flags) *DocCmd {
	return &DocCmd{flags: flags}
}

func (cmd *DocCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "doc",
		Usage: "Documentation and usage guides",
		Description: `Access documentation for taskhive.

Use 'taskhive doc agents' to see conventions for scripts and LLM agents.`,
		Commands: []*cli.Command{
			cmd.agentsCmd(),
		},
	})
	return app
}

func (cmd *DocCmd) agentsCmd() *cli.Command {
	return &cli.Command{
		Name:  "agents",
		Usage: "Show conventions for scripts and LLM agents",
		Description: `Outputs a guide to taskhive's structured results, references, and undo
for agents driving the CLI.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "render",
				Usage:       "render for the terminal",
				Destination: &cmd.render,
			},
		},
		Action: cmd.runAgents,
	}
}

func (cmd *DocCmd) runAgents(_ context.Context, c *cli.Command) error {
	w := c.Root().Writer
	if !cmd.render {
		printAgentGuide(w)
		return nil
	}

	out, err := renderMarkdown(agentGuide, terminalWidth(100))
	if err != nil {
		return fmt.Errorf("render guide: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func printAgentGuide(w io.Writer) {
	_, _ = fmt.Fprint(w, agentGuide+"\n")
}

const agentGuide = `# Taskhive Agent Guide

## References

Every command that takes a task accepts a **reference**: the full id, an id
prefix, or a fragment of the title. A reference must match exactly one task.

` + "```bash" + `
taskhive resolve "oauth"
` + "```" + `

An ambiguous reference fails with every candidate id listed in
` + "`suggestions`" + `. Retry with one of them.

## Results

Mutating commands print one JSON result:

` + "```json" + `
{"success": true, "message": "Updated task a1b2c3d4", "affectedIds": ["a1b2c3d4"], "data": {}}
` + "```" + `

Expected failures print a result with ` + "`success: false`" + `, a ` + "`kind`" + `,
and concrete ` + "`suggestions`" + `, then exit with status 1:

| Kind | Meaning | Suggestions |
|------|---------|-------------|
| ` + "`validation`" + ` | A field value was rejected | The allowed values |
| ` + "`not_found`" + ` | No task matched the reference | Close titles with their ids |
| ` + "`ambiguous`" + ` | Several tasks matched | Candidate ids |
| ` + "`dependency_conflict`" + ` | Live tasks depend on the target | Flags to retry with |
| ` + "`invalid_pattern`" + ` | A regex failed to compile | How to fix it |
| ` + "`nothing_to_undo`" + ` | The history is empty | |

Any other failure is printed as plain text and also exits 1.

## Dependencies

Deleting a task others depend on is refused by default. Choose a strategy:

` + "```bash" + `
taskhive delete a1b2 --strategy reassign   # drop the dependency from dependents
taskhive delete a1b2 --strategy cascade    # delete dependents too
` + "```" + `

## Undo

Every change is recorded. ` + "`taskhive undo`" + ` reverts the latest one exactly,
including bulk operations and imports, which undo as a single step.

## Quick Reference

| Command | Description |
|---------|-------------|
| ` + "`taskhive add TITLE`" + ` | Create a task |
| ` + "`taskhive ls --json`" + ` | List tasks as JSON lines |
| ` + "`taskhive find QUERY`" + ` | Ranked search |
| ` + "`taskhive update REF --status completed`" + ` | Patch a task |
| ` + "`taskhive bulk update REF... --priority high`" + ` | Patch several tasks |
| ` + "`taskhive bulk delete REF... --dry-run`" + ` | Preview a bulk delete |
| ` + "`taskhive history`" + ` | Recorded operations |
| ` + "`taskhive undo`" + ` | Revert the latest operation |
| ` + "`taskhive stats --json`" + ` | Health report |
`
