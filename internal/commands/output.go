package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/taskhive/internal/core/logging"
	"github.com/colonyops/taskhive/internal/tracker"
	"github.com/colonyops/taskhive/pkg/iojson"
)

// writeJSON writes v as indented JSON to the root writer.
func writeJSON(c *cli.Command, v any) error {
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, v)
}

// fail reports an expected failure as a structured result and exits 1.
// Storage and unknown errors are wrapped with op and returned as-is.
func fail(c *cli.Command, op string, err error) error {
	res, rerr := tracker.Recover(err)
	if rerr != nil {
		return fmt.Errorf("%s: %w", op, rerr)
	}
	if err := writeJSON(c, res); err != nil {
		return err
	}
	return cli.Exit("", 1)
}

// requireArgs returns the positional arguments, failing with usage when
// fewer than n were given.
func requireArgs(c *cli.Command, n int) ([]string, error) {
	args := c.Args().Slice()
	if len(args) < n {
		return nil, fmt.Errorf("usage: %s", c.UsageText)
	}
	return args, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// terminalWidth returns the stdout width, or fallback when it is not a terminal.
func terminalWidth(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// withCommand tags the action's context with the command name for logging.
func withCommand(name string, fn cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		return fn(logging.WithCommand(ctx, name), c)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
