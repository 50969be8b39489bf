package doctor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// StoreCheck verifies that the task file exists and decodes.
type StoreCheck struct {
	path string
	load Loader
}

// NewStoreCheck creates a new store check for the file at path.
func NewStoreCheck(path string, load Loader) *StoreCheck {
	return &StoreCheck{path: path, load: load}
}

func (c *StoreCheck) Name() string {
	return "Task file"
}

func (c *StoreCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	info, err := os.Stat(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Items = append(result.Items, warn("exists", c.path+" (created on first write)"))
		return result
	case err != nil:
		result.Items = append(result.Items, fail("exists", err.Error()))
		return result
	case info.IsDir():
		result.Items = append(result.Items, fail("exists", c.path+" is a directory"))
		return result
	}
	result.Items = append(result.Items, pass("exists", fmt.Sprintf("%s (%d bytes)", c.path, info.Size())))

	col, err := c.load()
	if err != nil {
		result.Items = append(result.Items, fail("readable", err.Error()))
		return result
	}
	live := len(col.List(false))
	result.Items = append(result.Items,
		pass("readable", fmt.Sprintf("format version %d", col.Version)),
		pass("tasks", fmt.Sprintf("%d live, %d archived", live, len(col.Tasks)-live)),
	)

	if n := len(col.History); n > 0 {
		result.Items = append(result.Items, pass("history", fmt.Sprintf("%d undoable operation(s)", n)))
	}

	if m := col.ComputeMetadata(); m != col.Metadata.Counts() {
		result.Items = append(result.Items, warn("metadata", "cached counts are stale (refreshed on next write)"))
	}

	return result
}
