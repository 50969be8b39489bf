package doctor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/colonyops/taskhive/internal/core/task"
)

// maxListed bounds how many ids one item names before summarizing.
const maxListed = 5

// IntegrityCheck inspects the collection for dependency and layout problems
// that hand edits or older versions can leave behind.
type IntegrityCheck struct {
	load Loader
}

// NewIntegrityCheck creates a new integrity check.
func NewIntegrityCheck(load Loader) *IntegrityCheck {
	return &IntegrityCheck{load: load}
}

func (c *IntegrityCheck) Name() string {
	return "Integrity"
}

func (c *IntegrityCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	col, err := c.load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Items = append(result.Items, pass("tasks", "no task file yet"))
		return result
	case err != nil:
		result.Items = append(result.Items, fail("tasks", "cannot inspect: "+err.Error()))
		return result
	}

	result.Items = append(result.Items,
		checkFields(col),
		checkDependencies(col),
		checkCycles(col),
		checkSections(col),
	)
	return result
}

func checkFields(c *task.Collection) CheckItem {
	var invalid, inconsistent []string
	for _, id := range c.IDs() {
		t := c.Tasks[id]
		switch {
		case !t.Status.IsValid(), !t.Priority.IsValid(),
			t.ProgressPercentage < 0, t.ProgressPercentage > 100,
			strings.TrimSpace(t.Title) == "":
			invalid = append(invalid, id)
		case (t.Status == task.StatusCompleted) != (t.CompletedAt != nil):
			inconsistent = append(inconsistent, id)
		}
	}

	switch {
	case len(invalid) > 0:
		return fail("fields", "invalid values in "+listIDs(invalid))
	case len(inconsistent) > 0:
		return warn("fields", "completion time does not match status in "+listIDs(inconsistent))
	default:
		return pass("fields", "")
	}
}

func checkDependencies(c *task.Collection) CheckItem {
	var dangling []string
	for _, id := range c.IDs() {
		for _, dep := range c.Tasks[id].Dependencies {
			if _, ok := c.Tasks[dep]; !ok || dep == id {
				dangling = append(dangling, id+" → "+dep)
			}
		}
	}

	if len(dangling) > 0 {
		return fail("dependencies", "missing or self references: "+listIDs(dangling))
	}
	return pass("dependencies", "")
}

func checkCycles(c *task.Collection) CheckItem {
	g := task.NewGraph(c)

	var cyclic []string
	for _, id := range c.IDs() {
		for _, dep := range c.Tasks[id].Dependencies {
			if dep != id && g.Reaches(dep, id) {
				cyclic = append(cyclic, id)
				break
			}
		}
	}

	if len(cyclic) > 0 {
		return fail("cycles", "tasks on a dependency cycle: "+listIDs(cyclic))
	}
	return pass("cycles", "")
}

func checkSections(c *task.Collection) CheckItem {
	seen := make(map[string]string)
	var duplicated, archived []string
	for _, s := range c.Sections {
		for _, id := range s.TaskIDs {
			if prev, ok := seen[id]; ok && prev != s.Name {
				duplicated = append(duplicated, id)
			}
			seen[id] = s.Name
			if t, ok := c.Tasks[id]; ok && t.Archived {
				archived = append(archived, id)
			}
		}
	}

	switch {
	case len(duplicated) > 0:
		return fail("sections", "tasks in more than one section: "+listIDs(duplicated))
	case len(archived) > 0:
		return warn("sections", "archived tasks still placed in a section: "+listIDs(archived))
	default:
		return pass("sections", fmt.Sprintf("%d section(s)", len(c.Sections)))
	}
}

func listIDs(ids []string) string {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	if len(ids) <= maxListed {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(ids[:maxListed], ", "), len(ids)-maxListed)
}
