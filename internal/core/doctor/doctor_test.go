package doctor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskhive/internal/core/config"
	"github.com/colonyops/taskhive/internal/core/task"
)

func newTask(id string, deps ...string) *task.Task {
	return &task.Task{
		ID:           id,
		Title:        "Task " + id,
		Status:       task.StatusPending,
		Priority:     task.PriorityMedium,
		Dependencies: deps,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func collectionOf(tasks ...*task.Task) *task.Collection {
	c := task.NewCollection()
	for _, t := range tasks {
		c.Tasks[t.ID] = t
	}
	return c
}

func loaderFor(c *task.Collection) Loader {
	return func() (*task.Collection, error) { return c, nil }
}

func itemByLabel(t *testing.T, r Result, label string) CheckItem {
	t.Helper()
	for _, it := range r.Items {
		if it.Label == label {
			return it
		}
	}
	t.Fatalf("no item %q in %s", label, r.Name)
	return CheckItem{}
}

func TestIntegrityCheck(t *testing.T) {
	completedNoTime := newTask("d")
	completedNoTime.Status = task.StatusCompleted

	archived := newTask("e")
	archived.Archived = true

	tests := []struct {
		name   string
		col    func() *task.Collection
		label  string
		status Status
	}{
		{
			name:   "healthy",
			col:    func() *task.Collection { return collectionOf(newTask("a"), newTask("b", "a")) },
			label:  "dependencies",
			status: StatusPass,
		},
		{
			name:   "dangling dependency",
			col:    func() *task.Collection { return collectionOf(newTask("a", "zz")) },
			label:  "dependencies",
			status: StatusFail,
		},
		{
			name:   "cycle",
			col:    func() *task.Collection { return collectionOf(newTask("a", "b"), newTask("b", "a")) },
			label:  "cycles",
			status: StatusFail,
		},
		{
			name:   "completed without time",
			col:    func() *task.Collection { return collectionOf(completedNoTime) },
			label:  "fields",
			status: StatusWarn,
		},
		{
			name: "task in two sections",
			col: func() *task.Collection {
				c := collectionOf(newTask("a"))
				c.Sections = []task.Section{{Name: "One", TaskIDs: []string{"a"}}, {Name: "Two", TaskIDs: []string{"a"}}}
				return c
			},
			label:  "sections",
			status: StatusFail,
		},
		{
			name: "archived in section",
			col: func() *task.Collection {
				c := collectionOf(archived)
				c.Sections = []task.Section{{Name: "One", TaskIDs: []string{"e"}}}
				return c
			},
			label:  "sections",
			status: StatusWarn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewIntegrityCheck(loaderFor(tt.col())).Run(context.Background())
			assert.Equal(t, tt.status, itemByLabel(t, r, tt.label).Status)
		})
	}
}

func TestIntegrityCheck_MissingFile(t *testing.T) {
	r := NewIntegrityCheck(func() (*task.Collection, error) {
		return nil, fmt.Errorf("read: %w", fs.ErrNotExist)
	}).Run(context.Background())

	require.Len(t, r.Items, 1)
	assert.Equal(t, StatusPass, r.Items[0].Status)
}

func TestStoreCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	col := collectionOf(newTask("a"))

	r := NewStoreCheck(path, loaderFor(col)).Run(context.Background())
	assert.Equal(t, StatusWarn, itemByLabel(t, r, "exists").Status)

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	r = NewStoreCheck(path, loaderFor(col)).Run(context.Background())
	assert.Equal(t, StatusPass, itemByLabel(t, r, "exists").Status)
	assert.Equal(t, "1 live, 0 archived", itemByLabel(t, r, "tasks").Detail)
	assert.Equal(t, StatusWarn, itemByLabel(t, r, "metadata").Status)

	r = NewStoreCheck(path, func() (*task.Collection, error) {
		return nil, fmt.Errorf("backing file is not a valid collection")
	}).Run(context.Background())
	assert.Equal(t, StatusFail, itemByLabel(t, r, "readable").Status)
}

func TestConfigCheck(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	r := NewConfigCheck(&cfg, "").Run(context.Background())
	_, _, failed := Summary([]Result{r})
	assert.Zero(t, failed)

	cfg.Storage.HistoryLimit = -1
	r = NewConfigCheck(&cfg, "").Run(context.Background())
	assert.Equal(t, StatusFail, itemByLabel(t, r, "storage.history_limit").Status)
}

func TestSummary(t *testing.T) {
	results := []Result{
		{Items: []CheckItem{pass("a", ""), warn("b", ""), fail("c", "")}},
		{Items: []CheckItem{pass("d", "")}},
	}

	passed, warned, failed := Summary(results)
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, warned)
	assert.Equal(t, 1, failed)
}

func TestRunAll_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunAll(ctx, []Check{NewIntegrityCheck(loaderFor(task.NewCollection()))})
	assert.Empty(t, results)
}

func TestListIDs(t *testing.T) {
	assert.Equal(t, "a, b", listIDs([]string{"b", "a", "b"}))
	assert.Equal(t, "a, b, c, d, e and 2 more", listIDs([]string{"g", "f", "e", "d", "c", "b", "a"}))
}
