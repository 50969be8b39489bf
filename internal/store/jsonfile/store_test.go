package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskhive/internal/core/task"
)

type countingExporter struct {
	calls atomic.Int32
	tasks atomic.Int32
}

func (e *countingExporter) Export(c *task.Collection) error {
	e.calls.Add(1)
	e.tasks.Store(int32(len(c.Tasks)))
	return nil
}

func newTask(id string) *task.Task {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &task.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    task.StatusPending,
		Priority:  task.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func readRaw(t *testing.T, path string) *task.Collection {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var c task.Collection
	require.NoError(t, json.Unmarshal(data, &c))
	return &c
}

func TestOpen_InitializesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.json")

	s, err := Open(path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	c, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, c.Tasks)
	assert.True(t, c.Initialized)

	onDisk := readRaw(t, path)
	assert.True(t, onDisk.Initialized)
	assert.Equal(t, task.CurrentVersion, onDisk.Version)
}

func TestOpen_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	s, err := Open(path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	c, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, c.Tasks)
	assert.True(t, readRaw(t, path).Initialized)
}

func TestOpen_CorruptFileIsBackedUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tasks": {"a": `), 0o644))

	s, err := Open(path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	c, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, c.Tasks)

	backups, err := filepath.Glob(path + ".corrupt.*")
	require.NoError(t, err)
	require.Len(t, backups, 1)

	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, `{"tasks": {"a": `, string(data))
}

func TestSave_Synchronous(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	exp := &countingExporter{}

	s, err := Open(path, Options{Logger: zerolog.Nop(), Exporter: exp})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	c, err := s.Load()
	require.NoError(t, err)
	c.Tasks["a"] = newTask("a")

	require.NoError(t, s.Save(c, true))

	onDisk := readRaw(t, path)
	require.Contains(t, onDisk.Tasks, "a")
	assert.Equal(t, 1, onDisk.Metadata.Total)
	assert.Equal(t, 1, onDisk.Metadata.Pending)
	assert.Equal(t, int32(1), exp.calls.Load())

	require.NoError(t, s.Save(c, false))
	assert.Equal(t, int32(1), exp.calls.Load(), "export only runs when requested")
}

func TestSave_FailedWriteKeepsPreviousState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	s, err := Open(path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	c, err := s.Load()
	require.NoError(t, err)
	c.Tasks["a"] = newTask("a")
	require.NoError(t, s.Save(c, false))

	// A non-empty directory in place of the backing file makes the rename fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o755))

	c.Tasks["b"] = newTask("b")
	err = s.Save(c, false)
	require.ErrorIs(t, err, task.ErrStorage)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Contains(t, loaded.Tasks, "a")
	assert.NotContains(t, loaded.Tasks, "b", "a failed save is not visible")

	require.NoError(t, os.RemoveAll(path))
	require.NoError(t, s.Flush())
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist, "nothing pending after a failed save")
}

func TestSave_Coalesces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	exp := &countingExporter{}

	s, err := Open(path, Options{Logger: zerolog.Nop(), Exporter: exp, CoalesceWindow: time.Hour})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	c, err := s.Load()
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		c.Tasks[id] = newTask(id)
		require.NoError(t, s.Save(c, true))
	}

	assert.Empty(t, readRaw(t, path).Tasks, "writes are deferred until flush")

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Tasks, 3, "reads see pending saves")

	require.NoError(t, s.Flush())
	assert.Len(t, readRaw(t, path).Tasks, 3)
	assert.Equal(t, int32(1), exp.calls.Load(), "three saves share one write")
	assert.Equal(t, int32(3), exp.tasks.Load())
}

func TestSave_BackgroundWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	s, err := Open(path, Options{Logger: zerolog.Nop(), CoalesceWindow: 10 * time.Millisecond})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	c, err := s.Load()
	require.NoError(t, err)
	c.Tasks["a"] = newTask("a")
	require.NoError(t, s.Save(c, false))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		var onDisk task.Collection
		return json.Unmarshal(data, &onDisk) == nil && len(onDisk.Tasks) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSave_IsolatesCallerCopy(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "tasks.json"), Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	c, err := s.Load()
	require.NoError(t, err)
	c.Tasks["a"] = newTask("a")
	require.NoError(t, s.Save(c, false))

	c.Tasks["a"].Title = "mutated after save"

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "task a", loaded.Tasks["a"].Title)
}

func TestClose_FlushesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	s, err := Open(path, Options{Logger: zerolog.Nop(), CoalesceWindow: time.Hour, Lock: true})
	require.NoError(t, err)

	c, err := s.Load()
	require.NoError(t, err)
	c.Tasks["a"] = newTask("a")
	c.AssignSection("a", "Backlog")
	require.NoError(t, s.Save(c, false))
	require.NoError(t, s.Close())

	_, err = s.Load()
	require.ErrorIs(t, err, task.ErrStorage)

	reopened, err := Open(path, Options{Logger: zerolog.Nop(), Lock: true})
	require.NoError(t, err)
	defer reopened.Close() //nolint:errcheck

	loaded, err := reopened.Load()
	require.NoError(t, err)
	require.Contains(t, loaded.Tasks, "a")
	assert.Equal(t, []task.Section{{Name: "Backlog", TaskIDs: []string{"a"}}}, loaded.Sections)
}

func TestOpen_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	first, err := Open(path, Options{Logger: zerolog.Nop(), Lock: true})
	require.NoError(t, err)
	defer first.Close() //nolint:errcheck

	_, err = Open(path, Options{Logger: zerolog.Nop(), Lock: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, err, task.ErrStorage)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0o644))
	_, err = Read(path)
	require.ErrorIs(t, err, errCorrupt)

	path = filepath.Join(dir, "ok.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"initialized":true,"tasks":{"a":{"id":"a","title":"A","dependencies":["a","ghost"]},"b":{"id":"b","title":"B","dependencies":["a"]}},"sections":[{"name":"S","taskIds":["a","ghost"]}]}`), 0o644))
	c, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, c.Sections[0].TaskIDs, "dangling section ids are dropped")
	assert.Empty(t, c.Tasks["a"].Dependencies, "self and missing dependencies are dropped")
	assert.Equal(t, []string{"a"}, c.Tasks["b"].Dependencies)
	assert.NotNil(t, c.History)

	raw, err := ReadRaw(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ghost"}, raw.Tasks["a"].Dependencies)
	assert.Equal(t, []string{"a", "ghost"}, raw.Sections[0].TaskIDs)
}

func TestOpen_DropsDanglingDependencies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"initialized":true,"tasks":{"a":{"id":"a","title":"A","dependencies":["ghost"]}}}`), 0o644))

	s, err := Open(path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	c, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, c.Tasks["a"].Dependencies)

	require.NoError(t, s.Save(c, false))
	assert.Empty(t, readRaw(t, path).Tasks["a"].Dependencies)
}
