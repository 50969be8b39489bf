package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Watch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.json")

	watcher, err := NewWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := watcher.Watch(ctx)

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	select {
	case event := <-events:
		assert.Equal(t, filepath.Clean(path), event.Path)
		assert.False(t, event.Timestamp.IsZero())
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	watcher, err := NewWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := watcher.Watch(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.json.lock"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.md"), []byte("# Tasks"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))

	select {
	case event := <-events:
		t.Fatalf("unexpected event for %s", event.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_AtomicReplace(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.json")

	watcher, err := NewWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := watcher.Watch(ctx)

	store, err := Open(path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	select {
	case <-events:
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.json")

	watcher, err := NewWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := watcher.Watch(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
		time.Sleep(10 * time.Millisecond) // Less than debounce delay
	}

	timeout := time.After(300 * time.Millisecond)
	count := 0
	for {
		select {
		case <-events:
			count++
		case <-timeout:
			assert.Equal(t, 1, count, "should receive exactly one debounced event")
			return
		}
	}
}

func TestWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	watcher, err := NewWatcher(filepath.Join(t.TempDir(), "tasks.json"), zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	events := watcher.Watch(ctx)
	cancel()

	time.Sleep(100 * time.Millisecond) // Give time for cleanup goroutine
	_, ok := <-events
	assert.False(t, ok, "channel should be closed after context cancellation")
}

func TestWatcher_Close(t *testing.T) {
	t.Parallel()

	watcher, err := NewWatcher(filepath.Join(t.TempDir(), "tasks.json"), zerolog.Nop())
	require.NoError(t, err)

	events := watcher.Watch(context.Background())
	require.NoError(t, watcher.Close())

	_, ok := <-events
	assert.False(t, ok, "channel should be closed after watcher close")
}
