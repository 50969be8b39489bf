// Package jsonfile persists the task collection as a single JSON document.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskhive/internal/core/task"
)

// DefaultCoalesceWindow batches saves issued within this window into one write.
const DefaultCoalesceWindow = 50 * time.Millisecond

// ErrLocked is wrapped in the StorageError returned when another process
// already owns the backing file.
var ErrLocked = errors.New("backing file is locked by another process")

// Exporter regenerates a derived view of the collection after it is written.
type Exporter interface {
	Export(c *task.Collection) error
}

// Options configures a Store.
type Options struct {
	// CoalesceWindow delays physical writes so rapid saves share one write.
	// Zero writes synchronously on every Save.
	CoalesceWindow time.Duration
	// Lock takes an exclusive advisory lock on <path>.lock for the store's lifetime.
	Lock bool
	// Exporter, when set, runs after writes whose Save requested syncDerived.
	Exporter Exporter
	Logger   zerolog.Logger
}

// Store owns one backing file and the in-memory collection it holds.
// Store is safe for concurrent use, but only one Store may own a file.
type Store struct {
	path     string
	window   time.Duration
	exporter Exporter
	log      zerolog.Logger
	lock     *flock.Flock
	now      func() time.Time

	mu       sync.Mutex
	coll     *task.Collection
	dirty    bool
	export   bool
	timer    *time.Timer
	asyncErr error
	closed   bool
}

// Open loads or initializes the collection at path. A missing or empty file
// is initialized immediately so the initialized marker is durable before any
// task data is written.
func Open(path string, opts Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &task.StorageError{Op: "open", Path: path, Err: err}
	}

	s := &Store{
		path:     path,
		window:   opts.CoalesceWindow,
		exporter: opts.Exporter,
		log:      opts.Logger.With().Str("component", "store").Logger(),
		now:      time.Now,
	}

	if opts.Lock {
		s.lock = flock.New(path + ".lock")
		ok, err := s.lock.TryLock()
		if err != nil {
			return nil, &task.StorageError{Op: "lock", Path: path, Err: err}
		}
		if !ok {
			return nil, &task.StorageError{Op: "lock", Path: path, Err: ErrLocked}
		}
	}

	c, fresh, err := s.read()
	if err != nil {
		s.unlock()
		return nil, err
	}
	s.coll = c

	if fresh {
		c.RefreshMetadata(s.now())
		if err := s.write(c, false); err != nil {
			s.unlock()
			return nil, err
		}
		s.log.Debug().Str("path", path).Msg("initialized store")
	}

	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load returns a deep copy of the current collection, including saves that
// have not been written yet. It never fails for a missing file.
func (s *Store) Load() (*task.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &task.StorageError{Op: "load", Path: s.path, Err: os.ErrClosed}
	}
	return s.coll.Clone(), nil
}

// Save replaces the collection and schedules a write. Saves inside the
// coalesce window share one physical write; the derived export runs if any
// of them asked for it. An error from an earlier background write is
// returned here.
func (s *Store) Save(c *task.Collection, syncDerived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &task.StorageError{Op: "save", Path: s.path, Err: os.ErrClosed}
	}

	if err := s.asyncErr; err != nil {
		s.asyncErr = nil
		return err
	}

	next := c.Clone()
	next.Normalize()
	next.Repair()
	next.Initialized = true
	next.RefreshMetadata(s.now())
	export := s.export || syncDerived

	// Synchronous saves replace the collection only after the write succeeds.
	if s.window <= 0 {
		if err := s.write(next, export); err != nil {
			return err
		}
		s.coll = next
		s.dirty = false
		s.export = false
		return nil
	}

	s.coll = next
	s.dirty = true
	s.export = export

	if s.timer == nil {
		s.timer = time.AfterFunc(s.window, s.flushAsync)
	}
	return nil
}

// Flush writes any pending save immediately.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.asyncErr; err != nil {
		s.asyncErr = nil
		return err
	}
	return s.flushLocked()
}

// Close flushes pending writes and releases the file lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	err := s.flushLocked()
	if err == nil {
		err = s.asyncErr
	}
	s.closed = true
	s.unlock()
	return err
}

func (s *Store) flushAsync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(); err != nil {
		s.log.Error().Err(err).Msg("background write failed")
		s.asyncErr = err
	}
}

func (s *Store) flushLocked() error {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.dirty {
		return nil
	}

	if err := s.write(s.coll, s.export); err != nil {
		return err
	}
	s.dirty = false
	s.export = false
	return nil
}

// write persists c with a temp file and rename so the backing file is always
// either the previous or the next complete document.
func (s *Store) write(c *task.Collection, export bool) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return &task.StorageError{Op: "encode", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &task.StorageError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &task.StorageError{Op: "write", Path: s.path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &task.StorageError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &task.StorageError{Op: "rename", Path: s.path, Err: err}
	}

	s.log.Debug().Int("tasks", len(c.Tasks)).Int("bytes", len(data)).Msg("wrote collection")

	if export && s.exporter != nil {
		if err := s.exporter.Export(c); err != nil {
			s.log.Warn().Err(err).Msg("derived export failed")
		}
	}
	return nil
}

// read loads the backing file. fresh reports that the returned collection
// was newly created because the file was missing, empty, or corrupt.
func (s *Store) read() (c *task.Collection, fresh bool, err error) {
	c, err = ReadRaw(s.path)
	switch {
	case err == nil:
		if r := c.Repair(); !r.Empty() {
			s.log.Warn().
				Strs("dependencies", r.Dependencies).
				Strs("section_ids", r.SectionIDs).
				Msg("dropped dangling references")
		}
		if !c.Initialized {
			c.Initialized = true
			return c, true, nil
		}
		return c, false, nil
	case errors.Is(err, os.ErrNotExist), errors.Is(err, errEmpty):
		return task.NewCollection(), true, nil
	case errors.Is(err, errCorrupt):
		backup := fmt.Sprintf("%s.corrupt.%s", s.path, s.now().UTC().Format("20060102T150405Z"))
		if rerr := os.Rename(s.path, backup); rerr != nil {
			return nil, false, &task.StorageError{Op: "backup", Path: s.path, Err: rerr}
		}
		s.log.Warn().Err(err).Str("backup", backup).Msg("backing file unreadable, starting empty")
		return task.NewCollection(), true, nil
	default:
		return nil, false, err
	}
}

func (s *Store) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.log.Warn().Err(err).Msg("failed to release lock")
	}
}

var (
	errEmpty   = errors.New("backing file is empty")
	errCorrupt = errors.New("backing file is not a valid collection")
)

// Read decodes the collection at path without taking the lock and drops
// dangling references. It is used by readers such as the watcher that never
// write. The returned error wraps os.ErrNotExist for a missing file.
func Read(path string) (*task.Collection, error) {
	c, err := ReadRaw(path)
	if err != nil {
		return nil, err
	}
	c.Repair()
	return c, nil
}

// ReadRaw is Read without reference repair, for inspecting the file as written.
func ReadRaw(path string) (*task.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, &task.StorageError{Op: "read", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmpty
	}

	var c task.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	if c.Version > task.CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", errCorrupt, c.Version)
	}
	c.Normalize()
	return &c, nil
}
