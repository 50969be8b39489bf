// Package tracker applies validated, reversible mutations to the task
// collection and exposes the caller-facing task operations.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskhive/internal/core/history"
	"github.com/colonyops/taskhive/internal/core/resolver"
	"github.com/colonyops/taskhive/internal/core/search"
	"github.com/colonyops/taskhive/internal/core/task"
	"github.com/colonyops/taskhive/pkg/randid"
)

// IDLength is the length of generated task ids.
const IDLength = 8

// Store persists the collection. Load must return a copy the caller may
// mutate freely. *jsonfile.Store satisfies it.
type Store interface {
	Load() (*task.Collection, error)
	Save(c *task.Collection, syncDerived bool) error
	Flush() error
}

// Config tunes the service.
type Config struct {
	HistoryLimit    int
	SuggestionLimit int
	Search          search.Config
	// Actor is recorded as modifiedBy on change log entries.
	Actor string
}

// Service is the single mutator of one store. Each call loads the
// collection, applies one operation, records it in the undo ledger, and saves.
type Service struct {
	store       Store
	ledger      *history.Ledger
	engine      *search.Engine
	log         zerolog.Logger
	suggestions int
	actor       string

	now   func() time.Time
	newID func() string

	mu sync.Mutex
}

// New creates a Service over store.
func New(store Store, cfg Config, log zerolog.Logger) *Service {
	suggestions := cfg.SuggestionLimit
	if suggestions <= 0 {
		suggestions = search.DefaultSuggestionLimit
	}
	if cfg.Search.SuggestionLimit <= 0 {
		cfg.Search.SuggestionLimit = suggestions
	}

	return &Service{
		store:       store,
		ledger:      history.NewLedger(cfg.HistoryLimit),
		engine:      search.New(cfg.Search),
		log:         log.With().Str("component", "tracker").Logger(),
		suggestions: suggestions,
		actor:       cfg.Actor,
		now:         time.Now,
		newID:       func() string { return randid.Generate(IDLength) },
	}
}

// Flush makes every completed operation durable.
func (s *Service) Flush() error {
	return s.store.Flush()
}

// mutation is the body of a mutating operation. It returns the description
// recorded in the ledger, or an error to abandon the operation with no
// changes saved.
type mutation func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error)

// mutate runs fn against a fresh copy of the collection. When fn touched at
// least one task the operation is committed to the ledger and saved.
func (s *Service) mutate(ctx context.Context, typ task.OperationType, fn mutation) (task.Operation, error) {
	if err := ctx.Err(); err != nil {
		return task.Operation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.Load()
	if err != nil {
		return task.Operation{}, err
	}

	rec := history.Begin(c)
	now := s.now()

	desc, err := fn(c, rec, now)
	if err != nil {
		return task.Operation{}, err
	}
	if rec.Empty() {
		return task.Operation{Type: typ, Description: desc, Timestamp: now}, nil
	}

	op := s.ledger.Commit(rec, typ, desc, now)
	if err := s.store.Save(c, true); err != nil {
		return task.Operation{}, err
	}

	s.log.Debug().
		Ctx(ctx).
		Str("op", string(typ)).
		Strs("task_ids", op.AffectedTaskIDs).
		Str("operation_id", op.ID).
		Msg("applied operation")
	return op, nil
}

// read loads the collection for a read-only query.
func (s *Service) read(ctx context.Context) (*task.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}

// lookup resolves a user reference against c, archived tasks included.
func (s *Service) lookup(c *task.Collection, ref string) (*task.Task, error) {
	res, err := resolver.Resolve(c.List(true), ref, s.suggestions)
	if err != nil {
		return nil, err
	}
	return c.Tasks[res.ID], nil
}

func (s *Service) generateID(c *task.Collection) (string, error) {
	for range 16 {
		id := s.newID()
		if _, taken := c.Tasks[id]; !taken && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("generate task id: too many collisions")
}
