package tracker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/taskhive/internal/core/analytics"
	"github.com/colonyops/taskhive/internal/core/history"
	"github.com/colonyops/taskhive/internal/core/resolver"
	"github.com/colonyops/taskhive/internal/core/search"
	"github.com/colonyops/taskhive/internal/core/task"
)

// SortKey orders GetTasks results.
type SortKey string

const (
	SortPriority SortKey = "priority"
	SortDue      SortKey = "due"
	SortCreated  SortKey = "created"
	SortUpdated  SortKey = "updated"
	SortTitle    SortKey = "title"
)

// SortKeys lists every sort key.
var SortKeys = []SortKey{SortPriority, SortDue, SortCreated, SortUpdated, SortTitle}

// Filter selects tasks for GetTasks. Zero values match everything.
type Filter struct {
	Statuses   []task.Status
	Priorities []task.Priority
	Assignee   string
	Tag        string
	// Category is a doublestar glob, e.g. "backend/**".
	Category        string
	Section         string
	DependsOn       string
	IncludeArchived bool

	Sort    SortKey
	Reverse bool
	Limit   int
}

// GetTasks lists tasks matching f. The default order is highest priority
// first, then oldest.
func (s *Service) GetTasks(ctx context.Context, f Filter) ([]*task.Task, error) {
	c, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	if f.Category != "" && !doublestar.ValidatePattern(f.Category) {
		return nil, &task.ValidationError{Field: "category", Message: fmt.Sprintf("invalid glob %q", f.Category)}
	}

	var dependsOn string
	if f.DependsOn != "" {
		dep, err := s.lookup(c, f.DependsOn)
		if err != nil {
			return nil, err
		}
		dependsOn = dep.ID
	}

	var inSection map[string]bool
	if f.Section != "" {
		inSection = make(map[string]bool)
		for _, sec := range c.Sections {
			if strings.EqualFold(sec.Name, f.Section) {
				for _, id := range sec.TaskIDs {
					inSection[id] = true
				}
			}
		}
	}

	out := make([]*task.Task, 0, len(c.Tasks))
	for _, t := range c.List(f.IncludeArchived) {
		switch {
		case len(f.Statuses) > 0 && !contains(f.Statuses, t.Status):
		case len(f.Priorities) > 0 && !contains(f.Priorities, t.Priority):
		case f.Assignee != "" && !strings.EqualFold(t.Assignee, f.Assignee):
		case f.Tag != "" && !t.HasTag(f.Tag):
		case f.Category != "" && !matchCategory(f.Category, t.Category):
		case inSection != nil && !inSection[t.ID]:
		case dependsOn != "" && !t.DependsOn(dependsOn):
		default:
			out = append(out, t)
		}
	}

	if err := sortTasks(out, f.Sort, f.Reverse); err != nil {
		return nil, err
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func contains[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func matchCategory(pattern, category string) bool {
	ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(category))
	return err == nil && ok
}

// ParseSortKey validates a sort key. Empty selects priority.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortPriority, nil
	}
	for _, k := range SortKeys {
		if string(k) == strings.ToLower(s) {
			return k, nil
		}
	}
	allowed := make([]string, len(SortKeys))
	for i, k := range SortKeys {
		allowed[i] = string(k)
	}
	return "", &task.ValidationError{Field: "sort", Message: fmt.Sprintf("unknown sort key %q", s), Allowed: allowed}
}

// sortTasks orders tasks by key. Priority and updated sort descending, the
// others ascending; reverse flips the order. Ties fall back to creation order.
func sortTasks(tasks []*task.Task, key SortKey, reverse bool) error {
	key, err := ParseSortKey(string(key))
	if err != nil {
		return err
	}

	var less func(a, b *task.Task) int
	switch key {
	case SortPriority:
		less = func(a, b *task.Task) int { return b.Priority.Weight() - a.Priority.Weight() }
	case SortDue:
		less = func(a, b *task.Task) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return a.DueDate.Compare(*b.DueDate)
		}
	case SortCreated:
		less = func(a, b *task.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortUpdated:
		less = func(a, b *task.Task) int { return b.UpdatedAt.Compare(a.UpdatedAt) }
	case SortTitle:
		less = func(a, b *task.Task) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		cmp := less(tasks[i], tasks[j])
		if reverse {
			cmp = -cmp
		}
		return cmp < 0
	})
	return nil
}

// FindTask runs a ranked search over live tasks, or all tasks when
// includeArchived is set.
func (s *Service) FindTask(ctx context.Context, query string, opts search.Options, includeArchived bool) (search.Results, error) {
	c, err := s.read(ctx)
	if err != nil {
		return search.Results{}, err
	}
	return s.engine.Search(query, c.List(includeArchived), opts)
}

// Resolve maps a reference to a canonical task id.
func (s *Service) Resolve(ctx context.Context, ref string) (resolver.Resolution, error) {
	c, err := s.read(ctx)
	if err != nil {
		return resolver.Resolution{}, err
	}
	return resolver.Resolve(c.List(true), ref, s.suggestions)
}

// UndoResult describes a reverted operation.
type UndoResult struct {
	Operation task.Operation `json:"operation"`
	Restored  []string       `json:"restoredTaskIds"`
}

// UndoLast reverts the most recent operation. It fails with
// task.ErrNothingToUndo when the history is empty.
func (s *Service) UndoLast(ctx context.Context) (UndoResult, error) {
	if err := ctx.Err(); err != nil {
		return UndoResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.Load()
	if err != nil {
		return UndoResult{}, err
	}

	op, restored, err := history.Undo(c)
	if err != nil {
		return UndoResult{}, err
	}
	if err := s.store.Save(c, true); err != nil {
		return UndoResult{}, err
	}

	s.log.Debug().Str("operation_id", op.ID).Str("op", string(op.Type)).Msg("undid operation")
	return UndoResult{Operation: op, Restored: restored}, nil
}

// History lists up to limit recorded operations, most recent first.
func (s *Service) History(ctx context.Context, limit int) ([]task.Operation, error) {
	c, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return history.List(c, limit), nil
}

// Analytics reports collection health over the timeframe.
func (s *Service) Analytics(ctx context.Context, tf analytics.Timeframe) (analytics.Report, error) {
	c, err := s.read(ctx)
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.Compute(c, tf, s.now()), nil
}
