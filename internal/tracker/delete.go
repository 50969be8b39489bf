package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/taskhive/internal/core/history"
	"github.com/colonyops/taskhive/internal/core/task"
)

// Strategy decides what happens to the dependents of a deleted task.
type Strategy string

const (
	// StrategyBlock refuses to delete a task that live tasks depend on.
	StrategyBlock Strategy = "block"
	// StrategyReassign strips the deleted id from every dependent.
	StrategyReassign Strategy = "reassign"
	// StrategyCascade deletes the task and its full transitive dependent closure.
	StrategyCascade Strategy = "cascade"
)

// ParseStrategy validates a strategy name. Empty selects block.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyBlock, nil
	case StrategyBlock, StrategyReassign, StrategyCascade:
		return st, nil
	default:
		return "", &task.ValidationError{
			Field:   "strategy",
			Message: fmt.Sprintf("unknown delete strategy %q", s),
			Allowed: []string{string(StrategyBlock), string(StrategyReassign), string(StrategyCascade)},
		}
	}
}

// DeleteResult describes a completed delete.
type DeleteResult struct {
	Deleted []string `json:"deleted"`
	// Detached lists surviving tasks whose dependency on a deleted task was removed.
	Detached []string `json:"detached,omitempty"`
}

// Delete removes a task after resolving its dependents by strategy. With
// force, blocking dependents are detached as with reassign.
func (s *Service) Delete(ctx context.Context, ref string, strategy Strategy, force bool) (DeleteResult, error) {
	var res DeleteResult
	_, err := s.mutate(ctx, task.OpDelete, func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error) {
		t, err := s.lookup(c, ref)
		if err != nil {
			return "", err
		}
		title := t.Title

		res, err = s.deleteOne(c, rec, t.ID, strategy, force, nil, now)
		if err != nil {
			return "", err
		}
		if len(res.Deleted) > 1 {
			return fmt.Sprintf("Deleted task %q and %d dependent(s)", title, len(res.Deleted)-1), nil
		}
		return fmt.Sprintf("Deleted task %q", title), nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

// deleteOne applies one delete to c. The cascade closure and any blocking
// dependents are computed before anything is mutated, so a returned error
// leaves c untouched. Dependents listed in batch never block.
func (s *Service) deleteOne(
	c *task.Collection,
	rec *history.Recorder,
	id string,
	strategy Strategy,
	force bool,
	batch map[string]bool,
	now time.Time,
) (DeleteResult, error) {
	g := task.NewGraph(c)

	doomed := []string{id}
	switch strategy {
	case StrategyCascade:
		doomed = g.DependentClosure(id)
	case StrategyBlock, "":
		if force {
			break
		}
		var blocking []string
		for _, dep := range g.Dependents(id) {
			if batch[dep] || c.Tasks[dep].Status.IsTerminal() {
				continue
			}
			blocking = append(blocking, dep)
		}
		if len(blocking) > 0 {
			return DeleteResult{}, &task.DependencyConflictError{TaskID: id, Dependents: blocking}
		}
	case StrategyReassign:
	default:
		_, err := ParseStrategy(string(strategy))
		return DeleteResult{}, err
	}

	removed := make(map[string]bool, len(doomed))
	for _, d := range doomed {
		removed[d] = true
	}

	res := DeleteResult{Deleted: doomed}

	// Detach survivors before deleting so no dangling reference outlives
	// the operation.
	for _, other := range c.List(true) {
		if removed[other.ID] {
			continue
		}
		var dropped []string
		for _, dep := range other.Dependencies {
			if removed[dep] {
				dropped = append(dropped, dep)
			}
		}
		if len(dropped) == 0 {
			continue
		}
		rec.Touch(other.ID)
		for _, dep := range dropped {
			other.RemoveDependency(dep)
		}
		other.Log(now, "dependency_removed", "removed dependency on deleted task(s) "+strings.Join(dropped, ", "), s.actor)
		res.Detached = append(res.Detached, other.ID)
	}

	for _, d := range doomed {
		rec.Touch(d)
		c.Delete(d)
	}

	s.log.Debug().Str("task_id", id).Str("strategy", string(strategy)).Int("deleted", len(doomed)).Msg("deleted task")
	return res, nil
}
