// Package history implements the undo ledger: every mutation records a
// before-image of the tasks it touched so it can be reversed exactly, in
// strict LIFO order.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/taskhive/internal/core/task"
)

// DefaultLimit bounds the number of retained operations.
const DefaultLimit = 100

// Recorder captures before-images for a single operation. Call Touch before
// mutating a task; the first call for an id wins.
type Recorder struct {
	c        *task.Collection
	sections []task.Section
	images   map[string]*task.Task
	order    []string
}

// Begin starts recording an operation against c. The section layout is
// captured immediately.
func Begin(c *task.Collection) *Recorder {
	return &Recorder{
		c:        c,
		sections: task.CloneSections(c.Sections),
		images:   make(map[string]*task.Task),
	}
}

// Touch snapshots id before its first mutation. Ids that do not exist yet
// are recorded as absent so reversal removes them.
func (r *Recorder) Touch(id string) {
	if _, seen := r.images[id]; seen {
		return
	}
	r.images[id] = r.c.Tasks[id].Clone()
	r.order = append(r.order, id)
}

// Touched returns the recorded ids in first-touch order.
func (r *Recorder) Touched() []string {
	return append([]string(nil), r.order...)
}

// Empty reports whether nothing was touched.
func (r *Recorder) Empty() bool {
	return len(r.order) == 0
}

// Ledger appends operations to a collection's bounded history.
type Ledger struct {
	limit int
}

// NewLedger creates a ledger retaining at most limit operations (0 uses DefaultLimit).
func NewLedger(limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ledger{limit: limit}
}

// Commit appends the operation captured by r to the collection's history,
// evicting the oldest entries beyond the limit.
func (l *Ledger) Commit(r *Recorder, typ task.OperationType, description string, at time.Time) task.Operation {
	op := task.Operation{
		ID:              uuid.NewString(),
		Type:            typ,
		Timestamp:       at,
		Description:     description,
		AffectedTaskIDs: r.Touched(),
		Undo: task.UndoPayload{
			Sections: r.sections,
			Before:   make([]task.TaskImage, 0, len(r.order)),
		},
	}
	for _, id := range r.order {
		op.Undo.Before = append(op.Undo.Before, task.TaskImage{ID: id, Task: r.images[id]})
	}

	r.c.History = append(r.c.History, op)
	if over := len(r.c.History) - l.limit; over > 0 {
		r.c.History = append([]task.Operation(nil), r.c.History[over:]...)
	}
	return op
}

// Undo pops the most recent operation and restores every task it touched,
// and the section layout, to their state immediately before it ran.
// Returns task.ErrNothingToUndo when the history is empty.
func Undo(c *task.Collection) (task.Operation, []string, error) {
	if len(c.History) == 0 {
		return task.Operation{}, nil, task.ErrNothingToUndo
	}

	op := c.History[len(c.History)-1]
	c.History = c.History[:len(c.History)-1]

	restored := make([]string, 0, len(op.Undo.Before))
	for _, img := range op.Undo.Before {
		if img.Task == nil {
			delete(c.Tasks, img.ID)
			continue
		}
		c.Tasks[img.ID] = img.Task.Clone()
		restored = append(restored, img.ID)
	}
	c.Sections = task.CloneSections(op.Undo.Sections)

	return op, restored, nil
}

// List returns up to limit operations, most recent first. A limit <= 0
// returns the full history.
func List(c *task.Collection, limit int) []task.Operation {
	n := len(c.History)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]task.Operation, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, c.History[i])
	}
	return out
}
