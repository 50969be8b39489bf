package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/taskhive/internal/core/history"
	"github.com/colonyops/taskhive/internal/core/task"
)

// ItemResult is the outcome of one id in a bulk operation.
type ItemResult struct {
	Ref     string `json:"ref"`
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	// Also lists additional ids removed by a cascade.
	Also []string `json:"also,omitempty"`
}

// BulkResult summarizes a bulk operation. In a dry run it is the plan that
// would have been applied.
type BulkResult struct {
	DryRun      bool         `json:"dryRun"`
	Processed   int          `json:"processed"`
	Succeeded   int          `json:"succeeded"`
	Skipped     int          `json:"skipped"`
	Items       []ItemResult `json:"items"`
	OperationID string       `json:"operationId,omitempty"`
}

func (r *BulkResult) ok(ref, id string, also []string) {
	r.Processed++
	r.Succeeded++
	r.Items = append(r.Items, ItemResult{Ref: ref, ID: id, Success: true, Also: also})
}

func (r *BulkResult) skip(ref, id string, err error) {
	r.Processed++
	r.Skipped++
	reason := err.Error()
	if hint := task.HintFor(err); hint != "" {
		reason += " (" + hint + ")"
	}
	r.Items = append(r.Items, ItemResult{Ref: ref, ID: id, Reason: reason})
}

// AffectedIDs returns the ids of successful items, cascaded ids included.
func (r BulkResult) AffectedIDs() []string {
	var out []string
	for _, it := range r.Items {
		if it.Success {
			out = append(out, it.ID)
			out = append(out, it.Also...)
		}
	}
	return out
}

// BulkUpdate applies u to each reference in order. A bad reference or an
// update that fails for one task is reported and skipped. All successful
// updates share one undo entry. With dryRun nothing is saved.
func (s *Service) BulkUpdate(ctx context.Context, refs []string, u task.Update, reason string, dryRun bool) (BulkResult, error) {
	if err := validateUpdate(u); err != nil {
		return BulkResult{}, err
	}
	if len(refs) == 0 {
		return BulkResult{}, &task.ValidationError{Field: "ids", Message: "no task ids given"}
	}

	res := BulkResult{DryRun: dryRun}
	apply := func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error) {
		seen := make(map[string]bool)
		for _, ref := range refs {
			t, err := s.lookup(c, ref)
			if err != nil {
				res.skip(ref, "", err)
				continue
			}
			if seen[t.ID] {
				res.skip(ref, t.ID, &task.ValidationError{Field: "ids", Message: "duplicate of an earlier id in this batch"})
				continue
			}
			seen[t.ID] = true

			if _, err := s.applyUpdate(c, rec, t, u, reason, now); err != nil {
				res.skip(ref, t.ID, err)
				continue
			}
			res.ok(ref, t.ID, nil)
		}
		return fmt.Sprintf("Bulk updated %d task(s)", res.Succeeded), nil
	}

	if dryRun {
		return res, s.plan(ctx, apply)
	}

	op, err := s.mutate(ctx, task.OpBulkUpdate, apply)
	if err != nil {
		return BulkResult{}, err
	}
	res.OperationID = op.ID
	return res, nil
}

// BulkDelete deletes each reference in order using strategy. Tasks named in
// the same batch never block one another. Without dryRun, confirm must be
// set. All deletions share one undo entry.
func (s *Service) BulkDelete(ctx context.Context, refs []string, strategy Strategy, force, dryRun, confirm bool) (BulkResult, error) {
	if len(refs) == 0 {
		return BulkResult{}, &task.ValidationError{Field: "ids", Message: "no task ids given"}
	}
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return BulkResult{}, err
	}
	if !dryRun && !confirm {
		return BulkResult{}, &task.ValidationError{
			Field:   "confirm",
			Message: "bulk delete must be confirmed; preview it with a dry run, then re-run with confirm",
		}
	}

	res := BulkResult{DryRun: dryRun}
	apply := func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error) {
		// Resolve everything up front so batch members are known before
		// any of them is deleted.
		// Lookup failures keep their slot so results follow input order.
		type target struct {
			ref, id string
			err     error
		}
		targets := make([]target, 0, len(refs))
		batch := make(map[string]bool)
		for _, ref := range refs {
			t, err := s.lookup(c, ref)
			if err != nil {
				targets = append(targets, target{ref: ref, err: err})
				continue
			}
			targets = append(targets, target{ref: ref, id: t.ID})
			batch[t.ID] = true
		}

		for _, tg := range targets {
			if tg.err != nil {
				res.skip(tg.ref, "", tg.err)
				continue
			}
			if _, ok := c.Tasks[tg.id]; !ok {
				res.skip(tg.ref, tg.id, &task.NotFoundError{Input: tg.ref})
				continue
			}
			del, err := s.deleteOne(c, rec, tg.id, strategy, force, batch, now)
			if err != nil {
				res.skip(tg.ref, tg.id, err)
				continue
			}
			res.ok(tg.ref, tg.id, del.Deleted[1:])
		}
		return fmt.Sprintf("Bulk deleted %d task(s)", len(res.AffectedIDs())), nil
	}

	if dryRun {
		return res, s.plan(ctx, apply)
	}

	op, err := s.mutate(ctx, task.OpBulkDelete, apply)
	if err != nil {
		return BulkResult{}, err
	}
	res.OperationID = op.ID
	return res, nil
}

// plan runs fn against a throwaway copy of the collection.
func (s *Service) plan(ctx context.Context, fn mutation) error {
	c, err := s.read(ctx)
	if err != nil {
		return err
	}
	_, err = fn(c, history.Begin(c), s.now())
	return err
}
