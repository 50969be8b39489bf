package tracker

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/colonyops/taskhive/internal/core/history"
	"github.com/colonyops/taskhive/internal/core/markdown"
	"github.com/colonyops/taskhive/internal/core/task"
)

// ImportResult lists the tasks an import touched.
type ImportResult struct {
	Created     []string `json:"created"`
	Updated     []string `json:"updated"`
	Unchanged   []string `json:"unchanged"`
	OperationID string   `json:"operationId,omitempty"`
}

var importableID = regexp.MustCompile(`^[a-z0-9]{4,32}$`)

// ImportMarkdown applies a document produced by the markdown export. Items
// whose id exists update that task's title, status, priority, tags,
// description, and section; other items become new tasks, keeping their id
// when it is free. The import is one undoable operation.
func (s *Service) ImportMarkdown(ctx context.Context, content string) (ImportResult, error) {
	doc, err := markdown.Parse(content)
	if err != nil {
		return ImportResult{}, err
	}
	if len(doc.Items) == 0 {
		return ImportResult{}, &task.ValidationError{Field: "document", Message: "no checklist items found"}
	}

	var res ImportResult
	op, err := s.mutate(ctx, task.OpImport, func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error) {
		for _, item := range doc.Items {
			if err := (task.Draft{Title: item.Title, Priority: item.Priority}).Validate(); err != nil {
				return "", fmt.Errorf("line %d: %w", item.Line, err)
			}

			if existing, ok := c.Tasks[item.ID]; ok && item.ID != "" {
				if s.importInto(c, rec, existing, item, now) {
					res.Updated = append(res.Updated, existing.ID)
				} else {
					res.Unchanged = append(res.Unchanged, existing.ID)
				}
				continue
			}

			id := item.ID
			if !importableID.MatchString(id) {
				generated, err := s.generateID(c)
				if err != nil {
					return "", err
				}
				id = generated
			}
			t := &task.Task{
				ID:          id,
				Title:       item.Title,
				Description: item.Description,
				Status:      task.StatusPending,
				Priority:    item.Priority,
				Tags:        item.Tags,
				CreatedAt:   now,
			}
			t.SetStatus(item.Status, now)
			t.Log(now, "created", "imported from markdown", s.actor)

			rec.Touch(id)
			c.Tasks[id] = t
			c.AssignSection(id, item.Section)
			res.Created = append(res.Created, id)
		}
		return fmt.Sprintf("Imported markdown: %d created, %d updated", len(res.Created), len(res.Updated)), nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	res.OperationID = op.ID
	return res, nil
}

// importInto applies an item's round-tripped fields to t, reporting whether
// anything changed.
func (s *Service) importInto(c *task.Collection, rec *history.Recorder, t *task.Task, item markdown.Item, now time.Time) bool {
	current, _ := c.SectionOf(t.ID)
	// archived tasks stay out of sections
	moveSection := !t.Archived && current != item.Section

	same := t.Title == item.Title &&
		t.Status == item.Status &&
		t.Priority == item.Priority &&
		slices.Equal(t.Tags, item.Tags) &&
		(item.Description == "" || t.Description == item.Description) &&
		!moveSection
	if same {
		return false
	}

	rec.Touch(t.ID)
	t.Title = item.Title
	t.Priority = item.Priority
	t.Tags = item.Tags
	if item.Description != "" {
		t.Description = item.Description
	}
	if t.Status != item.Status {
		t.SetStatus(item.Status, now)
	}
	if moveSection {
		c.AssignSection(t.ID, item.Section)
	}
	t.Log(now, "updated", "updated from markdown import", s.actor)
	return true
}

// ExportMarkdown renders the current collection as a markdown document.
func (s *Service) ExportMarkdown(ctx context.Context, title string) (string, error) {
	c, err := s.read(ctx)
	if err != nil {
		return "", err
	}
	return markdown.Render(c, title, s.now())
}
