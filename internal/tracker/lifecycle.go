package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/colonyops/taskhive/internal/core/history"
	"github.com/colonyops/taskhive/internal/core/task"
)

// Create validates d and adds a pending task. Dependencies must already exist.
func (s *Service) Create(ctx context.Context, d task.Draft) (*task.Task, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var created *task.Task
	_, err := s.mutate(ctx, task.OpCreate, func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error) {
		deps := task.NormalizeSet(d.Dependencies)
		if err := task.CheckDependencies(c, "", deps); err != nil {
			return "", err
		}

		id, err := s.generateID(c)
		if err != nil {
			return "", err
		}

		priority := d.Priority
		if priority == "" {
			priority = task.PriorityMedium
		}

		t := &task.Task{
			ID:           id,
			Title:        strings.TrimSpace(d.Title),
			Description:  d.Description,
			Status:       task.StatusPending,
			Priority:     priority,
			Assignee:     strings.TrimSpace(d.Assignee),
			Category:     strings.TrimSpace(d.Category),
			Tags:         task.NormalizeSet(d.Tags),
			Dependencies: deps,
			LinkedADRs:   task.NormalizeSet(d.LinkedADRs),
			DueDate:      d.DueDate,
			Notes:        d.Notes,
			CreatedAt:    now,
		}
		t.Log(now, "created", fmt.Sprintf("created with priority %s", priority), s.actor)

		rec.Touch(id)
		c.Tasks[id] = t
		if name := strings.TrimSpace(d.Section); name != "" {
			c.AssignSection(id, name)
		}

		created = t.Clone()
		return fmt.Sprintf("Created task %q", t.Title), nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the task a reference resolves to.
func (s *Service) Get(ctx context.Context, ref string) (*task.Task, error) {
	c, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.lookup(c, ref)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// Update applies the supplied fields of u to one task. reason is recorded in
// the task's change log.
func (s *Service) Update(ctx context.Context, ref string, u task.Update, reason string) (*task.Task, error) {
	if err := validateUpdate(u); err != nil {
		return nil, err
	}

	var updated *task.Task
	_, err := s.mutate(ctx, task.OpUpdate, func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error) {
		t, err := s.lookup(c, ref)
		if err != nil {
			return "", err
		}
		changed, err := s.applyUpdate(c, rec, t, u, reason, now)
		if err != nil {
			return "", err
		}
		updated = t.Clone()
		return fmt.Sprintf("Updated %s of task %q", strings.Join(changed, ", "), t.Title), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func validateUpdate(u task.Update) error {
	if u.IsEmpty() {
		return &task.ValidationError{Field: "update", Message: "no fields to update"}
	}
	return u.Validate()
}

// applyUpdate checks u against the collection, then snapshots and mutates t.
// Nothing is changed when an error is returned.
func (s *Service) applyUpdate(c *task.Collection, rec *history.Recorder, t *task.Task, u task.Update, reason string, now time.Time) ([]string, error) {
	var deps []string
	if u.Dependencies != nil {
		deps = task.NormalizeSet(*u.Dependencies)
		if err := task.CheckDependencies(c, t.ID, deps); err != nil {
			return nil, err
		}
	}

	rec.Touch(t.ID)

	var changed []string
	set := func(field string, apply func()) {
		apply()
		changed = append(changed, field)
	}

	if u.Title != nil {
		set("title", func() { t.Title = strings.TrimSpace(*u.Title) })
	}
	if u.Description != nil {
		set("description", func() { t.Description = *u.Description })
	}
	if u.Priority != nil {
		set("priority", func() { t.Priority = *u.Priority })
	}
	if u.Assignee != nil {
		set("assignee", func() { t.Assignee = strings.TrimSpace(*u.Assignee) })
	}
	if u.Category != nil {
		set("category", func() { t.Category = strings.TrimSpace(*u.Category) })
	}
	if u.Tags != nil {
		set("tags", func() { t.Tags = task.NormalizeSet(*u.Tags) })
	}
	if u.Dependencies != nil {
		set("dependencies", func() { t.Dependencies = deps })
	}
	if u.LinkedADRs != nil {
		set("linkedAdrs", func() { t.LinkedADRs = task.NormalizeSet(*u.LinkedADRs) })
	}
	if u.DueDate != nil {
		due := *u.DueDate
		set("dueDate", func() { t.DueDate = &due })
	}
	if u.ClearDueDate {
		set("dueDate", func() { t.DueDate = nil })
	}
	if u.ProgressPercentage != nil {
		set("progressPercentage", func() { t.ProgressPercentage = *u.ProgressPercentage })
	}
	if u.Notes != nil {
		set("notes", func() { t.Notes = *u.Notes })
	}
	// status last so completing a task wins over an explicit progress value
	if u.Status != nil {
		set("status", func() { t.SetStatus(*u.Status, now) })
	}

	details := "updated " + strings.Join(changed, ", ")
	if reason = strings.TrimSpace(reason); reason != "" {
		details += ": " + reason
	}
	t.Log(now, "updated", details, s.actor)
	return changed, nil
}

// Archive hides a task from default views. It drops the task from its
// section and keeps its dependency links.
func (s *Service) Archive(ctx context.Context, ref string) (*task.Task, error) {
	var archived *task.Task
	_, err := s.mutate(ctx, task.OpArchive, func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error) {
		t, err := s.lookup(c, ref)
		if err != nil {
			return "", err
		}
		if t.Archived {
			return "", &task.ValidationError{Field: "archived", Message: fmt.Sprintf("task %s is already archived", t.ID)}
		}

		rec.Touch(t.ID)
		t.Archived = true
		t.ArchivedAt = &now
		c.RemoveFromSections(t.ID)
		t.Log(now, "archived", "archived", s.actor)

		archived = t.Clone()
		return fmt.Sprintf("Archived task %q", t.Title), nil
	})
	if err != nil {
		return nil, err
	}
	return archived, nil
}

// Unarchive returns an archived task to default views. Section membership
// is not restored.
func (s *Service) Unarchive(ctx context.Context, ref string) (*task.Task, error) {
	var restored *task.Task
	_, err := s.mutate(ctx, task.OpUnarchive, func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error) {
		t, err := s.lookup(c, ref)
		if err != nil {
			return "", err
		}
		if !t.Archived {
			return "", &task.ValidationError{Field: "archived", Message: fmt.Sprintf("task %s is not archived", t.ID)}
		}

		rec.Touch(t.ID)
		t.Archived = false
		t.ArchivedAt = nil
		t.Log(now, "unarchived", "unarchived", s.actor)

		restored = t.Clone()
		return fmt.Sprintf("Unarchived task %q", t.Title), nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// MoveToSection places a task in the named section, creating the section if
// needed. An empty name removes the task from its section.
func (s *Service) MoveToSection(ctx context.Context, ref, section string) (*task.Task, error) {
	section = strings.TrimSpace(section)

	var moved *task.Task
	_, err := s.mutate(ctx, task.OpSection, func(c *task.Collection, rec *history.Recorder, now time.Time) (string, error) {
		t, err := s.lookup(c, ref)
		if err != nil {
			return "", err
		}
		if t.Archived {
			return "", &task.ValidationError{Field: "section", Message: fmt.Sprintf("task %s is archived; unarchive it first", t.ID)}
		}

		current, _ := c.SectionOf(t.ID)
		if current == section {
			moved = t.Clone()
			return "", nil
		}

		rec.Touch(t.ID)
		c.AssignSection(t.ID, section)

		desc := fmt.Sprintf("moved to section %q", section)
		if section == "" {
			desc = fmt.Sprintf("removed from section %q", current)
		}
		t.Log(now, "moved", desc, s.actor)

		moved = t.Clone()
		return fmt.Sprintf("Task %q %s", t.Title, desc), nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Sections returns the section layout.
func (s *Service) Sections(ctx context.Context) ([]task.Section, error) {
	c, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(c.Sections), nil
}
