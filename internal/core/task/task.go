// Package task defines the task-tracking domain model: tasks, sections, the
// collection aggregate root, and the reversible operations recorded against it.
package task

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Status represents the lifecycle state of a task.
// ENUM(pending, in_progress, completed, blocked, cancelled).
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusBlocked, StatusCancelled}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return slices.Contains(Statuses, s)
}

// IsTerminal reports whether the status ends the task's lifecycle. Terminal
// tasks never block deletion of the tasks they depend on.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority ranks the importance of a task.
// ENUM(low, medium, high, critical).
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every valid priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	return slices.Contains(Priorities, p)
}

// Weight is the priority's contribution to weighted completion scores.
func (p Priority) Weight() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ChangeLogEntry records a single change applied to a task.
type ChangeLogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	ModifiedBy string    `json:"modifiedBy,omitempty"`
}

// Task is a unit of work with status, priority, and dependency relationships.
// ID is assigned on creation and never changes.
type Task struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description,omitempty"`
	Status             Status           `json:"status"`
	Priority           Priority         `json:"priority"`
	Assignee           string           `json:"assignee,omitempty"`
	Category           string           `json:"category,omitempty"`
	Tags               []string         `json:"tags,omitempty"`
	Dependencies       []string         `json:"dependencies,omitempty"`
	LinkedADRs         []string         `json:"linkedAdrs,omitempty"`
	DueDate            *time.Time       `json:"dueDate,omitempty"`
	ProgressPercentage int              `json:"progressPercentage"`
	Notes              string           `json:"notes,omitempty"`
	Archived           bool             `json:"archived"`
	ArchivedAt         *time.Time       `json:"archivedAt,omitempty"`
	CompletedAt        *time.Time       `json:"completedAt,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
	ChangeLog          []ChangeLogEntry `json:"changeLog,omitempty"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Tags = slices.Clone(t.Tags)
	c.Dependencies = slices.Clone(t.Dependencies)
	c.LinkedADRs = slices.Clone(t.LinkedADRs)
	c.ChangeLog = slices.Clone(t.ChangeLog)
	c.DueDate = cloneTime(t.DueDate)
	c.ArchivedAt = cloneTime(t.ArchivedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return &c
}

// DependsOn reports whether the task lists id as a dependency.
func (t *Task) DependsOn(id string) bool {
	return slices.Contains(t.Dependencies, id)
}

// RemoveDependency strips id from the dependency set. Returns true if it was present.
func (t *Task) RemoveDependency(id string) bool {
	before := len(t.Dependencies)
	t.Dependencies = slices.DeleteFunc(t.Dependencies, func(d string) bool { return d == id })
	return len(t.Dependencies) != before
}

// Log appends a change log entry and bumps UpdatedAt.
func (t *Task) Log(now time.Time, action, details, modifiedBy string) {
	t.ChangeLog = append(t.ChangeLog, ChangeLogEntry{
		Timestamp:  now,
		Action:     action,
		Details:    details,
		ModifiedBy: modifiedBy,
	})
	t.UpdatedAt = now
}

// SetStatus changes the status and maintains CompletedAt.
func (t *Task) SetStatus(s Status, now time.Time) {
	if s == StatusCompleted && t.Status != StatusCompleted {
		t.CompletedAt = &now
		t.ProgressPercentage = 100
	}
	if s != StatusCompleted {
		t.CompletedAt = nil
	}
	t.Status = s
}

// HasTag reports whether the task carries the tag (case-insensitive).
func (t *Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// NormalizeSet trims, drops empties, and deduplicates values, returning them sorted.
func NormalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
