package task

import (
	"slices"
	"sort"
	"time"
)

// CurrentVersion is the on-disk format version written by this package.
const CurrentVersion = 1

// Section is a named, ordered grouping of task ids. A task belongs to at most
// one section at a time.
type Section struct {
	Name    string   `json:"name"`
	TaskIDs []string `json:"taskIds"`
}

// Metadata holds aggregate counts derived from the task map. It is a cache and
// is recomputed on every save; it is never authoritative.
type Metadata struct {
	Total       int       `json:"total"`
	Pending     int       `json:"pending"`
	InProgress  int       `json:"inProgress"`
	Completed   int       `json:"completed"`
	Blocked     int       `json:"blocked"`
	Cancelled   int       `json:"cancelled"`
	Archived    int       `json:"archived"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Counts returns a copy of the metadata with LastUpdated cleared, for
// comparing aggregate state.
func (m Metadata) Counts() Metadata {
	m.LastUpdated = time.Time{}
	return m
}

// Collection is the aggregate root: the task map, sections, derived metadata,
// and the bounded operation history.
type Collection struct {
	Version     int              `json:"version"`
	Initialized bool             `json:"initialized"`
	Tasks       map[string]*Task `json:"tasks"`
	Sections    []Section        `json:"sections"`
	Metadata    Metadata         `json:"metadata"`
	History     []Operation      `json:"operationHistory"`
}

// NewCollection returns an initialized, empty collection.
func NewCollection() *Collection {
	return &Collection{
		Version:     CurrentVersion,
		Initialized: true,
		Tasks:       make(map[string]*Task),
		Sections:    []Section{},
		History:     []Operation{},
	}
}

// Clone returns a deep copy of the collection.
func (c *Collection) Clone() *Collection {
	out := &Collection{
		Version:     c.Version,
		Initialized: c.Initialized,
		Tasks:       make(map[string]*Task, len(c.Tasks)),
		Sections:    CloneSections(c.Sections),
		Metadata:    c.Metadata,
		History:     make([]Operation, len(c.History)),
	}
	for id, t := range c.Tasks {
		out.Tasks[id] = t.Clone()
	}
	for i, op := range c.History {
		out.History[i] = op.Clone()
	}
	return out
}

// Get returns the task with the given id.
func (c *Collection) Get(id string) (*Task, bool) {
	t, ok := c.Tasks[id]
	return t, ok
}

// List returns all tasks sorted by creation time, then id.
func (c *Collection) List(includeArchived bool) []*Task {
	out := make([]*Task, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		if t.Archived && !includeArchived {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IDs returns all task ids, sorted.
func (c *Collection) IDs() []string {
	ids := make([]string, 0, len(c.Tasks))
	for id := range c.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SectionOf returns the name of the section containing id, if any.
func (c *Collection) SectionOf(id string) (string, bool) {
	for _, s := range c.Sections {
		if slices.Contains(s.TaskIDs, id) {
			return s.Name, true
		}
	}
	return "", false
}

// RemoveFromSections removes id from every section. Empty sections are kept.
func (c *Collection) RemoveFromSections(id string) bool {
	removed := false
	for i := range c.Sections {
		before := len(c.Sections[i].TaskIDs)
		c.Sections[i].TaskIDs = slices.DeleteFunc(c.Sections[i].TaskIDs, func(s string) bool { return s == id })
		if len(c.Sections[i].TaskIDs) != before {
			removed = true
		}
	}
	return removed
}

// AssignSection moves id into the named section, creating it if needed. An
// empty name only removes the task from its current section.
func (c *Collection) AssignSection(id, name string) {
	c.RemoveFromSections(id)
	if name == "" {
		return
	}
	for i := range c.Sections {
		if c.Sections[i].Name == name {
			c.Sections[i].TaskIDs = append(c.Sections[i].TaskIDs, id)
			return
		}
	}
	c.Sections = append(c.Sections, Section{Name: name, TaskIDs: []string{id}})
}

// Delete removes a task from the map and from every section.
func (c *Collection) Delete(id string) {
	delete(c.Tasks, id)
	c.RemoveFromSections(id)
}

// ComputeMetadata derives aggregate counts from the task map.
func (c *Collection) ComputeMetadata() Metadata {
	var m Metadata
	for _, t := range c.Tasks {
		if t.Archived {
			m.Archived++
			continue
		}
		m.Total++
		switch t.Status {
		case StatusPending:
			m.Pending++
		case StatusInProgress:
			m.InProgress++
		case StatusCompleted:
			m.Completed++
		case StatusBlocked:
			m.Blocked++
		case StatusCancelled:
			m.Cancelled++
		}
	}
	return m
}

// RefreshMetadata recomputes the metadata cache and stamps LastUpdated.
func (c *Collection) RefreshMetadata(now time.Time) {
	m := c.ComputeMetadata()
	m.LastUpdated = now
	c.Metadata = m
}

// Normalize repairs structural fields after decoding so the collection is
// always safe to operate on.
func (c *Collection) Normalize() {
	if c.Tasks == nil {
		c.Tasks = make(map[string]*Task)
	}
	if c.Sections == nil {
		c.Sections = []Section{}
	}
	if c.History == nil {
		c.History = []Operation{}
	}
	if c.Version == 0 {
		c.Version = CurrentVersion
	}
	for id, t := range c.Tasks {
		if t == nil {
			delete(c.Tasks, id)
		}
	}
	for i := range c.Sections {
		if c.Sections[i].TaskIDs == nil {
			c.Sections[i].TaskIDs = []string{}
		}
	}
}

// Repairs lists the references Repair dropped, each as "owner → ref".
type Repairs struct {
	Dependencies []string `json:"dependencies,omitempty"`
	SectionIDs   []string `json:"sectionIds,omitempty"`
}

// Empty reports whether nothing was dropped.
func (r Repairs) Empty() bool {
	return len(r.Dependencies) == 0 && len(r.SectionIDs) == 0
}

// Repair drops dependencies on missing tasks, self dependencies, and section
// entries for missing tasks. Call it after Normalize.
func (c *Collection) Repair() Repairs {
	var r Repairs
	for _, id := range c.IDs() {
		t := c.Tasks[id]
		t.Dependencies = slices.DeleteFunc(t.Dependencies, func(dep string) bool {
			if _, ok := c.Tasks[dep]; ok && dep != id {
				return false
			}
			r.Dependencies = append(r.Dependencies, id+" → "+dep)
			return true
		})
	}
	for i, sec := range c.Sections {
		c.Sections[i].TaskIDs = slices.DeleteFunc(sec.TaskIDs, func(id string) bool {
			if _, ok := c.Tasks[id]; ok {
				return false
			}
			r.SectionIDs = append(r.SectionIDs, sec.Name+" → "+id)
			return true
		})
	}
	return r
}

// CloneSections deep-copies a section list.
func CloneSections(sections []Section) []Section {
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = Section{Name: s.Name, TaskIDs: slices.Clone(s.TaskIDs)}
		if out[i].TaskIDs == nil {
			out[i].TaskIDs = []string{}
		}
	}
	return out
}
