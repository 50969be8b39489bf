package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollection(tasks ...*Task) *Collection {
	c := NewCollection()
	for _, t := range tasks {
		c.Tasks[t.ID] = t
	}
	return c
}

func TestList(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCollection(
		&Task{ID: "c", CreatedAt: base},
		&Task{ID: "b", CreatedAt: base},
		&Task{ID: "a", CreatedAt: base.Add(time.Hour)},
		&Task{ID: "z", CreatedAt: base, Archived: true},
	)

	ids := func(tasks []*Task) []string {
		out := make([]string, len(tasks))
		for i, t := range tasks {
			out[i] = t.ID
		}
		return out
	}

	assert.Equal(t, []string{"b", "c", "a"}, ids(c.List(false)))
	assert.Equal(t, []string{"b", "c", "z", "a"}, ids(c.List(true)))
	assert.Equal(t, []string{"a", "b", "c", "z"}, c.IDs())
}

func TestAssignSection(t *testing.T) {
	c := newTestCollection(&Task{ID: "a"}, &Task{ID: "b"})

	c.AssignSection("a", "Backend")
	c.AssignSection("b", "Backend")
	c.AssignSection("a", "Frontend")

	require.Len(t, c.Sections, 2)
	assert.Equal(t, Section{Name: "Backend", TaskIDs: []string{"b"}}, c.Sections[0])
	assert.Equal(t, Section{Name: "Frontend", TaskIDs: []string{"a"}}, c.Sections[1])

	name, ok := c.SectionOf("a")
	assert.True(t, ok)
	assert.Equal(t, "Frontend", name)

	c.AssignSection("a", "")
	_, ok = c.SectionOf("a")
	assert.False(t, ok)
	assert.Len(t, c.Sections, 2, "empty sections are kept")

	c.Delete("b")
	assert.NotContains(t, c.Tasks, "b")
	assert.Empty(t, c.Sections[0].TaskIDs)
}

func TestComputeMetadata(t *testing.T) {
	c := newTestCollection(
		&Task{ID: "a", Status: StatusPending},
		&Task{ID: "b", Status: StatusCompleted},
		&Task{ID: "c", Status: StatusBlocked},
		&Task{ID: "d", Status: StatusCompleted, Archived: true},
	)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.RefreshMetadata(now)

	assert.Equal(t, Metadata{
		Total:       3,
		Pending:     1,
		Completed:   1,
		Blocked:     1,
		Archived:    1,
		LastUpdated: now,
	}, c.Metadata)
	assert.Equal(t, c.ComputeMetadata(), c.Metadata.Counts())
}

func TestNormalize(t *testing.T) {
	c := &Collection{
		Tasks:    map[string]*Task{"a": {ID: "a"}, "nil": nil},
		Sections: []Section{{Name: "S", TaskIDs: []string{"a", "gone"}}, {Name: "Empty"}},
	}
	c.Normalize()

	assert.Equal(t, CurrentVersion, c.Version)
	assert.NotContains(t, c.Tasks, "nil")
	assert.Equal(t, []string{"a", "gone"}, c.Sections[0].TaskIDs, "references are left to Repair")
	assert.NotNil(t, c.Sections[1].TaskIDs)
	assert.NotNil(t, c.History)
}

func TestRepair(t *testing.T) {
	c := newTestCollection(
		&Task{ID: "a", Dependencies: []string{"a", "b", "gone"}},
		&Task{ID: "b", Dependencies: []string{"a"}},
	)
	c.Sections = []Section{{Name: "S", TaskIDs: []string{"missing", "a"}}}

	r := c.Repair()

	assert.Equal(t, []string{"b"}, c.Tasks["a"].Dependencies)
	assert.Equal(t, []string{"a"}, c.Tasks["b"].Dependencies)
	assert.Equal(t, []string{"a"}, c.Sections[0].TaskIDs)
	assert.Equal(t, []string{"a → a", "a → gone"}, r.Dependencies)
	assert.Equal(t, []string{"S → missing"}, r.SectionIDs)
	assert.False(t, r.Empty())

	assert.True(t, c.Repair().Empty(), "a repaired collection needs nothing more")
}

func TestCollectionClone(t *testing.T) {
	c := newTestCollection(&Task{ID: "a", Title: "A"})
	c.AssignSection("a", "S")
	c.History = append(c.History, Operation{ID: "op", AffectedTaskIDs: []string{"a"}})

	cp := c.Clone()
	cp.Tasks["a"].Title = "changed"
	cp.Sections[0].TaskIDs[0] = "x"
	cp.History[0].AffectedTaskIDs[0] = "x"
	delete(cp.Tasks, "a")

	assert.Equal(t, "A", c.Tasks["a"].Title)
	assert.Equal(t, []string{"a"}, c.Sections[0].TaskIDs)
	assert.Equal(t, []string{"a"}, c.History[0].AffectedTaskIDs)
}
