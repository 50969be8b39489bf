package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("done").IsValid())

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusBlocked.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestPriorityWeight(t *testing.T) {
	tests := []struct {
		priority Priority
		want     int
	}{
		{PriorityLow, 1},
		{PriorityMedium, 2},
		{PriorityHigh, 3},
		{PriorityCritical, 4},
		{Priority("urgent"), 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.priority.Weight())
		})
	}
}

func TestSetStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tk := &Task{Status: StatusPending, ProgressPercentage: 40}

	tk.SetStatus(StatusCompleted, now)
	require.NotNil(t, tk.CompletedAt)
	assert.Equal(t, now, *tk.CompletedAt)
	assert.Equal(t, 100, tk.ProgressPercentage)

	// completing twice keeps the original timestamp
	tk.SetStatus(StatusCompleted, now.Add(time.Hour))
	assert.Equal(t, now, *tk.CompletedAt)

	tk.SetStatus(StatusInProgress, now)
	assert.Nil(t, tk.CompletedAt)
	assert.Equal(t, StatusInProgress, tk.Status)
}

func TestClone_IsDeep(t *testing.T) {
	due := time.Now()
	orig := &Task{
		ID:           "abc",
		Tags:         []string{"a"},
		Dependencies: []string{"x"},
		DueDate:      &due,
		ChangeLog:    []ChangeLogEntry{{Action: "created"}},
	}

	cp := orig.Clone()
	cp.Tags[0] = "b"
	cp.Dependencies = append(cp.Dependencies, "y")
	*cp.DueDate = due.Add(time.Hour)
	cp.ChangeLog[0].Action = "changed"

	assert.Equal(t, []string{"a"}, orig.Tags)
	assert.Equal(t, []string{"x"}, orig.Dependencies)
	assert.Equal(t, due, *orig.DueDate)
	assert.Equal(t, "created", orig.ChangeLog[0].Action)

	var nilTask *Task
	assert.Nil(t, nilTask.Clone())
}

func TestDependencies(t *testing.T) {
	tk := &Task{Dependencies: []string{"a", "b"}}
	assert.True(t, tk.DependsOn("a"))
	assert.False(t, tk.DependsOn("c"))

	assert.True(t, tk.RemoveDependency("a"))
	assert.False(t, tk.RemoveDependency("a"))
	assert.Equal(t, []string{"b"}, tk.Dependencies)
}

func TestLog(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tk := &Task{}
	tk.Log(now, "updated", "status", "sam")

	require.Len(t, tk.ChangeLog, 1)
	assert.Equal(t, ChangeLogEntry{Timestamp: now, Action: "updated", Details: "status", ModifiedBy: "sam"}, tk.ChangeLog[0])
	assert.Equal(t, now, tk.UpdatedAt)
}

func TestHasTag(t *testing.T) {
	tk := &Task{Tags: []string{"Backend"}}
	assert.True(t, tk.HasTag("backend"))
	assert.False(t, tk.HasTag("front"))
}

func TestNormalizeSet(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "only blanks", in: []string{" ", ""}, want: nil},
		{name: "trims sorts and dedupes", in: []string{" b", "a", "b "}, want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSet(tt.in))
		})
	}
}
