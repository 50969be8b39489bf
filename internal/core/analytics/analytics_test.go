package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskhive/internal/core/task"
)

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func add(c *task.Collection, id string, p task.Priority, s task.Status, created time.Time) *task.Task {
	t := &task.Task{ID: id, Title: id, Priority: p, Status: s, CreatedAt: created, UpdatedAt: created}
	c.Tasks[id] = t
	return t
}

func TestCompute_PriorityWeightedScore(t *testing.T) {
	c := task.NewCollection()
	crit := add(c, "a", task.PriorityCritical, task.StatusCompleted, now)
	crit.CompletedAt = &now
	add(c, "b", task.PriorityHigh, task.StatusPending, now)
	add(c, "c", task.PriorityLow, task.StatusPending, now)

	r := Compute(c, TimeframeWeek, now)

	// 4 / (4 + 3 + 1)
	assert.InDelta(t, 50.0, r.PriorityWeightedScore, 1e-9)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 1, r.Completed)
	assert.InDelta(t, 33.3, r.CompletionRate, 1e-9)
	assert.Equal(t, 0, r.CriticalRemaining)
	assert.Equal(t, PriorityCounts{Total: 1, Completed: 1}, r.ByPriority[task.PriorityCritical])
}

func TestCompute_Counts(t *testing.T) {
	c := task.NewCollection()
	add(c, "p", task.PriorityCritical, task.StatusPending, now.AddDate(0, 0, -4))
	add(c, "i", task.PriorityMedium, task.StatusInProgress, now.AddDate(0, 0, -2))
	add(c, "b", task.PriorityCritical, task.StatusBlocked, now)
	add(c, "x", task.PriorityCritical, task.StatusCancelled, now)
	arch := add(c, "z", task.PriorityCritical, task.StatusPending, now.AddDate(-1, 0, 0))
	arch.Archived = true

	due := now.Add(-time.Hour)
	c.Tasks["i"].DueDate = &due

	r := Compute(c, TimeframeAll, now)

	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 1, r.Pending)
	assert.Equal(t, 1, r.InProgress)
	assert.Equal(t, 1, r.Blocked)
	assert.Equal(t, 1, r.Cancelled)
	assert.Equal(t, 1, r.Archived)
	assert.Equal(t, 2, r.CriticalRemaining)
	assert.Equal(t, 1, r.Overdue)
	// ages 4, 2, 0, 0 days
	assert.InDelta(t, 1.5, r.AverageAgeDays, 1e-9)
}

func TestCompute_Velocity(t *testing.T) {
	c := task.NewCollection()
	completedAt := func(id string, ago time.Duration) {
		tk := add(c, id, task.PriorityMedium, task.StatusCompleted, now.AddDate(0, -2, 0))
		at := now.Add(-ago)
		tk.CompletedAt = &at
	}
	completedAt("today", 2*time.Hour)
	completedAt("three-days", 72*time.Hour)
	completedAt("two-weeks", 14*24*time.Hour)
	completedAt("two-months", 60*24*time.Hour)

	tests := []struct {
		tf     Timeframe
		window int
	}{
		{TimeframeDay, 1},
		{TimeframeWeek, 2},
		{TimeframeMonth, 3},
		{TimeframeAll, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.tf), func(t *testing.T) {
			r := Compute(c, tt.tf, now)
			assert.Equal(t, tt.window, r.CompletedInWindow)
			assert.Equal(t, 2, r.WeeklyVelocity)
		})
	}
}

func TestCompute_Empty(t *testing.T) {
	r := Compute(task.NewCollection(), TimeframeWeek, now)
	assert.Zero(t, r.Total)
	assert.Zero(t, r.CompletionRate)
	assert.Zero(t, r.PriorityWeightedScore)
	assert.Zero(t, r.AverageAgeDays)
}

func TestCompute_DoesNotMutate(t *testing.T) {
	c := task.NewCollection()
	add(c, "a", task.PriorityHigh, task.StatusPending, now)
	before := c.Clone()

	_ = Compute(c, TimeframeWeek, now)
	assert.Equal(t, before, c)
}

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("")
	require.NoError(t, err)
	assert.Equal(t, TimeframeWeek, tf)

	tf, err = ParseTimeframe("Month")
	require.NoError(t, err)
	assert.Equal(t, TimeframeMonth, tf)

	_, err = ParseTimeframe("year")
	require.ErrorIs(t, err, task.ErrValidation)
}
