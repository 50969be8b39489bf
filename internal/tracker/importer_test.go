package tracker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskhive/internal/core/markdown"
	"github.com/colonyops/taskhive/internal/core/task"
)

func TestImportMarkdown_RoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alpha := h.create(t, "Alpha", inSection("Backend"), func(d *task.Draft) {
		d.Tags = []string{"api"}
	})
	beta := h.create(t, "Beta")
	before := h.snapshot(t)

	doc, err := markdown.Render(before, "", time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	alphaLine := "- [ ] [medium] Alpha {api} (id: " + alpha.ID + ")"
	require.Contains(t, doc, alphaLine)

	edited := strings.Replace(doc, alphaLine,
		"- [x] [medium] Alpha {api} (id: "+alpha.ID+")\n- [ ] [low] Write changelog (id: newtask1)", 1)

	res, err := h.svc.ImportMarkdown(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, []string{alpha.ID}, res.Updated)
	assert.Equal(t, []string{beta.ID}, res.Unchanged)
	assert.Equal(t, []string{"newtask1"}, res.Created)
	assert.NotEmpty(t, res.OperationID)

	after := h.snapshot(t)
	assert.Equal(t, task.StatusCompleted, after.Tasks[alpha.ID].Status)
	require.Contains(t, after.Tasks, "newtask1")
	assert.Equal(t, task.PriorityLow, after.Tasks["newtask1"].Priority)
	section, ok := after.SectionOf("newtask1")
	require.True(t, ok)
	assert.Equal(t, "Backend", section)

	ops, err := h.svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, task.OpImport, ops[0].Type)

	_, err = h.svc.UndoLast(ctx)
	require.NoError(t, err)
	assertSameState(t, before, h.snapshot(t))
}

func TestImportMarkdown_UnchangedRecordsNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.create(t, "Alpha")
	before := h.snapshot(t)

	doc, err := markdown.Render(before, "", time.Now())
	require.NoError(t, err)

	res, err := h.svc.ImportMarkdown(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, res.Updated)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Unchanged, 1)

	assert.Len(t, h.snapshot(t).History, len(before.History))
}

func TestImportMarkdown_Rejects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.create(t, "Alpha")

	tests := []struct {
		name    string
		content string
	}{
		{name: "no items", content: "# Tasks\n\nnothing here\n"},
		{name: "empty title", content: "## Backend\n\n- [ ]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.ImportMarkdown(ctx, tt.content)
			require.ErrorIs(t, err, task.ErrValidation)
		})
	}

	assert.Len(t, h.snapshot(t).Tasks, 1)
}

func TestImportMarkdown_GeneratesIDs(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.ImportMarkdown(context.Background(), "- [~] [high] Handwritten task\n")
	require.NoError(t, err)
	require.Len(t, res.Created, 1)

	created := h.snapshot(t).Tasks[res.Created[0]]
	require.NotNil(t, created)
	assert.Equal(t, "Handwritten task", created.Title)
	assert.Equal(t, task.StatusInProgress, created.Status)
	assert.Equal(t, task.PriorityHigh, created.Priority)
}

func TestExportMarkdown(t *testing.T) {
	h := newHarness(t)
	a := h.create(t, "Alpha", inSection("Backend"))

	doc, err := h.svc.ExportMarkdown(context.Background(), "Sprint 12")
	require.NoError(t, err)

	body := markdown.StripFrontmatter(doc)
	assert.Contains(t, doc, "title: Sprint 12")
	assert.Contains(t, body, "# Sprint 12")
	assert.Contains(t, body, "## Backend")
	assert.Contains(t, body, "(id: "+a.ID+")")
	assert.NotContains(t, body, "summary:")
}
