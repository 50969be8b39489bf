package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskhive/internal/core/task"
)

var generated = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func sampleCollection() *task.Collection {
	c := task.NewCollection()
	add := func(id, title string, s task.Status, p task.Priority, offset int, tags ...string) *task.Task {
		t := &task.Task{
			ID:        id,
			Title:     title,
			Status:    s,
			Priority:  p,
			Tags:      tags,
			CreatedAt: generated.Add(time.Duration(offset) * time.Minute),
		}
		c.Tasks[id] = t
		return t
	}

	add("aaaa1111", "Implement OAuth login", task.StatusInProgress, task.PriorityHigh, 1, "auth", "backend")
	add("bbbb2222", "Write OAuth tests", task.StatusPending, task.PriorityMedium, 2)
	add("cccc3333", "Ship release", task.StatusCompleted, task.PriorityCritical, 3).Description = "Tag and publish.\n\nAnnounce in chat."
	add("dddd4444", "Old spike", task.StatusCancelled, task.PriorityLow, 4).Archived = true
	add("eeee5555", "Investigate flake", task.StatusBlocked, task.PriorityLow, 5)

	c.AssignSection("aaaa1111", "Auth")
	c.AssignSection("bbbb2222", "Auth")
	c.AssignSection("cccc3333", "Release")
	return c
}

func TestRender(t *testing.T) {
	out, err := Render(sampleCollection(), "Sprint 12", generated)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "---\ntitle: Sprint 12\n"))
	assert.Contains(t, out, "\n# Sprint 12\n")
	assert.Contains(t, out, "## Auth\n\n- [~] [high] Implement OAuth login {auth, backend} (id: aaaa1111)\n- [ ] [medium] Write OAuth tests (id: bbbb2222)\n")
	assert.Contains(t, out, "- [x] [critical] Ship release (id: cccc3333)\n  Tag and publish.\n\n  Announce in chat.\n")
	assert.Contains(t, out, "## "+UnsectionedHeading+"\n\n- [!] [low] Investigate flake (id: eeee5555)\n")
	assert.NotContains(t, out, "Old spike", "archived tasks are omitted")

	assert.Less(t, strings.Index(out, "## Auth"), strings.Index(out, "## Release"))
	assert.Less(t, strings.Index(out, "## Release"), strings.Index(out, "## "+UnsectionedHeading))
}

func TestRender_DefaultTitle(t *testing.T) {
	out, err := Render(task.NewCollection(), "", generated)
	require.NoError(t, err)
	assert.Contains(t, out, "# "+DefaultTitle+"\n")
	assert.NotContains(t, out, UnsectionedHeading)
}

func TestParse_RoundTrip(t *testing.T) {
	c := sampleCollection()
	out, err := Render(c, "Sprint 12", generated)
	require.NoError(t, err)

	doc, err := Parse(out)
	require.NoError(t, err)

	assert.Equal(t, "Sprint 12", doc.Frontmatter.Title)
	assert.Equal(t, 4, doc.Frontmatter.Summary.Total)
	assert.Equal(t, 1, doc.Frontmatter.Summary.Archived)
	assert.Equal(t, []string{"Auth", "Release"}, doc.Sections)
	require.Len(t, doc.Items, 4)

	for _, item := range doc.Items {
		orig := c.Tasks[item.ID]
		require.NotNil(t, orig, item.ID)
		assert.Equal(t, orig.Title, item.Title)
		assert.Equal(t, orig.Status, item.Status)
		assert.Equal(t, orig.Priority, item.Priority)
		assert.Equal(t, orig.Tags, item.Tags)
		assert.Equal(t, orig.Description, item.Description)

		section, _ := c.SectionOf(item.ID)
		assert.Equal(t, section, item.Section)
	}
}

func TestParse_HandWritten(t *testing.T) {
	content := `# Groceries

- [ ] Buy milk
* [X] [high] Pay rent {home}

## Errands

- [!] Pick up parcel
  Needs ID.
Some trailing prose.
`
	doc, err := Parse(content)
	require.NoError(t, err)

	assert.Equal(t, "Groceries", doc.Frontmatter.Title)
	require.Len(t, doc.Items, 3)

	assert.Equal(t, Item{Title: "Buy milk", Status: task.StatusPending, Priority: task.PriorityMedium, Line: 3}, doc.Items[0])
	assert.Equal(t, task.StatusCompleted, doc.Items[1].Status)
	assert.Equal(t, task.PriorityHigh, doc.Items[1].Priority)
	assert.Equal(t, []string{"home"}, doc.Items[1].Tags)
	assert.Equal(t, "Errands", doc.Items[2].Section)
	assert.Equal(t, "Needs ID.", doc.Items[2].Description)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown status mark", content: "- [?] Something\n"},
		{name: "empty title", content: "- [ ]   {tag}\n"},
		{name: "missing space after mark", content: "- [ ]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content)
			require.ErrorIs(t, err, task.ErrValidation)
		})
	}
}

func TestSplitFrontmatter(t *testing.T) {
	body, fm := splitFrontmatter("---\ntitle: Plan\n---\nbody\n")
	assert.Equal(t, "Plan", fm.Title)
	assert.Equal(t, 3, fm.lines)
	assert.Equal(t, "body\n", body)

	body, fm = splitFrontmatter("---\ntitle: Unclosed\n")
	assert.Empty(t, fm.Title)
	assert.Equal(t, "---\ntitle: Unclosed\n", body)

	_, fm = splitFrontmatter("---\n: [bad yaml\n---\n")
	assert.Empty(t, fm.Title)
}

func TestStripFrontmatter(t *testing.T) {
	assert.Equal(t, "# Plan\n", StripFrontmatter("---\ntitle: Plan\n---\n# Plan\n"))
	assert.Equal(t, "# No front matter\n", StripFrontmatter("# No front matter\n"))
}

func TestFileExporter(t *testing.T) {
	dir := t.TempDir()
	path := ExportPath(filepath.Join(dir, "tasks.json"))
	assert.Equal(t, filepath.Join(dir, "tasks.md"), path)

	exp := FileExporter{Path: path, Title: "Board", Now: func() time.Time { return generated }}
	require.NoError(t, exp.Export(sampleCollection()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Board")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
