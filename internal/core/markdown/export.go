// Package markdown renders the task collection as a human-readable markdown
// document and parses such documents back into tasks.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/taskhive/internal/core/task"
	"github.com/colonyops/taskhive/pkg/tmpl"
)

// UnsectionedHeading titles the group of live tasks that belong to no section.
// Importing it assigns no section.
const UnsectionedHeading = "Unsorted"

// DefaultTitle is used when a document has no title.
const DefaultTitle = "Tasks"

var statusMarks = map[task.Status]string{
	task.StatusPending:    " ",
	task.StatusInProgress: "~",
	task.StatusCompleted:  "x",
	task.StatusBlocked:    "!",
	task.StatusCancelled:  "-",
}

const documentTemplate = `---
{{ frontmatter . }}---

# {{ .Title }}
{{ range .Groups }}
## {{ .Name }}

{{ range .Tasks }}{{ line . }}
{{ with .Description }}{{ indent 2 (trim .) }}
{{ end }}{{ end }}{{ end }}`

// Frontmatter is the YAML header of an exported document.
type Frontmatter struct {
	Title     string    `yaml:"title"`
	Generated time.Time `yaml:"generated,omitempty"`
	Summary   Summary   `yaml:"summary"`
}

// Summary mirrors the collection's aggregate counts.
type Summary struct {
	Total      int `yaml:"total"`
	Pending    int `yaml:"pending"`
	InProgress int `yaml:"in_progress"`
	Completed  int `yaml:"completed"`
	Blocked    int `yaml:"blocked"`
	Cancelled  int `yaml:"cancelled"`
	Archived   int `yaml:"archived"`
}

func summarize(m task.Metadata) Summary {
	return Summary{
		Total:      m.Total,
		Pending:    m.Pending,
		InProgress: m.InProgress,
		Completed:  m.Completed,
		Blocked:    m.Blocked,
		Cancelled:  m.Cancelled,
		Archived:   m.Archived,
	}
}

type group struct {
	Name  string
	Tasks []*task.Task
}

type document struct {
	Frontmatter
	Groups []group
}

// Render produces the markdown view of c: tasks grouped by section in
// section order, followed by unsectioned live tasks. Archived tasks are omitted.
func Render(c *task.Collection, title string, now time.Time) (string, error) {
	if title == "" {
		title = DefaultTitle
	}

	doc := document{
		Frontmatter: Frontmatter{
			Title:     title,
			Generated: now.UTC(),
			Summary:   summarize(c.ComputeMetadata()),
		},
	}

	placed := make(map[string]bool)
	for _, s := range c.Sections {
		g := group{Name: s.Name}
		for _, id := range s.TaskIDs {
			t, ok := c.Tasks[id]
			if !ok || t.Archived {
				continue
			}
			placed[id] = true
			g.Tasks = append(g.Tasks, t)
		}
		doc.Groups = append(doc.Groups, g)
	}

	var rest []*task.Task
	for _, t := range c.List(false) {
		if !placed[t.ID] {
			rest = append(rest, t)
		}
	}
	if len(rest) > 0 {
		doc.Groups = append(doc.Groups, group{Name: UnsectionedHeading, Tasks: rest})
	}

	return tmpl.RenderFuncs(documentTemplate, doc, template.FuncMap{
		"line":        formatLine,
		"frontmatter": marshalFrontmatter,
	})
}

func marshalFrontmatter(doc document) (string, error) {
	data, err := yaml.Marshal(doc.Frontmatter)
	if err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	return string(data), nil
}

// formatLine renders one task as a checklist item:
//
//	- [x] [high] Implement OAuth login {auth, backend} (id: k3j9x0aa)
func formatLine(t *task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [%s] [%s] %s", statusMarks[t.Status], t.Priority, t.Title)
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, " {%s}", strings.Join(t.Tags, ", "))
	}
	fmt.Fprintf(&b, " (id: %s)", t.ID)
	return b.String()
}

// FileExporter writes the rendered document next to the backing file.
type FileExporter struct {
	Path  string
	Title string
	Now   func() time.Time
}

// ExportPath returns the markdown path derived from a backing file path.
func ExportPath(storePath string) string {
	return strings.TrimSuffix(storePath, filepath.Ext(storePath)) + ".md"
}

// Export renders c and replaces the file atomically.
func (e FileExporter) Export(c *task.Collection) error {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	out, err := Render(c, e.Title, now())
	if err != nil {
		return err
	}

	tmp := e.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, e.Path); err != nil {
		return fmt.Errorf("replace export: %w", err)
	}
	return nil
}
