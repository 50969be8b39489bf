package markdown

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/taskhive/internal/core/task"
)

// Item is one task parsed from a document. ID is empty for items written by
// hand without an id suffix.
type Item struct {
	ID          string
	Title       string
	Status      task.Status
	Priority    task.Priority
	Tags        []string
	Section     string
	Description string
	Line        int
}

// Document is a parsed markdown export.
type Document struct {
	Frontmatter Frontmatter
	Items       []Item
	// Sections lists headings in document order, excluding the unsectioned group.
	Sections []string
}

var itemPattern = regexp.MustCompile(
	`^[-*] \[( |x|X|~|!|-)\] (?:\[(low|medium|high|critical)\] )?(.*?)(?: \{([^}]*)\})?(?: \(id: ([a-z0-9]+)\))?\s*$`,
)

var markStatus = map[string]task.Status{
	" ": task.StatusPending,
	"~": task.StatusInProgress,
	"x": task.StatusCompleted,
	"X": task.StatusCompleted,
	"!": task.StatusBlocked,
	"-": task.StatusCancelled,
}

// Parse reads a document produced by Render, or written by hand in the same
// shape. Front matter is optional and best effort. Checklist items must
// appear under a "## " heading or before any heading. Items without a
// priority default to medium.
func Parse(content string) (Document, error) {
	var doc Document

	body, fm := splitFrontmatter(content)
	doc.Frontmatter = fm.Frontmatter

	var (
		section string
		current *Item
		blanks  int
		lineNo  = fm.lines
	)

	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			if current != nil {
				blanks++
			}
			continue

		case strings.HasPrefix(trimmed, "## "):
			current = nil
			section = strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
			if section == UnsectionedHeading {
				section = ""
			} else {
				doc.Sections = append(doc.Sections, section)
			}

		case strings.HasPrefix(trimmed, "# "):
			current = nil
			if doc.Frontmatter.Title == "" {
				doc.Frontmatter.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			}

		case !startsIndented(raw) && isListItem(trimmed):
			item, err := parseItem(trimmed, lineNo)
			if err != nil {
				return Document{}, err
			}
			item.Section = section
			doc.Items = append(doc.Items, item)
			current = &doc.Items[len(doc.Items)-1]

		case startsIndented(raw) && current != nil:
			if current.Description != "" {
				current.Description += strings.Repeat("\n", blanks+1)
			}
			current.Description += trimmed

		default:
			current = nil
		}
		blanks = 0
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}

	return doc, nil
}

func startsIndented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

func isListItem(line string) bool {
	return strings.HasPrefix(line, "- [") || strings.HasPrefix(line, "* [")
}

func parseItem(line string, lineNo int) (Item, error) {
	m := itemPattern.FindStringSubmatch(line)
	if m == nil {
		return Item{}, &task.ValidationError{
			Field:   "document",
			Message: fmt.Sprintf("line %d: unrecognized checklist item %q", lineNo, line),
		}
	}

	item := Item{
		Status:   markStatus[m[1]],
		Priority: task.Priority(m[2]),
		Title:    strings.TrimSpace(m[3]),
		ID:       m[5],
		Line:     lineNo,
	}
	if item.Priority == "" {
		item.Priority = task.PriorityMedium
	}
	if m[4] != "" {
		item.Tags = task.NormalizeSet(strings.Split(m[4], ","))
	}
	if item.Title == "" {
		return Item{}, &task.ValidationError{
			Field:   "document",
			Message: fmt.Sprintf("line %d: checklist item has no title", lineNo),
		}
	}
	return item, nil
}

type parsedFrontmatter struct {
	Frontmatter
	lines int
}

// splitFrontmatter separates YAML front matter delimited by "---" lines from
// the body. Malformed front matter yields zero values.
func splitFrontmatter(content string) (string, parsedFrontmatter) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return content, parsedFrontmatter{}
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return content, parsedFrontmatter{}
	}

	var fm parsedFrontmatter
	_ = yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &fm.Frontmatter)
	fm.lines = end + 1
	return strings.Join(lines[end+1:], "\n"), fm
}

// StripFrontmatter returns the document body without its front matter.
func StripFrontmatter(content string) string {
	body, _ := splitFrontmatter(content)
	return body
}
