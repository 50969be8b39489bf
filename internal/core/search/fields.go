package search

import (
	"fmt"
	"strings"

	"github.com/colonyops/taskhive/internal/core/task"
)

// Field names a task attribute the multi-field strategy can score.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldTags        Field = "tags"
	FieldCategory    Field = "category"
	FieldAssignee    Field = "assignee"
	FieldNotes       Field = "notes"
)

// DefaultFields are scored when a multi-field search names none.
var DefaultFields = []Field{FieldTitle, FieldDescription, FieldTags, FieldCategory, FieldAssignee}

var allFields = []Field{FieldTitle, FieldDescription, FieldTags, FieldCategory, FieldAssignee, FieldNotes}

// Weights maps fields to their share of a combined relevance score.
type Weights map[Field]float64

// DefaultWeights returns the weights used when none are configured.
func DefaultWeights() Weights {
	return Weights{
		FieldTitle:       0.5,
		FieldDescription: 0.2,
		FieldTags:        0.15,
		FieldCategory:    0.1,
		FieldAssignee:    0.05,
	}
}

func (w Weights) get(f Field) float64 {
	return w[f]
}

// ParseFields validates field names.
func ParseFields(names []string) ([]Field, error) {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		f := Field(strings.ToLower(strings.TrimSpace(n)))
		if !f.IsValid() {
			return nil, &task.ValidationError{Field: "fields", Message: fmt.Sprintf("unknown field %q", n), Allowed: fieldNames()}
		}
		out = append(out, f)
	}
	return out, nil
}

// IsValid reports whether f is a searchable field.
func (f Field) IsValid() bool {
	for _, known := range allFields {
		if f == known {
			return true
		}
	}
	return false
}

func (f Field) values(t *task.Task) []string {
	switch f {
	case FieldTitle:
		return []string{t.Title}
	case FieldDescription:
		return []string{t.Description}
	case FieldTags:
		return t.Tags
	case FieldCategory:
		return []string{t.Category}
	case FieldAssignee:
		return []string{t.Assignee}
	case FieldNotes:
		return []string{t.Notes}
	}
	return nil
}

func fieldNames() []string {
	out := make([]string, len(allFields))
	for i, f := range allFields {
		out[i] = string(f)
	}
	return out
}
