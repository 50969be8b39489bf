// Package resolver maps user-supplied references (a full id, an id prefix, or
// a fragment of a title) to a canonical task id.
package resolver

import (
	"sort"
	"strings"

	"github.com/colonyops/taskhive/internal/core/search"
	"github.com/colonyops/taskhive/internal/core/task"
)

// Method reports which rule resolved a reference.
type Method string

const (
	MethodExact  Method = "exact"
	MethodPrefix Method = "prefix"
	MethodTitle  Method = "title"
)

// Resolution is a successful lookup.
type Resolution struct {
	ID     string `json:"id"`
	Method Method `json:"method"`
}

// Resolve looks up input against tasks, trying exact id, then id prefix,
// then case-insensitive title substring. Multiple hits at any stage fail with
// an AmbiguousReferenceError listing the candidates; no hits at all fail with
// a NotFoundError carrying up to suggestionLimit close titles.
//
// Resolve holds no state; every call sees the tasks passed to it.
func Resolve(tasks []*task.Task, input string, suggestionLimit int) (Resolution, error) {
	ref := strings.TrimSpace(input)
	if ref == "" {
		return Resolution{}, &task.ValidationError{Field: "id", Message: "reference is empty"}
	}

	for _, t := range tasks {
		if t.ID == ref {
			return Resolution{ID: t.ID, Method: MethodExact}, nil
		}
	}

	stages := []struct {
		method Method
		match  func(*task.Task) bool
	}{
		{MethodPrefix, prefixOf(ref)},
		{MethodTitle, titleContains(ref)},
	}

	for _, stage := range stages {
		var hits []string
		for _, t := range tasks {
			if stage.match(t) {
				hits = append(hits, t.ID)
			}
		}
		switch len(hits) {
		case 0:
			continue
		case 1:
			return Resolution{ID: hits[0], Method: stage.method}, nil
		default:
			sort.Strings(hits)
			return Resolution{}, &task.AmbiguousReferenceError{Input: input, Candidates: hits}
		}
	}

	return Resolution{}, &task.NotFoundError{Input: input, Suggestions: suggestions(ref, tasks, suggestionLimit)}
}

func prefixOf(ref string) func(*task.Task) bool {
	lower := strings.ToLower(ref)
	return func(t *task.Task) bool {
		return strings.HasPrefix(strings.ToLower(t.ID), lower)
	}
}

func titleContains(ref string) func(*task.Task) bool {
	lower := strings.ToLower(ref)
	return func(t *task.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), lower)
	}
}

func suggestions(ref string, tasks []*task.Task, n int) []string {
	hits := search.Suggest(ref, tasks, n)
	if len(hits) == 0 {
		return nil
	}
	out := make([]string, len(hits))
	for i, s := range hits {
		out[i] = s.String()
	}
	return out
}
