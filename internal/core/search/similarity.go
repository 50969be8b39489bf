package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/colonyops/taskhive/internal/core/task"
)

// Similarity returns the normalized edit-distance similarity of a and b,
// compared case-insensitively: 1 for identical strings, 0 for strings that
// share nothing.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// Suggestion is a task whose title is close to a query.
type Suggestion struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// String formats the suggestion for error hints.
func (s Suggestion) String() string {
	return s.ID + " (" + s.Title + ")"
}

// Suggest returns up to n tasks whose titles are most similar to query.
// Tasks with zero similarity are never suggested.
func Suggest(query string, tasks []*task.Task, n int) []Suggestion {
	if n <= 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	out := make([]Suggestion, 0, len(tasks))
	for _, t := range tasks {
		sim := Similarity(query, t.Title)
		if sim <= 0 {
			continue
		}
		out = append(out, Suggestion{ID: t.ID, Title: t.Title, Similarity: sim})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Title < out[j].Title
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}
