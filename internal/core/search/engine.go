// Package search ranks tasks against a query using several strategies and
// combines them into a single relevance score in [0,1].
package search

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/colonyops/taskhive/internal/core/task"
)

// Strategy names a search strategy.
type Strategy string

const (
	StrategyID            Strategy = "id"
	StrategyTitle         Strategy = "title"
	StrategyDescription   Strategy = "description"
	StrategyFuzzy         Strategy = "fuzzy"
	StrategyRegex         Strategy = "regex"
	StrategyMultiField    Strategy = "multi"
	StrategyComprehensive Strategy = "comprehensive"
)

// Strategies lists every strategy; comprehensive is the default.
var Strategies = []Strategy{
	StrategyComprehensive, StrategyID, StrategyTitle, StrategyDescription,
	StrategyFuzzy, StrategyRegex, StrategyMultiField,
}

// ParseStrategy validates a strategy name. Empty selects comprehensive.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyComprehensive, nil
	}
	for _, st := range Strategies {
		if string(st) == strings.ToLower(s) {
			return st, nil
		}
	}
	allowed := make([]string, len(Strategies))
	for i, st := range Strategies {
		allowed[i] = string(st)
	}
	return "", &task.ValidationError{Field: "strategy", Message: fmt.Sprintf("unknown strategy %q", s), Allowed: allowed}
}

// Per-tier field scores: exact > prefix > substring > fuzzy.
const (
	scoreExact     = 1.0
	scorePrefix    = 0.8
	scoreSubstring = 0.6
	scoreFuzzyMax  = 0.4

	// fuzzyFloor is the minimum similarity that earns a fuzzy field score.
	fuzzyFloor = 0.5

	scoreRegexTitle       = 0.6
	scoreRegexDescription = 0.4
)

// Match is a task with its relevance for a query.
type Match struct {
	Task     *task.Task `json:"task"`
	Score    float64    `json:"score"`
	Strategy Strategy   `json:"strategy"`
}

// Results is the outcome of Search.
type Results struct {
	Query       string       `json:"query"`
	Strategy    Strategy     `json:"strategy"`
	Matches     []Match      `json:"matches"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// Options tunes a Search call. Zero values fall back to engine defaults.
type Options struct {
	Strategy  Strategy
	Threshold *float64
	Fields    []Field
	Weights   Weights
	Limit     int
}

// Config holds engine defaults. A nil FuzzyThreshold selects
// DefaultFuzzyThreshold; zero is the strictest valid threshold.
type Config struct {
	FuzzyThreshold  *float64
	SuggestionLimit int
	Weights         Weights
}

// Engine runs ranked searches over a task list. It holds no task state.
type Engine struct {
	threshold   float64
	suggestions int
	weights     Weights
}

// New creates an Engine. Unset config values use package defaults.
func New(cfg Config) *Engine {
	e := &Engine{
		threshold:   DefaultFuzzyThreshold,
		suggestions: cfg.SuggestionLimit,
		weights:     cfg.Weights,
	}
	if th := cfg.FuzzyThreshold; th != nil && *th >= 0 && *th <= 1 {
		e.threshold = *th
	}
	if e.suggestions <= 0 {
		e.suggestions = DefaultSuggestionLimit
	}
	if len(e.weights) == 0 {
		e.weights = DefaultWeights()
	}
	return e
}

// Defaults used when Config leaves a value unset.
const (
	DefaultFuzzyThreshold  = 0.4
	DefaultSuggestionLimit = 3
)

// Threshold returns the engine's default fuzzy threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// Search runs the named strategy. Zero-result searches carry title suggestions.
func (e *Engine) Search(query string, tasks []*task.Task, opts Options) (Results, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyComprehensive
	}
	threshold := e.threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return Results{}, &task.ValidationError{Field: "threshold", Message: fmt.Sprintf("must be within [0,1], got %v", threshold)}
	}

	var (
		matches []Match
		err     error
	)
	switch strategy {
	case StrategyID:
		matches = e.ByID(query, tasks)
	case StrategyTitle:
		matches = e.ByTitle(query, tasks)
	case StrategyDescription:
		matches = e.ByDescription(query, tasks)
	case StrategyFuzzy:
		matches, err = e.Fuzzy(query, tasks, threshold)
	case StrategyRegex:
		matches, err = e.Regex(query, tasks)
	case StrategyMultiField:
		matches = e.MultiField(query, tasks, opts.Fields, opts.Weights)
	case StrategyComprehensive:
		matches = e.Comprehensive(query, tasks, opts)
	default:
		_, err = ParseStrategy(string(strategy))
	}
	if err != nil {
		return Results{}, err
	}

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	res := Results{Query: query, Strategy: strategy, Matches: matches}
	if len(matches) == 0 {
		res.Matches = []Match{}
		res.Suggestions = Suggest(query, tasks, e.suggestions)
	}
	return res, nil
}

// ByID matches exact ids (1.0) and id prefixes (scaled by how much of the id
// the query covers).
func (e *Engine) ByID(query string, tasks []*task.Task) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	return collect(tasks, StrategyID, func(t *task.Task) (float64, bool) {
		if q == "" {
			return 0, false
		}
		id := strings.ToLower(t.ID)
		switch {
		case id == q:
			return scoreExact, true
		case strings.HasPrefix(id, q):
			return 0.5 + 0.5*float64(len(q))/float64(len(id)), true
		}
		return 0, false
	})
}

// ByTitle matches case-insensitive substrings of the title.
func (e *Engine) ByTitle(query string, tasks []*task.Task) []Match {
	q := normalize(query)
	return collect(tasks, StrategyTitle, func(t *task.Task) (float64, bool) {
		s := substringScore(q, normalize(t.Title))
		return s, s > 0
	})
}

// ByDescription matches case-insensitive substrings of the description.
func (e *Engine) ByDescription(query string, tasks []*task.Task) []Match {
	q := normalize(query)
	return collect(tasks, StrategyDescription, func(t *task.Task) (float64, bool) {
		s := substringScore(q, normalize(t.Description))
		return s, s > 0
	})
}

// Fuzzy matches titles whose similarity to query is at least 1-threshold.
// A threshold of 0 admits only exact (case-insensitive) titles; 1 admits every task.
func (e *Engine) Fuzzy(query string, tasks []*task.Task, threshold float64) ([]Match, error) {
	if threshold < 0 || threshold > 1 {
		return nil, &task.ValidationError{Field: "threshold", Message: fmt.Sprintf("must be within [0,1], got %v", threshold)}
	}
	minSim := 1 - threshold
	return collect(tasks, StrategyFuzzy, func(t *task.Task) (float64, bool) {
		sim := Similarity(query, t.Title)
		return sim, sim >= minSim
	}), nil
}

// Regex matches a case-insensitive pattern against title and description.
// Patterns that fail to compile return an InvalidPatternError.
func (e *Engine) Regex(pattern string, tasks []*task.Task) ([]Match, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return regexMatches(re, tasks), nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, &task.InvalidPatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}

func regexMatches(re *regexp.Regexp, tasks []*task.Task) []Match {
	return collect(tasks, StrategyRegex, func(t *task.Task) (float64, bool) {
		switch {
		case re.MatchString(t.Title):
			return scoreRegexTitle, true
		case t.Description != "" && re.MatchString(t.Description):
			return scoreRegexDescription, true
		}
		return 0, false
	})
}

// MultiField scores each requested field (exact > prefix > substring > fuzzy)
// and combines them by weight into one relevance. Nil fields or weights use
// the engine defaults.
func (e *Engine) MultiField(query string, tasks []*task.Task, fields []Field, weights Weights) []Match {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	if len(weights) == 0 {
		weights = e.weights
	}

	var total float64
	for _, f := range fields {
		total += weights.get(f)
	}

	q := normalize(query)
	return collect(tasks, StrategyMultiField, func(t *task.Task) (float64, bool) {
		if q == "" || total <= 0 {
			return 0, false
		}
		var sum float64
		for _, f := range fields {
			w := weights.get(f)
			if w <= 0 {
				continue
			}
			sum += w * bestFieldScore(q, f.values(t))
		}
		score := sum / total
		return score, score > 0
	})
}

// Comprehensive unions every strategy; each task scores the maximum any
// single strategy assigns it. opts supplies the fuzzy threshold and the
// multi-field fields and weights; unset values use engine defaults. The
// regex strategy is skipped for queries that are not valid patterns.
func (e *Engine) Comprehensive(query string, tasks []*task.Task, opts Options) []Match {
	threshold := e.threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	best := make(map[string]Match)
	merge := func(ms []Match) {
		for _, m := range ms {
			if cur, ok := best[m.Task.ID]; !ok || m.Score > cur.Score {
				best[m.Task.ID] = m
			}
		}
	}

	merge(e.ByID(query, tasks))
	merge(e.ByTitle(query, tasks))
	merge(e.ByDescription(query, tasks))
	if fuzzy, err := e.Fuzzy(query, tasks, threshold); err == nil {
		merge(fuzzy)
	}
	if re, err := compilePattern(query); err == nil && strings.TrimSpace(query) != "" {
		merge(regexMatches(re, tasks))
	}
	merge(e.MultiField(query, tasks, opts.Fields, opts.Weights))

	out := make([]Match, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	rank(out)
	return out
}

// collect scores every task and returns the ranked matches.
func collect(tasks []*task.Task, strategy Strategy, score func(*task.Task) (float64, bool)) []Match {
	out := make([]Match, 0)
	for _, t := range tasks {
		if s, ok := score(t); ok {
			out = append(out, Match{Task: t, Score: s, Strategy: strategy})
		}
	}
	rank(out)
	return out
}

// rank sorts by relevance, then most recently updated, then id.
func rank(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Task.UpdatedAt.Equal(b.Task.UpdatedAt) {
			return a.Task.UpdatedAt.After(b.Task.UpdatedAt)
		}
		return a.Task.ID < b.Task.ID
	})
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func substringScore(q, v string) float64 {
	if q == "" || v == "" {
		return 0
	}
	switch {
	case v == q:
		return scoreExact
	case strings.HasPrefix(v, q):
		return scorePrefix
	case strings.Contains(v, q):
		return scoreSubstring
	}
	return 0
}

// fieldScore grades one field value; q and v must already be normalized.
func fieldScore(q, v string) float64 {
	if s := substringScore(q, v); s > 0 {
		return s
	}
	if q == "" || v == "" {
		return 0
	}
	if sim := Similarity(q, v); sim >= fuzzyFloor {
		return scoreFuzzyMax * sim
	}
	return 0
}

func bestFieldScore(q string, values []string) float64 {
	var best float64
	for _, v := range values {
		if s := fieldScore(q, normalize(v)); s > best {
			best = s
		}
	}
	return best
}
