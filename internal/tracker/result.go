package tracker

import (
	"errors"

	"github.com/colonyops/taskhive/internal/core/task"
)

// ErrorKind classifies an expected failure in a Result.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindAmbiguous          ErrorKind = "ambiguous"
	KindDependencyConflict ErrorKind = "dependency_conflict"
	KindInvalidPattern     ErrorKind = "invalid_pattern"
	KindNothingToUndo      ErrorKind = "nothing_to_undo"
)

// Result is the structured outcome handed to callers for both successes and
// expected failures.
type Result struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	AffectedIDs []string  `json:"affectedIds,omitempty"`
	Kind        ErrorKind `json:"kind,omitempty"`
	Error       string    `json:"error,omitempty"`
	// Suggestions are concrete next steps: candidate ids, close titles, or
	// flags to retry with.
	Suggestions []string `json:"suggestions,omitempty"`
	Data        any      `json:"data,omitempty"`
}

// OK builds a successful result.
func OK(message string, ids []string, data any) Result {
	return Result{Success: true, Message: message, AffectedIDs: ids, Data: data}
}

// Recover converts an expected error into a failed Result. Storage errors
// and unrecognized errors are not recoverable and are returned unchanged.
func Recover(err error) (Result, error) {
	if err == nil {
		return Result{Success: true}, nil
	}

	res := Result{Error: err.Error()}
	hint := task.HintFor(err)

	var (
		validation *task.ValidationError
		notFound   *task.NotFoundError
		ambiguous  *task.AmbiguousReferenceError
		conflict   *task.DependencyConflictError
		pattern    *task.InvalidPatternError
	)

	switch {
	case errors.Is(err, task.ErrStorage):
		return Result{}, err
	case errors.As(err, &validation):
		res.Kind = KindValidation
		res.Suggestions = []string{hint}
	case errors.As(err, &notFound):
		res.Kind = KindNotFound
		res.Suggestions = notFound.Suggestions
		if len(res.Suggestions) == 0 {
			res.Suggestions = []string{hint}
		}
	case errors.As(err, &ambiguous):
		res.Kind = KindAmbiguous
		res.Suggestions = ambiguous.Candidates
	case errors.As(err, &conflict):
		res.Kind = KindDependencyConflict
		res.AffectedIDs = conflict.Dependents
		res.Suggestions = []string{"--strategy reassign", "--strategy cascade", "--force"}
	case errors.As(err, &pattern):
		res.Kind = KindInvalidPattern
		res.Suggestions = []string{hint}
	case errors.Is(err, task.ErrNothingToUndo):
		res.Kind = KindNothingToUndo
		res.Suggestions = []string{hint}
	default:
		return Result{}, err
	}

	return res, nil
}
