package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation matches any ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches any NotFoundError.
	ErrNotFound = errors.New("task not found")
	// ErrAmbiguous matches any AmbiguousReferenceError.
	ErrAmbiguous = errors.New("ambiguous task reference")
	// ErrDependencyConflict matches any DependencyConflictError.
	ErrDependencyConflict = errors.New("dependency conflict")
	// ErrInvalidPattern matches any InvalidPatternError.
	ErrInvalidPattern = errors.New("invalid search pattern")
	// ErrStorage matches any StorageError.
	ErrStorage = errors.New("storage failure")
	// ErrNothingToUndo is returned when the operation history is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// ValidationError reports a bad field value.
type ValidationError struct {
	Field   string
	Message string
	// Allowed lists valid values for enum fields.
	Allowed []string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Hint describes how to fix the value.
func (e *ValidationError) Hint() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("use one of: %s", strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("correct the %s field and retry", e.Field)
}

// NotFoundError reports that an identifier resolves to nothing.
type NotFoundError struct {
	Input       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no task matches %q", e.Input)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Hint names the closest titles, if any.
func (e *NotFoundError) Hint() string {
	if len(e.Suggestions) == 0 {
		return "list tasks to find the correct id"
	}
	return fmt.Sprintf("did you mean: %s", strings.Join(e.Suggestions, ", "))
}

// AmbiguousReferenceError reports that an identifier resolves to more than one task.
type AmbiguousReferenceError struct {
	Input      string
	Candidates []string
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("%q matches %d tasks", e.Input, len(e.Candidates))
}

func (e *AmbiguousReferenceError) Is(target error) bool { return target == ErrAmbiguous }

// Hint lists the competing full ids.
func (e *AmbiguousReferenceError) Hint() string {
	return fmt.Sprintf("use a full id: %s", strings.Join(e.Candidates, ", "))
}

// DependencyConflictError reports a delete blocked by live dependents.
type DependencyConflictError struct {
	TaskID     string
	Dependents []string
}

func (e *DependencyConflictError) Error() string {
	return fmt.Sprintf("task %s has %d dependent task(s): %s", e.TaskID, len(e.Dependents), strings.Join(e.Dependents, ", "))
}

func (e *DependencyConflictError) Is(target error) bool { return target == ErrDependencyConflict }

// Hint lists the ways to proceed.
func (e *DependencyConflictError) Hint() string {
	return "retry with strategy reassign or cascade, or with force"
}

// InvalidPatternError reports a regular expression that failed to compile.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Is(target error) bool { return target == ErrInvalidPattern }

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// Hint suggests a non-regex strategy.
func (e *InvalidPatternError) Hint() string {
	return "escape special characters or search with the substring strategy"
}

// StorageError reports an I/O or corruption failure in the backing store.
// It is not locally recoverable.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

// Hinter is implemented by errors that carry a concrete next step.
type Hinter interface {
	Hint() string
}

// HintFor returns the next step carried by err, or "" if it has none.
func HintFor(err error) string {
	var h Hinter
	if errors.As(err, &h) {
		return h.Hint()
	}
	if errors.Is(err, ErrNothingToUndo) {
		return "no operations are recorded; nothing was changed"
	}
	return ""
}
