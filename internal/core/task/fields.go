package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
)

// MaxTitleLength bounds task titles.
const MaxTitleLength = 200

// Draft carries the caller-supplied fields for a new task.
type Draft struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Priority     Priority   `json:"priority,omitempty"`
	Assignee     string     `json:"assignee,omitempty"`
	Category     string     `json:"category,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
	LinkedADRs   []string   `json:"linkedAdrs,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Section      string     `json:"section,omitempty"`
}

// Validate checks field values that do not depend on other tasks.
func (d Draft) Validate() error {
	priority := d.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	return fromFieldErrors(criterio.ValidateStruct(
		criterio.Run("title", d.Title, validTitle),
		criterio.Run("priority", priority, validPriority),
	))
}

// Update is an explicit optional-field patch. Nil fields are left unchanged.
type Update struct {
	Title              *string    `json:"title,omitempty"`
	Description        *string    `json:"description,omitempty"`
	Status             *Status    `json:"status,omitempty"`
	Priority           *Priority  `json:"priority,omitempty"`
	Assignee           *string    `json:"assignee,omitempty"`
	Category           *string    `json:"category,omitempty"`
	Tags               *[]string  `json:"tags,omitempty"`
	Dependencies       *[]string  `json:"dependencies,omitempty"`
	LinkedADRs         *[]string  `json:"linkedAdrs,omitempty"`
	DueDate            *time.Time `json:"dueDate,omitempty"`
	ClearDueDate       bool       `json:"clearDueDate,omitempty"`
	ProgressPercentage *int       `json:"progressPercentage,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
}

// IsEmpty reports whether the update supplies no fields.
func (u Update) IsEmpty() bool {
	return u == Update{}
}

// Validate checks the supplied fields.
func (u Update) Validate() error {
	var errs []error
	if u.Title != nil {
		errs = append(errs, criterio.Run("title", *u.Title, validTitle))
	}
	if u.Status != nil {
		errs = append(errs, criterio.Run("status", *u.Status, validStatus))
	}
	if u.Priority != nil {
		errs = append(errs, criterio.Run("priority", *u.Priority, validPriority))
	}
	if u.ProgressPercentage != nil {
		errs = append(errs, criterio.Run("progressPercentage", *u.ProgressPercentage, validProgress))
	}
	if u.DueDate != nil && u.ClearDueDate {
		errs = append(errs, criterio.NewFieldErrors("dueDate", errors.New("cannot both set and clear the due date")))
	}
	return fromFieldErrors(criterio.ValidateStruct(errs...))
}

// DecodeUpdate parses a JSON update, rejecting unknown keys.
func DecodeUpdate(data []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, &ValidationError{Field: "update", Message: err.Error()}
	}
	return u, nil
}

// UnmarshalJSON rejects unknown keys so arbitrary field bags never reach the store.
func (u *Update) UnmarshalJSON(data []byte) error {
	type plain Update
	var p plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*u = Update(p)
	return nil
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if err := validStatus(st); err != nil {
		return "", &ValidationError{Field: "status", Message: err.Error(), Allowed: statusNames()}
	}
	return st, nil
}

// ParsePriority validates a priority string.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if err := validPriority(p); err != nil {
		return "", &ValidationError{Field: "priority", Message: err.Error(), Allowed: priorityNames()}
	}
	return p, nil
}

type enumError struct {
	value   string
	allowed []string
}

func (e *enumError) Error() string {
	return fmt.Sprintf("invalid value %q", e.value)
}

func validTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return errors.New("title is required")
	}
	if len(trimmed) > MaxTitleLength {
		return fmt.Errorf("title too long (max %d chars)", MaxTitleLength)
	}
	return nil
}

func validStatus(s Status) error {
	if !s.IsValid() {
		return &enumError{value: string(s), allowed: statusNames()}
	}
	return nil
}

func validPriority(p Priority) error {
	if !p.IsValid() {
		return &enumError{value: string(p), allowed: priorityNames()}
	}
	return nil
}

func validProgress(p int) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("must be between 0 and 100, got %d", p)
	}
	return nil
}

func statusNames() []string {
	out := make([]string, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}

func priorityNames() []string {
	out := make([]string, len(Priorities))
	for i, p := range Priorities {
		out[i] = string(p)
	}
	return out
}

// fromFieldErrors converts criterio field errors into a ValidationError that
// names the first offending field.
func fromFieldErrors(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	first := fieldErrs[0]
	verr := &ValidationError{Field: first.Field, Message: first.Err.Error()}
	var enum *enumError
	if errors.As(first.Err, &enum) {
		verr.Allowed = enum.allowed
	}
	if len(fieldErrs) > 1 {
		verr.Message = fmt.Sprintf("%s (and %d more)", verr.Message, len(fieldErrs)-1)
	}
	return verr
}
