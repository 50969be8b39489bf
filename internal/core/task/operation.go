package task

import (
	"slices"
	"time"
)

// OperationType classifies a recorded mutation.
type OperationType string

const (
	OpCreate     OperationType = "create"
	OpUpdate     OperationType = "update"
	OpBulkUpdate OperationType = "bulk_update"
	OpDelete     OperationType = "delete"
	OpBulkDelete OperationType = "bulk_delete"
	OpArchive    OperationType = "archive"
	OpUnarchive  OperationType = "unarchive"
	OpSection    OperationType = "move_section"
	OpImport     OperationType = "import"
)

// TaskImage is the state of one task immediately before an operation.
// A nil Task means the id did not exist, so reversal removes it.
type TaskImage struct {
	ID   string `json:"id"`
	Task *Task  `json:"task,omitempty"`
}

// UndoPayload holds enough prior state to reverse an operation exactly: a
// before-image of every touched task and the section layout.
type UndoPayload struct {
	Before   []TaskImage `json:"before"`
	Sections []Section   `json:"sections"`
}

// Operation is one reversible entry in the undo ledger.
type Operation struct {
	ID              string        `json:"id"`
	Type            OperationType `json:"type"`
	Timestamp       time.Time     `json:"timestamp"`
	Description     string        `json:"description"`
	AffectedTaskIDs []string      `json:"affectedTaskIds"`
	Undo            UndoPayload   `json:"undoPayload"`
}

// Clone returns a deep copy of the operation.
func (o Operation) Clone() Operation {
	out := o
	out.AffectedTaskIDs = slices.Clone(o.AffectedTaskIDs)
	out.Undo.Sections = CloneSections(o.Undo.Sections)
	out.Undo.Before = make([]TaskImage, len(o.Undo.Before))
	for i, img := range o.Undo.Before {
		out.Undo.Before[i] = TaskImage{ID: img.ID, Task: img.Task.Clone()}
	}
	return out
}
