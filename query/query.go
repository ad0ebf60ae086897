package query

import (
	"time"

	"github.com/dbclientapi/processor/model"
)

// ResultMetadata is the structured outcome recorded against a Query as it
// progresses through materialization and transfer. Fields are populated
// incrementally: updates merge into the existing object and no field
// reverts from set to unset outside a rerun.
type ResultMetadata struct {
	Rows           *int64   `json:"rows,omitempty"`
	Columns        *int64   `json:"columns,omitempty"`
	ColumnNames    []string `json:"column_names,omitempty"`
	FileSize       *int64   `json:"file_size,omitempty"`
	TmpFilePath    *string  `json:"tmp_file_path,omitempty"`
	FinalFilePath  *string  `json:"final_file_path,omitempty"`
}

// Merge overlays non-zero fields of delta onto m, returning the merged
// result. It never clears a field already set on m unless delta explicitly
// carries a new value for it.
func (m ResultMetadata) Merge(delta ResultMetadata) ResultMetadata {
	out := m
	if delta.Rows != nil {
		out.Rows = delta.Rows
	}
	if delta.Columns != nil {
		out.Columns = delta.Columns
	}
	if delta.ColumnNames != nil {
		out.ColumnNames = delta.ColumnNames
	}
	if delta.FileSize != nil {
		out.FileSize = delta.FileSize
	}
	if delta.TmpFilePath != nil {
		out.TmpFilePath = delta.TmpFilePath
	}
	if delta.FinalFilePath != nil {
		out.FinalFilePath = delta.FinalFilePath
	}
	return out
}

// Query is the central, lifecycle-tracked entity. It embeds model.Input,
// the immutable fields set at creation, and augments it with the state the
// processor owns.
type Query struct {
	model.Input

	ID int64

	Status       Status
	ErrorMessage *string
	Result       ResultMetadata

	CreatedAt   time.Time
	StartedAt   *time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Rerun produces the Input for a new Query row that preserves this
// query's inputs verbatim. The caller is responsible for persisting the
// new row; Rerun does not mutate the receiver.
func (q *Query) Rerun() model.Input {
	return q.Input.Clone()
}
