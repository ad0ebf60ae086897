package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrExecute wraps any failure to execute a query or read its result set.
var ErrExecute = errors.New("query execution error")

// Result holds the full, in-memory result of one executed query: its
// column names, in result order, and every fetched row as a slice of
// driver-native values. Buffering the whole result set before materializing
// it is a known limitation; a future version could stream rows straight
// into the export encoder instead.
type Result struct {
	ColumnNames []string
	Rows        [][]any
}

// FetchAll executes queryText against db and reads every row into memory.
func FetchAll(ctx context.Context, db *sql.DB, queryText string) (*Result, error) {
	rows, err := db.QueryContext(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecute, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecute, err)
	}

	result := &Result{ColumnNames: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExecute, err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecute, err)
	}
	return result, nil
}
