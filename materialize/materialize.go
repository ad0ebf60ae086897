package materialize

import (
	"errors"
	"fmt"
	"os"

	"github.com/dbclientapi/processor/dbconn"
)

// ErrUnsupportedFormat indicates an export_type outside config.ValidExportTypes
// reached Write; the worker is expected to validate export_type before
// calling this package.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Result summarizes a completed materialization: row and column counts,
// the column names in result order, and the size of the file written.
// These feed directly into a query's recorded result metadata.
type Result struct {
	Rows        int64
	Columns     int64
	ColumnNames []string
	FileSize    int64
}

// ExtensionFor returns the file extension (including the leading dot) for
// an export_type.
func ExtensionFor(exportType string) (string, error) {
	switch exportType {
	case "csv":
		return ".csv", nil
	case "excel":
		return ".xlsx", nil
	case "json":
		return ".json", nil
	case "feather":
		return ".feather", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, exportType)
	}
}

// Write materialises res into destPath using the format named by
// exportType, then reports the file's size and shape.
func Write(exportType string, destPath string, res *dbconn.Result) (*Result, error) {
	var err error
	switch exportType {
	case "csv":
		err = writeCSV(destPath, res)
	case "excel":
		err = writeExcel(destPath, res)
	case "json":
		err = writeJSON(destPath, res)
	case "feather":
		err = writeFeather(destPath, res)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, exportType)
	}
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(destPath)
	if err != nil {
		return nil, fmt.Errorf("stat materialized file: %w", err)
	}
	return &Result{
		Rows:        int64(len(res.Rows)),
		Columns:     int64(len(res.ColumnNames)),
		ColumnNames: res.ColumnNames,
		FileSize:    info.Size(),
	}, nil
}

// stringify normalizes a driver-native column value before every writer
// emits it: nil becomes an empty string, []byte becomes a string, and any
// other value is returned unchanged.
func stringify(v any) any {
	if v == nil {
		return ""
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
