package materialize

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/ipc"
	"github.com/apache/arrow/go/v15/arrow/memory"

	"github.com/dbclientapi/processor/dbconn"
)

// writeFeather encodes the result as an Arrow IPC file, the on-disk form
// of the "feather" export format. Every column is written as Arrow's
// string type: the remote driver already hands back heterogeneous Go
// values, and a single text column type keeps the schema stable across
// queries whose result shape is not known ahead of time.
func writeFeather(destPath string, res *dbconn.Result) error {
	pool := memory.NewGoAllocator()

	fields := make([]arrow.Field, len(res.ColumnNames))
	for i, name := range res.ColumnNames {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String}
	}
	schema := arrow.NewSchema(fields, nil)

	builders := make([]*array.StringBuilder, len(fields))
	for i := range fields {
		builders[i] = array.NewStringBuilder(pool)
		defer builders[i].Release()
	}
	for _, row := range res.Rows {
		for i, v := range row {
			builders[i].Append(fmt.Sprint(stringify(v)))
		}
	}
	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
		defer cols[i].Release()
	}

	record := array.NewRecord(schema, cols, int64(len(res.Rows)))
	defer record.Release()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create feather file: %w", err)
	}
	defer f.Close()

	writer, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err != nil {
		return fmt.Errorf("open arrow ipc writer: %w", err)
	}
	defer writer.Close()

	if err := writer.Write(record); err != nil {
		return fmt.Errorf("write arrow record: %w", err)
	}
	return nil
}
