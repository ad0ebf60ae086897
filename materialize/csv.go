package materialize

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/dbclientapi/processor/dbconn"
)

func writeCSV(destPath string, res *dbconn.Result) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(res.ColumnNames); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(res.ColumnNames))
	for _, row := range res.Rows {
		for i, v := range row {
			record[i] = fmt.Sprint(stringify(v))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
