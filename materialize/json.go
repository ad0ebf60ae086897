package materialize

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dbclientapi/processor/dbconn"
)

func writeJSON(destPath string, res *dbconn.Result) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	objects := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		obj := make(map[string]any, len(res.ColumnNames))
		for c, name := range res.ColumnNames {
			obj[name] = stringify(row[c])
		}
		objects[i] = obj
	}

	enc := json.NewEncoder(f)
	if err := enc.Encode(objects); err != nil {
		return fmt.Errorf("write json rows: %w", err)
	}
	return nil
}
