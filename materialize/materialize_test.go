package materialize_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbclientapi/processor/dbconn"
	"github.com/dbclientapi/processor/materialize"
)

func sampleResult() *dbconn.Result {
	return &dbconn.Result{
		ColumnNames: []string{"id", "name"},
		Rows: [][]any{
			{int64(1), "alpha"},
			{int64(2), nil},
		},
	}
}

func TestExtensionForKnownFormats(t *testing.T) {
	for format, want := range map[string]string{
		"csv":     ".csv",
		"excel":   ".xlsx",
		"json":    ".json",
		"feather": ".feather",
	} {
		got, err := materialize.ExtensionFor(format)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestExtensionForUnknownFormat(t *testing.T) {
	_, err := materialize.ExtensionFor("parquet")
	require.ErrorIs(t, err, materialize.ErrUnsupportedFormat)
}

func TestWriteCSVRoundTrips(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.csv")
	res, err := materialize.Write("csv", dest, sampleResult())
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Rows)
	require.EqualValues(t, 2, res.Columns)
	require.Positive(t, res.FileSize)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, records[0])
	require.Equal(t, []string{"1", "alpha"}, records[1])
	require.Equal(t, []string{"2", ""}, records[2])
}

func TestWriteJSONProducesArray(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.json")
	_, err := materialize.Write("json", dest, sampleResult())
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Contains(t, string(data), `"name":"alpha"`)
}
