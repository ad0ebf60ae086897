package worker_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"

	"github.com/dbclientapi/processor/config"
	"github.com/dbclientapi/processor/internal"
	"github.com/dbclientapi/processor/model"
	"github.com/dbclientapi/processor/query"
	"github.com/dbclientapi/processor/recorder"
	"github.com/dbclientapi/processor/store"
	"github.com/dbclientapi/processor/transfer"
	"github.com/dbclientapi/processor/worker"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	require.NoError(t, store.InitSchema(context.Background(), db))
	return db
}

// TestRunFailsOnUnreachableDB exercises the real DB-connect failure path:
// there is no oracle server behind the test TNS, so Run must transition
// the query through Running and into Failed without ever panicking or
// blocking.
func TestRunFailsOnUnreachableDB(t *testing.T) {
	db := newTestDB(t)
	st := store.NewBunStore(db)

	res, err := db.NewInsert().
		Table("users").
		Value("email", "?", "a@example.com").
		Value("hashed_password", "?", "x").
		Value("is_active", "?", true).
		Exec(context.Background())
	require.NoError(t, err)
	userID, err := res.LastInsertId()
	require.NoError(t, err)

	res, err = db.NewInsert().
		Table("queries").
		Value("user_id", "?", userID).
		Value("query_text", "?", "select 1").
		Value("db_username", "?", "u").
		Value("db_password", "?", "p").
		Value("db_tns", "?", "127.0.0.1:1/nope").
		Value("status", "?", query.Pending.String()).
		Exec(context.Background())
	require.NoError(t, err)
	queryID, err := res.LastInsertId()
	require.NoError(t, err)

	rec := recorder.New(st, internal.BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}, zerolog.Nop())
	cfg := &config.Config{
		DefaultExportType:     "csv",
		DefaultExportLocation: t.TempDir(),
		TmpExportLocation:     t.TempDir(),
	}
	w := worker.New(rec, transfer.NewLocalCopy(zerolog.Nop()), transfer.NewLocalCopy(zerolog.Nop()), cfg, zerolog.Nop())

	q, err := st.GetQuery(context.Background(), queryID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.Run(ctx, store.PendingQuery{Query: q, Settings: &model.Settings{}})

	updated, err := st.GetQuery(context.Background(), queryID)
	require.NoError(t, err)
	require.Equal(t, query.Failed, updated.Status)
	require.NotNil(t, updated.ErrorMessage)
	require.NotNil(t, updated.CompletedAt)
}
