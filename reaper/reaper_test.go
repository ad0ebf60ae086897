package reaper_test

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

	"github.com/dbclientapi/processor/query"
	"github.com/dbclientapi/processor/reaper"
	"github.com/dbclientapi/processor/store"
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

func TestSweepFailsStuckQueries(t *testing.T) {
	db := newTestDB(t)
	st := store.NewBunStore(db)
	ctx := context.Background()

	res, err := db.NewInsert().Table("users").
		Value("email", "?", "a@example.com").
		Value("hashed_password", "?", "x").
		Value("is_active", "?", true).
		Exec(ctx)
	require.NoError(t, err)
	userID, err := res.LastInsertId()
	require.NoError(t, err)

	res, err = db.NewInsert().Table("queries").
		Value("user_id", "?", userID).
		Value("query_text", "?", "select 1").
		Value("db_username", "?", "u").
		Value("db_password", "?", "p").
		Value("db_tns", "?", "tns").
		Value("status", "?", query.Running.String()).
		Value("updated_at", "?", time.Now().UTC().Add(-time.Hour)).
		Exec(ctx)
	require.NoError(t, err)
	queryID, err := res.LastInsertId()
	require.NoError(t, err)

	r := reaper.New(st, time.Hour, 30*time.Minute, zerolog.Nop())
	require.NoError(t, r.Start(ctx))
	defer r.Stop(time.Second)

	require.Eventually(t, func() bool {
		q, err := st.GetQuery(ctx, queryID)
		require.NoError(t, err)
		return q.Status == query.Failed
	}, time.Second, 5*time.Millisecond)
}
