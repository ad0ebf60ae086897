package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"

	"github.com/dbclientapi/processor/query"
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

func seedUser(t *testing.T, db *bun.DB, active bool) int64 {
	t.Helper()
	res, err := db.NewInsert().
		Table("users").
		Value("email", "?", "a@example.com").
		Value("hashed_password", "?", "x").
		Value("is_active", "?", active).
		Exec(context.Background())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedQuery(t *testing.T, db *bun.DB, userID int64, status query.Status) int64 {
	t.Helper()
	res, err := db.NewInsert().
		Table("queries").
		Value("user_id", "?", userID).
		Value("query_text", "?", "select 1").
		Value("db_username", "?", "u").
		Value("db_password", "?", "p").
		Value("db_tns", "?", "tns").
		Value("status", "?", status.String()).
		Exec(context.Background())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestListPendingExcludesInactiveUsers(t *testing.T) {
	db := newTestDB(t)
	s := store.NewBunStore(db)

	active := seedUser(t, db, true)
	inactive := seedUser(t, db, false)
	seedQuery(t, db, active, query.Pending)
	seedQuery(t, db, inactive, query.Pending)

	rows, err := s.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, active, rows[0].Query.UserID)
}

func TestUpdateStatusSetsStartedAtOnce(t *testing.T) {
	db := newTestDB(t)
	s := store.NewBunStore(db)
	userID := seedUser(t, db, true)
	id := seedQuery(t, db, userID, query.Pending)

	require.NoError(t, s.UpdateStatus(context.Background(), id, query.Running, store.StatusUpdate{}))
	q, err := s.GetQuery(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, q.StartedAt)
	firstStarted := *q.StartedAt

	require.NoError(t, s.UpdateStatus(context.Background(), id, query.Transferring, store.StatusUpdate{}))
	q, err = s.GetQuery(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, firstStarted, *q.StartedAt)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	db := newTestDB(t)
	s := store.NewBunStore(db)
	userID := seedUser(t, db, true)
	id := seedQuery(t, db, userID, query.Pending)

	err := s.UpdateStatus(context.Background(), id, query.Completed, store.StatusUpdate{})
	require.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestUpdateStatusMergesResultMetadata(t *testing.T) {
	db := newTestDB(t)
	s := store.NewBunStore(db)
	userID := seedUser(t, db, true)
	id := seedQuery(t, db, userID, query.Pending)
	require.NoError(t, s.UpdateStatus(context.Background(), id, query.Running, store.StatusUpdate{}))

	rows := int64(42)
	require.NoError(t, s.UpdateStatus(context.Background(), id, query.Transferring, store.StatusUpdate{
		ResultMetadata: &query.ResultMetadata{Rows: &rows},
	}))

	tmpPath := "/tmp/x.csv"
	require.NoError(t, s.UpdateStatus(context.Background(), id, query.Completed, store.StatusUpdate{
		ResultMetadata: &query.ResultMetadata{TmpFilePath: &tmpPath},
	}))

	q, err := s.GetQuery(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, q.Result.Rows)
	require.Equal(t, rows, *q.Result.Rows)
	require.NotNil(t, q.Result.TmpFilePath)
	require.Equal(t, tmpPath, *q.Result.TmpFilePath)
	require.NotNil(t, q.CompletedAt)
}

func TestListStuckFindsOldRunningQueries(t *testing.T) {
	db := newTestDB(t)
	s := store.NewBunStore(db)
	userID := seedUser(t, db, true)
	id := seedQuery(t, db, userID, query.Pending)
	require.NoError(t, s.UpdateStatus(context.Background(), id, query.Running, store.StatusUpdate{}))

	stuck, err := s.ListStuck(context.Background(), []query.Status{query.Running, query.Transferring}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	require.Equal(t, id, stuck[0].ID)
}

func TestRerunPreservesInputs(t *testing.T) {
	db := newTestDB(t)
	s := store.NewBunStore(db)
	userID := seedUser(t, db, true)
	id := seedQuery(t, db, userID, query.Pending)
	require.NoError(t, s.UpdateStatus(context.Background(), id, query.Running, store.StatusUpdate{}))
	require.NoError(t, s.UpdateStatus(context.Background(), id, query.Transferring, store.StatusUpdate{}))
	require.NoError(t, s.UpdateStatus(context.Background(), id, query.Completed, store.StatusUpdate{}))

	original, err := s.GetQuery(context.Background(), id)
	require.NoError(t, err)

	rerun, err := s.Rerun(context.Background(), id)
	require.NoError(t, err)
	require.NotEqual(t, original.ID, rerun.ID)
	require.Equal(t, original.QueryText, rerun.QueryText)
	require.Equal(t, query.Pending, rerun.Status)

	// Original row must be untouched.
	unchanged, err := s.GetQuery(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, query.Completed, unchanged.Status)
}
