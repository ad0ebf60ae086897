package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dbclientapi/processor/model"
	"github.com/dbclientapi/processor/query"
	"github.com/dbclientapi/processor/scheduler"
	"github.com/dbclientapi/processor/store"
)

type fakeStore struct {
	pending []store.PendingQuery
}

func (f *fakeStore) ListPending(ctx context.Context, limit int) ([]store.PendingQuery, error) {
	return f.pending, nil
}
func (f *fakeStore) CountRunningByUser(ctx context.Context) (map[int64]int, error) { return nil, nil }
func (f *fakeStore) GetSettings(ctx context.Context, userID int64) (*model.Settings, error) {
	return nil, nil
}
func (f *fakeStore) GetQuery(ctx context.Context, id int64) (*query.Query, error) { return nil, nil }
func (f *fakeStore) ListStuck(ctx context.Context, statuses []query.Status, olderThan time.Time) ([]*query.Query, error) {
	return nil, nil
}
func (f *fakeStore) UpdateStatus(ctx context.Context, id int64, newStatus query.Status, delta store.StatusUpdate) error {
	return nil
}
func (f *fakeStore) Rerun(ctx context.Context, id int64) (*query.Query, error) { return nil, nil }

func pendingFor(userID int64, ids ...int64) []store.PendingQuery {
	ret := make([]store.PendingQuery, len(ids))
	base := time.Now()
	for i, id := range ids {
		ret[i] = store.PendingQuery{
			Query: &query.Query{
				ID:        id,
				Input:     model.Input{UserID: userID},
				Status:    query.Pending,
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			},
		}
	}
	return ret
}

func TestFairAdmissionAcrossTwoUsers(t *testing.T) {
	// S1: global_max_parallel=4, default_user_max_parallel=3; two users each
	// with 3 pending queries. Expect admitted = {A1,B1,A2,B2}, remaining
	// pending = {A3,B3}.
	rows := append(pendingFor(1, 10, 11, 12), pendingFor(2, 20, 21, 22)...)
	fs := &fakeStore{pending: rows}

	var admitted []int64
	admit := func(ctx context.Context, pq store.PendingQuery, release func()) {
		admitted = append(admitted, pq.Query.ID)
		release()
	}

	s := scheduler.New(fs, scheduler.Config{
		CheckInterval:          time.Hour,
		GlobalMaxParallel:      4,
		DefaultUserMaxParallel: 3,
	}, admit, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(time.Second)

	require.Eventually(t, func() bool { return len(admitted) == 4 }, time.Second, time.Millisecond)
	require.ElementsMatch(t, []int64{10, 11, 20, 21}, admitted)
}

func TestPerUserCapLimitsAdmission(t *testing.T) {
	// S2: global_max_parallel=10, user A has max_parallel_queries=2 and
	// submits 5 queries. Only 2 should ever be admitted concurrently.
	maxTwo := 2
	settings := &model.Settings{MaxParallelQueries: &maxTwo}
	rows := pendingFor(1, 1, 2, 3, 4, 5)
	for i := range rows {
		rows[i].Settings = settings
	}
	fs := &fakeStore{pending: rows}

	var admitted []int64
	release := make(chan func(), 10)
	admit := func(ctx context.Context, pq store.PendingQuery, r func()) {
		admitted = append(admitted, pq.Query.ID)
		release <- r
	}

	s := scheduler.New(fs, scheduler.Config{
		CheckInterval:          time.Hour,
		GlobalMaxParallel:      10,
		DefaultUserMaxParallel: 3,
	}, admit, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(time.Second)

	require.Eventually(t, func() bool { return len(admitted) == 2 }, time.Second, time.Millisecond)
	require.Len(t, admitted, 2)
}
