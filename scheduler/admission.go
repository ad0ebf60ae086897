package scheduler

import (
	"context"

	"github.com/dbclientapi/processor/metrics"
	"github.com/dbclientapi/processor/model"
	"github.com/dbclientapi/processor/store"
)

// userQueue is one user's pending queries, already in created_at order.
type userQueue struct {
	userID   int64
	settings *model.Settings
	pending  []store.PendingQuery
}

func (s *Scheduler) userLimit(userID int64, settings *model.Settings) int {
	if settings != nil && settings.MaxParallelQueries != nil {
		return *settings.MaxParallelQueries
	}
	return s.cfg.DefaultUserMaxParallel
}

func (s *Scheduler) totalRunning() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, set := range s.activeByUser {
		total += len(set)
	}
	return total
}

func (s *Scheduler) countForUser(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeByUser[userID])
}

func groupByUser(rows []store.PendingQuery) []*userQueue {
	order := make([]int64, 0)
	byUser := make(map[int64]*userQueue)
	for _, row := range rows {
		uq, ok := byUser[row.Query.UserID]
		if !ok {
			uq = &userQueue{userID: row.Query.UserID, settings: row.Settings}
			byUser[row.Query.UserID] = uq
			order = append(order, row.Query.UserID)
		}
		uq.pending = append(uq.pending, row)
	}
	ret := make([]*userQueue, len(order))
	for i, id := range order {
		ret[i] = byUser[id]
	}
	return ret
}

// tick runs one admission pass: it computes remaining global capacity,
// loads pending queries grouped by user, and round-robins across users,
// admitting at most one query per user per pass, until capacity is
// exhausted or a full pass admits nothing.
func (s *Scheduler) tick(ctx context.Context) {
	available := s.cfg.GlobalMaxParallel - s.totalRunning()
	if available <= 0 {
		return
	}

	rows, err := s.store.ListPending(ctx, 0)
	if err != nil {
		s.log.Error().Err(err).Msg("list pending queries failed")
		return
	}
	if len(rows) == 0 {
		return
	}

	queues := groupByUser(rows)

	for available > 0 {
		admittedInPass := false
		for _, uq := range queues {
			if available == 0 {
				break
			}
			if len(uq.pending) == 0 {
				continue
			}
			limit := s.userLimit(uq.userID, uq.settings)
			// admitOne adds the query to activeByUser before returning, so
			// countForUser already includes this tick's admissions.
			if s.countForUser(uq.userID) >= limit {
				continue
			}
			head := uq.pending[0]
			uq.pending = uq.pending[1:]
			s.admitOne(ctx, head)
			available--
			admittedInPass = true
		}
		if !admittedInPass {
			break
		}
	}
}

func (s *Scheduler) admitOne(ctx context.Context, pq store.PendingQuery) {
	userID, queryID := pq.Query.UserID, pq.Query.ID
	s.mu.Lock()
	s.addLocked(userID, queryID)
	s.mu.Unlock()

	metrics.AdmittedTotal.Inc()
	metrics.ActiveQueries.Set(float64(s.totalRunning()))

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		s.release(userID, queryID)
		metrics.ActiveQueries.Set(float64(s.totalRunning()))
	}
	s.admit(ctx, pq, release)
}
