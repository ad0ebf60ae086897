package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dbclientapi/processor/internal"
	"github.com/dbclientapi/processor/store"
)

// AdmitFunc is invoked once per admitted query. It must not block the
// scheduler goroutine for long; implementations spawn their own worker
// goroutine and call release exactly once, when that goroutine retires.
type AdmitFunc func(ctx context.Context, pq store.PendingQuery, release func())

// Config holds the scheduler's tunables: the tick period and the global
// and default per-user admission caps.
type Config struct {
	CheckInterval          time.Duration
	GlobalMaxParallel      int
	DefaultUserMaxParallel int
}

// Scheduler periodically admits pending queries under global and per-user
// caps. The in-memory set it owns (active query ids, grouped by user) is
// the authoritative admission ledger; it starts empty on every process
// restart, so any query a prior instance left running or transferring is
// reconciled by the reaper rather than by Scheduler itself.
type Scheduler struct {
	internal.Lifecycle
	store  store.Store
	cfg    Config
	admit  AdmitFunc
	log    zerolog.Logger
	task   internal.TimerTask

	mu           sync.Mutex
	activeByUser map[int64]map[int64]struct{}
}

// New returns a Scheduler. admit is called synchronously from the tick
// goroutine for every query the round-robin pass selects; it must return
// promptly.
func New(st store.Store, cfg Config, admit AdmitFunc, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:        st,
		cfg:          cfg,
		admit:        admit,
		log:          log,
		activeByUser: make(map[int64]map[int64]struct{}),
	}
}

// Start begins the periodic admission tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.TryStart(); err != nil {
		return err
	}
	s.task.Start(ctx, s.tick, s.cfg.CheckInterval, s.log)
	return nil
}

// Stop halts the tick and waits up to timeout. It does not wait for
// already-admitted workers; those are tracked by the caller's own
// lifecycle.
func (s *Scheduler) Stop(timeout time.Duration) error {
	return s.TryStop(timeout, s.task.Stop)
}

// Seed marks queryID as already active for userID, without running admit.
// Used at startup to rebuild the in-memory ledger for queries a previous
// process instance left running or transferring and that a live worker is
// still driving (there are none at cold start; reserved for a future
// warm-restart path).
func (s *Scheduler) Seed(userID, queryID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(userID, queryID)
}

func (s *Scheduler) addLocked(userID, queryID int64) {
	set, ok := s.activeByUser[userID]
	if !ok {
		set = make(map[int64]struct{})
		s.activeByUser[userID] = set
	}
	set[queryID] = struct{}{}
}

func (s *Scheduler) release(userID, queryID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.activeByUser[userID]
	if !ok {
		return
	}
	delete(set, queryID)
	if len(set) == 0 {
		delete(s.activeByUser, userID)
	}
}

