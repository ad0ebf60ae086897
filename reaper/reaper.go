package reaper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dbclientapi/processor/internal"
	"github.com/dbclientapi/processor/metrics"
	"github.com/dbclientapi/processor/query"
	"github.com/dbclientapi/processor/store"
)

const restartReason = "query interrupted by processor restart"

// Reaper runs on its own tick, independent of the admission scheduler's,
// so a stuck query is reclaimed even while the scheduler is catching up
// on a large pending backlog.
type Reaper struct {
	internal.Lifecycle
	store     store.Store
	interval  time.Duration
	threshold time.Duration
	log       zerolog.Logger
	task      internal.TimerTask
}

// New returns a Reaper that, every interval, fails queries stuck in
// running or transferring for longer than threshold.
func New(st store.Store, interval, threshold time.Duration, log zerolog.Logger) *Reaper {
	return &Reaper{store: st, interval: interval, threshold: threshold, log: log}
}

func (r *Reaper) Start(ctx context.Context) error {
	if err := r.TryStart(); err != nil {
		return err
	}
	r.task.Start(ctx, r.sweep, r.interval, r.log)
	return nil
}

func (r *Reaper) Stop(timeout time.Duration) error {
	return r.TryStop(timeout, r.task.Stop)
}

func (r *Reaper) sweep(ctx context.Context) {
	olderThan := time.Now().UTC().Add(-r.threshold)
	stuck, err := r.store.ListStuck(ctx, []query.Status{query.Running, query.Transferring}, olderThan)
	if err != nil {
		r.log.Error().Err(err).Msg("list stuck queries failed")
		return
	}
	for _, q := range stuck {
		reason := restartReason
		if err := r.store.UpdateStatus(ctx, q.ID, query.Failed, store.StatusUpdate{ErrorMessage: &reason}); err != nil {
			r.log.Error().Err(err).Int64("query_id", q.ID).Msg("failed to reap stuck query")
			continue
		}
		metrics.ReapedTotal.Inc()
		r.log.Warn().Int64("query_id", q.ID).Str("prior_status", q.Status.String()).Msg("reaped stuck query")
	}
}
