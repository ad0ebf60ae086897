package recorder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dbclientapi/processor/internal"
	"github.com/dbclientapi/processor/query"
	"github.com/dbclientapi/processor/store"
)

// Recorder writes query status transitions to the durable store, retrying
// transient failures up to a bounded number of attempts with a fixed
// delay between them.
type Recorder struct {
	store   store.Store
	backoff internal.BackoffConfig
	log     zerolog.Logger
}

// New returns a Recorder retrying through backoff before giving up.
// Callers configure backoff so that MaxRetries+1 equals the desired total
// attempt count: three attempts one second apart is
// BackoffConfig{MaxRetries: 2, InitialInterval: time.Second}.
func New(st store.Store, backoff internal.BackoffConfig, log zerolog.Logger) *Recorder {
	return &Recorder{store: st, backoff: backoff, log: log}
}

// Record attempts to transition id to newStatus, retrying transient store
// errors. It never returns an error that should abort the calling worker:
// a permanent failure is logged and the query is left for the reaper to
// reconcile on a later tick.
func (r *Recorder) Record(ctx context.Context, id int64, newStatus query.Status, delta store.StatusUpdate) {
	counter := internal.NewBackoffCounter(r.backoff)
	var attempt uint32 = 1
	for {
		err := r.store.UpdateStatus(ctx, id, newStatus, delta)
		if err == nil {
			return
		}
		r.log.Warn().
			Err(err).
			Int64("query_id", id).
			Str("status", newStatus.String()).
			Uint32("attempt", attempt).
			Msg("status update failed")

		delay, ok := counter.Next(attempt)
		if !ok {
			r.log.Error().
				Int64("query_id", id).
				Str("status", newStatus.String()).
				Msg("status update exhausted retries, leaving query for reaper")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		attempt++
	}
}
