package internal

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TimerHandler is invoked once immediately on Start and then again on
// every tick until the task is stopped.
type TimerHandler func(context.Context)

// TimerTask runs a TimerHandler on a fixed interval, shared by the
// scheduler's admission tick and the reaper's sweep. A panicking handler
// is recovered and logged rather than taking down the owning goroutine,
// the same guarantee WorkerPool gives its own handlers.
type TimerTask struct {
	cancel context.CancelFunc
	done   DoneChan
	log    zerolog.Logger
}

func (t *TimerTask) safeHandle(ctx context.Context, h TimerHandler) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().Interface("panic", r).Msg("timer task panic recovered")
		}
	}()
	h(ctx)
}

func (t *TimerTask) do(ctx context.Context, h TimerHandler, interval time.Duration) {
	defer close(t.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	t.safeHandle(ctx, h)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.safeHandle(ctx, h)
		}
	}
}

// Start runs h immediately and then every interval until the context is
// cancelled or Stop is called.
func (t *TimerTask) Start(ctx context.Context, h TimerHandler, interval time.Duration, log zerolog.Logger) {
	t.done = make(DoneChan)
	t.log = log
	ctx, t.cancel = context.WithCancel(ctx)
	go t.do(ctx, h, interval)
}

// Stop cancels the task and returns a channel that closes once its
// goroutine has returned.
func (t *TimerTask) Stop() DoneChan {
	t.cancel()
	return t.done
}
