package internal

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// WorkHandler processes one item pushed onto a WorkerPool.
type WorkHandler[T any] func(context.Context, T)

// WorkerPool runs a bounded number of goroutines pulling work off a
// buffered channel, sized by the admission scheduler's global_max_parallel
// so the number of concurrently running queries never exceeds the
// configured cap.
type WorkerPool[T any] struct {
	concurrency int
	queue       int
	wg          sync.WaitGroup
	in          chan T
	ctx         context.Context
	cancel      context.CancelFunc
	log         zerolog.Logger
}

// NewWorkerPool returns a WorkerPool with concurrency worker goroutines
// and a queue-sized buffer, logging via log on every recovered panic.
func NewWorkerPool[T any](concurrency int, queue int, log zerolog.Logger) *WorkerPool[T] {
	return &WorkerPool[T]{
		concurrency: concurrency,
		queue:       queue,
		log:         log,
	}
}

func (wp *WorkerPool[T]) safeHandle(ctx context.Context, wh WorkHandler[T], t T) {
	defer func() {
		if r := recover(); r != nil {
			wp.log.Error().Interface("panic", r).Msg("worker panic recovered")
		}
	}()
	wh(ctx, t)
}

func (wp *WorkerPool[T]) worker(ctx context.Context, wh WorkHandler[T]) {
	defer wp.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-wp.in:
			wp.safeHandle(ctx, wh, t)
		}
	}
}

// Push enqueues t, blocking until a slot frees up or the pool is stopped.
// It returns false once the pool's context is done.
func (wp *WorkerPool[T]) Push(t T) bool {
	select {
	case <-wp.ctx.Done():
		return false
	case wp.in <- t:
		return true
	}
}

// Start launches the pool's worker goroutines, each running wh against
// items pushed via Push.
func (wp *WorkerPool[T]) Start(ctx context.Context, wh WorkHandler[T]) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)
	wp.in = make(chan T, wp.queue)
	for i := 0; i < wp.concurrency; i++ {
		wp.wg.Add(1)
		go wp.worker(wp.ctx, wh)
	}
}

// Stop cancels the pool's context and returns a channel that closes once
// every worker goroutine has returned.
func (wp *WorkerPool[T]) Stop() DoneChan {
	wp.cancel()
	done := make(DoneChan)
	go func() {
		wp.wg.Wait()
		close(done)
	}()
	return done
}
