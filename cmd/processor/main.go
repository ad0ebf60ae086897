// Command processor runs the query processor: the admission scheduler,
// its query workers, the reaper, and a metrics HTTP endpoint. It is the
// only binary this module produces; the HTTP control-plane that creates
// and reads queries is a separate deployable talking to the same store.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dbclientapi/processor/config"
	"github.com/dbclientapi/processor/internal"
	"github.com/dbclientapi/processor/logging"
	"github.com/dbclientapi/processor/metrics"
	"github.com/dbclientapi/processor/reaper"
	"github.com/dbclientapi/processor/recorder"
	"github.com/dbclientapi/processor/scheduler"
	"github.com/dbclientapi/processor/store"
	"github.com/dbclientapi/processor/transfer"
	"github.com/dbclientapi/processor/worker"
)

// recordBackoff and transferRetry give three total attempts: the initial
// try plus two retries, spaced one and two seconds apart respectively.
var (
	recordBackoff = internal.BackoffConfig{MaxRetries: 2, InitialInterval: time.Second}
	transferRetry = internal.BackoffConfig{MaxRetries: 2, InitialInterval: 2 * time.Second}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	log := logging.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if err := store.InitSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("init schema")
	}

	st := store.NewBunStore(db)

	rec := recorder.New(st, recordBackoff, logging.WithComponent("recorder"))
	local := transfer.NewLocalCopy(logging.WithComponent("transfer-local"))
	remote := transfer.NewRemoteSCP(transferRetry, cfg.SSH.Timeout, logging.WithComponent("transfer-remote"))
	wk := worker.New(rec, local, remote, cfg, logging.WithComponent("worker"))

	pool := internal.NewWorkerPool[admission](cfg.GlobalMaxParallel, cfg.GlobalMaxParallel, logging.WithComponent("worker-pool"))

	sched := scheduler.New(st, scheduler.Config{
		CheckInterval:          cfg.CheckInterval,
		GlobalMaxParallel:      cfg.GlobalMaxParallel,
		DefaultUserMaxParallel: cfg.DefaultUserMaxParallel,
	}, admitFunc(pool), logging.WithComponent("scheduler"))

	rp := reaper.New(st, cfg.ReaperInterval, cfg.StuckQueryThreshold, logging.WithComponent("reaper"))

	pool.Start(ctx, func(ctx context.Context, a admission) {
		defer a.release()
		wk.Run(ctx, a.pq)
	})

	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start scheduler")
	}
	if err := rp.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start reaper")
	}

	srv := &http.Server{Addr: ":9090", Handler: metricsMux()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	log.Info().
		Dur("check_interval", cfg.CheckInterval).
		Int("global_max_parallel", cfg.GlobalMaxParallel).
		Int("default_user_max_parallel", cfg.DefaultUserMaxParallel).
		Msg("processor started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if err := sched.Stop(cfg.ShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("scheduler stop")
	}
	if err := rp.Stop(cfg.ShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("reaper stop")
	}
	<-pool.Stop()
	log.Info().Msg("processor stopped")
}

// admission bundles an admitted query with the scheduler's done-callback
// so the worker pool's handler can release the query's admission slot
// exactly when the worker actually retires, not when it is merely
// enqueued.
type admission struct {
	pq      store.PendingQuery
	release func()
}

// admitFunc adapts the scheduler's AdmitFunc contract onto the bounded
// worker pool: admission capacity (global_max_parallel) and pool capacity
// are sized identically, so Push never blocks the tick goroutine for
// long. Push itself runs on its own goroutine so a momentarily full queue
// still cannot stall the scheduler.
func admitFunc(pool *internal.WorkerPool[admission]) scheduler.AdmitFunc {
	return func(ctx context.Context, pq store.PendingQuery, release func()) {
		go pool.Push(admission{pq: pq, release: release})
	}
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func openDB(cfg *config.Config) (*bun.DB, error) {
	sqldb, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open pgx: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}
