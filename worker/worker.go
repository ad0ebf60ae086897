package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dbclientapi/processor/config"
	"github.com/dbclientapi/processor/dbconn"
	"github.com/dbclientapi/processor/internal"
	"github.com/dbclientapi/processor/logging"
	"github.com/dbclientapi/processor/materialize"
	"github.com/dbclientapi/processor/metrics"
	"github.com/dbclientapi/processor/query"
	"github.com/dbclientapi/processor/recorder"
	"github.com/dbclientapi/processor/store"
	"github.com/dbclientapi/processor/transfer"
)

// Worker drives one admitted query from connect through materialisation
// to transfer. Its Run method never returns an error: every failure is
// captured and recorded as a terminal status so the scheduler goroutine
// stays up.
type Worker struct {
	recorder *recorder.Recorder
	local    transfer.Service
	remote   transfer.Service
	cfg      *config.Config
	log      zerolog.Logger
}

// New returns a Worker. local and remote implement the two transfer
// service modes; which one handles a given query is chosen per query by
// resolveDestination.
func New(rec *recorder.Recorder, local, remote transfer.Service, cfg *config.Config, log zerolog.Logger) *Worker {
	return &Worker{recorder: rec, local: local, remote: remote, cfg: cfg, log: log}
}

// Run executes pq to completion or failure. It is safe to call from its
// own goroutine; callers are responsible for calling the scheduler's
// release callback once Run returns.
func (w *Worker) Run(ctx context.Context, pq store.PendingQuery) {
	q := pq.Query
	log := logging.WithExecutionID(logging.WithUserID(logging.WithQueryID(w.log, q.ID), q.UserID))

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.QueryDuration)

	w.recorder.Record(ctx, q.ID, query.Running, store.StatusUpdate{})

	db, err := dbconn.Connect(ctx, q.DBUsername, q.DBPassword, q.DBTNS)
	if err != nil {
		w.fail(ctx, q.ID, "connect", err, log)
		return
	}
	defer db.Close()

	result, err := dbconn.FetchAll(ctx, db, q.QueryText)
	if err != nil {
		w.fail(ctx, q.ID, "execute", err, log)
		return
	}

	exportType := resolveExportType(q.Input, pq.Settings, w.cfg)
	ext, err := materialize.ExtensionFor(exportType)
	if err != nil {
		w.fail(ctx, q.ID, "materialize", err, log)
		return
	}

	now := time.Now()
	if err := os.MkdirAll(w.cfg.TmpExportLocation, 0o755); err != nil {
		w.fail(ctx, q.ID, "materialize", fmt.Errorf("prepare tmp directory: %w", err), log)
		return
	}
	tmpPath := tmpFilePath(w.cfg.TmpExportLocation, q.ID, ext, now)

	matResult, err := materialize.Write(exportType, tmpPath, result)
	if err != nil {
		w.fail(ctx, q.ID, "materialize", err, log)
		return
	}
	defer transfer.Cleanup(tmpPath, w.cfg.TmpExportLocation, log)

	finalPath := finalFilePath(q.ID, q.Input, pq.Settings, w.cfg, ext, now)
	rows, columns, fileSize := matResult.Rows, matResult.Columns, matResult.FileSize
	w.recorder.Record(ctx, q.ID, query.Transferring, store.StatusUpdate{
		ResultMetadata: &query.ResultMetadata{
			Rows:          &rows,
			Columns:       &columns,
			ColumnNames:   matResult.ColumnNames,
			FileSize:      &fileSize,
			TmpFilePath:   &tmpPath,
			FinalFilePath: &finalPath,
		},
	})

	dest := resolveDestination(q.ID, q.Input, pq.Settings, w.cfg, finalPath)
	svc := w.local
	if dest.Host != nil {
		svc = w.remote
	}
	if err := svc.Deliver(ctx, tmpPath, dest); err != nil {
		w.fail(ctx, q.ID, "transfer", err, log)
		return
	}

	w.recorder.Record(ctx, q.ID, query.Completed, store.StatusUpdate{})
	log.Info().Str("final_path", finalPath).Msg("query completed")
}

func (w *Worker) fail(ctx context.Context, id int64, step string, err error, log zerolog.Logger) {
	msg := internal.SafeErrorMessage("query failed", err)
	log.Error().Err(err).Str("step", step).Msg("query failed")
	metrics.QueriesFailedTotal.WithLabelValues(step).Inc()
	w.recorder.Record(ctx, id, query.Failed, store.StatusUpdate{ErrorMessage: &msg})
}
