package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dbclientapi/processor/metrics"
)

// LocalCopy implements Service for destinations with no SSH hostname
// configured at any level.
type LocalCopy struct {
	log zerolog.Logger
}

// NewLocalCopy returns a LocalCopy service logging through log.
func NewLocalCopy(log zerolog.Logger) *LocalCopy {
	return &LocalCopy{log: log}
}

func (l *LocalCopy) Deliver(ctx context.Context, tmpPath string, dest Destination) (err error) {
	timer := metrics.NewTimer()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.TransferAttemptsTotal.WithLabelValues("local", outcome).Inc()
		timer.ObserveDurationVec(metrics.TransferDuration, "local")
	}()

	final := resolveRemotePath(dest.FinalPath)
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir destination: %v", ErrTransferFailed, err)
	}

	src, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: open source: %v", ErrTransferFailed, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat source: %v", ErrTransferFailed, err)
	}

	dst, err := os.OpenFile(final, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("%w: create destination: %v", ErrTransferFailed, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("%w: copy bytes: %v", ErrTransferFailed, err)
	}
	if err := os.Chmod(final, info.Mode().Perm()); err != nil {
		return fmt.Errorf("%w: preserve mode: %v", ErrTransferFailed, err)
	}
	if err := os.Chtimes(final, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("%w: preserve times: %v", ErrTransferFailed, err)
	}
	l.log.Info().Str("final_path", final).Msg("delivered file via local copy")
	return nil
}
