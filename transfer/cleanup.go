package transfer

import (
	"os"

	"github.com/rs/zerolog"
)

// Cleanup removes the tmp file and, if it is now empty, prunes tmpRoot.
// Cleanup failures are logged but never treated as terminal; by the time
// Cleanup runs, the query has already reached its terminal status.
func Cleanup(tmpPath, tmpRoot string, log zerolog.Logger) {
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("tmp_path", tmpPath).Msg("tmp file cleanup failed")
	}
	entries, err := os.ReadDir(tmpRoot)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(tmpRoot); err != nil {
		log.Debug().Err(err).Str("tmp_root", tmpRoot).Msg("tmp root prune failed")
	}
}
