package logging

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger is the global logger instance, configured once via Init.
var Logger zerolog.Logger

// Level names accepted by Config.Level, matching config.Config.LogLevel.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Config controls the global logger's verbosity and output shape.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// Init configures the global logger. It must be called once, before any
// component logger is derived from it.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.JSON {
		Logger = zerolog.New(output).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: output}).With().Timestamp().Logger()
}

// WithComponent returns a child logger tagging every entry with the
// processor component that produced it (e.g. "scheduler", "worker",
// "transfer", "recorder", "reaper").
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithQueryID returns a child logger tagging every entry with the query id
// it concerns.
func WithQueryID(log zerolog.Logger, id int64) zerolog.Logger {
	return log.With().Int64("query_id", id).Logger()
}

// WithUserID returns a child logger tagging every entry with the owning
// user id.
func WithUserID(log zerolog.Logger, id int64) zerolog.Logger {
	return log.With().Int64("user_id", id).Logger()
}

// WithExecutionID returns a child logger tagging every entry with a fresh
// random id, scoped to one worker run of one query. Two processor restarts
// that re-run the same query id produce distinct execution ids, so log
// lines from the stale run and the retry are never conflated.
func WithExecutionID(log zerolog.Logger) zerolog.Logger {
	return log.With().Str("execution_id", uuid.NewString()).Logger()
}
