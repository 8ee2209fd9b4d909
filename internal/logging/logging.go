// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	console io.Writer = os.Stdout
	runID   string
)

// Setup configures the global logger: pretty console output in development,
// JSON otherwise, level from LOG_LEVEL. Returns the run id attached to every
// log line.
func Setup(appEnv, logLevel string) string {
	console = os.Stdout
	if appEnv == "development" {
		console = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	level := zerolog.InfoLevel
	if logLevel != "" {
		parsedLevel, err := zerolog.ParseLevel(logLevel)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	runID = uuid.NewString()
	log.Logger = newLogger(console)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")

	return runID
}

// TeeToFile additionally writes JSON log lines to dir/run_<UTC timestamp>.txt.
// The returned function closes the file.
func TeeToFile(dir string, now time.Time) (string, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("run_%s.txt", now.UTC().Format("20060102T150405Z")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open run log: %w", err)
	}

	log.Logger = newLogger(zerolog.MultiLevelWriter(console, f))
	return path, func() {
		log.Logger = newLogger(console)
		_ = f.Close()
	}, nil
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("run_id", runID).Logger()
}
