// Package logging configures the process-wide zerolog logger: human-readable
// console output plus a process.log file under the run's log directory.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FileName is the log file created under the configured log directory.
const FileName = "process.log"

// Setup points the global logger at a console writer and a process.log file
// under logDir, creating the directory if needed. The returned closer closes
// the log file; call it on shutdown.
func Setup(logDir string, debug bool) (func() error, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(logDir, FileName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open process log: %w", err)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, file)).
		With().Timestamp().Logger()

	return file.Close, nil
}
