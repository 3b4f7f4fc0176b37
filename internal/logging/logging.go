// Package logging sets up the slog pipeline shared by every command and the
// zerolog adapter used by the dispatcher.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const fileTimeLayout = "20060102_150405"

// LogFilePath returns the log file of one command run under logsDir.
func LogFilePath(logsDir, command string, start time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("coaster_%s.%s.log", command, start.Format(fileTimeLayout)))
}

// OpenLogFile creates logsDir when missing and opens the run's log file for
// appending.
func OpenLogFile(logsDir, command string, start time.Time) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir %s: %w", logsDir, err)
	}
	path := LogFilePath(logsDir, command, start)
	f, err := os.OpenFile(filepath.Clean(path), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
