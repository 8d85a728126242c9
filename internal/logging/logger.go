// Package logging builds the charmbracelet loggers used by the simulator.
// Simulation events go to chase.log in the output directory, and only when a
// level was asked for.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileName is the log file written into the output directory.
const FileName = "chase.log"

// ParseLevel maps a level name to a log.Level (case-insensitive).
// Besides the charmbracelet names, "warning" and "critical" are accepted.
func ParseLevel(s string) (log.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "warning":
		return log.WarnLevel, nil
	case "critical":
		return log.FatalLevel, nil
	}
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return lvl, fmt.Errorf("invalid log level %q (use debug, info, warning, error or critical)", s)
	}
	return lvl, nil
}

// New creates a timestamped logger writing to w.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "chase",
		Level:           level,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenFile creates dir/chase.log, truncating any previous run, and returns a
// logger writing to it. An empty level disables file logging and returns a
// discarding logger.
func OpenFile(dir, level string) (*log.Logger, io.Closer, error) {
	if level == "" {
		return Discard(), nopCloser{}, nil
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: cannot create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(filepath.Join(dir, FileName))
	if err != nil {
		return nil, nil, fmt.Errorf("logging: cannot open log file: %w", err)
	}
	return New(f, lvl), f, nil
}
