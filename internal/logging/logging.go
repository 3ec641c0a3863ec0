// Package logging configures zerolog. The terminal belongs to the TUI, so
// the interactive app logs to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Stderr as a path sends logs to standard error instead of a file.
const Stderr = "-"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds a logger.
//   - level: trace, debug, info, warn, error (unknown values fall back to info)
//   - format: "json" for machine-readable lines, "pretty" for console output
//   - path: log file, appended to and created with its directory; Stderr or "" writes to stderr
//
// The returned Closer releases the file.
func Setup(level, format, path string) (zerolog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if path != "" && path != Stderr {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	if format == "pretty" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    path != "" && path != Stderr,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	log := zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("app", "prodiplan").
		Logger()
	return log, closer, nil
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// DefaultLogPath is $XDG_STATE_HOME/prodiplan/prodiplan.log, falling back
// to ~/.local/state.
func DefaultLogPath() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "prodiplan", "prodiplan.log"), nil
}
