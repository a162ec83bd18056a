// Package logging sets up the run logger: human-readable lines appended to
// the run log file and mirrored to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phuslu/log"
)

// Options configures Open
type Options struct {
	Path   string    // log file, opened in append mode; empty disables the file
	Level  string    // debug, info, warn or error
	Quiet  bool      // do not mirror to the console
	Stderr io.Writer // console writer, os.Stderr when nil
}

// Open creates the logger. The returned closer flushes and closes the log
// file and must be called on every exit path.
func Open(opts Options) (*log.Logger, io.Closer, error) {
	var writers log.MultiEntryWriter
	var closer io.Closer = nopCloser{}

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, &log.ConsoleWriter{Writer: f})
		closer = f
	}

	if !opts.Quiet {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, &log.ConsoleWriter{Writer: stderr, ColorOutput: stderr == os.Stderr && log.IsTerminal(os.Stderr.Fd())})
	}

	logger := &log.Logger{
		Level:      ParseLevel(opts.Level),
		TimeFormat: "2006-01-02 15:04:05",
		Writer:     &writers,
	}
	return logger, closer, nil
}

// ParseLevel maps a level name to a log level, defaulting to info
func ParseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// Discard returns a logger that drops everything, for tests and library use
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: log.IOWriter{Writer: io.Discard}}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
