// Package logging builds the zerolog loggers used by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a logger.
type Options struct {
	// Name prefixes the log file name.
	Name string

	// Dir receives the daily log file. Empty disables file output.
	Dir string

	// Level is a zerolog level name; empty means info.
	Level string

	// Console receives human-readable output; nil means os.Stderr.
	Console io.Writer

	// Now overrides the clock used to name the log file.
	Now func() time.Time
}

// Logger wraps a zerolog.Logger and the log file it writes to.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// FileName returns the daily log file name for name at t: <name>_YYYYMMDD.log.
func FileName(name string, t time.Time) string {
	return fmt.Sprintf("%s_%s.log", name, t.Format("20060102"))
}

// New creates a logger writing a console view and, when Dir is set, JSON
// lines appended to the daily log file.
func New(opts Options) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}}

	var file *os.File
	if opts.Dir != "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		path := filepath.Join(opts.Dir, FileName(opts.Name, now()))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("logger", opts.Name).
		Logger()

	return &Logger{Logger: logger, file: file}, nil
}

// Path returns the log file path, or "" without file output.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
