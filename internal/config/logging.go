package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mrz1836/accounthub/internal/fileutil"
)

// LogLevel represents logging verbosity levels. Higher is more verbose.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelDebug
)

//nolint:gochecknoglobals // fixed level name table
var levelNames = map[LogLevel]string{
	LogLevelOff:   "off",
	LogLevelError: "error",
	LogLevelWarn:  "warn",
	LogLevelDebug: "debug",
}

// LogWriter is the logging surface used by the hub components.
type LogWriter interface {
	Debug(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Compile-time interface check
var _ LogWriter = (*Logger)(nil)

// ParseLogLevel parses a log level name. Unknown names map to error.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" {
		return LogLevelOff
	}
	if s == "warning" {
		return LogLevelWarn
	}
	for level, name := range levelNames {
		if name == s {
			return level
		}
	}
	return LogLevelError
}

// String returns the level name.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return levelNames[LogLevelError]
}

// sink is the destination shared by a logger and its named children.
type sink struct {
	mu     sync.Mutex
	level  LogLevel
	out    io.Writer
	closer io.Closer
}

// Logger writes leveled, timestamped lines. Loggers derived with Named
// share the parent's destination and level.
type Logger struct {
	sink *sink
	name string
}

// NewLogger creates a logger appending to filePath. The parent directory
// is created when missing and "~/" expands to the user home directory.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	if level == LogLevelOff || filePath == "" {
		return &Logger{sink: &sink{level: level}}, nil
	}

	filePath, err := ExpandHome(filePath)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(filepath.Dir(filePath), fileutil.DirPermissions); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return &Logger{sink: &sink{level: level, out: f, closer: f}}, nil
}

// NewWriterLogger creates a logger writing to w.
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	return &Logger{sink: &sink{level: level, out: w}}
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{sink: &sink{level: LogLevelOff}}
}

// Named returns a logger tagging each line with name. Nested names are
// joined with a dot.
func (l *Logger) Named(name string) *Logger {
	if l.name != "" {
		name = l.name + "." + name
	}
	return &Logger{sink: l.sink, name: name}
}

// Named tags log with name when it supports naming and returns it
// unchanged otherwise. A nil log yields a NullLogger.
func Named(log LogWriter, name string) LogWriter {
	switch l := log.(type) {
	case nil:
		return NullLogger().Named(name)
	case *Logger:
		if l == nil {
			return NullLogger().Named(name)
		}
		return l.Named(name)
	default:
		return log
	}
}

// Close closes the underlying log file, if any. Named children share the
// file, so closing any of them closes all.
func (l *Logger) Close() error {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	s.out = nil
	return err
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	l.sink.level = level
	l.sink.mu.Unlock()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.write(LogLevelDebug, format, args)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...any) {
	l.write(LogLevelWarn, format, args)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.write(LogLevelError, format, args)
}

func (l *Logger) write(level LogLevel, format string, args []any) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out == nil || level > s.level {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(&b, " %-5s ", strings.ToUpper(level.String()))
	if l.name != "" {
		b.WriteString(l.name)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')
	_, _ = io.WriteString(s.out, b.String())
}

// ExpandHome expands a leading "~/" to the user home directory.
func ExpandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, rest), nil
}
