package cli

import (
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/output"
)

// Compile-time interface checks.
var (
	_ ConfigProvider   = (*config.Config)(nil)
	_ config.LogWriter = (*config.Logger)(nil)
	_ FormatProvider   = (*output.Formatter)(nil)
)

// ConfigProvider provides read access to configuration values.
type ConfigProvider interface {
	// GetHome returns the accounthub home directory path.
	GetHome() string

	// GetLoggingLevel returns the configured logging level.
	GetLoggingLevel() string

	// GetLoggingFile returns the configured log file path.
	GetLoggingFile() string

	// GetOutputFormat returns the default output format.
	GetOutputFormat() string

	// IsVerbose returns true if verbose output is enabled.
	IsVerbose() bool
}

// FormatProvider provides output format information.
type FormatProvider interface {
	// Format returns the current output format.
	Format() output.Format
}

// newLogger creates the logger described by c, falling back to a null
// logger when the log file cannot be opened.
func newLogger(c ConfigProvider) *config.Logger {
	level := config.ParseLogLevel(c.GetLoggingLevel())
	if c.IsVerbose() {
		level = config.LogLevelDebug
	}
	l, err := config.NewLogger(level, c.GetLoggingFile())
	if err != nil {
		return config.NullLogger()
	}
	return l
}

// isJSON reports whether f renders JSON.
func isJSON(f FormatProvider) bool {
	return f != nil && f.Format() == output.FormatJSON
}
