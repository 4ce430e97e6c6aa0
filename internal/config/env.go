package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome             = "ACCOUNTHUB_HOME"
	EnvSS58Format       = "ACCOUNTHUB_SS58_FORMAT"
	EnvIndexerURL       = "ACCOUNTHUB_INDEXER_URL"
	EnvIndexerAPIKey    = "ACCOUNTHUB_INDEXER_API_KEY" // #nosec G101 -- false positive, this is a const name not a credential
	EnvDiscoveryTimeout = "ACCOUNTHUB_DISCOVERY_TIMEOUT"
	EnvOutputFormat     = "ACCOUNTHUB_OUTPUT_FORMAT"
	EnvVerbose          = "ACCOUNTHUB_VERBOSE"
	EnvLogLevel         = "ACCOUNTHUB_LOG_LEVEL"
	EnvNoColor          = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvSS58Format); v != "" {
		if n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 16); err == nil && n <= MaxSS58Format {
			cfg.SS58Format = uint16(n)
		}
	}

	if v := os.Getenv(EnvIndexerURL); v != "" {
		cfg.Indexer.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvIndexerAPIKey); v != "" {
		cfg.Indexer.APIKey = v
	}

	if v := os.Getenv(EnvDiscoveryTimeout); v != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
			cfg.Discovery.TimeoutSeconds = secs
		}
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL trims whitespace and strips characters that cannot appear in
// a URL, such as quotes and control characters left over from copy-paste.
func SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	return strings.Map(func(r rune) rune {
		switch {
		case r <= ' ', r == 0x7f, r == '"', r == '\'', r == '<', r == '>', r == '`':
			return -1
		default:
			return r
		}
	}, raw)
}
