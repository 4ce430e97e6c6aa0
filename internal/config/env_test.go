package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/accounthub/internal/config"
)

//nolint:paralleltest // t.Setenv cannot be used with t.Parallel
func TestApplyEnvironment(t *testing.T) {
	t.Setenv(config.EnvHome, "/opt/hub")
	t.Setenv(config.EnvSS58Format, "2")
	t.Setenv(config.EnvIndexerURL, "  \"https://indexer.example.com\"\n")
	t.Setenv(config.EnvIndexerAPIKey, "secret")
	t.Setenv(config.EnvDiscoveryTimeout, "3")
	t.Setenv(config.EnvOutputFormat, "JSON")
	t.Setenv(config.EnvVerbose, "yes")
	t.Setenv(config.EnvLogLevel, "DEBUG")
	t.Setenv(config.EnvNoColor, "")

	cfg := config.Defaults()
	config.ApplyEnvironment(cfg)

	assert.Equal(t, "/opt/hub", cfg.Home)
	assert.Equal(t, uint16(2), cfg.SS58Format)
	assert.Equal(t, "https://indexer.example.com", cfg.Indexer.URL)
	assert.Equal(t, "secret", cfg.Indexer.APIKey)
	assert.Equal(t, 3, cfg.Discovery.TimeoutSeconds)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)
	assert.True(t, cfg.Output.Verbose)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "never", cfg.Output.Color)
}

//nolint:paralleltest // t.Setenv cannot be used with t.Parallel
func TestApplyEnvironment_IgnoresInvalidNumbers(t *testing.T) {
	t.Setenv(config.EnvSS58Format, "99999")
	t.Setenv(config.EnvDiscoveryTimeout, "-4")

	cfg := config.Defaults()
	config.ApplyEnvironment(cfg)

	assert.Equal(t, uint16(config.DefaultSS58Format), cfg.SS58Format)
	assert.Equal(t, 10, cfg.Discovery.TimeoutSeconds)
}

//nolint:paralleltest // t.Setenv cannot be used with t.Parallel
func TestApplyEnvironment_VerboseFalse(t *testing.T) {
	for _, v := range []string{"0", "false", "no", "garbage"} {
		t.Setenv(config.EnvVerbose, v)
		cfg := config.Defaults()
		cfg.Output.Verbose = true
		config.ApplyEnvironment(cfg)
		assert.False(t, cfg.Output.Verbose, v)
	}
}

func TestSanitizeURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://a.example/x?y=1", config.SanitizeURL(" 'https://a.example/x?y=1'\t"))
	assert.Equal(t, "http://b", config.SanitizeURL("http://b<>"))
	assert.Empty(t, config.SanitizeURL("   "))
}
