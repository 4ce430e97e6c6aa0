// Package config provides configuration management for accounthub.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/accounthub/internal/fileutil"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version    int             `yaml:"version"`
	Home       string          `yaml:"home"`
	SS58Format uint16          `yaml:"ss58_format"`
	Discovery  DiscoveryConfig `yaml:"discovery"`
	Indexer    IndexerConfig   `yaml:"indexer"`
	Plugins    PluginsConfig   `yaml:"plugins"`
	ChainData  ChainDataConfig `yaml:"chain_data"`
	Output     OutputConfig    `yaml:"output"`
	Logging    LoggingConfig   `yaml:"logging"`
}

// DiscoveryConfig defines derived-account discovery settings.
type DiscoveryConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// IndexerConfig defines the remote chain indexer settings.
// An empty URL disables the indexer plugin.
type IndexerConfig struct {
	URL             string  `yaml:"url"`
	APIKey          string  `yaml:"api_key"`
	RatePerSecond   float64 `yaml:"rate_per_second"`
	Burst           int     `yaml:"burst"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// PluginsConfig enables and configures the built-in account sources.
type PluginsConfig struct {
	Readonly ReadonlyConfig `yaml:"readonly"`
	Keyring  KeyringConfig  `yaml:"keyring"`
	Multisig ToggleConfig   `yaml:"multisig"`
	Proxy    ToggleConfig   `yaml:"proxy"`
}

// ToggleConfig is a plugin section with only an enable switch.
type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ReadonlyConfig lists watch-only address book entries.
type ReadonlyConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Accounts []AccountEntry `yaml:"accounts"`
}

// AccountEntry is a configured address with an optional name.
type AccountEntry struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name,omitempty"`
}

// KeyringConfig defines the mnemonic-backed signing plugin.
// The mnemonic itself is only ever read from the named environment variable.
type KeyringConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MnemonicEnv string `yaml:"mnemonic_env"`
	Count       int    `yaml:"count"`
	NamePrefix  string `yaml:"name_prefix"`
}

// ChainDataConfig is static on-chain state served without an indexer.
type ChainDataConfig struct {
	Multisigs  []MultisigEntry          `yaml:"multisigs"`
	Proxies    []ProxyEntry             `yaml:"proxies"`
	Identities map[string]IdentityEntry `yaml:"identities"`
	Balances   map[string]BalanceEntry  `yaml:"balances"`
}

// IsEmpty reports whether no chain data is configured.
func (c ChainDataConfig) IsEmpty() bool {
	return len(c.Multisigs) == 0 && len(c.Proxies) == 0 && len(c.Identities) == 0 && len(c.Balances) == 0
}

// MultisigEntry records a multisig that has been seen on chain.
type MultisigEntry struct {
	Address     string   `yaml:"address"`
	Signatories []string `yaml:"signatories"`
	Threshold   int      `yaml:"threshold"`
}

// ProxyEntry records a proxy relation: Delegate may act for Real.
type ProxyEntry struct {
	Real     string `yaml:"real"`
	Delegate string `yaml:"delegate"`
}

// IdentityEntry is an on-chain identity record.
type IdentityEntry struct {
	Name     string `yaml:"name"`
	SubID    string `yaml:"sub_id,omitempty"`
	Verified bool   `yaml:"verified"`
}

// BalanceEntry is a balance in whole units, e.g. "12.5" with 10 decimals.
type BalanceEntry struct {
	Value    string `yaml:"value"`
	Decimals int    `yaml:"decimals"`
	Symbol   string `yaml:"symbol"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, huberr.WithDetails(huberr.ErrConfigNotFound, map[string]string{"path": path})
		}
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, huberr.Wrap(huberr.ErrConfigInvalid, "parsing %s: %v", path, err)
	}

	return cfg, nil
}

// LoadOrDefault reads the config at path, falling back to defaults when
// the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if huberr.Is(err, huberr.ErrConfigNotFound) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteFile(path, data, 0o600)
}

// Validate checks values that would otherwise fail later at wiring time.
func (c *Config) Validate() error {
	if c.SS58Format > MaxSS58Format {
		return huberr.WithDetails(huberr.ErrConfigInvalid, map[string]string{
			"field": "ss58_format",
			"value": itoa(int(c.SS58Format)),
		})
	}
	if c.Discovery.TimeoutSeconds < 0 {
		return huberr.WithDetails(huberr.ErrConfigInvalid, map[string]string{
			"field": "discovery.timeout_seconds",
		})
	}
	if c.Indexer.CacheTTLSeconds < 0 {
		return huberr.WithDetails(huberr.ErrConfigInvalid, map[string]string{
			"field": "indexer.cache_ttl_seconds",
		})
	}
	if c.Plugins.Keyring.Enabled && c.Plugins.Keyring.Count < 1 {
		return huberr.WithDetails(huberr.ErrConfigInvalid, map[string]string{
			"field": "plugins.keyring.count",
		})
	}
	for i, m := range c.ChainData.Multisigs {
		if m.Threshold < 1 || m.Threshold > len(m.Signatories) {
			return huberr.WithDetails(huberr.ErrConfigInvalid, map[string]string{
				"field": "chain_data.multisigs[" + itoa(i) + "].threshold",
			})
		}
	}
	return nil
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the accounthub home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path, defaulting to
// accounthub.log in the home directory.
func (c *Config) GetLoggingFile() string {
	if c.Logging.File == "" && c.Home != "" {
		return filepath.Join(c.Home, "accounthub.log")
	}
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DiscoveryTimeout returns the discovery timeout, zero meaning none.
func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.Discovery.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long indexer balances and identities are cached,
// zero meaning no cache.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Indexer.CacheTTLSeconds) * time.Second
}

// DefaultHome returns the default accounthub home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".accounthub"
	}
	return filepath.Join(home, ".accounthub")
}
