package config

import "strconv"

// DefaultSS58Format is the generic Substrate address prefix.
const DefaultSS58Format = 42

// MaxSS58Format is the largest encodable SS58 prefix.
const MaxSS58Format = 16383

// DefaultMnemonicEnv names the variable the keyring plugin reads its phrase from.
const DefaultMnemonicEnv = "ACCOUNTHUB_MNEMONIC"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version:    1,
		Home:       "~/.accounthub",
		SS58Format: DefaultSS58Format,
		Discovery: DiscoveryConfig{
			TimeoutSeconds: 10,
		},
		Indexer: IndexerConfig{
			URL:             "",
			RatePerSecond:   5,
			Burst:           5,
			TimeoutSeconds:  15,
			CacheTTLSeconds: 300,
		},
		Plugins: PluginsConfig{
			Readonly: ReadonlyConfig{Enabled: true},
			Keyring: KeyringConfig{
				Enabled:     false,
				MnemonicEnv: DefaultMnemonicEnv,
				Count:       1,
				NamePrefix:  "Keyring",
			},
			Multisig: ToggleConfig{Enabled: true},
			Proxy:    ToggleConfig{Enabled: true},
		},
		ChainData: ChainDataConfig{
			Identities: map[string]IdentityEntry{},
			Balances:   map[string]BalanceEntry{},
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "",
		},
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
