package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/accounthub/internal/config"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and initialize accounthub configuration.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.accounthub/config.yaml.

An existing file is only overwritten with --force.`,
	Example: `  accounthub config init
  accounthub config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, after environment overrides.
The indexer API key is masked.`,
	Example: `  accounthub config show
  accounthub config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Long:  `Print the path of the configuration file for the active home directory.`,
	Example: `  accounthub config path
  accounthub config path --home /tmp/accounthub`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		outln(cmd.OutOrStdout(), config.Path(GetCmdContext(cmd).Cfg.GetHome()))
		return nil
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.GroupID = groupConfig
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	path := config.Path(cc.Cfg.GetHome())

	if _, err := os.Stat(path); err == nil && !configForce {
		return huberr.WithSuggestion(
			huberr.WithDetails(huberr.ErrInvalidInput, map[string]string{"path": path}),
			"configuration already exists, use --force to overwrite",
		)
	}

	fresh := config.Defaults()
	fresh.Home = cc.Cfg.GetHome()
	if err := config.Save(fresh, path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", path)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - plugins.readonly.accounts: watch-only addresses")
	outln(w, "  - plugins.keyring: signing accounts from $"+fresh.Plugins.Keyring.MnemonicEnv)
	outln(w, "  - indexer.url: chain indexer for multisig, proxy, balance and identity lookups")
	outln(w, "  - chain_data: static chain data used without an indexer")
	return nil
}

type configJSON struct {
	Home       string `json:"home"`
	Path       string `json:"path"`
	SS58Format uint16 `json:"ss58_format"`
	Discovery  struct {
		TimeoutSeconds int `json:"timeout_seconds"`
	} `json:"discovery"`
	Indexer struct {
		URL           string  `json:"url"`
		APIKey        string  `json:"api_key"`
		RatePerSecond float64 `json:"rate_per_second"`
		Burst         int     `json:"burst"`
		CacheTTL      int     `json:"cache_ttl_seconds"`
	} `json:"indexer"`
	Plugins struct {
		Readonly int  `json:"readonly_accounts"`
		Keyring  bool `json:"keyring"`
		Multisig bool `json:"multisig"`
		Proxy    bool `json:"proxy"`
	} `json:"plugins"`
	Output  config.OutputConfig  `json:"output"`
	Logging config.LoggingConfig `json:"logging"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	c := cc.Cfg

	var v configJSON
	v.Home = c.GetHome()
	v.Path = config.Path(c.GetHome())
	v.SS58Format = c.SS58Format
	v.Discovery.TimeoutSeconds = c.Discovery.TimeoutSeconds
	v.Indexer.URL = c.Indexer.URL
	v.Indexer.APIKey = maskSecret(c.Indexer.APIKey)
	v.Indexer.RatePerSecond = c.Indexer.RatePerSecond
	v.Indexer.Burst = c.Indexer.Burst
	v.Indexer.CacheTTL = c.Indexer.CacheTTLSeconds
	if c.Plugins.Readonly.Enabled {
		v.Plugins.Readonly = len(c.Plugins.Readonly.Accounts)
	}
	v.Plugins.Keyring = c.Plugins.Keyring.Enabled
	v.Plugins.Multisig = c.Plugins.Multisig.Enabled
	v.Plugins.Proxy = c.Plugins.Proxy.Enabled
	v.Output = c.Output
	v.Logging = c.Logging

	w := cmd.OutOrStdout()
	if isJSON(cc.Fmt) {
		return writeJSON(w, v)
	}
	displayConfigText(w, v)
	return nil
}

func displayConfigText(w io.Writer, v configJSON) {
	indexer := v.Indexer.URL
	if indexer == "" {
		indexer = "(not configured)"
	}
	outln(w, "Configuration:")
	out(w, "  home: %s\n", v.Home)
	out(w, "  file: %s\n", v.Path)
	out(w, "  ss58_format: %d\n", v.SS58Format)
	out(w, "  discovery.timeout_seconds: %d\n", v.Discovery.TimeoutSeconds)
	out(w, "  indexer.url: %s\n", indexer)
	out(w, "  indexer.api_key: %s\n", v.Indexer.APIKey)
	out(w, "  indexer.cache_ttl_seconds: %d\n", v.Indexer.CacheTTL)
	out(w, "  plugins.readonly: %s accounts\n", strconv.Itoa(v.Plugins.Readonly))
	out(w, "  plugins.keyring: %t\n", v.Plugins.Keyring)
	out(w, "  plugins.multisig: %t\n", v.Plugins.Multisig)
	out(w, "  plugins.proxy: %t\n", v.Plugins.Proxy)
	out(w, "  output.default_format: %s\n", v.Output.DefaultFormat)
	out(w, "  logging.level: %s\n", v.Logging.Level)
}

// maskSecret keeps the first four characters of a secret.
func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not configured)"
	case len(s) < 4:
		return "***..."
	default:
		return s[:4] + "..."
	}
}
