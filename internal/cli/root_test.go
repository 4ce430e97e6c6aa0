package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/output"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// errTestRandom is used for testing non-hub error handling.
var errTestRandom = huberr.New("TEST_ERROR", "some random error")

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{
			name: "all fields populated",
			info: BuildInfo{Version: "v1.2.3", Commit: "abc1234", Date: "2026-01-15"},
			want: "v1.2.3 (commit: abc1234, built: 2026-01-15)",
		},
		{
			name: "all fields empty",
			info: BuildInfo{},
			want: "dev (commit: unknown, built: unknown)",
		},
		{
			name: "only version empty",
			info: BuildInfo{Commit: "def5678", Date: "2026-02-20"},
			want: "dev (commit: def5678, built: 2026-02-20)",
		},
		{
			name: "commit and date empty",
			info: BuildInfo{Version: "v4.0.0"},
			want: "v4.0.0 (commit: unknown, built: unknown)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatVersion(tc.info))
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error returns success", nil, huberr.ExitSuccess},
		{"general error", huberr.ErrGeneral, huberr.ExitGeneral},
		{"invalid address", huberr.ErrInvalidAddress, huberr.ExitInput},
		{"plugin not found", huberr.ErrPluginNotFound, huberr.ExitNotFound},
		{"duplicate plugin", huberr.ErrDuplicatePlugin, huberr.ExitConfig},
		{"invalid config", huberr.ErrConfigInvalid, huberr.ExitConfig},
		{"non-hub error returns general", errTestRandom, huberr.ExitGeneral},
		{
			name: "wrapped hub error preserves exit code",
			err:  huberr.Wrap(huberr.ErrNoSigner, "adopting %s", "vault"),
			want: huberr.ExitInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

// saveGlobals saves all package-level globals and restores them on cleanup.
func saveGlobals(t *testing.T) {
	t.Helper()
	origCfg := cfg
	origLogger := logger
	origFormatter := formatter
	origCmdCtx := cmdCtx
	origHomeDir := homeDir
	origOutputFormat := outputFormat
	origVerbose := verbose
	t.Cleanup(func() {
		cfg = origCfg
		logger = origLogger
		formatter = origFormatter
		cmdCtx = origCmdCtx
		homeDir = origHomeDir
		outputFormat = origOutputFormat
		verbose = origVerbose
	})
}

// TestGlobalGetters tests Config(), Logger(), Formatter(), Context() getters.
// NOT parallel: mutates package-level globals.
func TestGlobalGetters(t *testing.T) {
	saveGlobals(t)

	testCfg := config.Defaults()
	testLogger := config.NullLogger()
	testFmt := output.NewFormatter(output.FormatText, nil)
	testCtx := &CommandContext{Cfg: testCfg}

	cfg = testCfg
	logger = testLogger
	formatter = testFmt
	cmdCtx = testCtx

	assert.Equal(t, testCfg, Config())
	assert.Equal(t, testLogger, Logger())
	assert.Equal(t, testFmt, Formatter())
	assert.Equal(t, testCtx, Context())
}

func TestCleanup(t *testing.T) {
	saveGlobals(t)

	t.Run("nil logger", func(t *testing.T) {
		logger = nil
		cmdCtx = nil
		assert.NotPanics(t, func() { cleanup() })
	})

	t.Run("closed logger", func(t *testing.T) {
		l, err := config.NewLogger(config.LogLevelDebug, filepath.Join(t.TempDir(), "test.log"))
		require.NoError(t, err)
		require.NoError(t, l.Close())
		logger = l
		assert.NotPanics(t, func() { cleanup() })
	})

	t.Run("closes opened hub", func(t *testing.T) {
		cc := newTestContext(t, testConfig(t), output.FormatText)
		_, err := cc.Hub()
		require.NoError(t, err)
		cmdCtx = cc
		logger = config.NullLogger()
		cleanup()
		assert.Nil(t, cc.hub)
	})
}

func TestFormatErr(t *testing.T) {
	saveGlobals(t)

	formatter = nil
	assert.NotPanics(t, func() { formatErr(huberr.ErrGeneral) })

	formatter = output.NewFormatter(output.FormatJSON, nil)
	assert.NotPanics(t, func() { formatErr(huberr.ErrInvalidInput) })
}

func TestInitGlobals(t *testing.T) {
	t.Run("defaults in empty home", func(t *testing.T) {
		saveGlobals(t)
		homeDir = t.TempDir()
		outputFormat = ""
		verbose = false

		require.NoError(t, initGlobals())
		require.NotNil(t, cfg)
		require.NotNil(t, logger)
		require.NotNil(t, formatter)
		require.NotNil(t, cmdCtx)
		assert.Equal(t, homeDir, cfg.Home)
		assert.Same(t, cfg, cmdCtx.Cfg)
	})

	t.Run("verbose flag", func(t *testing.T) {
		saveGlobals(t)
		homeDir = t.TempDir()
		verbose = true

		require.NoError(t, initGlobals())
		assert.True(t, cfg.Output.Verbose)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("output format flag", func(t *testing.T) {
		saveGlobals(t)
		homeDir = t.TempDir()
		outputFormat = "json"
		verbose = false

		require.NoError(t, initGlobals())
		assert.Equal(t, "json", cfg.Output.DefaultFormat)
		assert.Equal(t, output.FormatJSON, formatter.Format())
	})

	t.Run("existing config", func(t *testing.T) {
		saveGlobals(t)
		home := t.TempDir()
		saved := config.Defaults()
		saved.SS58Format = 0
		saved.Logging.Level = "off"
		require.NoError(t, config.Save(saved, config.Path(home)))

		homeDir = home
		outputFormat = ""
		verbose = false

		require.NoError(t, initGlobals())
		assert.Equal(t, uint16(0), cfg.SS58Format)
		assert.Equal(t, "off", cfg.Logging.Level)
	})

	t.Run("invalid config", func(t *testing.T) {
		saveGlobals(t)
		home := t.TempDir()
		require.NoError(t, os.WriteFile(config.Path(home), []byte("ss58_format: 99999\n"), 0o600))

		homeDir = home
		outputFormat = ""
		verbose = false

		err := initGlobals()
		require.ErrorIs(t, err, huberr.ErrConfigInvalid)
		assert.True(t, huberr.IsConfiguration(err))
	})

	t.Run("env home", func(t *testing.T) {
		saveGlobals(t)
		home := t.TempDir()
		homeDir = ""
		outputFormat = ""
		verbose = false
		t.Setenv(config.EnvHome, home)

		require.NoError(t, initGlobals())
		assert.Equal(t, home, cfg.Home)
	})
}

func TestExecute_Version(t *testing.T) {
	saveGlobals(t)
	t.Setenv(config.EnvHome, t.TempDir())

	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := Execute(BuildInfo{Version: "v1.0.0-test", Commit: "abc", Date: "2026-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0-test (commit: abc, built: 2026-01-01)", rootCmd.Version)
}
