package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/accounthub/internal/output"
	"github.com/mrz1836/accounthub/internal/plugin"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Inspect registered account sources",
	Long:  `Inspect the account source plugins registered from the configuration.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered plugins",
	Long: `List registered plugins in registration order, with their account
count and optional capabilities.`,
	Example: `  accounthub plugins list
  accounthub plugins list -o json`,
	Args: cobra.NoArgs,
	RunE: runPluginsList,
}

type pluginJSON struct {
	ID           string   `json:"id"`
	Accounts     int      `json:"accounts"`
	Capabilities []string `json:"capabilities"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(pluginsCmd)
	pluginsCmd.GroupID = groupAccounts
	pluginsCmd.AddCommand(pluginsListCmd)
}

func runPluginsList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	h, err := openHub(cmd, cc)
	if err != nil {
		return err
	}

	snap := h.Directory().Snapshot()
	rows := make([]pluginJSON, 0, snap.Len())
	for _, p := range h.Registry().List() {
		accounts, _ := snap.Accounts(p.ID())
		caps := plugin.Capabilities(p)
		if caps == nil {
			caps = []string{}
		}
		rows = append(rows, pluginJSON{ID: p.ID(), Accounts: len(accounts), Capabilities: caps})
	}

	w := cmd.OutOrStdout()
	if isJSON(cc.Fmt) {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		outln(w, "No plugins registered.")
		return nil
	}

	tbl := output.NewTable("ID", "ACCOUNTS", "CAPABILITIES")
	tbl.SetAlign(1, output.AlignRight)
	for _, r := range rows {
		tbl.AddRow(cc.Fmt.Bold(r.ID), strconv.Itoa(r.Accounts), strings.Join(r.Capabilities, ", "))
	}
	return tbl.Render(w)
}
