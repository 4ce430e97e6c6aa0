package cli

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/output"
	"github.com/mrz1836/accounthub/internal/plugin"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	accountsBestNames bool
	accountsProvider  string
	accountsSigners   bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Inspect the account directory",
	Long:  `Inspect the accounts published by every registered plugin.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Long: `List every account in the directory, grouped by plugin.

With --best-names each address appears once, under the longest name any
plugin gives it.`,
	Example: `  accounthub accounts list
  accounthub accounts list --best-names
  accounthub accounts list --provider keyring --signers`,
	Args: cobra.NoArgs,
	RunE: runAccountsList,
}

type accountJSON struct {
	Address  string `json:"address"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
	CanSign  bool   `json:"can_sign"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.GroupID = groupAccounts
	accountsCmd.AddCommand(accountsListCmd)

	accountsListCmd.Flags().BoolVar(&accountsBestNames, "best-names", false, "show each address once with its best name")
	accountsListCmd.Flags().StringVar(&accountsProvider, "provider", "", "only show accounts of this plugin")
	accountsListCmd.Flags().BoolVar(&accountsSigners, "signers", false, "only show accounts that can sign")
}

func runAccountsList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	h, err := openHub(cmd, cc)
	if err != nil {
		return err
	}

	var accounts []plugin.Account
	if accountsBestNames {
		accounts = h.BestNames()
	} else {
		accounts = h.Directory().Snapshot().All()
	}
	if accountsProvider != "" {
		if _, err = h.Registry().Get(accountsProvider); err != nil {
			return err
		}
		accounts = lo.Filter(accounts, func(a plugin.Account, _ int) bool {
			return a.ProviderID == accountsProvider
		})
	}
	if accountsSigners {
		accounts = lo.Filter(accounts, func(a plugin.Account, _ int) bool { return a.CanSign() })
	}

	rows := lo.Map(accounts, func(a plugin.Account, _ int) accountJSON {
		return toAccountJSON(a, h.Format())
	})

	w := cmd.OutOrStdout()
	if isJSON(cc.Fmt) {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		outln(w, "No accounts.")
		return nil
	}

	tbl := output.NewTable("NAME", "ADDRESS", "PROVIDER", "SIGNER")
	for _, r := range rows {
		signer := cc.Fmt.Dim("-")
		if r.CanSign {
			signer = "yes"
		}
		tbl.AddRow(r.Name, r.Address, r.Provider, signer)
	}
	return tbl.Render(w)
}

// displayAddress renders addr in format, or unchanged if it cannot be decoded.
func displayAddress(addr address.Address, format address.Format) string {
	if re, err := address.Reformat(addr, format); err == nil {
		return re.String()
	}
	return addr.String()
}
