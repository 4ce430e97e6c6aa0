package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/accounthub/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show the balance of an address",
	Long: `Show the balance of an address, as reported by the first registered
plugin that provides balances.`,
	Example: `  accounthub balance 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY`,
	Args:    cobra.ExactArgs(1),
	RunE:    runBalance,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var identityCmd = &cobra.Command{
	Use:   "identity <address>",
	Short: "Show the on-chain identity of an address",
	Long: `Show the on-chain identity of an address, as reported by the first
registered plugin that provides identities.`,
	Example: `  accounthub identity 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY`,
	Args:    cobra.ExactArgs(1),
	RunE:    runIdentity,
}

type balanceJSON struct {
	Address   string `json:"address"`
	Found     bool   `json:"found"`
	Value     string `json:"value,omitempty"`
	Decimals  int    `json:"decimals,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Formatted string `json:"formatted,omitempty"`
}

type identityJSON struct {
	Address  string `json:"address"`
	Found    bool   `json:"found"`
	Name     string `json:"name,omitempty"`
	SubID    string `json:"sub_id,omitempty"`
	Verified bool   `json:"verified"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(identityCmd)
	balanceCmd.GroupID = groupAddress
	identityCmd.GroupID = groupAddress
}

func runBalance(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	h, err := openHub(cmd, cc)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.DiscoveryTimeout())
	defer cancel()
	tracker := h.Balances()
	tracker.Watch(addr)
	state, err := tracker.Wait(ctx)
	if err != nil {
		return err
	}
	if state.Err != nil {
		return state.Err
	}

	res := balanceJSON{Address: displayAddress(addr, h.Format())}
	if b := state.Value; b != nil {
		res.Found = true
		if b.Value != nil {
			res.Value = b.Value.String()
		}
		res.Decimals = b.Decimals
		res.Symbol = b.Symbol
		res.Formatted = b.String()
	}

	w := cmd.OutOrStdout()
	if isJSON(cc.Fmt) {
		return writeJSON(w, res)
	}
	if !res.Found {
		output.Warnf(cmd.ErrOrStderr(), "no balance data for %s", res.Address)
		return nil
	}
	outln(w, res.Formatted)
	return nil
}

func runIdentity(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	h, err := openHub(cmd, cc)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.DiscoveryTimeout())
	defer cancel()
	tracker := h.Identities()
	tracker.Watch(addr)
	state, err := tracker.Wait(ctx)
	if err != nil {
		return err
	}
	if state.Err != nil {
		return state.Err
	}

	res := identityJSON{Address: displayAddress(addr, h.Format())}
	if id := state.Value; id != nil {
		res.Found = true
		res.Name = id.Name
		res.SubID = id.SubID
		res.Verified = id.Verified
	}

	w := cmd.OutOrStdout()
	if isJSON(cc.Fmt) {
		return writeJSON(w, res)
	}
	if !res.Found {
		output.Warnf(cmd.ErrOrStderr(), "no identity registered for %s", res.Address)
		return nil
	}
	line := state.Value.DisplayName()
	if res.Verified {
		line += " " + cc.Fmt.Dim("(verified)")
	}
	outln(w, line)
	return nil
}
