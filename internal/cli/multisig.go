package cli

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/discovery"
	"github.com/mrz1836/accounthub/internal/hub"
	"github.com/mrz1836/accounthub/internal/output"
	"github.com/mrz1836/accounthub/internal/plugin"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	discoverSigner string
	discoverName   string
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var multisigCmd = &cobra.Command{
	Use:   "multisig",
	Short: "Discover multisig accounts",
	Long:  `Discover multisig accounts you can sign for.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var multisigDiscoverCmd = &cobra.Command{
	Use:   "discover <address>",
	Short: "Find the multisig behind an address",
	Long: `Find the multisig behind an address. The address may be the multisig
itself, or an account that delegates to a multisig through a proxy. Both
are looked up at once and the first match wins.

The local accounts able to sign for the multisig are listed. With --signer
the multisig (and the proxy, if any) is added to the directory for this run.`,
	Example: `  accounthub multisig discover 5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty
  accounthub multisig discover 5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty \
    --signer 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY --name Treasury`,
	Args: cobra.ExactArgs(1),
	RunE: runMultisigDiscover,
}

type candidateJSON struct {
	Address     string   `json:"address"`
	ProxyHop    string   `json:"proxy_hop,omitempty"`
	Threshold   int      `json:"threshold"`
	Signatories []string `json:"signatories"`
}

type discoverJSON struct {
	Seed      string         `json:"seed"`
	Outcome   string         `json:"outcome"`
	Candidate *candidateJSON `json:"candidate,omitempty"`
	Signers   []accountJSON  `json:"signers"`
	Added     *accountJSON   `json:"added,omitempty"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(multisigCmd)
	multisigCmd.GroupID = groupAccounts
	multisigCmd.AddCommand(multisigDiscoverCmd)

	multisigDiscoverCmd.Flags().StringVar(&discoverSigner, "signer", "", "add the multisig, signing with this local account")
	multisigDiscoverCmd.Flags().StringVar(&discoverName, "name", "", "name of the added account")
}

func runMultisigDiscover(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	seed, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	var signerAddr address.Address
	if discoverSigner != "" {
		if signerAddr, err = parseAddress(discoverSigner); err != nil {
			return err
		}
	}

	h, err := openHub(cmd, cc)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.DiscoveryTimeout())
	defer cancel()
	tracker := h.Candidates()
	tracker.Watch(seed)
	state, err := tracker.Wait(ctx)
	if err != nil {
		return err
	}
	if state.Err != nil {
		return state.Err
	}

	result := discovery.Classify(state.Value, h.Directory().Snapshot())
	res := describeDiscovery(h, seed, result)

	if signerAddr != "" {
		added, adoptErr := adoptCandidate(ctx, h, result, signerAddr)
		if adoptErr != nil {
			return adoptErr
		}
		row := toAccountJSON(added, h.Format())
		res.Added = &row
	}

	if isJSON(cc.Fmt) {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	printDiscovery(cmd, cc.Fmt, res)
	return nil
}

func adoptCandidate(ctx context.Context, h *hub.Hub, result discovery.Result, signerAddr address.Address) (plugin.Account, error) {
	if result.Outcome == discovery.OutcomeNotFound {
		return plugin.Account{}, huberr.WithDetails(huberr.ErrNotFound, map[string]string{
			"reason": "no multisig found",
		})
	}
	signer, ok := lo.Find(result.Signers, func(a plugin.Account) bool {
		return address.Equal(a.Address, signerAddr)
	})
	if !ok {
		return plugin.Account{}, huberr.WithSuggestion(
			huberr.WithDetails(huberr.ErrNoSigner, map[string]string{"signer": signerAddr.String()}),
			"choose one of the eligible signers listed without --signer",
		)
	}
	return h.Adopt(ctx, *result.Candidate, signer, discoverName)
}

func describeDiscovery(h *hub.Hub, seed address.Address, r discovery.Result) discoverJSON {
	res := discoverJSON{
		Seed:    displayAddress(seed, h.Format()),
		Outcome: r.Outcome.String(),
		Signers: lo.Map(r.Signers, func(a plugin.Account, _ int) accountJSON {
			return toAccountJSON(a, h.Format())
		}),
	}
	if c := r.Candidate; c != nil {
		res.Candidate = &candidateJSON{
			Address:   displayAddress(c.Address, h.Format()),
			Threshold: c.Descriptor.Threshold,
			Signatories: lo.Map(c.Descriptor.Signatories, func(s address.Address, _ int) string {
				return displayAddress(s, h.Format())
			}),
		}
		if c.IsProxied() {
			res.Candidate.ProxyHop = displayAddress(c.ProxyHop, h.Format())
		}
	}
	return res
}

func printDiscovery(cmd *cobra.Command, f *output.Formatter, res discoverJSON) {
	w := cmd.OutOrStdout()
	if res.Candidate == nil {
		output.Warnf(cmd.ErrOrStderr(), "no multisig found for %s", res.Seed)
		return
	}

	c := res.Candidate
	out(w, "%s %s (%d of %d)\n", f.Bold("Multisig:"), c.Address, c.Threshold, len(c.Signatories))
	if c.ProxyHop != "" {
		out(w, "%s %s\n", f.Bold("Via proxy:"), c.ProxyHop)
	}
	outln(w, f.Bold("Signatories:"))
	for _, s := range c.Signatories {
		outln(w, "  "+s)
	}

	if len(res.Signers) == 0 {
		output.Warnf(cmd.ErrOrStderr(), "none of the signatories is a local account that can sign")
	} else {
		outln(w, f.Bold("Eligible signers:"))
		tbl := output.NewTable()
		for _, s := range res.Signers {
			tbl.AddRow("  "+s.Name, s.Address, s.Provider)
		}
		_ = tbl.Render(w)
	}

	if a := res.Added; a != nil {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = a.Address
		}
		out(w, "Added %s to %s\n", name, a.Provider)
	}
}

func toAccountJSON(a plugin.Account, format address.Format) accountJSON {
	return accountJSON{
		Address:  displayAddress(a.Address, format),
		Name:     a.Name,
		Provider: a.ProviderID,
		CanSign:  a.CanSign(),
	}
}
