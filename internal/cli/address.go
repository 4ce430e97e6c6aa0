package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/accounthub/internal/address"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	reformatFormat int
	reformatHex    bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Compare and convert addresses",
	Long:  `Compare and convert SS58 and hex account addresses.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressEqualCmd = &cobra.Command{
	Use:   "equal <address> <address>",
	Short: "Check whether two addresses name the same account",
	Long: `Check whether two addresses name the same account. Addresses are
compared by their decoded public key, so the same account in different
SS58 formats or in hex is equal.`,
	Example: `  accounthub address equal 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY \
    0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d`,
	Args: cobra.ExactArgs(2),
	RunE: runAddressEqual,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressReformatCmd = &cobra.Command{
	Use:   "reformat <address>",
	Short: "Re-encode an address",
	Long: `Re-encode an address in another SS58 format, or as hex.

The default format is the configured ss58_format.`,
	Example: `  accounthub address reformat 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY --format 0
  accounthub address reformat 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY --hex`,
	Args: cobra.ExactArgs(1),
	RunE: runAddressReformat,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(addressCmd)
	addressCmd.GroupID = groupAddress
	addressCmd.AddCommand(addressEqualCmd)
	addressCmd.AddCommand(addressReformatCmd)

	addressReformatCmd.Flags().IntVar(&reformatFormat, "format", -1, "target SS58 format (default: configured)")
	addressReformatCmd.Flags().BoolVar(&reformatHex, "hex", false, "output the 0x hex public key")
}

// parseAddress validates a user-supplied address.
func parseAddress(raw string) (address.Address, error) {
	addr := address.Address(raw)
	if _, err := address.Decode(addr); err != nil {
		return "", err
	}
	return addr, nil
}

func runAddressEqual(cmd *cobra.Command, args []string) error {
	a, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	b, err := parseAddress(args[1])
	if err != nil {
		return err
	}

	equal := address.Equal(a, b)
	w := cmd.OutOrStdout()
	if isJSON(GetCmdContext(cmd).Fmt) {
		return writeJSON(w, map[string]bool{"equal": equal})
	}
	outln(w, strconv.FormatBool(equal))
	return nil
}

func runAddressReformat(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	var result address.Address
	switch {
	case reformatHex:
		result, err = address.ToHex(addr)
	default:
		format := address.Format(cc.Cfg.SS58Format)
		if reformatFormat >= 0 {
			if reformatFormat > int(address.MaxFormat) {
				return huberr.WithDetails(huberr.ErrInvalidFormat, map[string]string{
					"format": strconv.Itoa(reformatFormat),
					"max":    strconv.Itoa(int(address.MaxFormat)),
				})
			}
			format = address.Format(reformatFormat)
		}
		result, err = address.Reformat(addr, format)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if isJSON(cc.Fmt) {
		return writeJSON(w, map[string]string{"address": result.String()})
	}
	outln(w, result.String())
	return nil
}
