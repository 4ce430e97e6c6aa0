package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/hub"
	"github.com/mrz1836/accounthub/internal/output"
	"github.com/mrz1836/accounthub/internal/plugin"
)

const (
	aliceSS58   = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	aliceHex    = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	bobHex      = "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"
	charlieHex  = "0x90b5ab205c6974c9ea841be688864633dc9ca8a357843eeacf2314649965fe22"
	charlieSS58 = "5FLSigC9HGRKVhB9FiEo4Y3koPsNmBmLJbpXg2mp1hXcS59Y"
	// 2-of-2 multisig of Alice and Bob.
	aliceBobHex = "0x83b70134afe83e035d51b9b6543bae58fc4ad7495df986b619e71b2581bf6ec5"
)

type stubSigner struct{}

func (stubSigner) PublicKey() []byte { return []byte{1} }

func (stubSigner) Sign(_ context.Context, payload []byte) ([]byte, error) {
	return append([]byte{1}, payload...), nil
}

type fakePlugin struct {
	*plugin.Base
}

func newFake(id string, accounts ...plugin.Account) *fakePlugin {
	p := &fakePlugin{Base: plugin.NewBase(id)}
	p.Publish(accounts)
	return p
}

// testConfig returns a config whose static chain data knows a multisig of
// Alice and Bob, proxied by Charlie.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := config.Defaults()
	c.Home = t.TempDir()
	c.Plugins.Readonly.Accounts = []config.AccountEntry{{Address: charlieHex, Name: "Charlie"}}
	c.ChainData = config.ChainDataConfig{
		Multisigs: []config.MultisigEntry{
			{Address: aliceBobHex, Signatories: []string{aliceSS58, bobHex}, Threshold: 2},
		},
		Proxies: []config.ProxyEntry{{Real: charlieHex, Delegate: aliceBobHex}},
		Identities: map[string]config.IdentityEntry{
			aliceHex: {Name: "Alice", SubID: "ops", Verified: true},
		},
		Balances: map[string]config.BalanceEntry{
			aliceSS58: {Value: "12.5", Decimals: 10, Symbol: "UNIT"},
		},
	}
	return c
}

// newTestContext builds a CommandContext with a "ledger" plugin holding a
// signing Alice account.
func newTestContext(t *testing.T, c *config.Config, format output.Format) *CommandContext {
	t.Helper()
	cc := NewCommandContext(c, config.NullLogger(), output.NewFormatter(format, nil))
	cc.HubOptions = hub.Options{Plugins: []plugin.Plugin{
		newFake("ledger", plugin.Account{Address: aliceSS58, Name: "Alice", ProviderID: "ledger", Signer: stubSigner{}}),
	}}
	t.Cleanup(cc.Close)
	return cc
}

// newTestCommand returns a command bound to cc with captured output.
func newTestCommand(cc *CommandContext) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetContext(context.Background())
	SetCmdContext(cmd, cc)
	return cmd, &stdout, &stderr
}
