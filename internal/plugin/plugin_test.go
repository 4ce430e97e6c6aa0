package plugin

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/accounthub/internal/address"
)

type bareSource struct {
	*Base
}

type richSource struct {
	*Base
}

func (r *richSource) Serialize(a Account) SignerHandle {
	return SignerHandle{ProviderID: r.ID(), Address: a.Address, Info: map[string]string{"path": "//0"}}
}

func (r *richSource) GetDelegates(context.Context, address.Address) ([]ProxyRelation, error) {
	return nil, nil
}

func (r *richSource) GetBalance(context.Context, address.Address) (*Balance, error) {
	return nil, nil
}

func TestAs(t *testing.T) {
	t.Parallel()

	bare := &bareSource{Base: NewBase("bare")}
	_, ok := As[DelegateLookup](bare)
	assert.False(t, ok)

	rich := &richSource{Base: NewBase("rich")}
	lookup, ok := As[DelegateLookup](rich)
	require.True(t, ok)
	rels, err := lookup.GetDelegates(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, rels)

	_, ok = As[DelegateLookup](nil)
	assert.False(t, ok)
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Capabilities(&bareSource{Base: NewBase("bare")}))
	assert.Equal(t,
		[]string{CapSerialize, CapDelegates, CapBalance},
		Capabilities(&richSource{Base: NewBase("rich")}),
	)
}

func TestSerialize(t *testing.T) {
	t.Parallel()

	account := Account{Address: "5Abc", ProviderID: "bare"}

	handle := Serialize(&bareSource{Base: NewBase("bare")}, account)
	assert.Equal(t, SignerHandle{ProviderID: "bare", Address: "5Abc"}, handle)

	handle = Serialize(&richSource{Base: NewBase("rich")}, account)
	assert.Equal(t, "rich", handle.ProviderID)
	assert.Equal(t, "//0", handle.Info["path"])
}

func TestBase_Publish(t *testing.T) {
	t.Parallel()

	b := NewBase("readonly")
	assert.Empty(t, b.Accounts().Get())
	assert.NotNil(t, b.Accounts().Get(), "empty list, not nil")

	in := []Account{{Address: "5A", Name: "alice", ProviderID: "spoofed"}}
	b.Publish(in)

	got := b.Snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "readonly", got[0].ProviderID)
	assert.Equal(t, "spoofed", in[0].ProviderID, "input must not be mutated")
	assert.False(t, got[0].CanSign())
}

func TestBalance_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bal  Balance
		want string
	}{
		{"with symbol", Balance{Value: big.NewInt(15_000_000_000), Decimals: 10, Symbol: "DOT"}, "1.5 DOT"},
		{"without symbol", Balance{Value: big.NewInt(12345), Decimals: 2}, "123.45"},
		{"nil value", Balance{Symbol: "KSM"}, "0 KSM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.bal.String())
		})
	}
}

func TestIdentity_DisplayName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "alice", Identity{Name: "alice"}.DisplayName())
	assert.Equal(t, "alice/ops", Identity{Name: "alice", SubID: "ops"}.DisplayName())
}
