package selection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/accounthub/internal/directory"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/registry"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

const aliceSS58 = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"

type fakePlugin struct {
	*plugin.Base
}

func newFake(id string, accounts ...plugin.Account) *fakePlugin {
	p := &fakePlugin{Base: plugin.NewBase(id)}
	p.Publish(accounts)
	return p
}

type fixture struct {
	reg *registry.Registry
	dir *directory.Directory
	sel *State
}

func newFixture(t *testing.T, plugins ...plugin.Plugin) *fixture {
	t.Helper()
	reg := registry.New(nil)
	for _, p := range plugins {
		require.NoError(t, reg.Register(p))
	}
	dir := directory.New(reg, nil)
	sel := New(dir, nil)
	t.Cleanup(func() {
		sel.Close()
		dir.Close()
		reg.Close()
	})
	return &fixture{reg: reg, dir: dir, sel: sel}
}

func TestSelect_StartsEmpty(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, ok := f.sel.Selected()
	assert.False(t, ok)
	assert.Nil(t, f.sel.Cell().Get())
}

func TestSelect_OverwritesAndClears(t *testing.T) {
	t.Parallel()
	p := newFake("readonly", plugin.Account{Address: aliceSS58, Name: "Alice"}, plugin.Account{Address: "0x01", Name: "Other"})
	f := newFixture(t, p)

	accounts := p.Snapshot()
	require.NoError(t, f.sel.Select(accounts[0]))
	got, ok := f.sel.Selected()
	require.True(t, ok)
	assert.Equal(t, "Alice", got.Name)

	require.NoError(t, f.sel.Select(accounts[1]))
	got, _ = f.sel.Selected()
	assert.Equal(t, "Other", got.Name)

	f.sel.Clear()
	_, ok = f.sel.Selected()
	assert.False(t, ok)
}

func TestSelect_UnknownProvider(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.sel.Select(plugin.Account{Address: aliceSS58, ProviderID: "ghost"})
	require.ErrorIs(t, err, huberr.ErrPluginNotFound)
	_, ok := f.sel.Selected()
	assert.False(t, ok)
}

func TestSelection_ClearedWhenProviderRemoved(t *testing.T) {
	t.Parallel()
	p := newFake("ledger", plugin.Account{Address: aliceSS58, Name: "Alice"})
	f := newFixture(t, p, newFake("readonly"))

	require.NoError(t, f.sel.Select(p.Snapshot()[0]))
	require.True(t, f.reg.Unregister("ledger"))

	require.Eventually(t, func() bool {
		_, ok := f.sel.Selected()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestSelect_RightAfterRegister(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var last plugin.Account
	for i := 0; i < 50; i++ {
		p := newFake(fmt.Sprintf("p%d", i), plugin.Account{Address: aliceSS58, Name: "Alice"})
		require.NoError(t, f.reg.Register(p))
		last = p.Snapshot()[0]
		require.NoError(t, f.sel.Select(last), "iteration %d", i)
	}

	// Snapshots from before the last registration may still be in flight.
	time.Sleep(20 * time.Millisecond)
	got, ok := f.sel.Selected()
	require.True(t, ok)
	assert.Equal(t, last.ProviderID, got.ProviderID)
}

func TestSelection_StaleSnapshotKeepsSelection(t *testing.T) {
	t.Parallel()
	p := newFake("ledger", plugin.Account{Address: aliceSS58, Name: "Alice"})
	f := newFixture(t, p)
	require.NoError(t, f.sel.Select(p.Snapshot()[0]))

	// A snapshot published before the provider registered arrives late.
	f.sel.onSnapshot(directory.NewSnapshot(nil, nil))

	got, ok := f.sel.Selected()
	require.True(t, ok)
	assert.Equal(t, "ledger", got.ProviderID)
}

func TestSelection_KeptWhenOtherProviderRemoved(t *testing.T) {
	t.Parallel()
	p := newFake("ledger", plugin.Account{Address: aliceSS58, Name: "Alice"})
	f := newFixture(t, p, newFake("readonly"))

	require.NoError(t, f.sel.Select(p.Snapshot()[0]))
	require.True(t, f.reg.Unregister("readonly"))

	require.Eventually(t, func() bool {
		return !f.dir.Snapshot().Has("readonly")
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	got, ok := f.sel.Selected()
	require.True(t, ok)
	assert.Equal(t, "ledger", got.ProviderID)
}
