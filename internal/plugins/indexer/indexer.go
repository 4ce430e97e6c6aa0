// Package indexer exposes a chain data source as a plugin. It has no
// accounts of its own; it only contributes lookup capabilities.
package indexer

import (
	"context"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/chaindata"
	"github.com/mrz1836/accounthub/internal/plugin"
)

// ID is the registry id of the indexer plugin.
const ID = "indexer"

// Plugin answers multisig, proxy, balance and identity lookups.
type Plugin struct {
	*plugin.Base

	source chaindata.Source
}

// Compile-time interface checks
var (
	_ plugin.MultisigLookup   = (*Plugin)(nil)
	_ plugin.DelegateLookup   = (*Plugin)(nil)
	_ plugin.BalanceProvider  = (*Plugin)(nil)
	_ plugin.IdentityProvider = (*Plugin)(nil)
)

// New wraps source as a plugin registered under id. An empty id uses ID.
func New(id string, source chaindata.Source) *Plugin {
	if id == "" {
		id = ID
	}
	return &Plugin{Base: plugin.NewBase(id), source: source}
}

// GetMultisig returns the multisig descriptor of addr, or nil.
func (p *Plugin) GetMultisig(ctx context.Context, addr address.Address) (*plugin.MultisigDescriptor, error) {
	return p.source.GetMultisig(ctx, addr)
}

// GetDelegates returns the proxy relations of addr, or nil.
func (p *Plugin) GetDelegates(ctx context.Context, addr address.Address) ([]plugin.ProxyRelation, error) {
	return p.source.GetDelegates(ctx, addr)
}

// GetBalance returns the balance of addr, or nil.
func (p *Plugin) GetBalance(ctx context.Context, addr address.Address) (*plugin.Balance, error) {
	return p.source.GetBalance(ctx, addr)
}

// GetIdentity returns the identity of addr, or nil.
func (p *Plugin) GetIdentity(ctx context.Context, addr address.Address) (*plugin.Identity, error) {
	return p.source.GetIdentity(ctx, addr)
}
