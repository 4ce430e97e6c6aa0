// Package chaindata provides the on-chain data behind the lookup
// capabilities: multisig descriptors, proxy relations, balances and
// identities. Not found is always a nil result, never an error.
package chaindata

import (
	"context"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/plugin"
)

// Source answers chain state queries for an address.
type Source interface {
	GetMultisig(ctx context.Context, addr address.Address) (*plugin.MultisigDescriptor, error)
	GetDelegates(ctx context.Context, addr address.Address) ([]plugin.ProxyRelation, error)
	GetBalance(ctx context.Context, addr address.Address) (*plugin.Balance, error)
	GetIdentity(ctx context.Context, addr address.Address) (*plugin.Identity, error)
}

// Compile-time interface checks
var (
	_ Source = (*Static)(nil)
	_ Source = (*HTTPClient)(nil)
)
