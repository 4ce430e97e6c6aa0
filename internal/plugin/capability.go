package plugin

import (
	"context"

	"github.com/mrz1836/accounthub/internal/address"
)

// SignerHandle is a serialized reference to a signing account that another
// plugin can store and later resolve back into an Account.
type SignerHandle struct {
	ProviderID string            `json:"provider" yaml:"provider"`
	Address    address.Address   `json:"address" yaml:"address"`
	Info       map[string]string `json:"info,omitempty" yaml:"info,omitempty"`
}

// Serializer produces a SignerHandle for one of the plugin's accounts.
type Serializer interface {
	Serialize(account Account) SignerHandle
}

// MultisigInfo is the input of AddMultisig.
type MultisigInfo struct {
	Signatories  []address.Address
	Threshold    int
	ParentSigner SignerHandle
	Name         string
}

// MultisigAdder is implemented by plugins that manage multisig accounts.
type MultisigAdder interface {
	AddMultisig(ctx context.Context, info MultisigInfo) (Account, error)
}

// ProxyInfo is the input of AddProxy.
type ProxyInfo struct {
	Real         address.Address
	ParentSigner SignerHandle
	Name         string
}

// ProxyAdder is implemented by plugins that manage proxied accounts.
type ProxyAdder interface {
	AddProxy(ctx context.Context, info ProxyInfo) (Account, error)
}

// DelegateLookup returns the proxy relations whose Real is addr.
// A nil slice means no proxy data is available for addr.
type DelegateLookup interface {
	GetDelegates(ctx context.Context, addr address.Address) ([]ProxyRelation, error)
}

// MultisigLookup returns the multisig descriptor of addr, or nil.
type MultisigLookup interface {
	GetMultisig(ctx context.Context, addr address.Address) (*MultisigDescriptor, error)
}

// BalanceProvider returns the balance of addr, or nil.
type BalanceProvider interface {
	GetBalance(ctx context.Context, addr address.Address) (*Balance, error)
}

// IdentityProvider returns the on-chain identity of addr, or nil.
type IdentityProvider interface {
	GetIdentity(ctx context.Context, addr address.Address) (*Identity, error)
}

// Closer is implemented by plugins holding resources.
type Closer interface {
	Close() error
}

// As probes p for capability T. An absent capability means the feature is
// unsupported and is not an error.
func As[T any](p Plugin) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	c, ok := p.(T)
	return c, ok
}

// Capability names reported by Capabilities.
const (
	CapSerialize = "serialize"
	CapMultisig  = "add-multisig"
	CapProxy     = "add-proxy"
	CapDelegates = "delegates"
	CapLookup    = "multisig-lookup"
	CapBalance   = "balance"
	CapIdentity  = "identity"
)

// Capabilities enumerates the optional capabilities p implements.
func Capabilities(p Plugin) []string {
	var caps []string
	add := func(ok bool, name string) {
		if ok {
			caps = append(caps, name)
		}
	}
	_, ok := As[Serializer](p)
	add(ok, CapSerialize)
	_, ok = As[MultisigAdder](p)
	add(ok, CapMultisig)
	_, ok = As[ProxyAdder](p)
	add(ok, CapProxy)
	_, ok = As[DelegateLookup](p)
	add(ok, CapDelegates)
	_, ok = As[MultisigLookup](p)
	add(ok, CapLookup)
	_, ok = As[BalanceProvider](p)
	add(ok, CapBalance)
	_, ok = As[IdentityProvider](p)
	add(ok, CapIdentity)
	return caps
}

// DefaultSerialize is the identity serializer used when a plugin does not
// implement Serializer.
func DefaultSerialize(account Account) SignerHandle {
	return SignerHandle{
		ProviderID: account.ProviderID,
		Address:    account.Address,
	}
}

// Serialize serializes account with p's Serializer, or DefaultSerialize.
func Serialize(p Plugin, account Account) SignerHandle {
	if s, ok := As[Serializer](p); ok {
		return s.Serialize(account)
	}
	return DefaultSerialize(account)
}
