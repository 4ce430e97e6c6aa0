// Package plugin defines the account source contract shared by every
// provider plugin: a stable id, a reactive account list, and a set of
// optional capabilities that consumers probe for at call time.
package plugin

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/stream"
)

// Account is a single address made available by a plugin.
// Accounts are immutable: a change is published as a new value.
type Account struct {
	Address    address.Address
	Name       string
	ProviderID string
	Signer     Signer
}

// CanSign reports whether the account exposes a signing capability.
func (a Account) CanSign() bool {
	return a.Signer != nil
}

// Signer signs payloads on behalf of an account.
type Signer interface {
	// PublicKey returns the raw public key bytes of the signing account.
	PublicKey() []byte

	// Sign signs the payload and returns the signature.
	Sign(ctx context.Context, payload []byte) ([]byte, error)
}

// Plugin is an independently registered account source.
type Plugin interface {
	// ID returns the unique, stable plugin id.
	ID() string

	// Accounts returns the cell holding the plugin's current account list.
	// An empty list, never nil cell, means no accounts.
	Accounts() *stream.Cell[[]Account]
}

// MultisigDescriptor describes an on-chain multisig membership requirement.
type MultisigDescriptor struct {
	Signatories []address.Address
	Threshold   int
}

// ProxyRelation grants Delegate the right to act on behalf of Real.
type ProxyRelation struct {
	Real     address.Address
	Delegate address.Address
}

// Balance is a raw on-chain balance with its denomination.
type Balance struct {
	Value    *big.Int
	Decimals int
	Symbol   string
}

// Decimal returns the balance in whole units.
func (b Balance) Decimal() decimal.Decimal {
	if b.Value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(b.Value, int32(-b.Decimals)) //nolint:gosec // decimals are small
}

// String formats the balance as "<amount> <symbol>".
func (b Balance) String() string {
	s := b.Decimal().String()
	if b.Symbol != "" {
		s += " " + b.Symbol
	}
	return s
}

// Identity is the on-chain identity registered for an address.
type Identity struct {
	Name     string
	SubID    string
	Verified bool
}

// DisplayName returns the identity name, including the sub-identity if any.
func (i Identity) DisplayName() string {
	if i.SubID == "" {
		return i.Name
	}
	return i.Name + "/" + i.SubID
}
