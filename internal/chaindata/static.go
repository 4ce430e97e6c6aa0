package chaindata

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/plugin"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// Static serves chain data loaded from configuration. It is read-only
// after construction and safe for concurrent use.
type Static struct {
	multisigs  map[string]plugin.MultisigDescriptor
	proxies    []plugin.ProxyRelation
	identities map[string]plugin.Identity
	balances   map[string]plugin.Balance
}

// NewStatic builds a static source from the chain_data config section.
// Every address is checked with the address codec.
func NewStatic(cfg config.ChainDataConfig) (*Static, error) {
	s := &Static{
		multisigs:  make(map[string]plugin.MultisigDescriptor, len(cfg.Multisigs)),
		identities: make(map[string]plugin.Identity, len(cfg.Identities)),
		balances:   make(map[string]plugin.Balance, len(cfg.Balances)),
	}

	for i, m := range cfg.Multisigs {
		field := fmt.Sprintf("chain_data.multisigs[%d]", i)
		key, err := keyOf(field, m.Address)
		if err != nil {
			return nil, err
		}
		signatories := make([]address.Address, len(m.Signatories))
		for j, sig := range m.Signatories {
			if _, err := keyOf(fmt.Sprintf("%s.signatories[%d]", field, j), sig); err != nil {
				return nil, err
			}
			signatories[j] = address.Address(sig)
		}
		s.multisigs[key] = plugin.MultisigDescriptor{Signatories: signatories, Threshold: m.Threshold}
	}

	for i, p := range cfg.Proxies {
		field := fmt.Sprintf("chain_data.proxies[%d]", i)
		if _, err := keyOf(field+".real", p.Real); err != nil {
			return nil, err
		}
		if _, err := keyOf(field+".delegate", p.Delegate); err != nil {
			return nil, err
		}
		s.proxies = append(s.proxies, plugin.ProxyRelation{
			Real:     address.Address(p.Real),
			Delegate: address.Address(p.Delegate),
		})
	}

	for addr, id := range cfg.Identities {
		key, err := keyOf("chain_data.identities", addr)
		if err != nil {
			return nil, err
		}
		s.identities[key] = plugin.Identity{Name: id.Name, SubID: id.SubID, Verified: id.Verified}
	}

	for addr, b := range cfg.Balances {
		key, err := keyOf("chain_data.balances", addr)
		if err != nil {
			return nil, err
		}
		value, err := baseUnits(b.Value, b.Decimals)
		if err != nil {
			return nil, huberr.WithDetails(huberr.ErrConfigInvalid, map[string]string{
				"field":  "chain_data.balances." + addr,
				"reason": err.Error(),
			})
		}
		s.balances[key] = plugin.Balance{Value: value, Decimals: b.Decimals, Symbol: b.Symbol}
	}

	return s, nil
}

// GetMultisig returns the configured multisig at addr, or nil.
func (s *Static) GetMultisig(_ context.Context, addr address.Address) (*plugin.MultisigDescriptor, error) {
	d, ok := s.multisigs[address.Key(addr)]
	if !ok {
		return nil, nil
	}
	d.Signatories = append([]address.Address(nil), d.Signatories...)
	return &d, nil
}

// GetDelegates returns the relations whose real account is addr. Nil
// means no proxy is configured for addr. Static data only lists
// relations, so it never reports proxy data with an empty relation list;
// callers treat both the same.
func (s *Static) GetDelegates(_ context.Context, addr address.Address) ([]plugin.ProxyRelation, error) {
	var out []plugin.ProxyRelation
	for _, rel := range s.proxies {
		if address.Equal(rel.Real, addr) {
			out = append(out, rel)
		}
	}
	return out, nil
}

// GetBalance returns the configured balance of addr, or nil.
func (s *Static) GetBalance(_ context.Context, addr address.Address) (*plugin.Balance, error) {
	b, ok := s.balances[address.Key(addr)]
	if !ok {
		return nil, nil
	}
	b.Value = new(big.Int).Set(b.Value)
	return &b, nil
}

// GetIdentity returns the configured identity of addr, or nil.
func (s *Static) GetIdentity(_ context.Context, addr address.Address) (*plugin.Identity, error) {
	id, ok := s.identities[address.Key(addr)]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func keyOf(field, raw string) (string, error) {
	addr := address.Address(strings.TrimSpace(raw))
	if !address.IsValid(addr) {
		return "", huberr.WithDetails(huberr.ErrConfigInvalid, map[string]string{
			"field":   field,
			"address": raw,
		})
	}
	return address.Key(addr), nil
}

// baseUnits converts a whole-unit amount into base units.
func baseUnits(value string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", value)
	}
	shifted := d.Shift(int32(decimals)) //nolint:gosec // decimals are small
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%s has more than %d decimal places", value, decimals)
	}
	return shifted.BigInt(), nil
}
