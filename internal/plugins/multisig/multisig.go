// Package multisig provides the plugin managing multisig accounts that
// sign through one of the user's own signatory accounts.
package multisig

import (
	"context"
	"strconv"
	"sync"

	"github.com/samber/lo"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/directory"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/plugins/derived"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// ID is the registry id of the multisig plugin.
const ID = "multisig"

// Plugin manages multisig accounts.
type Plugin struct {
	*plugin.Base

	store  *derived.Store
	format address.Format
	log    config.LogWriter

	mu          sync.RWMutex
	descriptors map[string]plugin.MultisigDescriptor
}

// Compile-time interface checks
var (
	_ plugin.MultisigAdder  = (*Plugin)(nil)
	_ plugin.MultisigLookup = (*Plugin)(nil)
	_ plugin.Serializer     = (*Plugin)(nil)
)

// New creates the multisig plugin. Derived addresses are encoded with format.
func New(view directory.View, format address.Format, log config.LogWriter) *Plugin {
	base := plugin.NewBase(ID)
	return &Plugin{
		Base:        base,
		store:       derived.NewStore(base, view),
		format:      format,
		log:         config.Named(log, "multisig"),
		descriptors: make(map[string]plugin.MultisigDescriptor),
	}
}

// AddMultisig derives the multisig address from its signatories and
// threshold and adds it as an account signing through info.ParentSigner,
// which must be one of the signatories.
func (p *Plugin) AddMultisig(ctx context.Context, info plugin.MultisigInfo) (plugin.Account, error) {
	if err := ctx.Err(); err != nil {
		return plugin.Account{}, err
	}
	if info.Threshold < 1 || info.Threshold > len(info.Signatories) {
		return plugin.Account{}, huberr.WithDetails(huberr.ErrInvalidThreshold, map[string]string{
			"threshold":   strconv.Itoa(info.Threshold),
			"signatories": strconv.Itoa(len(info.Signatories)),
		})
	}

	parent, err := p.store.ResolveParent(info.ParentSigner)
	if err != nil {
		return plugin.Account{}, err
	}
	if !lo.ContainsBy(info.Signatories, func(s address.Address) bool {
		return address.Equal(s, parent.Address)
	}) {
		return plugin.Account{}, huberr.WithDetails(huberr.ErrInvalidInput, map[string]string{
			"reason":  "parent signer is not a signatory",
			"address": parent.Address.String(),
		})
	}

	addr, err := address.MultisigAddress(info.Signatories, uint16(info.Threshold), p.format) //nolint:gosec // threshold <= len(signatories)
	if err != nil {
		return plugin.Account{}, err
	}

	p.mu.Lock()
	p.descriptors[address.Key(addr)] = plugin.MultisigDescriptor{
		Signatories: append([]address.Address(nil), info.Signatories...),
		Threshold:   info.Threshold,
	}
	p.mu.Unlock()

	account := p.store.Upsert(addr, info.Name, parent)
	p.log.Debug("added %s (%d of %d) via %s", addr, info.Threshold, len(info.Signatories), parent.Address)
	return account, nil
}

// GetMultisig returns the descriptor of a managed multisig, or nil.
func (p *Plugin) GetMultisig(_ context.Context, addr address.Address) (*plugin.MultisigDescriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	d, ok := p.descriptors[address.Key(addr)]
	if !ok {
		return nil, nil
	}
	d.Signatories = append([]address.Address(nil), d.Signatories...)
	return &d, nil
}

// Serialize returns a handle recording the multisig's parent signer.
func (p *Plugin) Serialize(account plugin.Account) plugin.SignerHandle {
	handle := p.store.Serialize(account)
	if d, err := p.GetMultisig(context.Background(), account.Address); err == nil && d != nil {
		if handle.Info == nil {
			handle.Info = map[string]string{}
		}
		handle.Info["threshold"] = strconv.Itoa(d.Threshold)
	}
	return handle
}

// Remove drops every account for the multisig at addr.
func (p *Plugin) Remove(addr address.Address) bool {
	if p.store.Remove(addr) == 0 {
		return false
	}
	p.mu.Lock()
	delete(p.descriptors, address.Key(addr))
	p.mu.Unlock()
	return true
}
