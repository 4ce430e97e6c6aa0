// Package proxy provides the plugin managing proxied accounts and the
// delegate lookup used by multisig discovery.
package proxy

import (
	"context"

	"github.com/samber/lo"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/directory"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/plugins/derived"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// ID is the registry id of the proxy plugin.
const ID = "proxy"

// Plugin manages accounts controlled through a proxy delegate.
type Plugin struct {
	*plugin.Base

	store     *derived.Store
	delegates plugin.DelegateLookup
	log       config.LogWriter
}

// Compile-time interface checks
var (
	_ plugin.ProxyAdder     = (*Plugin)(nil)
	_ plugin.DelegateLookup = (*Plugin)(nil)
	_ plugin.Serializer     = (*Plugin)(nil)
)

// New creates the proxy plugin. delegates backs GetDelegates and may be nil.
func New(view directory.View, delegates plugin.DelegateLookup, log config.LogWriter) *Plugin {
	base := plugin.NewBase(ID)
	return &Plugin{
		Base:      base,
		store:     derived.NewStore(base, view),
		delegates: delegates,
		log:       config.Named(log, "proxy"),
	}
}

// AddProxy adds info.Real as an account signing through info.ParentSigner.
// When proxy data exists for Real, the parent must be one of its delegates.
func (p *Plugin) AddProxy(ctx context.Context, info plugin.ProxyInfo) (plugin.Account, error) {
	if !address.IsValid(info.Real) {
		return plugin.Account{}, huberr.WithDetails(address.ErrDecode, map[string]string{
			"address": info.Real.String(),
		})
	}

	parent, err := p.store.ResolveParent(info.ParentSigner)
	if err != nil {
		return plugin.Account{}, err
	}

	relations, err := p.GetDelegates(ctx, info.Real)
	if err != nil {
		return plugin.Account{}, err
	}
	if relations != nil && !lo.ContainsBy(relations, func(r plugin.ProxyRelation) bool {
		return address.Equal(r.Delegate, parent.Address)
	}) {
		return plugin.Account{}, huberr.WithDetails(huberr.ErrInvalidInput, map[string]string{
			"reason":   "parent signer is not a delegate of the proxied account",
			"real":     info.Real.String(),
			"delegate": parent.Address.String(),
		})
	}

	account := p.store.Upsert(info.Real, info.Name, parent)
	p.log.Debug("added %s via %s", info.Real, parent.Address)
	return account, nil
}

// GetDelegates returns the proxy relations whose real account is addr,
// or nil when no delegate source is configured or it has no data.
func (p *Plugin) GetDelegates(ctx context.Context, addr address.Address) ([]plugin.ProxyRelation, error) {
	if p.delegates == nil {
		return nil, nil
	}
	return p.delegates.GetDelegates(ctx, addr)
}

// Serialize returns a handle recording the proxy's parent signer.
func (p *Plugin) Serialize(account plugin.Account) plugin.SignerHandle {
	return p.store.Serialize(account)
}

// Remove drops every account for the proxied address.
func (p *Plugin) Remove(addr address.Address) bool {
	return p.store.Remove(addr) > 0
}
