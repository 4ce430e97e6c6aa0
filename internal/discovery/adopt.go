package discovery

import (
	"context"
	"strings"

	"github.com/mrz1836/accounthub/internal/directory"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/plugins/multisig"
	"github.com/mrz1836/accounthub/internal/plugins/proxy"
	"github.com/mrz1836/accounthub/internal/registry"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// Adopt turns a discovered candidate into managed accounts, signed for by
// signer. The multisig is always added. A proxied candidate also adds the
// seed as a proxy account whose parent is the new multisig; the name then
// goes to the proxy account. The returned account is the one matching the
// address the user typed.
func Adopt(ctx context.Context, reg *registry.Registry, dir *directory.Directory, c Candidate, signer plugin.Account, name string) (plugin.Account, error) {
	if !signer.CanSign() {
		return plugin.Account{}, huberr.WithDetails(huberr.ErrNoSigner, map[string]string{
			"address": signer.Address.String(),
		})
	}

	owner, ok := reg.FindOwner(signer)
	if !ok {
		return plugin.Account{}, huberr.WithDetails(huberr.ErrPluginNotFound, map[string]string{
			"id": signer.ProviderID,
		})
	}

	msPlugin, msAdder, err := capability[plugin.MultisigAdder](reg, multisig.ID)
	if err != nil {
		return plugin.Account{}, err
	}

	name = strings.TrimSpace(name)
	msName := name
	if c.IsProxied() {
		msName = ""
	}

	msAccount, err := msAdder.AddMultisig(ctx, plugin.MultisigInfo{
		Signatories:  c.Descriptor.Signatories,
		Threshold:    c.Descriptor.Threshold,
		ParentSigner: plugin.Serialize(owner, signer),
		Name:         msName,
	})
	if err != nil {
		return plugin.Account{}, err
	}
	if !c.IsProxied() {
		return msAccount, nil
	}

	_, proxyAdder, err := capability[plugin.ProxyAdder](reg, proxy.ID)
	if err != nil {
		return plugin.Account{}, err
	}

	parent := plugin.Serialize(msPlugin, msAccount)
	if _, err = dir.Await(ctx, func(s directory.Snapshot) bool {
		_, ok := directory.FindAccount(s, parent)
		return ok
	}); err != nil {
		return plugin.Account{}, err
	}

	return proxyAdder.AddProxy(ctx, plugin.ProxyInfo{
		Real:         c.ProxyHop,
		ParentSigner: parent,
		Name:         name,
	})
}

func capability[T any](reg *registry.Registry, id string) (plugin.Plugin, T, error) {
	var zero T
	p, err := reg.Get(id)
	if err != nil {
		return nil, zero, err
	}
	c, ok := plugin.As[T](p)
	if !ok {
		return nil, zero, huberr.WithDetails(huberr.ErrNotSupported, map[string]string{"id": id})
	}
	return p, c, nil
}
