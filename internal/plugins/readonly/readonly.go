// Package readonly provides a watch-only address book plugin. Its
// accounts never have a signer.
package readonly

import (
	"strconv"
	"strings"
	"sync"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/plugin"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// ID is the registry id of the read-only plugin.
const ID = "readonly"

// Plugin is an address book of watch-only accounts.
type Plugin struct {
	*plugin.Base

	mu       sync.Mutex
	accounts []plugin.Account
}

// New creates the plugin with the configured entries.
func New(entries []config.AccountEntry) (*Plugin, error) {
	p := &Plugin{Base: plugin.NewBase(ID)}
	for i, e := range entries {
		addr := address.Address(strings.TrimSpace(e.Address))
		if !address.IsValid(addr) {
			return nil, huberr.WithDetails(huberr.ErrConfigInvalid, map[string]string{
				"field":   "plugins.readonly.accounts",
				"index":   strconv.Itoa(i),
				"address": e.Address,
			})
		}
		p.upsert(addr, e.Name)
	}
	p.Publish(p.accounts)
	return p, nil
}

// Add adds addr to the address book, or renames it if already present.
func (p *Plugin) Add(addr address.Address, name string) (plugin.Account, error) {
	if !address.IsValid(addr) {
		return plugin.Account{}, huberr.WithDetails(address.ErrDecode, map[string]string{"address": addr.String()})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	account := p.upsert(addr, strings.TrimSpace(name))
	p.Publish(p.accounts)
	return account, nil
}

// Remove drops addr from the address book.
func (p *Plugin) Remove(addr address.Address) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, a := range p.accounts {
		if address.Equal(a.Address, addr) {
			p.accounts = append(p.accounts[:i:i], p.accounts[i+1:]...)
			p.Publish(p.accounts)
			return true
		}
	}
	return false
}

// upsert must be called with p.mu held, or before the plugin is shared.
func (p *Plugin) upsert(addr address.Address, name string) plugin.Account {
	account := plugin.Account{Address: addr, Name: name, ProviderID: ID}
	for i, a := range p.accounts {
		if address.Equal(a.Address, addr) {
			next := make([]plugin.Account, len(p.accounts))
			copy(next, p.accounts)
			next[i] = account
			p.accounts = next
			return account
		}
	}
	p.accounts = append(p.accounts[:len(p.accounts):len(p.accounts)], account)
	return account
}
