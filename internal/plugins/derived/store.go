// Package derived keeps accounts that sign through another account, such
// as multisigs and proxied accounts, and resolves their parent signers.
package derived

import (
	"sync"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/directory"
	"github.com/mrz1836/accounthub/internal/plugin"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// Handle info keys written by Serialize.
const (
	InfoParentProvider = "parent_provider"
	InfoParentAddress  = "parent_address"
)

// Entry is a derived account and the handle of the account it signs through.
type Entry struct {
	Account plugin.Account
	Parent  plugin.SignerHandle
}

// Store is the account list of a derived-account plugin. The same derived
// address may appear once per distinct parent.
type Store struct {
	mu      sync.Mutex
	base    *plugin.Base
	view    directory.View
	entries []Entry
}

// NewStore creates a store publishing through base and resolving parents
// from view.
func NewStore(base *plugin.Base, view directory.View) *Store {
	return &Store{base: base, view: view}
}

// ResolveParent returns the available signing account behind handle.
func (s *Store) ResolveParent(handle plugin.SignerHandle) (plugin.Account, error) {
	account, ok := directory.FindAccount(s.view.Snapshot(), handle)
	if !ok {
		return plugin.Account{}, huberr.WithDetails(huberr.ErrAccountNotFound, map[string]string{
			"provider": handle.ProviderID,
			"address":  handle.Address.String(),
		})
	}
	if !account.CanSign() {
		return plugin.Account{}, huberr.WithDetails(huberr.ErrNoSigner, map[string]string{
			"provider": handle.ProviderID,
			"address":  handle.Address.String(),
		})
	}
	return account, nil
}

// Upsert adds a derived account signing through parent, replacing an
// entry with the same address and parent. It returns the published account.
func (s *Store) Upsert(addr address.Address, name string, parent plugin.Account) plugin.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle := plugin.DefaultSerialize(parent)
	entry := Entry{
		Account: plugin.Account{
			Address:    addr,
			Name:       name,
			ProviderID: s.base.ID(),
			Signer:     plugin.NewDelegatedSigner(handle, parent.Signer),
		},
		Parent: handle,
	}

	replaced := false
	for i, e := range s.entries {
		if sameEntry(e, addr, handle) {
			s.entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		s.entries = append(s.entries, entry)
	}
	s.publish()
	return entry.Account
}

// Remove deletes every entry for addr and reports how many were removed.
func (s *Store) Remove(addr address.Address) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if !address.Equal(e.Account.Address, addr) {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	if removed > 0 {
		s.entries = kept
		s.publish()
	}
	return removed
}

// Entries returns a copy of the stored entries.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Serialize returns a handle for account that records its parent.
func (s *Store) Serialize(account plugin.Account) plugin.SignerHandle {
	handle := plugin.SignerHandle{ProviderID: s.base.ID(), Address: account.Address}
	if ds, ok := account.Signer.(*plugin.DelegatedSigner); ok {
		handle.Info = map[string]string{
			InfoParentProvider: ds.Parent.ProviderID,
			InfoParentAddress:  ds.Parent.Address.String(),
		}
	}
	return handle
}

// publish must be called with s.mu held.
func (s *Store) publish() {
	accounts := make([]plugin.Account, len(s.entries))
	for i, e := range s.entries {
		accounts[i] = e.Account
	}
	s.base.Publish(accounts)
}

func sameEntry(e Entry, addr address.Address, parent plugin.SignerHandle) bool {
	return address.Equal(e.Account.Address, addr) &&
		e.Parent.ProviderID == parent.ProviderID &&
		address.Equal(e.Parent.Address, parent.Address)
}
