package directory

import (
	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/plugin"
)

// BestNames reduces the snapshot to one account per distinct address:
// the one with the longest non-empty name. Ties keep the account seen
// first in snapshot order. The result is in order of first appearance.
func BestNames(s Snapshot) []plugin.Account {
	index := make(map[string]int)
	var out []plugin.Account

	for _, account := range s.All() {
		key := address.Key(account.Address)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, account)
			continue
		}
		if len(account.Name) > len(out[i].Name) {
			out[i] = account
		}
	}
	return out
}

// NameOf returns the best name known for addr, or "".
func NameOf(s Snapshot, addr address.Address) string {
	best := ""
	for _, account := range s.All() {
		if address.Equal(account.Address, addr) && len(account.Name) > len(best) {
			best = account.Name
		}
	}
	return best
}

// Signers returns the accounts that expose a signing capability.
func Signers(s Snapshot) []plugin.Account {
	var out []plugin.Account
	for _, account := range s.All() {
		if account.CanSign() {
			out = append(out, account)
		}
	}
	return out
}

// FindAccount resolves a serialized signer handle back into the account
// currently published by its provider.
func FindAccount(s Snapshot, handle plugin.SignerHandle) (plugin.Account, bool) {
	accounts, ok := s.Accounts(handle.ProviderID)
	if !ok {
		return plugin.Account{}, false
	}
	for _, account := range accounts {
		if address.Equal(account.Address, handle.Address) {
			return account, true
		}
	}
	return plugin.Account{}, false
}
