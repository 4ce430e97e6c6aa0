package plugin

import (
	"github.com/mrz1836/accounthub/internal/stream"
)

// Base implements the mandatory part of Plugin. Concrete plugins embed it
// and publish account list changes with Publish.
type Base struct {
	id       string
	accounts *stream.Cell[[]Account]
}

// NewBase creates a Base with an empty account list.
func NewBase(id string) *Base {
	return &Base{
		id:       id,
		accounts: stream.NewCell([]Account{}),
	}
}

// ID returns the plugin id.
func (b *Base) ID() string {
	return b.id
}

// Accounts returns the account list cell.
func (b *Base) Accounts() *stream.Cell[[]Account] {
	return b.accounts
}

// Publish replaces the account list. ProviderID is stamped on every account.
func (b *Base) Publish(accounts []Account) {
	out := make([]Account, len(accounts))
	for i, a := range accounts {
		a.ProviderID = b.id
		out[i] = a
	}
	b.accounts.Set(out)
}

// Snapshot returns a copy of the current account list.
func (b *Base) Snapshot() []Account {
	cur := b.accounts.Get()
	out := make([]Account, len(cur))
	copy(out, cur)
	return out
}

// Close ends every subscription to the account list.
func (b *Base) Close() error {
	b.accounts.Close()
	return nil
}
