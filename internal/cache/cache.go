// Package cache keeps recent balance and identity lookups, with their age,
// so short-lived processes can skip repeated indexer round trips.
package cache

import (
	"math/big"
	"sync"
	"time"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/plugin"
)

// DefaultStaleness is the default duration after which entries are stale.
const DefaultStaleness = 5 * time.Minute

// Kind names the lookup an entry answers.
type Kind string

// Lookup kinds.
const (
	KindBalance  Kind = "balance"
	KindIdentity Kind = "identity"
)

// LookupCache stores lookup results keyed by kind and decoded account.
// A cached miss (nil result) is an entry too.
type LookupCache struct {
	mu      sync.RWMutex     `json:"-"`
	dirty   bool             `json:"-"`
	Entries map[string]Entry `json:"entries"`
}

// Entry is one cached lookup result.
type Entry struct {
	Kind      Kind           `json:"kind"`
	Address   string         `json:"address"`
	Balance   *BalanceEntry  `json:"balance,omitempty"`
	Identity  *IdentityEntry `json:"identity,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BalanceEntry is a cached balance in base units.
type BalanceEntry struct {
	Value    string `json:"value"`
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
}

// IdentityEntry is a cached identity.
type IdentityEntry struct {
	Name     string `json:"name"`
	SubID    string `json:"sub_id,omitempty"`
	Verified bool   `json:"verified"`
}

// New creates an empty cache.
func New() *LookupCache {
	return &LookupCache{Entries: make(map[string]Entry)}
}

// Key generates the cache key of a lookup.
func Key(kind Kind, addr address.Address) string {
	return string(kind) + ":" + address.Key(addr)
}

func (c *LookupCache) get(kind Kind, addr address.Address, maxAge time.Duration) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.Entries[Key(kind, addr)]
	if !ok || time.Since(e.UpdatedAt) > maxAge {
		return Entry{}, false
	}
	return e, true
}

func (c *LookupCache) set(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.UpdatedAt = time.Now()
	c.Entries[Key(e.Kind, address.Address(e.Address))] = e
	c.dirty = true
}

// Balance returns the cached balance of addr if it is younger than maxAge.
// The result is nil for a cached miss.
func (c *LookupCache) Balance(addr address.Address, maxAge time.Duration) (*plugin.Balance, bool) {
	e, ok := c.get(KindBalance, addr, maxAge)
	if !ok {
		return nil, false
	}
	if e.Balance == nil {
		return nil, true
	}
	value, valid := new(big.Int).SetString(e.Balance.Value, 10)
	if !valid {
		return nil, false
	}
	return &plugin.Balance{Value: value, Decimals: e.Balance.Decimals, Symbol: e.Balance.Symbol}, true
}

// SetBalance records the balance of addr. Nil records a miss.
func (c *LookupCache) SetBalance(addr address.Address, b *plugin.Balance) {
	e := Entry{Kind: KindBalance, Address: addr.String()}
	if b != nil && b.Value != nil {
		e.Balance = &BalanceEntry{Value: b.Value.String(), Decimals: b.Decimals, Symbol: b.Symbol}
	}
	c.set(e)
}

// Identity returns the cached identity of addr if it is younger than maxAge.
// The result is nil for a cached miss.
func (c *LookupCache) Identity(addr address.Address, maxAge time.Duration) (*plugin.Identity, bool) {
	e, ok := c.get(KindIdentity, addr, maxAge)
	if !ok {
		return nil, false
	}
	if e.Identity == nil {
		return nil, true
	}
	return &plugin.Identity{Name: e.Identity.Name, SubID: e.Identity.SubID, Verified: e.Identity.Verified}, true
}

// SetIdentity records the identity of addr. Nil records a miss.
func (c *LookupCache) SetIdentity(addr address.Address, id *plugin.Identity) {
	e := Entry{Kind: KindIdentity, Address: addr.String()}
	if id != nil {
		e.Identity = &IdentityEntry{Name: id.Name, SubID: id.SubID, Verified: id.Verified}
	}
	c.set(e)
}

// Delete removes the entry of a lookup.
func (c *LookupCache) Delete(kind Kind, addr address.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.Entries[Key(kind, addr)]; ok {
		delete(c.Entries, Key(kind, addr))
		c.dirty = true
	}
}

// Clear removes all entries.
func (c *LookupCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries = make(map[string]Entry)
	c.dirty = true
}

// Size returns the number of entries.
func (c *LookupCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.Entries)
}

// Dirty reports whether the cache changed since it was loaded or saved.
func (c *LookupCache) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.dirty
}

// Prune removes entries older than maxAge and returns how many went.
func (c *LookupCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, e := range c.Entries {
		if e.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.dirty = true
	}
	return removed
}
