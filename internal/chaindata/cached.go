package chaindata

import (
	"context"
	"time"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/cache"
	"github.com/mrz1836/accounthub/internal/plugin"
)

var _ Source = (*Cached)(nil)

// Cached serves balances and identities from a lookup cache while entries
// are younger than the TTL. Multisig and proxy queries always reach the
// wrapped source. Errors are never cached.
type Cached struct {
	Source

	cache *cache.LookupCache
	ttl   time.Duration
}

// NewCached wraps src with c.
func NewCached(src Source, c *cache.LookupCache, ttl time.Duration) *Cached {
	return &Cached{Source: src, cache: c, ttl: ttl}
}

// GetBalance returns the cached balance of addr or fetches it.
func (c *Cached) GetBalance(ctx context.Context, addr address.Address) (*plugin.Balance, error) {
	if b, ok := c.cache.Balance(addr, c.ttl); ok {
		return b, nil
	}
	b, err := c.Source.GetBalance(ctx, addr)
	if err != nil {
		return nil, err
	}
	c.cache.SetBalance(addr, b)
	return b, nil
}

// GetIdentity returns the cached identity of addr or fetches it.
func (c *Cached) GetIdentity(ctx context.Context, addr address.Address) (*plugin.Identity, error) {
	if id, ok := c.cache.Identity(addr, c.ttl); ok {
		return id, nil
	}
	id, err := c.Source.GetIdentity(ctx, addr)
	if err != nil {
		return nil, err
	}
	c.cache.SetIdentity(addr, id)
	return id, nil
}
