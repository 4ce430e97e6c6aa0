// Package discovery finds the multisig account a user can sign for from a
// typed address, either directly or through one proxy hop.
//
// The direct and proxy branches race: the first candidate found wins and
// every other pending lookup is cancelled. Only a single proxy hop is
// explored; multisigs proxied through several delegates, or multisigs that
// are themselves proxies, resolve to whichever candidate arrives first.
package discovery

import (
	"context"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/metrics"
	"github.com/mrz1836/accounthub/internal/plugin"
)

// LookupMultisigFunc returns the multisig descriptor of addr, or nil.
type LookupMultisigFunc func(ctx context.Context, addr address.Address) (*plugin.MultisigDescriptor, error)

// LookupDelegatesFunc returns the proxy relations of addr. A nil slice
// means no proxy data exists for addr.
type LookupDelegatesFunc func(ctx context.Context, addr address.Address) ([]plugin.ProxyRelation, error)

// Candidate is a resolved multisig account. ProxyHop is empty for a direct
// multisig; otherwise it is the seed address reached through the proxy.
type Candidate struct {
	ProxyHop   address.Address
	Address    address.Address
	Descriptor plugin.MultisigDescriptor
}

// IsProxied reports whether the candidate was found through a proxy.
func (c Candidate) IsProxied() bool {
	return c.ProxyHop != ""
}

// Resolver runs the discovery race. Delegates is nil when no proxy
// lookup is available.
type Resolver struct {
	Multisig  LookupMultisigFunc
	Delegates LookupDelegatesFunc
	log       config.LogWriter
}

// NewResolver creates a resolver. delegates may be nil.
func NewResolver(multisig LookupMultisigFunc, delegates LookupDelegatesFunc, log config.LogWriter) *Resolver {
	return &Resolver{Multisig: multisig, Delegates: delegates, log: config.Named(log, "discovery")}
}

// Resolve returns the first candidate found for seed, or nil when neither
// branch finds one. Upstream lookup failures count as "no candidate from
// this branch"; the only error returned is ctx's.
func (r *Resolver) Resolve(ctx context.Context, seed address.Address) (*Candidate, error) {
	if r.Multisig == nil {
		return nil, ctx.Err()
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan Candidate)
	g, gctx := errgroup.WithContext(raceCtx)

	offer := func(c Candidate) {
		select {
		case found <- c:
		case <-gctx.Done():
		}
	}

	g.Go(func() error {
		if d := r.lookupMultisig(gctx, "direct", seed); d != nil {
			offer(Candidate{Address: seed, Descriptor: *d})
		}
		return nil
	})

	if r.Delegates != nil {
		g.Go(func() error {
			for _, delegate := range r.delegatesOf(gctx, seed) {
				g.Go(func() error {
					if d := r.lookupMultisig(gctx, "proxy", delegate); d != nil {
						offer(Candidate{ProxyHop: seed, Address: delegate, Descriptor: *d})
					}
					return nil
				})
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case c := <-found:
		cancel()
		metrics.Global.RecordResolution(true)
		r.log.Debug("%s resolved to %s (proxied=%t)", seed, c.Address, c.IsProxied())
		return &c, nil
	case <-done:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		metrics.Global.RecordResolution(false)
		r.log.Debug("no multisig found for %s", seed)
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// delegatesOf returns the distinct delegates whose relation has seed as
// its real account.
func (r *Resolver) delegatesOf(ctx context.Context, seed address.Address) []address.Address {
	relations, err := r.Delegates(ctx, seed)
	if err != nil {
		r.upstreamFailure(ctx, "delegates", seed, err)
		return nil
	}
	if relations == nil {
		return nil
	}

	relations = lo.Filter(relations, func(rel plugin.ProxyRelation, _ int) bool {
		return address.Equal(rel.Real, seed)
	})
	delegates := lo.Map(relations, func(rel plugin.ProxyRelation, _ int) address.Address {
		return rel.Delegate
	})
	return lo.UniqBy(delegates, address.Key)
}

func (r *Resolver) lookupMultisig(ctx context.Context, branch string, addr address.Address) *plugin.MultisigDescriptor {
	d, err := r.Multisig(ctx, addr)
	if err != nil {
		r.upstreamFailure(ctx, branch, addr, err)
		return nil
	}
	return d
}

func (r *Resolver) upstreamFailure(ctx context.Context, branch string, addr address.Address, err error) {
	if ctx.Err() != nil {
		return
	}
	metrics.Global.RecordResolutionError()
	r.log.Error("%s lookup for %s failed: %v", branch, addr, err)
}
