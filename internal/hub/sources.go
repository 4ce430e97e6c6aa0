package hub

import (
	"context"
	"errors"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/chaindata"
	"github.com/mrz1836/accounthub/internal/discovery"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/registry"
)

// firstWith returns the first plugin in entries implementing T.
func firstWith[T any](entries []registry.Entry) T {
	for _, e := range entries {
		if c, ok := plugin.As[T](e.Plugin); ok {
			return c
		}
	}
	var zero T
	return zero
}

// pluginsWith returns every plugin in entries implementing T, in order.
func pluginsWith[T any](entries []registry.Entry) []T {
	var out []T
	for _, e := range entries {
		if c, ok := plugin.As[T](e.Plugin); ok {
			out = append(out, c)
		}
	}
	return out
}

// firstMultisig asks each lookup in turn and returns the first descriptor
// found. Errors are returned only when no lookup found one.
func firstMultisig(lookups []plugin.MultisigLookup) discovery.LookupMultisigFunc {
	if len(lookups) == 0 {
		return nil
	}
	return func(ctx context.Context, addr address.Address) (*plugin.MultisigDescriptor, error) {
		var errs []error
		for _, l := range lookups {
			d, err := l.GetMultisig(ctx, addr)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				errs = append(errs, err)
				continue
			}
			if d != nil {
				return d, nil
			}
		}
		return nil, errors.Join(errs...)
	}
}

// chainSources answers delegate lookups from the first source with data.
type chainSources []chaindata.Source

// GetDelegates returns the relations of the first source that has proxy
// data for addr, or nil.
func (s chainSources) GetDelegates(ctx context.Context, addr address.Address) ([]plugin.ProxyRelation, error) {
	var errs []error
	for _, src := range s {
		rels, err := src.GetDelegates(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		if rels != nil {
			return rels, nil
		}
	}
	return nil, errors.Join(errs...)
}
