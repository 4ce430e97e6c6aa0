// Package directory merges the account lists of every registered plugin
// into a single reactive view keyed by plugin id.
package directory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/metrics"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/registry"
	"github.com/mrz1836/accounthub/internal/stream"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// Snapshot is an immutable view of every plugin's latest account list.
// IDs lists the plugin ids in registry order.
type Snapshot struct {
	IDs      []string
	accounts map[string][]plugin.Account
}

// Accounts returns the account list published by the plugin id.
func (s Snapshot) Accounts(id string) ([]plugin.Account, bool) {
	accounts, ok := s.accounts[id]
	return accounts, ok
}

// Has reports whether the plugin id is present.
func (s Snapshot) Has(id string) bool {
	_, ok := s.accounts[id]
	return ok
}

// All returns every account, grouped by plugin in registry order.
func (s Snapshot) All() []plugin.Account {
	var out []plugin.Account
	for _, id := range s.IDs {
		out = append(out, s.accounts[id]...)
	}
	return out
}

// Len returns the number of plugins in the snapshot.
func (s Snapshot) Len() int {
	return len(s.IDs)
}

// NewSnapshot builds a snapshot from ordered ids and their account lists.
// Ids missing from accounts get an empty list.
func NewSnapshot(ids []string, accounts map[string][]plugin.Account) Snapshot {
	s := Snapshot{
		IDs:      make([]string, len(ids)),
		accounts: make(map[string][]plugin.Account, len(ids)),
	}
	copy(s.IDs, ids)
	for _, id := range ids {
		list := accounts[id]
		if list == nil {
			list = []plugin.Account{}
		}
		s.accounts[id] = list
	}
	return s
}

// View gives read access to the latest snapshot. *Directory implements it.
type View interface {
	Snapshot() Snapshot
}

// Compile-time interface check
var _ View = (*Directory)(nil)

// source tracks the subscription to one registered plugin instance.
type source struct {
	version uint64
	sub     event.Subscription
}

// Directory follows the registry and republishes the whole mapping
// whenever any single plugin changes its account list.
type Directory struct {
	mu       sync.Mutex
	cell     *stream.Cell[Snapshot]
	sources  map[string]*source
	current  map[string][]plugin.Account
	order    []string
	unfollow func()
	closed   bool
	log      config.LogWriter
}

// New creates a directory following the registry's entries.
func New(reg *registry.Registry, log config.LogWriter) *Directory {
	d := &Directory{
		cell:    stream.NewCell(NewSnapshot(nil, nil)),
		sources: make(map[string]*source),
		current: make(map[string][]plugin.Account),
		log:     config.Named(log, "directory"),
	}
	d.unfollow = reg.Follow(d.sync)
	return d
}

// Cell returns the snapshot cell.
func (d *Directory) Cell() *stream.Cell[Snapshot] {
	return d.cell
}

// Snapshot returns the latest published snapshot.
func (d *Directory) Snapshot() Snapshot {
	return d.cell.Get()
}

// Close stops following the registry and every plugin, and ends all
// snapshot subscriptions.
func (d *Directory) Close() {
	d.unfollow()

	d.mu.Lock()
	d.closed = true
	for id, src := range d.sources {
		src.sub.Unsubscribe()
		delete(d.sources, id)
	}
	d.mu.Unlock()

	d.cell.Close()
}

// sync reconciles subscriptions with the registry entries and publishes
// one snapshot reflecting additions, replacements and removals. It runs
// inside the registry change, so a removed plugin is gone from the
// snapshot by the time Unregister returns.
func (d *Directory) sync(entries []registry.Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	live := make(map[string]bool, len(entries))
	order := make([]string, 0, len(entries))
	next := make(map[string][]plugin.Account, len(entries))

	for _, e := range entries {
		id := e.ID()
		live[id] = true
		order = append(order, id)

		if src, ok := d.sources[id]; ok && src.version == e.Version {
			next[id] = d.current[id]
			continue
		}
		if src, ok := d.sources[id]; ok {
			src.sub.Unsubscribe()
			d.log.Debug("resubscribing replaced plugin %q", id)
		}

		cell := e.Plugin.Accounts()
		next[id] = cell.Get()
		src := &source{version: e.Version}
		d.sources[id] = src
		src.sub = cell.Watch(d.applyFunc(id, e.Version))
	}

	for id, src := range d.sources {
		if !live[id] {
			src.sub.Unsubscribe()
			delete(d.sources, id)
			d.log.Debug("dropped plugin %q", id)
		}
	}

	d.order = order
	d.current = next
	d.publish()
}

// applyFunc returns the handler for account emissions of one plugin
// instance. Emissions from a replaced or removed instance are dropped.
func (d *Directory) applyFunc(id string, version uint64) func([]plugin.Account) {
	return func(accounts []plugin.Account) {
		d.mu.Lock()
		defer d.mu.Unlock()

		src, ok := d.sources[id]
		if !ok || src.version != version {
			return
		}

		next := make(map[string][]plugin.Account, len(d.current))
		for k, v := range d.current {
			next[k] = v
		}
		next[id] = accounts
		d.current = next
		d.publish()
	}
}

// publish must be called with d.mu held.
func (d *Directory) publish() {
	d.cell.Set(NewSnapshot(d.order, d.current))
	metrics.Global.RecordDirectoryPublish()
}

// Await blocks until a snapshot satisfying pred is published and returns
// it. The current snapshot is checked first.
func (d *Directory) Await(ctx context.Context, pred func(Snapshot) bool) (Snapshot, error) {
	ch := make(chan Snapshot)
	sub := d.cell.Subscribe(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case s := <-ch:
			if pred(s) {
				return s, nil
			}
		case <-sub.Err():
			return Snapshot{}, huberr.WithDetails(huberr.ErrGeneral, map[string]string{"reason": "directory closed"})
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}
