// Package registry holds the ordered set of active account source plugins.
package registry

import (
	"fmt"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/metrics"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/stream"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// maxSuggestionDistance bounds the edit distance of "did you mean" hints.
const maxSuggestionDistance = 3

// Entry is a registered plugin together with its registration version.
// The version changes whenever the plugin under an id is replaced, so
// observers can tell a hot-swapped instance apart from the original.
type Entry struct {
	Plugin  plugin.Plugin
	Version uint64
}

// ID returns the plugin id of the entry.
func (e Entry) ID() string {
	return e.Plugin.ID()
}

// follower is a change hook installed with Follow.
type follower struct {
	id uint64
	fn func([]Entry)
}

// Registry is the ordered, id-indexed list of active plugins.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	entries   *stream.Cell[[]Entry]
	version   uint64
	followers []follower
	nextHook  uint64
	log       config.LogWriter
}

// New creates an empty registry.
func New(log config.LogWriter) *Registry {
	return &Registry{
		entries: stream.NewCell([]Entry{}),
		log:     config.Named(log, "registry"),
	}
}

// Register appends p to the registry. Registering an id twice is a
// configuration error and leaves the registry unchanged.
func (r *Registry) Register(p plugin.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.entries.Get()
	if indexOf(cur, p.ID()) >= 0 {
		return huberr.WithDetails(huberr.ErrDuplicatePlugin, map[string]string{"id": p.ID()})
	}

	r.version++
	next := make([]Entry, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, Entry{Plugin: p, Version: r.version})
	r.publish(next)

	r.log.Debug("registered plugin %q", p.ID())
	return nil
}

// Replace swaps the plugin registered under p's id for p, keeping its
// position. It is used to hot-swap test doubles.
func (r *Registry) Replace(p plugin.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.entries.Get()
	idx := indexOf(cur, p.ID())
	if idx < 0 {
		return r.notFound(cur, p.ID())
	}

	r.version++
	next := make([]Entry, len(cur))
	copy(next, cur)
	next[idx] = Entry{Plugin: p, Version: r.version}
	r.publish(next)

	r.log.Debug("replaced plugin %q", p.ID())
	return nil
}

// Unregister removes the plugin with the given id and reports whether it
// was registered.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.entries.Get()
	idx := indexOf(cur, id)
	if idx < 0 {
		return false
	}

	next := make([]Entry, 0, len(cur)-1)
	next = append(next, cur[:idx]...)
	next = append(next, cur[idx+1:]...)
	r.publish(next)

	r.log.Debug("unregistered plugin %q", id)
	return true
}

// List returns the registered plugins in insertion order.
func (r *Registry) List() []plugin.Plugin {
	cur := r.entries.Get()
	out := make([]plugin.Plugin, len(cur))
	for i, e := range cur {
		out[i] = e.Plugin
	}
	return out
}

// Get returns the plugin registered under id.
func (r *Registry) Get(id string) (plugin.Plugin, error) {
	cur := r.entries.Get()
	if idx := indexOf(cur, id); idx >= 0 {
		return cur[idx].Plugin, nil
	}
	return nil, r.notFound(cur, id)
}

// Follow calls fn with the current entries, then again with every change
// before Register, Replace or Unregister return. fn runs under the
// registry lock and must not call back into the registry. The returned
// func stops following.
func (r *Registry) Follow(fn func([]Entry)) (stop func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextHook++
	id := r.nextHook
	r.followers = append(r.followers, follower{id: id, fn: fn})
	fn(r.entries.Get())

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, f := range r.followers {
			if f.id == id {
				r.followers = append(r.followers[:i:i], r.followers[i+1:]...)
				return
			}
		}
	}
}

// Entries returns the cell of versioned registry entries. Subscribers are
// notified asynchronously; use Follow to observe changes synchronously.
func (r *Registry) Entries() *stream.Cell[[]Entry] {
	return r.entries
}

// Lookup returns a cell holding the plugin registered under id, or nil.
// It follows later registrations and replacements. Close the returned
// cell when done.
func (r *Registry) Lookup(id string) *stream.Derived[plugin.Plugin] {
	return stream.Map(r.entries, func(entries []Entry) plugin.Plugin {
		if idx := indexOf(entries, id); idx >= 0 {
			return entries[idx].Plugin
		}
		return nil
	})
}

// FindOwner returns the first plugin owning account: the plugin registered
// under its ProviderID, or else the first plugin currently listing an
// address equal to it.
func (r *Registry) FindOwner(account plugin.Account) (plugin.Plugin, bool) {
	entries := r.entries.Get()
	if idx := indexOf(entries, account.ProviderID); idx >= 0 {
		return entries[idx].Plugin, true
	}
	for _, e := range entries {
		for _, a := range e.Plugin.Accounts().Get() {
			if address.Equal(a.Address, account.Address) {
				return e.Plugin, true
			}
		}
	}
	return nil, false
}

// Close ends every subscription to the registry.
func (r *Registry) Close() {
	r.entries.Close()
}

// publish must be called with r.mu held.
func (r *Registry) publish(next []Entry) {
	r.entries.Set(next)
	for _, f := range r.followers {
		f.fn(next)
	}
	metrics.Global.RecordRegistryChange()
}

// notFound builds a not-found error with a suggestion for a close id.
func (r *Registry) notFound(entries []Entry, id string) error {
	err := huberr.WithDetails(huberr.ErrPluginNotFound, map[string]string{"id": id})

	best, bestDist := "", maxSuggestionDistance+1
	for _, e := range entries {
		if d := levenshtein.ComputeDistance(id, e.ID()); d < bestDist {
			best, bestDist = e.ID(), d
		}
	}
	if best != "" {
		err = huberr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", best))
	}
	return err
}

func indexOf(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID() == id {
			return i
		}
	}
	return -1
}
