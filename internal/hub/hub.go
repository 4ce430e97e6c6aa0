// Package hub wires the plugin registry, account directory, selection and
// the built-in plugins into one application object.
package hub

import (
	"context"
	"time"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/cache"
	"github.com/mrz1836/accounthub/internal/chaindata"
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/directory"
	"github.com/mrz1836/accounthub/internal/discovery"
	"github.com/mrz1836/accounthub/internal/lookup"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/plugins/indexer"
	"github.com/mrz1836/accounthub/internal/plugins/keyring"
	"github.com/mrz1836/accounthub/internal/plugins/multisig"
	"github.com/mrz1836/accounthub/internal/plugins/proxy"
	"github.com/mrz1836/accounthub/internal/plugins/readonly"
	"github.com/mrz1836/accounthub/internal/registry"
	"github.com/mrz1836/accounthub/internal/selection"
	"github.com/mrz1836/accounthub/internal/stream"
)

// StaticID is the registry id of the plugin serving configured chain data.
const StaticID = "chaindata"

// Options customizes hub construction.
type Options struct {
	// Log receives diagnostics from every component. Nil disables logging.
	Log config.LogWriter
	// Indexer replaces the HTTP indexer built from the configuration.
	Indexer chaindata.Source
	// Plugins are registered after the built-in plugins.
	Plugins []plugin.Plugin
}

// Hub is the composition root of the application.
type Hub struct {
	cfg    *config.Config
	log    config.LogWriter
	format address.Format

	ctx    context.Context
	cancel context.CancelFunc

	registry  *registry.Registry
	directory *directory.Directory
	selection *selection.State

	balanceProvider  *stream.Cell[plugin.BalanceProvider]
	identityProvider *stream.Cell[plugin.IdentityProvider]
	stopProviders    func()

	balances   *lookup.Tracker[address.Address, *plugin.Balance]
	identities *lookup.Tracker[address.Address, *plugin.Identity]
	candidates *lookup.Tracker[address.Address, *discovery.Candidate]

	lookupCache *cache.LookupCache
	cacheStore  *cache.FileStorage
}

// New builds a hub from cfg. Built-in plugins are registered in this
// order: readonly, keyring, indexer, chaindata, multisig, proxy, followed
// by opts.Plugins. Disabled or unconfigured plugins are skipped.
func New(cfg *config.Config, opts Options) (*Hub, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = config.NullLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	reg := registry.New(log)
	h := &Hub{
		cfg:      cfg,
		log:      config.Named(log, "hub"),
		format:   address.Format(cfg.SS58Format),
		ctx:      ctx,
		cancel:   cancel,
		registry: reg,
	}
	h.directory = directory.New(reg, log)
	h.selection = selection.New(h.directory, log)
	h.balanceProvider = stream.NewCell[plugin.BalanceProvider](nil)
	h.identityProvider = stream.NewCell[plugin.IdentityProvider](nil)
	h.stopProviders = reg.Follow(func(entries []registry.Entry) {
		h.balanceProvider.Set(firstWith[plugin.BalanceProvider](entries))
		h.identityProvider.Set(firstWith[plugin.IdentityProvider](entries))
	})

	if err := h.registerBuiltins(opts); err != nil {
		h.Close()
		return nil, err
	}
	for _, p := range opts.Plugins {
		if err := reg.Register(p); err != nil {
			h.Close()
			return nil, err
		}
	}

	h.balances = lookup.New(ctx, "balance", h.Balance, log)
	h.identities = lookup.New(ctx, "identity", h.Identity, log)
	h.candidates = lookup.New(ctx, "discovery", h.Discover, log)
	return h, nil
}

func (h *Hub) registerBuiltins(opts Options) error {
	plugins := h.cfg.Plugins
	var sources []chaindata.Source

	if plugins.Readonly.Enabled {
		p, err := readonly.New(plugins.Readonly.Accounts)
		if err != nil {
			return err
		}
		if err = h.registry.Register(p); err != nil {
			return err
		}
	}

	if plugins.Keyring.Enabled {
		p, err := keyring.FromConfig(plugins.Keyring, h.format)
		if err != nil {
			return err
		}
		if err = h.registry.Register(p); err != nil {
			return err
		}
	}

	remote := opts.Indexer
	if remote == nil && h.cfg.Indexer.URL != "" {
		client, err := chaindata.NewHTTPClient(h.cfg.Indexer.URL, &chaindata.ClientOptions{
			APIKey:        h.cfg.Indexer.APIKey,
			RatePerSecond: h.cfg.Indexer.RatePerSecond,
			Burst:         h.cfg.Indexer.Burst,
			Timeout:       time.Duration(h.cfg.Indexer.TimeoutSeconds) * time.Second,
			Log:           h.log,
		})
		if err != nil {
			return err
		}
		remote = client
		if ttl := h.cfg.CacheTTL(); ttl > 0 {
			remote = h.cached(client, ttl)
		}
	}
	if remote != nil {
		if err := h.registry.Register(indexer.New(indexer.ID, remote)); err != nil {
			return err
		}
		sources = append(sources, remote)
	}

	if !h.cfg.ChainData.IsEmpty() {
		static, err := chaindata.NewStatic(h.cfg.ChainData)
		if err != nil {
			return err
		}
		if err = h.registry.Register(indexer.New(StaticID, static)); err != nil {
			return err
		}
		sources = append(sources, static)
	}

	if plugins.Multisig.Enabled {
		if err := h.registry.Register(multisig.New(h.directory, h.format, h.log)); err != nil {
			return err
		}
	}
	if plugins.Proxy.Enabled {
		var delegates plugin.DelegateLookup
		if len(sources) > 0 {
			delegates = chainSources(sources)
		}
		if err := h.registry.Register(proxy.New(h.directory, delegates, h.log)); err != nil {
			return err
		}
	}
	return nil
}

// cached wraps src with the lookup cache persisted in the home directory.
// Cache problems only cost the cache, never the indexer.
func (h *Hub) cached(src chaindata.Source, ttl time.Duration) chaindata.Source {
	home, err := config.ExpandHome(h.cfg.GetHome())
	if err != nil {
		h.log.Warn("lookup cache disabled: %v", err)
		return src
	}
	store := cache.NewFileStorage(cache.Path(home))
	lc, err := store.Load()
	if err != nil {
		h.log.Warn("loading lookup cache: %v", err)
		if lc == nil {
			return src
		}
	}
	if n := lc.Prune(ttl); n > 0 {
		h.log.Debug("pruned %d stale cache entries", n)
	}
	h.lookupCache, h.cacheStore = lc, store
	return chaindata.NewCached(src, lc, ttl)
}

// Ready waits until the directory lists every registered plugin.
func (h *Hub) Ready(ctx context.Context) error {
	_, err := h.directory.Await(ctx, func(s directory.Snapshot) bool {
		for _, p := range h.registry.List() {
			if !s.Has(p.ID()) {
				return false
			}
		}
		return true
	})
	return err
}

// Config returns the hub configuration.
func (h *Hub) Config() *config.Config { return h.cfg }

// Format returns the configured SS58 address format.
func (h *Hub) Format() address.Format { return h.format }

// Registry returns the plugin registry.
func (h *Hub) Registry() *registry.Registry { return h.registry }

// Directory returns the account directory.
func (h *Hub) Directory() *directory.Directory { return h.directory }

// Selection returns the selected-account container.
func (h *Hub) Selection() *selection.State { return h.selection }

// BalanceProvider returns the cell holding the first registered plugin
// able to look up balances, or nil.
func (h *Hub) BalanceProvider() *stream.Cell[plugin.BalanceProvider] {
	return h.balanceProvider
}

// IdentityProvider returns the cell holding the first registered plugin
// able to look up identities, or nil.
func (h *Hub) IdentityProvider() *stream.Cell[plugin.IdentityProvider] {
	return h.identityProvider
}

// Balance looks up the balance of addr. It returns nil when no plugin
// provides balances or the provider has no data.
func (h *Hub) Balance(ctx context.Context, addr address.Address) (*plugin.Balance, error) {
	p := h.balanceProvider.Get()
	if p == nil {
		return nil, nil
	}
	return p.GetBalance(ctx, addr)
}

// Identity looks up the on-chain identity of addr. It returns nil when no
// plugin provides identities or the provider has no data.
func (h *Hub) Identity(ctx context.Context, addr address.Address) (*plugin.Identity, error) {
	p := h.identityProvider.Get()
	if p == nil {
		return nil, nil
	}
	return p.GetIdentity(ctx, addr)
}

// Resolver builds a discovery resolver over the plugins registered now.
// Multisig lookups ask every plugin with the capability in registry order;
// proxy lookups go through the proxy plugin, when registered.
func (h *Hub) Resolver() *discovery.Resolver {
	lookups := pluginsWith[plugin.MultisigLookup](h.registry.Entries().Get())

	var delegates discovery.LookupDelegatesFunc
	if p, err := h.registry.Get(proxy.ID); err == nil {
		if dl, ok := plugin.As[plugin.DelegateLookup](p); ok {
			delegates = dl.GetDelegates
		}
	}
	return discovery.NewResolver(firstMultisig(lookups), delegates, h.log)
}

// Discover resolves seed to a multisig candidate within the configured
// discovery timeout.
func (h *Hub) Discover(ctx context.Context, seed address.Address) (*discovery.Candidate, error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	return h.Resolver().Resolve(ctx, seed)
}

// Adopt adds a discovered candidate as managed accounts signed for by signer.
func (h *Hub) Adopt(ctx context.Context, c discovery.Candidate, signer plugin.Account, name string) (plugin.Account, error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	return discovery.Adopt(ctx, h.registry, h.directory, c, signer, name)
}

// withTimeout bounds ctx by the discovery timeout, if one is configured.
func (h *Hub) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := h.cfg.DiscoveryTimeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// BestNames returns the best display name of every address in the directory.
func (h *Hub) BestNames() []plugin.Account {
	return directory.BestNames(h.directory.Snapshot())
}

// Balances returns the balance tracker of the displayed address.
func (h *Hub) Balances() *lookup.Tracker[address.Address, *plugin.Balance] {
	return h.balances
}

// Identities returns the identity tracker of the displayed address.
func (h *Hub) Identities() *lookup.Tracker[address.Address, *plugin.Identity] {
	return h.identities
}

// Candidates returns the discovery tracker of the typed address.
func (h *Hub) Candidates() *lookup.Tracker[address.Address, *discovery.Candidate] {
	return h.candidates
}

// Close tears the hub down in reverse construction order.
func (h *Hub) Close() {
	if h.candidates != nil {
		h.candidates.Close()
		h.identities.Close()
		h.balances.Close()
	}
	h.cancel()
	h.stopProviders()
	h.identityProvider.Close()
	h.balanceProvider.Close()
	h.selection.Close()
	h.directory.Close()

	plugins := h.registry.List()
	for i := len(plugins) - 1; i >= 0; i-- {
		if c, ok := plugin.As[plugin.Closer](plugins[i]); ok {
			if err := c.Close(); err != nil {
				h.log.Error("closing plugin %q: %v", plugins[i].ID(), err)
			}
		}
	}
	h.registry.Close()

	if h.lookupCache != nil && h.lookupCache.Dirty() {
		if err := h.cacheStore.Save(h.lookupCache); err != nil {
			h.log.Error("saving lookup cache: %v", err)
		}
	}
}
