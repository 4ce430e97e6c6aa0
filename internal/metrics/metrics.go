// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Indexer RPC metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64
	breakerOpens    atomic.Int64

	// Identity and balance lookups
	lookupsTotal atomic.Int64
	lookupErrors atomic.Int64
	lookupsStale atomic.Int64

	// Derived account discovery
	resolutionsFound    atomic.Int64
	resolutionsNotFound atomic.Int64
	resolutionErrors    atomic.Int64

	// Reactive state changes
	directoryPublishes atomic.Int64
	registryChanges    atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRPCCall records an indexer call with its duration and success status.
func (m *Metrics) RecordRPCCall(duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}
}

// RecordBreakerOpen records a circuit breaker transition to open.
func (m *Metrics) RecordBreakerOpen() {
	m.breakerOpens.Add(1)
}

// RecordLookup records a completed identity or balance lookup.
func (m *Metrics) RecordLookup(err error) {
	m.lookupsTotal.Add(1)
	if err != nil {
		m.lookupErrors.Add(1)
	}
}

// RecordStaleLookup records a lookup result discarded because the
// selection moved on before it arrived.
func (m *Metrics) RecordStaleLookup() {
	m.lookupsStale.Add(1)
}

// RecordResolution records the outcome of one discovery race.
func (m *Metrics) RecordResolution(found bool) {
	if found {
		m.resolutionsFound.Add(1)
		return
	}
	m.resolutionsNotFound.Add(1)
}

// RecordResolutionError records a failed upstream query inside a race.
func (m *Metrics) RecordResolutionError() {
	m.resolutionErrors.Add(1)
}

// RecordDirectoryPublish records an account directory emission.
func (m *Metrics) RecordDirectoryPublish() {
	m.directoryPublishes.Add(1)
}

// RecordRegistryChange records a plugin registry emission.
func (m *Metrics) RecordRegistryChange() {
	m.registryChanges.Add(1)
}

// Snapshot returns a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal       int64 `json:"rpc_calls_total"`
	RPCErrorsTotal      int64 `json:"rpc_errors_total"`
	RPCLatencyNanos     int64 `json:"rpc_latency_nanos"`
	BreakerOpens        int64 `json:"breaker_opens"`
	LookupsTotal        int64 `json:"lookups_total"`
	LookupErrors        int64 `json:"lookup_errors"`
	LookupsStale        int64 `json:"lookups_stale"`
	ResolutionsFound    int64 `json:"resolutions_found"`
	ResolutionsNotFound int64 `json:"resolutions_not_found"`
	ResolutionErrors    int64 `json:"resolution_errors"`
	DirectoryPublishes  int64 `json:"directory_publishes"`
	RegistryChanges     int64 `json:"registry_changes"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:       m.rpcCallsTotal.Load(),
		RPCErrorsTotal:      m.rpcErrorsTotal.Load(),
		RPCLatencyNanos:     m.rpcLatencyNanos.Load(),
		BreakerOpens:        m.breakerOpens.Load(),
		LookupsTotal:        m.lookupsTotal.Load(),
		LookupErrors:        m.lookupErrors.Load(),
		LookupsStale:        m.lookupsStale.Load(),
		ResolutionsFound:    m.resolutionsFound.Load(),
		ResolutionsNotFound: m.resolutionsNotFound.Load(),
		ResolutionErrors:    m.resolutionErrors.Load(),
		DirectoryPublishes:  m.directoryPublishes.Load(),
		RegistryChanges:     m.registryChanges.Load(),
	}
}

// RPCLatencyAvgMs returns the average indexer latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.rpcLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// ResolutionHitRate returns the share of races that found an account,
// as a percentage (0-100). Returns 0 if no race has completed.
func (m *Metrics) ResolutionHitRate() float64 {
	found := m.resolutionsFound.Load()
	total := found + m.resolutionsNotFound.Load()
	if total == 0 {
		return 0
	}
	return float64(found) / float64(total) * 100
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.rpcCallsTotal.Store(0)
	m.rpcErrorsTotal.Store(0)
	m.rpcLatencyNanos.Store(0)
	m.breakerOpens.Store(0)
	m.lookupsTotal.Store(0)
	m.lookupErrors.Store(0)
	m.lookupsStale.Store(0)
	m.resolutionsFound.Store(0)
	m.resolutionsNotFound.Store(0)
	m.resolutionErrors.Store(0)
	m.directoryPublishes.Store(0)
	m.registryChanges.Store(0)
}
