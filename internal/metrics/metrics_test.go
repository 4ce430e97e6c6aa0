package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestRecordRPCCall(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRPCCall(10*time.Millisecond, nil)
	m.RecordRPCCall(30*time.Millisecond, errBoom)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.RPCCallsTotal)
	assert.Equal(t, int64(1), snap.RPCErrorsTotal)
	assert.InDelta(t, 20.0, m.RPCLatencyAvgMs(), 0.001)
}

func TestRPCLatencyAvgMs_NoCalls(t *testing.T) {
	t.Parallel()
	m := &Metrics{}
	assert.InDelta(t, 0.0, m.RPCLatencyAvgMs(), 0)
}

func TestRecordLookupAndResolution(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordLookup(nil)
	m.RecordLookup(errBoom)
	m.RecordStaleLookup()
	m.RecordResolution(true)
	m.RecordResolution(false)
	m.RecordResolution(false)
	m.RecordResolution(true)
	m.RecordResolutionError()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.LookupsTotal)
	assert.Equal(t, int64(1), snap.LookupErrors)
	assert.Equal(t, int64(1), snap.LookupsStale)
	assert.Equal(t, int64(2), snap.ResolutionsFound)
	assert.Equal(t, int64(2), snap.ResolutionsNotFound)
	assert.Equal(t, int64(1), snap.ResolutionErrors)
	assert.InDelta(t, 50.0, m.ResolutionHitRate(), 0.001)
}

func TestReset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}
	m.RecordRegistryChange()
	m.RecordDirectoryPublish()
	m.RecordBreakerOpen()

	m.Reset()

	assert.Equal(t, Snapshot{}, m.Snapshot())
	assert.InDelta(t, 0.0, m.ResolutionHitRate(), 0)
}

func TestConcurrentRecording(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRegistryChange()
			m.RecordDirectoryPublish()
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(50), snap.RegistryChanges)
	assert.Equal(t, int64(50), snap.DirectoryPublishes)
}
