package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend failure")

// gatedFetch returns "value:<key>" once the key's gate is released, and
// records which keys saw their context cancelled.
type gatedFetch struct {
	mu        sync.Mutex
	gates     map[string]chan struct{}
	cancelled map[string]bool
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{gates: map[string]chan struct{}{}, cancelled: map[string]bool{}}
}

func (g *gatedFetch) gate(key string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[key]
	if !ok {
		ch = make(chan struct{})
		g.gates[key] = ch
	}
	return ch
}

func (g *gatedFetch) release(key string) {
	close(g.gate(key))
}

func (g *gatedFetch) wasCancelled(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled[key]
}

func (g *gatedFetch) fetch(ctx context.Context, key string) (string, error) {
	select {
	case <-g.gate(key):
		return "value:" + key, nil
	case <-ctx.Done():
		g.mu.Lock()
		g.cancelled[key] = true
		g.mu.Unlock()
		return "", ctx.Err()
	}
}

func waitReady(t *testing.T, tr *Tracker[string, string]) State[string, string] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := tr.Wait(ctx)
	require.NoError(t, err)
	return s
}

func TestTracker_ResolvesCurrentKey(t *testing.T) {
	t.Parallel()
	g := newGatedFetch()
	tr := New(context.Background(), "identity", g.fetch, nil)
	defer tr.Close()

	_, ok := tr.Value()
	assert.False(t, ok)

	tr.Watch("alice")
	assert.True(t, tr.Current().Loading)
	_, ok = tr.Value()
	assert.False(t, ok, "no value while loading")

	g.release("alice")
	s := waitReady(t, tr)
	assert.Equal(t, "alice", s.Key)
	assert.Equal(t, "value:alice", s.Value)

	v, ok := tr.Value()
	require.True(t, ok)
	assert.Equal(t, "value:alice", v)
}

func TestTracker_NewKeyCancelsPrevious(t *testing.T) {
	t.Parallel()
	g := newGatedFetch()
	tr := New(context.Background(), "balance", g.fetch, nil)
	defer tr.Close()

	tr.Watch("alice")
	tr.Watch("bob")

	require.Eventually(t, func() bool { return g.wasCancelled("alice") },
		time.Second, 5*time.Millisecond)

	g.release("bob")
	s := waitReady(t, tr)
	assert.Equal(t, "bob", s.Key)
	assert.Equal(t, "value:bob", s.Value)
}

func TestTracker_StaleResultIsDropped(t *testing.T) {
	t.Parallel()
	started := make(chan string, 2)
	finish := make(chan struct{})
	fetch := func(_ context.Context, key string) (string, error) {
		started <- key
		<-finish
		return "value:" + key, nil
	}
	tr := New(context.Background(), "identity", fetch, nil)
	defer tr.Close()

	tr.Watch("alice")
	assert.Equal(t, "alice", <-started)
	tr.Watch("bob")
	assert.Equal(t, "bob", <-started)

	close(finish)
	s := waitReady(t, tr)
	assert.Equal(t, "bob", s.Key)
	assert.Equal(t, "value:bob", s.Value)

	time.Sleep(20 * time.Millisecond)
	v, ok := tr.Value()
	require.True(t, ok)
	assert.Equal(t, "value:bob", v, "late result for alice never replaces bob")
}

func TestTracker_Error(t *testing.T) {
	t.Parallel()
	tr := New(context.Background(), "balance", func(context.Context, string) (string, error) {
		return "", errBackend
	}, nil)
	defer tr.Close()

	tr.Watch("alice")
	s := waitReady(t, tr)
	require.ErrorIs(t, s.Err, errBackend)
	_, ok := tr.Value()
	assert.False(t, ok)
}

func TestTracker_Reset(t *testing.T) {
	t.Parallel()
	g := newGatedFetch()
	tr := New(context.Background(), "identity", g.fetch, nil)
	defer tr.Close()

	tr.Watch("alice")
	tr.Reset()

	require.Eventually(t, func() bool { return g.wasCancelled("alice") },
		time.Second, 5*time.Millisecond)
	assert.False(t, tr.Current().Active)
	_, ok := tr.Value()
	assert.False(t, ok)
}

func TestTracker_Close(t *testing.T) {
	t.Parallel()
	g := newGatedFetch()
	tr := New(context.Background(), "identity", g.fetch, nil)

	tr.Watch("alice")
	tr.Close()

	require.Eventually(t, func() bool { return g.wasCancelled("alice") },
		time.Second, 5*time.Millisecond)

	_, err := tr.Wait(context.Background())
	require.ErrorIs(t, err, ErrClosed)

	tr.Watch("bob")
	assert.Equal(t, "alice", tr.Current().Key, "closed tracker ignores Watch")
}
