// Package lookup runs cancellable asynchronous lookups keyed by an input
// value, such as the identity or balance of the address being displayed.
//
// Only the most recent key matters. Watching a new key cancels the lookup
// for the previous one, and a result that arrives for a superseded key is
// discarded.
package lookup

import (
	"context"
	"errors"
	"sync"

	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/metrics"
	"github.com/mrz1836/accounthub/internal/stream"
)

// ErrClosed is returned by Wait once the tracker is closed.
var ErrClosed = errors.New("lookup: tracker closed")

// Func fetches the value for key. A nil or zero value with a nil error
// means "no data".
type Func[K comparable, V any] func(ctx context.Context, key K) (V, error)

// State is the observable state of a tracker.
type State[K comparable, V any] struct {
	Key     K
	Active  bool
	Loading bool
	Value   V
	Err     error
}

// Ready reports whether a lookup for the current key has completed.
func (s State[K, V]) Ready() bool {
	return s.Active && !s.Loading
}

// Tracker follows one key at a time.
type Tracker[K comparable, V any] struct {
	mu     sync.Mutex
	fetch  Func[K, V]
	parent context.Context
	gen    uint64
	cancel context.CancelFunc
	closed bool
	cell   *stream.Cell[State[K, V]]
	log    config.LogWriter
}

// New creates a tracker. Lookups run under contexts derived from parent.
// name labels log lines.
func New[K comparable, V any](parent context.Context, name string, fetch Func[K, V], log config.LogWriter) *Tracker[K, V] {
	return &Tracker[K, V]{
		fetch:  fetch,
		parent: parent,
		cell:   stream.NewCell(State[K, V]{}),
		log:    config.Named(log, "lookup."+name),
	}
}

// Watch makes key current and starts looking it up, cancelling the lookup
// for the previous key. Watching the current key again restarts it.
func (t *Tracker[K, V]) Watch(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	t.stopLocked()
	t.gen++
	gen := t.gen
	ctx, cancel := context.WithCancel(t.parent)
	t.cancel = cancel
	t.cell.Set(State[K, V]{Key: key, Active: true, Loading: true})

	go t.run(ctx, gen, key)
}

// Reset cancels any lookup and forgets the current key.
func (t *Tracker[K, V]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.stopLocked()
	t.gen++
	t.cell.Set(State[K, V]{})
}

// Value returns the looked-up value for the current key once available.
func (t *Tracker[K, V]) Value() (V, bool) {
	s := t.cell.Get()
	if !s.Ready() || s.Err != nil {
		var zero V
		return zero, false
	}
	return s.Value, true
}

// Current returns the tracker state.
func (t *Tracker[K, V]) Current() State[K, V] {
	return t.cell.Get()
}

// Cell returns the state cell.
func (t *Tracker[K, V]) Cell() *stream.Cell[State[K, V]] {
	return t.cell
}

// Wait blocks until the lookup for the current key completes and returns
// its state.
func (t *Tracker[K, V]) Wait(ctx context.Context) (State[K, V], error) {
	ch := make(chan State[K, V])
	sub := t.cell.Subscribe(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case s := <-ch:
			if !s.Loading {
				return s, nil
			}
		case <-sub.Err():
			return State[K, V]{}, ErrClosed
		case <-ctx.Done():
			return State[K, V]{}, ctx.Err()
		}
	}
}

// Close cancels any lookup and ends every subscription.
func (t *Tracker[K, V]) Close() {
	t.mu.Lock()
	t.closed = true
	t.stopLocked()
	t.gen++
	t.mu.Unlock()
	t.cell.Close()
}

// stopLocked must be called with t.mu held.
func (t *Tracker[K, V]) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker[K, V]) run(ctx context.Context, gen uint64, key K) {
	value, err := t.fetch(ctx, key)

	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || ctx.Err() != nil {
		metrics.Global.RecordStaleLookup()
		t.log.Debug("dropped stale result for %v", key)
		return
	}

	metrics.Global.RecordLookup(err)
	if err != nil {
		t.log.Error("%v failed: %v", key, err)
	}
	t.stopLocked()
	t.cell.Set(State[K, V]{Key: key, Active: true, Value: value, Err: err})
}
