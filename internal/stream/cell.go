// Package stream provides reactive state cells: a value that always has a
// current state and pushes every replacement to its subscribers.
//
// A Cell is built on go-ethereum's event.Feed. Subscribers receive the
// current value first and then every later value. Delivery to a slow
// subscriber is conflated: only the newest pending value is kept, so a
// subscriber always converges on the latest state.
package stream

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"
)

// envelope gives the feed a concrete element type, so interface and nil
// values of T can be sent.
type envelope[T any] struct {
	value T
}

// Cell holds a current value of type T and notifies subscribers on change.
// The zero value is not usable; create cells with NewCell.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	feed  event.Feed
	scope event.SubscriptionScope
}

// NewCell creates a cell with an initial value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the current value and pushes it to all subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.feed.Send(envelope[T]{value: v})
}

// Update replaces the value with fn(current) atomically and publishes it.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = fn(c.value)
	c.feed.Send(envelope[T]{value: c.value})
	return c.value
}

// Subscribe delivers the current value and every later value to sink until
// the subscription is unsubscribed or the cell is closed.
func (c *Cell[T]) Subscribe(sink chan<- T) event.Subscription {
	c.mu.Lock()
	current := c.value
	inbox := make(chan envelope[T])
	feedSub := c.feed.Subscribe(inbox)
	c.mu.Unlock()

	sub := event.NewSubscription(func(quit <-chan struct{}) error {
		defer feedSub.Unsubscribe()

		pending, havePending := current, true
		for {
			var out chan<- T
			if havePending {
				out = sink
			}
			select {
			case out <- pending:
				havePending = false
			case env := <-inbox:
				pending, havePending = env.value, true
			case <-quit:
				return nil
			}
		}
	})
	if tracked := c.scope.Track(sub); tracked != nil {
		return tracked
	}
	// The cell is closed: end the subscription right away.
	sub.Unsubscribe()
	return event.NewSubscription(func(<-chan struct{}) error { return nil })
}

// Watch runs fn in a new goroutine for the current value and every later
// value, until the returned subscription is unsubscribed.
func (c *Cell[T]) Watch(fn func(T)) event.Subscription {
	ch := make(chan T)
	sub := c.Subscribe(ch)
	go func() {
		for {
			select {
			case v := <-ch:
				fn(v)
			case <-sub.Err():
				return
			}
		}
	}()
	return sub
}

// Close ends every subscription of the cell.
func (c *Cell[T]) Close() {
	c.scope.Close()
}
