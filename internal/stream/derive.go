package stream

import "github.com/ethereum/go-ethereum/event"

// Derived is a read-only cell computed from a source cell.
type Derived[T any] struct {
	*Cell[T]

	sub event.Subscription
}

// Map derives a cell whose value is fn applied to every value of src.
// The derived cell is computed synchronously once at creation and then
// kept up to date in the background until Close is called.
func Map[S, T any](src *Cell[S], fn func(S) T) *Derived[T] {
	d := &Derived[T]{Cell: NewCell(fn(src.Get()))}
	d.sub = src.Watch(func(v S) {
		d.Set(fn(v))
	})
	return d
}

// Close stops following the source and ends all subscriptions.
func (d *Derived[T]) Close() {
	d.sub.Unsubscribe()
	d.Cell.Close()
}
