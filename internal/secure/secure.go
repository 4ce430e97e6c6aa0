// Package secure holds secret key material in locked memory that is zeroed
// when released.
package secure

import (
	"errors"
	"runtime"
	"sync"
)

// ErrDestroyed is returned when using a buffer after Destroy.
var ErrDestroyed = errors.New("secret has been destroyed")

// Bytes is a secret byte buffer. The memory is mlocked where the platform
// allows it and zeroed by Destroy or, failing that, by the finalizer.
type Bytes struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// New allocates a zeroed secret buffer of size bytes.
func New(size int) *Bytes {
	b := &Bytes{data: make([]byte, size)}
	b.locked = mlock(b.data)
	runtime.SetFinalizer(b, (*Bytes).Destroy)
	return b
}

// FromSlice copies data into a new secret buffer and zeroes data.
func FromSlice(data []byte) *Bytes {
	b := New(len(data))
	copy(b.data, data)
	clear(data)
	return b
}

// Use calls fn with the secret while holding the buffer lock. fn must not
// retain the slice.
func (b *Bytes) Use(fn func(secret []byte) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return ErrDestroyed
	}
	return fn(b.data)
}

// Locked reports whether the memory is mlocked.
func (b *Bytes) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Len returns the buffer length, zero once destroyed.
func (b *Bytes) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Destroy zeroes and unlocks the memory. Safe to call multiple times.
func (b *Bytes) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return
	}
	clear(b.data)
	if b.locked {
		munlock(b.data)
		b.locked = false
	}
	b.data = nil
	runtime.SetFinalizer(b, nil)
}
