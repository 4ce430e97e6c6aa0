package secure_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/accounthub/internal/secure"
)

func TestFromSlice(t *testing.T) {
	t.Parallel()

	raw := []byte("derived key material")
	b := secure.FromSlice(raw)
	defer b.Destroy()

	assert.Equal(t, make([]byte, len(raw)), raw, "source slice zeroed")
	assert.Equal(t, 20, b.Len())

	require.NoError(t, b.Use(func(secret []byte) error {
		assert.Equal(t, "derived key material", string(secret))
		return nil
	}))
}

func TestUse_PropagatesError(t *testing.T) {
	t.Parallel()

	b := secure.New(8)
	defer b.Destroy()

	errSign := errors.New("sign failed") //nolint:err113 // test error
	require.ErrorIs(t, b.Use(func([]byte) error { return errSign }), errSign)
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	b := secure.FromSlice([]byte{1, 2, 3})
	var seen []byte
	require.NoError(t, b.Use(func(secret []byte) error {
		seen = secret
		return nil
	}))

	b.Destroy()
	assert.Equal(t, []byte{0, 0, 0}, seen, "memory zeroed")
	assert.Zero(t, b.Len())
	assert.False(t, b.Locked())
	require.ErrorIs(t, b.Use(func([]byte) error { return nil }), secure.ErrDestroyed)

	assert.NotPanics(t, b.Destroy)
}

func TestConcurrentUse(t *testing.T) {
	t.Parallel()

	b := secure.FromSlice([]byte("abc"))
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Use(func(secret []byte) error {
				assert.Len(t, secret, 3)
				return nil
			})
		}()
	}
	wg.Wait()
	b.Destroy()
}
