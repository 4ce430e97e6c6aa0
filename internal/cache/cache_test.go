package cache

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/accounthub/internal/plugin"
)

const (
	aliceSS58 = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	aliceHex  = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	bobHex    = "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"
)

func TestLookupCache_Balance(t *testing.T) {
	t.Parallel()
	c := New()

	_, ok := c.Balance(aliceSS58, time.Minute)
	assert.False(t, ok)

	c.SetBalance(aliceSS58, &plugin.Balance{Value: big.NewInt(125), Decimals: 1, Symbol: "UNIT"})
	b, ok := c.Balance(aliceHex, time.Minute)
	require.True(t, ok, "keyed by decoded account")
	require.NotNil(t, b)
	assert.Equal(t, "12.5 UNIT", b.String())

	c.SetBalance(bobHex, nil)
	b, ok = c.Balance(bobHex, time.Minute)
	assert.True(t, ok, "misses are cached")
	assert.Nil(t, b)

	assert.Equal(t, 2, c.Size())
	assert.True(t, c.Dirty())
}

func TestLookupCache_Identity(t *testing.T) {
	t.Parallel()
	c := New()

	c.SetIdentity(aliceHex, &plugin.Identity{Name: "Alice", SubID: "ops", Verified: true})
	id, ok := c.Identity(aliceSS58, time.Minute)
	require.True(t, ok)
	assert.Equal(t, &plugin.Identity{Name: "Alice", SubID: "ops", Verified: true}, id)

	_, ok = c.Balance(aliceSS58, time.Minute)
	assert.False(t, ok, "kinds do not collide")

	c.Delete(KindIdentity, aliceSS58)
	_, ok = c.Identity(aliceSS58, time.Minute)
	assert.False(t, ok)
}

func TestLookupCache_Staleness(t *testing.T) {
	t.Parallel()
	c := New()
	c.SetBalance(aliceSS58, &plugin.Balance{Value: big.NewInt(1)})

	key := Key(KindBalance, aliceSS58)
	e := c.Entries[key]
	e.UpdatedAt = time.Now().Add(-time.Hour)
	c.Entries[key] = e

	_, ok := c.Balance(aliceSS58, DefaultStaleness)
	assert.False(t, ok)

	c.SetIdentity(bobHex, nil)
	assert.Equal(t, 1, c.Prune(DefaultStaleness))
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Zero(t, c.Size())
}

func TestFileStorage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	storage := NewFileStorage(Path(filepath.Join(dir, "home")))

	t.Run("missing file is empty", func(t *testing.T) {
		c, err := storage.Load()
		require.NoError(t, err)
		assert.Zero(t, c.Size())
		assert.False(t, c.Dirty())
	})

	t.Run("round trip", func(t *testing.T) {
		c := New()
		c.SetBalance(aliceSS58, &plugin.Balance{Value: big.NewInt(42), Decimals: 0, Symbol: "UNIT"})
		c.SetIdentity(aliceSS58, nil)
		require.NoError(t, storage.Save(c))
		assert.False(t, c.Dirty())

		loaded, err := storage.Load()
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Size())
		b, ok := loaded.Balance(aliceHex, time.Minute)
		require.True(t, ok)
		assert.Equal(t, int64(42), b.Value.Int64())
		id, ok := loaded.Identity(aliceHex, time.Minute)
		assert.True(t, ok)
		assert.Nil(t, id)
	})

	t.Run("corrupt file moved aside", func(t *testing.T) {
		require.NoError(t, os.WriteFile(storage.Path(), []byte("{oops"), 0o600))

		c, err := storage.Load()
		require.ErrorIs(t, err, ErrCorruptCache)
		assert.Zero(t, c.Size())
		_, statErr := os.Stat(storage.Path())
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, storage.Save(New()))
		require.NoError(t, storage.Delete())
		require.NoError(t, storage.Delete(), "deleting twice is fine")
	})
}
