package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/accounthub/internal/plugin"
)

func TestBestNames_LongestNameWins(t *testing.T) {
	t.Parallel()
	snap := NewSnapshot([]string{"p1", "p2"}, map[string][]plugin.Account{
		"p1": {{Address: aliceSS58, Name: "A", ProviderID: "p1"}},
		"p2": {{Address: aliceHex, Name: "Alice", ProviderID: "p2"}},
	})

	best := BestNames(snap)
	require.Len(t, best, 1)
	assert.Equal(t, "Alice", best[0].Name)
	assert.Equal(t, "p2", best[0].ProviderID)
}

func TestBestNames_TieKeepsFirst(t *testing.T) {
	t.Parallel()
	snap := NewSnapshot([]string{"p1", "p2"}, map[string][]plugin.Account{
		"p1": {{Address: aliceSS58, Name: "Ann", ProviderID: "p1"}},
		"p2": {{Address: aliceHex, Name: "Ali", ProviderID: "p2"}},
	})

	best := BestNames(snap)
	require.Len(t, best, 1)
	assert.Equal(t, "Ann", best[0].Name)
}

func TestBestNames_EmptyNamesAndDistinctAddresses(t *testing.T) {
	t.Parallel()
	snap := NewSnapshot([]string{"p1", "p2"}, map[string][]plugin.Account{
		"p1": {
			{Address: aliceSS58, ProviderID: "p1"},
			{Address: bobHex, ProviderID: "p1"},
		},
		"p2": {
			{Address: aliceHex, ProviderID: "p2"},
			{Address: "not-an-address", Name: "raw", ProviderID: "p2"},
		},
	})

	best := BestNames(snap)
	require.Len(t, best, 3)
	assert.Equal(t, "p1", best[0].ProviderID, "no non-empty name keeps the first account")
	assert.Empty(t, best[0].Name)
	assert.Equal(t, "raw", best[2].Name)
}

func TestBestNames_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, BestNames(NewSnapshot(nil, nil)))
}

func TestNameOf(t *testing.T) {
	t.Parallel()
	snap := NewSnapshot([]string{"p1", "p2"}, map[string][]plugin.Account{
		"p1": {{Address: aliceSS58, Name: "A"}},
		"p2": {{Address: aliceHex, Name: "Alice"}},
	})
	assert.Equal(t, "Alice", NameOf(snap, aliceHex))
	assert.Empty(t, NameOf(snap, bobHex))
}
