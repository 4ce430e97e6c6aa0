package hub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/chaindata"
	"github.com/mrz1836/accounthub/internal/plugin"
)

var errDown = errors.New("down")

type failingSource struct {
	countingIndexer
}

func (f *failingSource) GetMultisig(context.Context, address.Address) (*plugin.MultisigDescriptor, error) {
	return nil, errDown
}

func (f *failingSource) GetDelegates(context.Context, address.Address) ([]plugin.ProxyRelation, error) {
	return nil, errDown
}

type fixedSource struct {
	countingIndexer
}

func (*fixedSource) GetMultisig(context.Context, address.Address) (*plugin.MultisigDescriptor, error) {
	return &plugin.MultisigDescriptor{Signatories: []address.Address{aliceHex}, Threshold: 1}, nil
}

func (*fixedSource) GetDelegates(context.Context, address.Address) ([]plugin.ProxyRelation, error) {
	return []plugin.ProxyRelation{{Real: charlieHex, Delegate: aliceBobHex}}, nil
}

func TestFirstMultisig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assert.Nil(t, firstMultisig(nil))

	lookup := firstMultisig([]plugin.MultisigLookup{&failingSource{}, &fixedSource{}})
	d, err := lookup(ctx, aliceBobHex)
	require.NoError(t, err, "a later lookup answering hides earlier failures")
	require.NotNil(t, d)

	lookup = firstMultisig([]plugin.MultisigLookup{&countingIndexer{}, &failingSource{}})
	d, err = lookup(ctx, aliceBobHex)
	require.ErrorIs(t, err, errDown)
	assert.Nil(t, d)

	lookup = firstMultisig([]plugin.MultisigLookup{&countingIndexer{}})
	d, err = lookup(ctx, aliceBobHex)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestChainSources(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rels, err := chainSources{&countingIndexer{}, &failingSource{}, &fixedSource{}}.GetDelegates(ctx, charlieHex)
	require.NoError(t, err)
	assert.Len(t, rels, 1)

	rels, err = chainSources{&countingIndexer{}}.GetDelegates(ctx, charlieHex)
	require.NoError(t, err)
	assert.Nil(t, rels)

	_, err = chainSources([]chaindata.Source{&failingSource{}}).GetDelegates(ctx, charlieHex)
	require.ErrorIs(t, err, errDown)
}
