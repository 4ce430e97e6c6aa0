package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/directory"
	"github.com/mrz1836/accounthub/internal/plugin"
)

type stubSigner struct {
	id byte
}

func (s stubSigner) PublicKey() []byte { return []byte{s.id} }

func (s stubSigner) Sign(_ context.Context, payload []byte) ([]byte, error) {
	return append([]byte{s.id}, payload...), nil
}

func localSnapshot() directory.Snapshot {
	return directory.NewSnapshot([]string{"keyring", "readonly"}, map[string][]plugin.Account{
		"keyring": {
			{Address: aliceSS58, Name: "Alice", ProviderID: "keyring", Signer: stubSigner{id: 1}},
			{Address: multisigHex, Name: "Other", ProviderID: "keyring", Signer: stubSigner{id: 2}},
		},
		"readonly": {
			{Address: bobHex, Name: "Bob", ProviderID: "readonly"},
		},
	})
}

func TestEligibleSigners(t *testing.T) {
	t.Parallel()
	c := &Candidate{Address: multisigHex, Descriptor: *descriptor()}

	signers := EligibleSigners(c, localSnapshot())
	if assert.Len(t, signers, 1) {
		assert.Equal(t, "Alice", signers[0].Name, "matched across address formats")
	}
	assert.Nil(t, EligibleSigners(nil, localSnapshot()))
}

func TestClassify(t *testing.T) {
	t.Parallel()
	snap := localSnapshot()

	assert.Equal(t, OutcomeNotFound, Classify(nil, snap).Outcome)

	ready := Classify(&Candidate{Address: multisigHex, Descriptor: *descriptor()}, snap)
	assert.Equal(t, OutcomeReady, ready.Outcome)
	assert.Len(t, ready.Signers, 1)

	watchOnly := Classify(&Candidate{
		Address: multisigHex,
		Descriptor: plugin.MultisigDescriptor{
			Signatories: []address.Address{bobHex, charlieHex},
			Threshold:   1,
		},
	}, snap)
	assert.Equal(t, OutcomeNoLocalSigner, watchOnly.Outcome)
	assert.Empty(t, watchOnly.Signers)
	assert.Equal(t, "no-local-signer", watchOnly.Outcome.String())
	assert.Equal(t, "ready", OutcomeReady.String())
	assert.Equal(t, "not-found", OutcomeNotFound.String())
}
