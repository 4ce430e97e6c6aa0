package plugin

import "context"

// DelegatedSigner signs on behalf of a derived account (a multisig or a
// proxied account) by passing the payload to the parent account's signer.
type DelegatedSigner struct {
	Parent SignerHandle
	signer Signer
}

// NewDelegatedSigner wraps the signer of the parent account identified by
// handle.
func NewDelegatedSigner(handle SignerHandle, parent Signer) *DelegatedSigner {
	return &DelegatedSigner{Parent: handle, signer: parent}
}

// PublicKey returns the parent's public key.
func (s *DelegatedSigner) PublicKey() []byte {
	return s.signer.PublicKey()
}

// Sign signs payload with the parent signer.
func (s *DelegatedSigner) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	return s.signer.Sign(ctx, payload)
}
