package address

import (
	"bytes"
	"encoding/binary"
	"sort"

	"golang.org/x/crypto/blake2b"

	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

//nolint:gochecknoglobals // Multisig account id derivation prefix
var multisigPrefix = []byte("modlpy/utilisuba")

// MultisigAddress derives the deterministic account address of a multisig
// from its signatories and threshold. Signatory order does not matter.
func MultisigAddress(signatories []Address, threshold uint16, format Format) (Address, error) {
	if threshold == 0 || int(threshold) > len(signatories) {
		return "", huberr.ErrInvalidThreshold
	}

	keys := make([][]byte, 0, len(signatories))
	for _, s := range signatories {
		pub, err := Decode(s)
		if err != nil {
			return "", err
		}
		if len(pub) != accountIDLen {
			return "", huberr.WithDetails(ErrDecode, map[string]string{
				"address": string(s),
				"reason":  "signatory must be a 32-byte account id",
			})
		}
		keys = append(keys, pub)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})

	preimage := make([]byte, 0, len(multisigPrefix)+5+len(keys)*accountIDLen+2)
	preimage = append(preimage, multisigPrefix...)
	preimage = append(preimage, compactLen(len(keys))...)
	for _, k := range keys {
		preimage = append(preimage, k...)
	}
	preimage = binary.LittleEndian.AppendUint16(preimage, threshold)

	id := blake2b.Sum256(preimage)
	return FromPublicKey(id[:], format)
}

// compactLen SCALE-encodes a collection length.
func compactLen(n int) []byte {
	switch {
	case n < 1<<6:
		return []byte{byte(n << 2)}
	case n < 1<<14:
		return binary.LittleEndian.AppendUint16(nil, uint16(n<<2)|0x01) //nolint:gosec // bounded by case
	default:
		return binary.LittleEndian.AppendUint32(nil, uint32(n<<2)|0x02) //nolint:gosec // signatory lists are small
	}
}
