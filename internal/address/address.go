// Package address normalizes and compares account addresses across the
// SS58 (network checksummed) and raw hex encodings.
package address

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// Address is an account address in either SS58 or 0x-prefixed hex encoding.
// Two addresses are equal when they decode to the same public key bytes,
// regardless of the network format they were encoded with.
type Address string

// Format is the SS58 network prefix.
type Format uint16

// Well-known network formats.
const (
	FormatPolkadot Format = 0
	FormatKusama   Format = 2
	FormatGeneric  Format = 42

	// MaxFormat is the largest prefix representable in two bytes.
	MaxFormat Format = 16383
)

// ErrDecode is returned when an address cannot be decoded.
//
//nolint:gochecknoglobals // Sentinel error
var ErrDecode = huberr.ErrInvalidAddress

// String returns the address text.
func (a Address) String() string {
	return string(a)
}

// IsHex reports whether the address uses the 0x hex encoding.
func (a Address) IsHex() bool {
	return strings.HasPrefix(string(a), "0x")
}

// Decode returns the public key bytes behind an address.
// Hex addresses are decoded as-is; anything else is treated as SS58.
func Decode(addr Address) ([]byte, error) {
	if addr.IsHex() {
		raw, err := hexutil.Decode(string(addr))
		if err != nil || !validPayloadLen(len(raw)) {
			return nil, huberr.WithDetails(ErrDecode, map[string]string{"address": string(addr)})
		}
		return raw, nil
	}

	pub, _, err := DecodeSS58(string(addr))
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// Key returns the canonical comparison key of an address: the lowercase hex
// of its public key, or the raw string when it cannot be decoded.
func Key(addr Address) string {
	pub, err := Decode(addr)
	if err != nil {
		return string(addr)
	}
	return hexutil.Encode(pub)
}

// Equal reports whether two addresses refer to the same account.
// Undecodable operands fall back to plain string comparison, so malformed
// input still compares equal to itself. Equal never fails.
func Equal(a, b Address) bool {
	return Key(a) == Key(b)
}

// IsValid reports whether the address decodes in either encoding.
func IsValid(addr Address) bool {
	_, err := Decode(addr)
	return err == nil
}

// Reformat re-encodes an address as SS58 under the given network format.
// Unlike Equal it surfaces decode failures.
func Reformat(addr Address, format Format) (Address, error) {
	pub, err := Decode(addr)
	if err != nil {
		return "", err
	}
	encoded, err := EncodeSS58(pub, format)
	if err != nil {
		return "", err
	}
	return Address(encoded), nil
}

// ToHex returns the 0x-prefixed hex form of an address.
func ToHex(addr Address) (Address, error) {
	pub, err := Decode(addr)
	if err != nil {
		return "", err
	}
	return Address(hexutil.Encode(pub)), nil
}

// FromPublicKey encodes raw public key bytes as an SS58 address.
func FromPublicKey(pub []byte, format Format) (Address, error) {
	encoded, err := EncodeSS58(pub, format)
	if err != nil {
		return "", err
	}
	return Address(encoded), nil
}
