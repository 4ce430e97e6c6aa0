package address

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"

	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

const (
	// checksumLen is the SS58 checksum length for 32 and 33 byte payloads.
	checksumLen = 2

	// accountIDLen is the length of a 32-byte account id.
	accountIDLen = 32

	// compressedKeyLen is the length of a compressed ECDSA public key.
	compressedKeyLen = 33

	// singleBytePrefixMax is the largest format encoded in one byte.
	singleBytePrefixMax = 63
)

//nolint:gochecknoglobals // Checksum preimage prefix
var ss58Preimage = []byte("SS58PRE")

// EncodeSS58 encodes a 32 or 33 byte public key under the given format.
func EncodeSS58(pub []byte, format Format) (string, error) {
	if !validPayloadLen(len(pub)) {
		return "", huberr.WithDetails(huberr.ErrInvalidAddress, map[string]string{
			"length": fmt.Sprintf("%d", len(pub)),
		})
	}
	if format > MaxFormat {
		return "", huberr.WithDetails(huberr.ErrInvalidFormat, map[string]string{
			"format": fmt.Sprintf("%d", format),
		})
	}

	prefix := encodePrefix(format)
	data := make([]byte, 0, len(prefix)+len(pub)+checksumLen)
	data = append(data, prefix...)
	data = append(data, pub...)
	data = append(data, checksum(data)...)

	return base58.Encode(data), nil
}

// DecodeSS58 decodes an SS58 string into its public key and network format.
func DecodeSS58(s string) ([]byte, Format, error) {
	invalid := huberr.WithDetails(ErrDecode, map[string]string{"address": s})
	if s == "" {
		return nil, 0, invalid
	}

	decoded := base58.Decode(s)
	if len(decoded) < 2 {
		return nil, 0, invalid
	}

	format, prefixLen, ok := decodePrefix(decoded[0], decoded[1])
	if !ok {
		return nil, 0, invalid
	}

	payloadLen := len(decoded) - prefixLen - checksumLen
	if !validPayloadLen(payloadLen) {
		return nil, 0, invalid
	}

	body := decoded[:len(decoded)-checksumLen]
	sum := decoded[len(decoded)-checksumLen:]
	if !bytes.Equal(sum, checksum(body)) {
		return nil, 0, huberr.WithDetails(ErrDecode, map[string]string{"address": s, "reason": "checksum mismatch"})
	}

	pub := make([]byte, payloadLen)
	copy(pub, body[prefixLen:])
	return pub, format, nil
}

// encodePrefix returns the one or two byte network prefix.
func encodePrefix(format Format) []byte {
	if format <= singleBytePrefixMax {
		return []byte{byte(format)}
	}
	ident := uint16(format) & 0x3fff
	first := byte((ident&0x00fc)>>2) | 0x40
	second := byte(ident>>8) | byte((ident&0x0003)<<6)
	return []byte{first, second}
}

// decodePrefix parses the network prefix from the first two decoded bytes.
func decodePrefix(b0, b1 byte) (Format, int, bool) {
	switch {
	case b0 <= singleBytePrefixMax:
		return Format(b0), 1, true
	case b0 < 0x80:
		lower := (b0 << 2) | (b1 >> 6)
		upper := b1 & 0x3f
		return Format(lower) | Format(upper)<<8, 2, true
	default:
		return 0, 0, false
	}
}

// checksum returns the first two bytes of blake2b-512("SS58PRE" || data).
func checksum(data []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Preimage)
	h.Write(data)
	return h.Sum(nil)[:checksumLen]
}

func validPayloadLen(n int) bool {
	return n == accountIDLen || n == compressedKeyLen
}
