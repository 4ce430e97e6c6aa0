// Package keyring provides a signing plugin whose accounts are derived
// from a BIP39 mnemonic along m/44'/354'/0'/0/i.
package keyring

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/plugin"
	"github.com/mrz1836/accounthub/internal/secure"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// ID is the registry id of the keyring plugin.
const ID = "keyring"

// coinType is the SLIP-44 coin type used in derivation paths.
const coinType = 354

// InfoPath is the handle info key holding the derivation path.
const InfoPath = "path"

// Options configures the keyring.
type Options struct {
	Count      int
	Format     address.Format
	NamePrefix string
	Passphrase string
}

// Plugin exposes mnemonic-derived signing accounts.
type Plugin struct {
	*plugin.Base

	signers map[string]*Signer
}

// Compile-time interface checks
var (
	_ plugin.Serializer = (*Plugin)(nil)
	_ plugin.Closer     = (*Plugin)(nil)
	_ plugin.Signer     = (*Signer)(nil)
)

// New derives opts.Count accounts from mnemonic.
func New(mnemonic string, opts Options) (*Plugin, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	if opts.Count < 1 {
		opts.Count = 1
	}

	seed := bip39.NewSeed(NormalizeMnemonic(mnemonic), opts.Passphrase)
	defer clear(seed)

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, huberr.Wrap(huberr.ErrInvalidMnemonic, "deriving master key: %v", err)
	}
	account, err := derivePath(master,
		bip32.FirstHardenedChild+44,
		bip32.FirstHardenedChild+coinType,
		bip32.FirstHardenedChild,
		0,
	)
	if err != nil {
		return nil, err
	}

	p := &Plugin{Base: plugin.NewBase(ID), signers: make(map[string]*Signer, opts.Count)}
	accounts := make([]plugin.Account, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		child, err := account.NewChildKey(uint32(i)) //nolint:gosec // bounded by config
		if err != nil {
			return nil, fmt.Errorf("deriving key %d: %w", i, err)
		}
		signer, err := newSigner(child.Key, fmt.Sprintf("m/44'/%d'/0'/0/%d", coinType, i))
		if err != nil {
			return nil, err
		}
		addr, err := signer.Address(opts.Format)
		if err != nil {
			return nil, err
		}

		name := ""
		if opts.NamePrefix != "" {
			name = fmt.Sprintf("%s %d", opts.NamePrefix, i+1)
		}
		p.signers[address.Key(addr)] = signer
		accounts = append(accounts, plugin.Account{Address: addr, Name: name, Signer: signer})
	}
	p.Publish(accounts)
	return p, nil
}

// FromConfig builds the keyring from the mnemonic in the configured
// environment variable.
func FromConfig(cfg config.KeyringConfig, format address.Format) (*Plugin, error) {
	mnemonic := strings.TrimSpace(os.Getenv(cfg.MnemonicEnv))
	if mnemonic == "" {
		return nil, huberr.WithSuggestion(
			huberr.WithDetails(huberr.ErrInvalidMnemonic, map[string]string{"env": cfg.MnemonicEnv}),
			fmt.Sprintf("export %s with a 12 or 24 word phrase", cfg.MnemonicEnv),
		)
	}
	return New(mnemonic, Options{Count: cfg.Count, Format: format, NamePrefix: cfg.NamePrefix})
}

// Serialize returns a handle carrying the derivation path of account.
func (p *Plugin) Serialize(account plugin.Account) plugin.SignerHandle {
	handle := plugin.DefaultSerialize(account)
	if s, ok := p.signers[address.Key(account.Address)]; ok {
		handle.Info = map[string]string{InfoPath: s.path}
	}
	return handle
}

// Close destroys the key material. Signers fail with ErrNoSigner afterwards.
func (p *Plugin) Close() error {
	for _, s := range p.signers {
		s.secret.Destroy()
	}
	return p.Base.Close()
}

func derivePath(key *bip32.Key, path ...uint32) (*bip32.Key, error) {
	for _, idx := range path {
		child, err := key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("deriving child %d: %w", idx, err)
		}
		key = child
	}
	return key, nil
}

// Signer signs with a derived secp256k1 key. The account id is the
// blake2b-256 hash of the compressed public key.
type Signer struct {
	secret *secure.Bytes
	pub    []byte
	path   string
}

// newSigner takes ownership of priv, which is zeroed.
func newSigner(priv []byte, path string) (*Signer, error) {
	raw := common.LeftPadBytes(priv, 32)
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		clear(raw)
		return nil, fmt.Errorf("parsing derived key: %w", err)
	}
	return &Signer{
		secret: secure.FromSlice(raw),
		pub:    crypto.CompressPubkey(&key.PublicKey),
		path:   path,
	}, nil
}

// PublicKey returns the 33-byte compressed public key.
func (s *Signer) PublicKey() []byte {
	out := make([]byte, len(s.pub))
	copy(out, s.pub)
	return out
}

// Path returns the derivation path of the key.
func (s *Signer) Path() string {
	return s.path
}

// Address returns the account address of the key under format.
func (s *Signer) Address(format address.Format) (address.Address, error) {
	id := blake2b.Sum256(s.pub)
	return address.FromPublicKey(id[:], format)
}

// Sign returns the 65-byte recoverable signature of blake2b-256(payload).
func (s *Signer) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	digest := blake2b.Sum256(payload)

	var sig []byte
	err := s.secret.Use(func(secret []byte) error {
		key, err := crypto.ToECDSA(secret)
		if err != nil {
			return err
		}
		sig, err = crypto.Sign(digest[:], key)
		return err
	})
	if errors.Is(err, secure.ErrDestroyed) {
		return nil, huberr.WithDetails(huberr.ErrNoSigner, map[string]string{"path": s.path})
	}
	return sig, err
}
