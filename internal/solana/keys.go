package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/hdevalence/ed25519consensus"
	"github.com/mr-tron/base58"
)

// Key and signature sizes.
const (
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.PrivateKeySize
	SignatureSize  = ed25519.SignatureSize

	maxSeeds      = 16
	maxSeedLength = 32
)

// ErrInvalidSeeds is returned when seeds hash to a point on the ed25519 curve
// or exceed the program address limits.
var ErrInvalidSeeds = errors.New("invalid program address seeds")

// PublicKey is a 32-byte ed25519 public key or program derived address.
type PublicKey [PublicKeySize]byte

// PublicKeyFromBase58 parses a base58 encoded public key.
func PublicKeyFromBase58(s string) (PublicKey, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("decode public key %q: %w", s, err)
	}
	if len(decoded) != PublicKeySize {
		return PublicKey{}, fmt.Errorf("public key %q: invalid length %d", s, len(decoded))
	}
	var pk PublicKey
	copy(pk[:], decoded)
	return pk, nil
}

// MustPublicKey parses a base58 public key and panics on failure.
// Only for well-known program IDs.
func MustPublicKey(s string) PublicKey {
	pk, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the base58 form.
func (p PublicKey) String() string {
	return base58.Encode(p[:])
}

// IsZero reports whether the key is all zeros.
func (p PublicKey) IsZero() bool {
	return p == PublicKey{}
}

// IsOnCurve reports whether the key is a valid ed25519 point.
// Program derived addresses are never on the curve.
func (p PublicKey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(p[:])
	return err == nil
}

// MarshalText implements encoding.TextMarshaler.
func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PublicKey) UnmarshalText(text []byte) error {
	pk, err := PublicKeyFromBase58(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}

// Signature is a 64-byte ed25519 transaction signature.
type Signature [SignatureSize]byte

// SignatureFromBase58 parses a base58 encoded signature.
func SignatureFromBase58(s string) (Signature, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return Signature{}, fmt.Errorf("decode signature: %w", err)
	}
	if len(decoded) != SignatureSize {
		return Signature{}, fmt.Errorf("signature: invalid length %d", len(decoded))
	}
	var sig Signature
	copy(sig[:], decoded)
	return sig, nil
}

// String returns the base58 form.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// IsZero reports whether the signature is unset.
func (s Signature) IsZero() bool {
	return s == Signature{}
}

// Verify checks the signature of msg against pub using ZIP-215 rules.
func (s Signature) Verify(pub PublicKey, msg []byte) bool {
	return ed25519consensus.Verify(pub[:], msg, s[:])
}

// Keypair holds an ed25519 signing key.
type Keypair struct {
	priv ed25519.PrivateKey
}

// NewKeypair generates a random keypair.
func NewKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// KeypairFromBytes builds a keypair from the 64-byte seed|pubkey form.
func KeypairFromBytes(b []byte) (*Keypair, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("keypair: invalid length %d, want %d", len(b), PrivateKeySize)
	}
	priv := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	if string(priv[ed25519.SeedSize:]) != string(b[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("keypair: public key does not match secret seed")
	}
	return &Keypair{priv: priv}, nil
}

// KeypairFromJSON parses the Solana CLI keypair format, a JSON array of 64 bytes.
func KeypairFromJSON(data []byte) (*Keypair, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("parse keypair json: %w", err)
	}
	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair json: byte %d out of range: %d", i, v)
		}
		b[i] = byte(v)
	}
	return KeypairFromBytes(b)
}

// PublicKey returns the public half of the keypair.
func (k *Keypair) PublicKey() PublicKey {
	var pk PublicKey
	copy(pk[:], k.priv[ed25519.SeedSize:])
	return pk
}

// Sign signs msg.
func (k *Keypair) Sign(msg []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.priv, msg))
	return sig
}

// Bytes returns a copy of the 64-byte secret key.
func (k *Keypair) Bytes() []byte {
	out := make([]byte, len(k.priv))
	copy(out, k.priv)
	return out
}

// JSON returns the keypair in Solana CLI JSON array form.
func (k *Keypair) JSON() []byte {
	ints := make([]int, len(k.priv))
	for i, b := range k.priv {
		ints[i] = int(b)
	}
	out, _ := json.Marshal(ints)
	return out
}

// CreateProgramAddress derives a program address from seeds and a program ID.
// Returns ErrInvalidSeeds if the result lies on the ed25519 curve.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	if len(seeds) > maxSeeds {
		return PublicKey{}, fmt.Errorf("%w: too many seeds (%d)", ErrInvalidSeeds, len(seeds))
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return PublicKey{}, fmt.Errorf("%w: seed length %d exceeds %d", ErrInvalidSeeds, len(seed), maxSeedLength)
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte("ProgramDerivedAddress"))

	var pda PublicKey
	copy(pda[:], h.Sum(nil))
	if pda.IsOnCurve() {
		return PublicKey{}, fmt.Errorf("%w: address on curve", ErrInvalidSeeds)
	}
	return pda, nil
}

// FindProgramAddress searches bump seeds from 255 down for the first
// off-curve address.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	if len(seeds) >= maxSeeds {
		return PublicKey{}, 0, fmt.Errorf("%w: too many seeds (%d)", ErrInvalidSeeds, len(seeds))
	}
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return PublicKey{}, 0, fmt.Errorf("%w: seed length %d exceeds %d", ErrInvalidSeeds, len(seed), maxSeedLength)
		}
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		pda, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return pda, uint8(bump), nil
		}
	}
	return PublicKey{}, 0, fmt.Errorf("%w: no viable bump seed", ErrInvalidSeeds)
}
