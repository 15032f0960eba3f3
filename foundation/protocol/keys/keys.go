// Package keys provides the key and address engine: private scalar
// validation, public key derivation in compressed and uncompressed
// forms, checksummed address encoding, WIF import/export, and
// deterministic seed derivation.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// Set of errors for key and address handling.
var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidPublicKey  = errors.New("invalid public key")
	ErrInvalidSeed       = errors.New("invalid seed")
	ErrMalformedWIF      = errors.New("malformed wif")
	ErrInvalidAddress    = errors.New("invalid address")
)

// Network version bytes for checksummed encodings.
const (
	addressVersion = 0x00
	wifVersion     = 0x80
)

// compressedMarker trails the scalar in a WIF when the key derives
// compressed public key serializations.
const compressedMarker = 0x01

// =============================================================================

// KeyMaterial holds a validated private scalar together with the
// compressed flag that fixes its public key serialization and address.
// Both derivations are pure functions of the scalar and the flag.
type KeyMaterial struct {
	priv       *btcec.PrivateKey
	compressed bool
}

// New constructs a KeyMaterial from a 32-byte private scalar. The scalar
// must be non-zero and below the curve order.
func New(priv []byte, compressed bool) (*KeyMaterial, error) {
	if len(priv) != 32 {
		return nil, fmt.Errorf("scalar must be 32 bytes, got %d: %w", len(priv), ErrInvalidPrivateKey)
	}

	k := new(big.Int).SetBytes(priv)
	if k.Sign() == 0 || k.Cmp(btcec.S256().N) >= 0 {
		return nil, fmt.Errorf("scalar out of field bounds: %w", ErrInvalidPrivateKey)
	}

	pk, _ := btcec.PrivKeyFromBytes(priv)

	return &KeyMaterial{
		priv:       pk,
		compressed: compressed,
	}, nil
}

// NewFromHex constructs a KeyMaterial from a hex-encoded private scalar,
// with or without a 0x prefix.
func NewFromHex(s string, compressed bool) (*KeyMaterial, error) {
	priv, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding scalar hex: %w", ErrInvalidPrivateKey)
	}
	return New(priv, compressed)
}

// NewFromBigInt constructs a KeyMaterial from a private scalar supplied
// as a big integer.
func NewFromBigInt(k *big.Int, compressed bool) (*KeyMaterial, error) {
	if k.Sign() < 0 || k.BitLen() > 256 {
		return nil, fmt.Errorf("scalar out of field bounds: %w", ErrInvalidPrivateKey)
	}

	var priv [32]byte
	k.FillBytes(priv[:])
	return New(priv[:], compressed)
}

// NewFromSeed deterministically derives a KeyMaterial from a seed
// string: the scalar is the sha256 of the seed reduced modulo the curve
// order. The reduction degenerating to zero fails with ErrInvalidSeed.
func NewFromSeed(seed string, compressed bool) (*KeyMaterial, error) {
	h := sha256.Sum256([]byte(seed))

	k := new(big.Int).SetBytes(h[:])
	k.Mod(k, btcec.S256().N)
	if k.Sign() == 0 {
		return nil, fmt.Errorf("seed reduces to zero scalar: %w", ErrInvalidSeed)
	}

	return NewFromBigInt(k, compressed)
}

// Generate constructs a KeyMaterial from a fresh random scalar.
func Generate(compressed bool) (*KeyMaterial, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}

	return &KeyMaterial{
		priv:       priv,
		compressed: compressed,
	}, nil
}

// NewFromWIF constructs a KeyMaterial from its WIF string, recovering
// both the scalar and the compressed flag.
func NewFromWIF(wif string) (*KeyMaterial, error) {
	payload, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrMalformedWIF)
	}
	if version != wifVersion {
		return nil, fmt.Errorf("version %#x: %w", version, ErrMalformedWIF)
	}

	switch len(payload) {
	case 32:
		return New(payload, false)
	case 33:
		if payload[32] != compressedMarker {
			return nil, fmt.Errorf("trailing byte %#x: %w", payload[32], ErrMalformedWIF)
		}
		return New(payload[:32], true)
	}

	return nil, fmt.Errorf("payload length %d: %w", len(payload), ErrMalformedWIF)
}

// =============================================================================

// Bytes returns the 32-byte private scalar.
func (km *KeyMaterial) Bytes() []byte {
	return km.priv.Serialize()
}

// Compressed reports which public key serialization the key derives.
func (km *KeyMaterial) Compressed() bool {
	return km.compressed
}

// PrivateKey returns the underlying curve private key for signing.
func (km *KeyMaterial) PrivateKey() *btcec.PrivateKey {
	return km.priv
}

// PublicKey derives the public key serialization selected by the
// compressed flag: 33 bytes compressed, 65 bytes uncompressed.
func (km *KeyMaterial) PublicKey() []byte {
	if km.compressed {
		return km.priv.PubKey().SerializeCompressed()
	}
	return km.priv.PubKey().SerializeUncompressed()
}

// Address derives the checksummed address for the key's public key
// serialization. Changing the compressed flag changes the address.
func (km *KeyMaterial) Address() string {
	addr, err := AddressFromPublicKey(km.PublicKey())
	if err != nil {

		// The serialization came off the curve; it cannot be malformed.
		panic(err)
	}
	return addr
}

// WIF exports the key as a checksummed WIF string carrying the scalar
// and the compressed flag.
func (km *KeyMaterial) WIF() string {
	payload := km.priv.Serialize()
	if km.compressed {
		payload = append(payload, compressedMarker)
	}
	return base58.CheckEncode(payload, wifVersion)
}

// =============================================================================

// AddressFromPublicKey derives the checksummed address for a public key
// serialization: the two-stage sha256/ripemd160 fingerprint of the key
// bytes, version byte prepended, 4-byte double-sha checksum appended,
// Base58-encoded.
func AddressFromPublicKey(pub []byte) (string, error) {
	if _, err := btcec.ParsePubKey(pub); err != nil {
		return "", fmt.Errorf("parsing public key: %w", ErrInvalidPublicKey)
	}
	return base58.CheckEncode(btcutil.Hash160(pub), addressVersion), nil
}

// ValidateAddress checks an address string's encoding, version byte,
// checksum, and fingerprint length.
func ValidateAddress(addr string) error {
	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", err, ErrInvalidAddress)
	}
	if version != addressVersion {
		return fmt.Errorf("version %#x: %w", version, ErrInvalidAddress)
	}
	if len(payload) != 20 {
		return fmt.Errorf("payload length %d: %w", len(payload), ErrInvalidAddress)
	}
	return nil
}
