// Package signature provides the signing engine: deterministic compact
// recoverable signatures and public-key/address recovery, single and
// multi-signer.
package signature

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/veloxchain/velox/foundation/protocol/keys"
)

// Set of errors for signing and recovery failures.
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidDigest    = errors.New("invalid digest")
)

// Length is the size in bytes of a compact recoverable signature: one
// header byte carrying the recovery id, then r and s at 32 bytes each.
const Length = 65

// headerBase is the offset added to the recovery id in the header byte.
// Another 4 is added when the signer's public key serializes compressed.
const headerBase = 27

// =============================================================================

// Sign produces a compact recoverable signature over a 32-byte digest.
// The per-message nonce is deterministic, so signing the same digest
// with the same key is reproducible, and the embedded recovery id is
// chosen so recovery yields exactly the signer's public key.
func Sign(km *keys.KeyMaterial, digest []byte) ([]byte, error) {
	if len(digest) != sha256.Size {
		return nil, fmt.Errorf("digest must be %d bytes, got %d: %w", sha256.Size, len(digest), ErrInvalidDigest)
	}

	return ecdsa.SignCompact(km.PrivateKey(), digest, km.Compressed()), nil
}

// RecoverPublicKey reconstructs the signer's public key from a digest
// and a compact signature, using the embedded recovery id to select the
// unique candidate point. The compressed flag picks the serialization of
// the returned key.
func RecoverPublicKey(digest []byte, sig []byte, compressed bool) ([]byte, error) {
	if len(sig) != Length {
		return nil, fmt.Errorf("signature must be %d bytes, got %d: %w", Length, len(sig), ErrInvalidSignature)
	}

	pub, _, err := ecdsa.RecoverCompact(sig, digest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrInvalidSignature)
	}

	if compressed {
		return pub.SerializeCompressed(), nil
	}
	return pub.SerializeUncompressed(), nil
}

// RecoverAddress composes public key recovery with address derivation.
func RecoverAddress(digest []byte, sig []byte, compressed bool) (string, error) {
	pub, err := RecoverPublicKey(digest, sig, compressed)
	if err != nil {
		return "", err
	}
	return keys.AddressFromPublicKey(pub)
}

// =============================================================================

// Extractor pulls the compact signature out of an algorithm-specific
// envelope before recovery proceeds. Consensus schemes that wrap
// signatures in larger payloads supply their own; ExtractCompact is the
// identity default.
type Extractor func(envelope []byte) ([]byte, error)

// ExtractCompact is the identity extractor for envelopes that carry a
// bare compact signature.
func ExtractCompact(envelope []byte) ([]byte, error) {
	if len(envelope) != Length {
		return nil, fmt.Errorf("envelope length %d: %w", len(envelope), ErrInvalidSignature)
	}
	return envelope, nil
}

// RecoverSigners recovers one address per attached signature envelope,
// preserving attachment order. A nil extractor defaults to
// ExtractCompact.
func RecoverSigners(digest []byte, envelopes [][]byte, compressed bool, extract Extractor) ([]string, error) {
	if extract == nil {
		extract = ExtractCompact
	}

	addrs := make([]string, 0, len(envelopes))
	for i, envelope := range envelopes {
		sig, err := extract(envelope)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}

		addr, err := RecoverAddress(digest, sig, compressed)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		addrs = append(addrs, addr)
	}

	return addrs, nil
}

// =============================================================================

// Parse splits a compact signature into its recovery id, compressed-key
// marker, and (r, s) scalars.
func Parse(sig []byte) (recoveryID byte, compressed bool, r, s *big.Int, err error) {
	if len(sig) != Length {
		return 0, false, nil, nil, fmt.Errorf("signature must be %d bytes, got %d: %w", Length, len(sig), ErrInvalidSignature)
	}

	header := sig[0]
	if header < headerBase || header >= headerBase+8 {
		return 0, false, nil, nil, fmt.Errorf("header byte %#x: %w", header, ErrInvalidSignature)
	}

	recoveryID = (header - headerBase) & 3
	compressed = header-headerBase >= 4
	r = new(big.Int).SetBytes(sig[1:33])
	s = new(big.Int).SetBytes(sig[33:])

	return recoveryID, compressed, r, s, nil
}
