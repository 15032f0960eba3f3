// Package digest provides the protocol's canonical hashing: sha256
// digests wrapped in a self-describing multihash envelope, and the
// ordered merkle construction over digest lists.
package digest

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/multiformats/go-multihash"
)

// Set of errors for digest parsing.
var ErrInvalidDigest = errors.New("invalid digest")

// Size is the length in bytes of the raw hash carried in a digest.
const Size = sha256.Size

// Digest is a self-describing hash value: the raw sha256 bytes prefixed
// with the multihash algorithm tag and length. It is used as transaction
// id, block id, and merkle root.
type Digest []byte

// Sum hashes the specified bytes into a digest. Identical input always
// yields an identical digest.
func Sum(data []byte) Digest {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {

		// sha2-256 is a registered multihash; Sum cannot fail for it.
		panic(err)
	}
	return Digest(mh)
}

// Raw unwraps the digest into its raw hash bytes, validating the
// algorithm tag and length against the protocol's configuration.
func (d Digest) Raw() ([]byte, error) {
	dec, err := multihash.Decode([]byte(d))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrInvalidDigest)
	}
	if dec.Code != multihash.SHA2_256 || dec.Length != Size {
		return nil, fmt.Errorf("algorithm %#x length %d: %w", dec.Code, dec.Length, ErrInvalidDigest)
	}
	return dec.Digest, nil
}

// String implements the fmt.Stringer interface using 0x-prefixed hex,
// the form ids take in structured values.
func (d Digest) String() string {
	return hexutil.Encode(d)
}

// Parse converts a 0x-prefixed hex string into a validated digest.
func Parse(s string) (Digest, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrInvalidDigest)
	}

	d := Digest(data)
	if _, err := d.Raw(); err != nil {
		return nil, err
	}
	return d, nil
}

// Equal reports whether two digests carry identical bytes.
func (d Digest) Equal(other Digest) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if d[i] != other[i] {
			return false
		}
	}
	return true
}
