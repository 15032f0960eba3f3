package digest

import (
	"crypto/sha256"

	"github.com/multiformats/go-multihash"
)

// MerkleRoot computes the root digest over an ordered list of raw
// 32-byte leaf hashes. Pairs combine bottom-up as sha256(left‖right);
// when a level holds an odd count the last node promotes unchanged to
// the next level. The root is order-sensitive. An empty list yields the
// digest of empty input.
func MerkleRoot(leaves [][]byte) Digest {
	if len(leaves) == 0 {
		return Sum(nil)
	}

	level := make([][]byte, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)

		for i := 0; i+1 < len(level); i += 2 {
			h := sha256.Sum256(append(append([]byte{}, level[i]...), level[i+1]...))
			next = append(next, h[:])
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}

		level = next
	}

	return wrap(level[0])
}

// MerkleRootOfData computes the root digest over an ordered list of raw
// byte items, hashing each item into its leaf first.
func MerkleRootOfData(items [][]byte) Digest {
	leaves := make([][]byte, len(items))
	for i, item := range items {
		h := sha256.Sum256(item)
		leaves[i] = h[:]
	}
	return MerkleRoot(leaves)
}

// wrap attaches the multihash envelope to an already computed hash.
func wrap(hash []byte) Digest {
	mh, err := multihash.Encode(hash, multihash.SHA2_256)
	if err != nil {
		panic(err)
	}
	return Digest(mh)
}
