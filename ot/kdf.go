package ot

import (
	"github.com/dedis/psu/block"
	"golang.org/x/crypto/blake2b"
)

// kdf compresses arbitrary-length data to a 128-bit pad. It reuses
// blake2b (already wired for the filter package's keyed-hash family)
// rather than introducing a second hash primitive.
func kdf(data []byte) block.Block {
	sum := blake2b.Sum256(data)
	return block.FromBytes(sum[:16])
}

func xorBytes(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
