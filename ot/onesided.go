package ot

import (
	"crypto/rand"

	"github.com/dedis/psu/block"
	"github.com/dedis/psu/netio"
)

// DefaultRandom draws fresh random labels from crypto/rand. It fits the rnd
// argument Send/Receive and the one-sided variants take for Delta and the
// base-OT wire pairs; those functions do not fall back to it, so a caller
// passes either it or a deterministic generator for testing (spec.md §9's
// injected randomness handle).
func DefaultRandom() block.Block {
	b, err := block.Random(rand.Reader)
	if err != nil {
		panic(err)
	}
	return b
}

// OnesidedSend is Send specialised to m0 fixed to the all-zeros dummy: it
// puts only one ciphertext per index on the wire instead of two, the
// roughly 2x bandwidth saving spec.md §4.D describes.
func OnesidedSend(ch *netio.Channel, pp PP, m []block.Block, n int, rnd func() block.Block) error {
	return sendOneSided(ch, pp, m, n, rnd)
}

// OnesidedReceive is Receive specialised to the one-sided contract: the
// Receiver's output contains exactly the Sender's m[i] at positions where
// b[i] = 1 and block.Zero elsewhere (spec.md §4.D), recovered from the
// single ciphertext per index OnesidedSend transmits.
func OnesidedReceive(ch *netio.Channel, pp PP, choices []bool, n int, rnd func() block.Block) ([]block.Block, error) {
	return receiveOneSided(ch, pp, choices, n, rnd)
}
