package aesengine

import (
	"testing"

	"github.com/dedis/psu/block"
	"github.com/stretchr/testify/require"
)

func TestECBRoundTrip(t *testing.T) {
	key := block.FromUint64Pair(0x0123456789abcdef, 0xfedcba9876543210)
	enc := SetEncKey(key)
	dec := SetDecKey(key)

	plain := []block.Block{
		block.FromUint64Pair(0, 0),
		block.FromUint64Pair(1, 2),
		block.FromUint64Pair(0xdeadbeef, 0xcafebabe),
		block.Zero,
	}
	data := append([]block.Block(nil), plain...)

	ECBEnc(enc, data)
	for i := range data {
		require.NotEqual(t, plain[i], data[i], "ciphertext must differ from plaintext")
	}
	ECBDec(dec, data)
	require.Equal(t, plain, data)
}

func TestCBCRoundTrip(t *testing.T) {
	key := block.FromUint64Pair(42, 4242)
	enc := SetEncKey(key)
	dec := SetDecKey(key)

	plain := make([]block.Block, 8)
	for i := range plain {
		plain[i] = block.FromUint64Pair(uint64(i), uint64(i*i))
	}
	data := append([]block.Block(nil), plain...)

	CBCEnc(enc, data)
	CBCDec(dec, data)
	require.Equal(t, plain, data)
}

// TestAES128TestVector checks against a well-known FIPS-197 Appendix B
// test vector.
func TestAES128TestVector(t *testing.T) {
	key := block.Block{
		0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6,
		0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c,
	}
	plain := block.Block{
		0x32, 0x43, 0xf6, 0xa8, 0x88, 0x5a, 0x30, 0x8d,
		0x31, 0x31, 0x98, 0xa2, 0xe0, 0x37, 0x07, 0x34,
	}
	want := block.Block{
		0x39, 0x25, 0x84, 0x1d, 0x02, 0xdc, 0x09, 0xfb,
		0xdc, 0x11, 0x85, 0x97, 0x19, 0x6a, 0x0b, 0x32,
	}

	enc := SetEncKey(key)
	data := []block.Block{plain}
	ECBEnc(enc, data)
	require.Equal(t, want, data[0])

	dec := SetDecKey(key)
	ECBDec(dec, data)
	require.Equal(t, plain, data[0])
}
