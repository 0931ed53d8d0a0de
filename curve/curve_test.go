package curve

import (
	"testing"

	"github.com/dedis/psu/block"
	"github.com/stretchr/testify/require"
)

func TestCommutativity(t *testing.T) {
	k1 := RandomScalar()
	k2 := RandomScalar()
	b := block.FromUint64Pair(1, 2)
	p := BlockToECPoint(b)

	left := Apply(k2, Apply(k1, p))
	right := Apply(k1, Apply(k2, p))
	require.True(t, Equal(left, right))
}

func TestBlockToECPointDeterministic(t *testing.T) {
	b := block.FromUint64Pair(7, 9)
	p1 := BlockToECPoint(b)
	p2 := BlockToECPoint(b)
	require.True(t, Equal(p1, p2))

	other := block.FromUint64Pair(7, 10)
	p3 := BlockToECPoint(other)
	require.False(t, Equal(p1, p3))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := BlockToECPoint(block.FromUint64Pair(3, 4))
	enc, err := Encode(p)
	require.NoError(t, err)
	require.Len(t, enc, PointByteLen)

	dec, err := Decode(enc)
	require.NoError(t, err)
	require.True(t, Equal(p, dec))
}
