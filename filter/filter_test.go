package filter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func items(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("item-%d", i))
	}
	return out
}

func TestBloomSoundness(t *testing.T) {
	const n = 2000
	b := NewBloom(n, 1e-6)
	set := items(n)
	for _, it := range set {
		require.True(t, b.Insert(it))
	}
	for _, it := range set {
		require.True(t, b.Contain(it), "inserted element must test positive")
	}
}

func TestBloomFalsePositiveBound(t *testing.T) {
	const n = 2000
	const p = 1e-3
	b := NewBloom(n, p)
	for _, it := range items(n) {
		b.Insert(it)
	}

	trials := 20000
	fp := 0
	for i := 0; i < trials; i++ {
		probe := []byte(fmt.Sprintf("probe-%d", i))
		if b.Contain(probe) {
			fp++
		}
	}
	rate := float64(fp) / float64(trials)
	require.Less(t, rate, 2*p+0.002)
}

func TestBloomSerialisationRoundTrip(t *testing.T) {
	b := NewBloom(500, 1e-4)
	set := items(500)
	for _, it := range set {
		b.Insert(it)
	}
	data := b.WriteObject()
	require.Len(t, data, b.ObjectSize())

	b2, err := ReadBloomObject(data)
	require.NoError(t, err)
	for _, it := range set {
		require.True(t, b2.Contain(it))
	}
}

func TestCuckooSoundness(t *testing.T) {
	const n = 500
	c := NewCuckoo(n, 1e-3)
	set := items(n)
	for _, it := range set {
		require.True(t, c.Insert(it), "insert must not exceed maxKicks at reasonable load")
	}
	for _, it := range set {
		require.True(t, c.Contain(it))
	}
}

func TestCuckooRepeatedInsertIdempotent(t *testing.T) {
	c := NewCuckoo(100, 1e-3)
	it := []byte("repeat-me")
	require.True(t, c.Insert(it))
	require.True(t, c.Insert(it))
	require.True(t, c.Contain(it))
}

func TestCuckooSerialisationRoundTrip(t *testing.T) {
	c := NewCuckoo(300, 1e-3)
	set := items(300)
	for _, it := range set {
		require.True(t, c.Insert(it))
	}
	data := c.WriteObject()
	require.Len(t, data, c.ObjectSize())

	c2, err := ReadCuckooObject(data)
	require.NoError(t, err)
	for _, it := range set {
		require.True(t, c2.Contain(it))
	}
}
