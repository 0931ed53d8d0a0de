// Package filter implements the approximate-set membership tables
// spec.md §4.C describes: a Bloom filter and a Cuckoo filter, both usable
// as the "shuffle-free" membership test in the PSU protocol's bloom/cuckoo
// modes. It is grounded on the teacher's own CBF (counting Bloom filter)
// type in lib/bloom.go and protocol/bloom.go, generalised from a counting
// filter tied to an HTML tree to the plain insert/contain filter spec.md
// needs, and keyed with the hash family in hash.go.
package filter

import (
	"encoding/binary"
	"math"

	"github.com/dedis/psu/errs"
)

// Bloom is a standard (non-counting) Bloom filter: m bits, k hash
// functions, built from a double-hashing family.
type Bloom struct {
	M    uint64
	K    uint64
	bits []byte
}

// NewBloom derives (m, k) from capacity and the desired false-positive
// probability using the textbook formulas in spec.md §3:
// m = ceil(-n ln p / (ln 2)^2), k = ceil((m/n) ln 2).
func NewBloom(capacity uint64, falsePositiveProb float64) *Bloom {
	if capacity == 0 {
		capacity = 1
	}
	n := float64(capacity)
	m := math.Ceil(-n * math.Log(falsePositiveProb) / (math.Ln2 * math.Ln2))
	if m < 1 {
		m = 1
	}
	k := math.Ceil((m / n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	return &Bloom{
		M:    uint64(m),
		K:    uint64(k),
		bits: make([]byte, (uint64(m)+7)/8),
	}
}

func (b *Bloom) positions(item []byte) []uint64 {
	ha, hb := bloomPositions(item)
	out := make([]uint64, b.K)
	for i := uint64(0); i < b.K; i++ {
		out[i] = (ha + i*hb) % b.M
	}
	return out
}

func (b *Bloom) setBit(pos uint64) {
	b.bits[pos/8] |= 1 << (pos % 8)
}

func (b *Bloom) getBit(pos uint64) bool {
	return b.bits[pos/8]&(1<<(pos%8)) != 0
}

// Insert sets every hashed bit for item. It never fails (spec.md §4.C).
func (b *Bloom) Insert(item []byte) bool {
	for _, pos := range b.positions(item) {
		b.setBit(pos)
	}
	return true
}

// InsertAll inserts every item in items.
func (b *Bloom) InsertAll(items [][]byte) bool {
	for _, item := range items {
		b.Insert(item)
	}
	return true
}

// Contain tests every hashed bit for item; a single unset bit proves
// item was never inserted (invariant: no false negatives).
func (b *Bloom) Contain(item []byte) bool {
	for _, pos := range b.positions(item) {
		if !b.getBit(pos) {
			return false
		}
	}
	return true
}

// ObjectSize returns the serialised size in bytes: a 16-byte little-endian
// {m,k} header followed by ceil(m/8) bytes of bit array (spec.md §4.C).
func (b *Bloom) ObjectSize() int {
	return 16 + len(b.bits)
}

// WriteObject serialises the filter per spec.md §4.C's layout.
func (b *Bloom) WriteObject() []byte {
	out := make([]byte, b.ObjectSize())
	binary.LittleEndian.PutUint64(out[0:8], b.M)
	binary.LittleEndian.PutUint64(out[8:16], b.K)
	copy(out[16:], b.bits)
	return out
}

// ReadBloomObject reconstructs a Bloom filter from its wire form.
func ReadBloomObject(data []byte) (*Bloom, error) {
	if len(data) < 16 {
		return nil, errs.New(errs.ProtocolAbort, "filter.bloom.read", "short header")
	}
	m := binary.LittleEndian.Uint64(data[0:8])
	k := binary.LittleEndian.Uint64(data[8:16])
	want := int((m + 7) / 8)
	if len(data) != 16+want {
		return nil, errs.New(errs.ProtocolAbort, "filter.bloom.read", "bit array length mismatch")
	}
	bits := make([]byte, want)
	copy(bits, data[16:])
	return &Bloom{M: m, K: k, bits: bits}, nil
}
