package filter

import (
	"encoding/binary"
	"math"
	"math/bits"
	"math/rand"

	"github.com/dedis/psu/errs"
)

// DefaultMaxKicks is the bounded eviction-chain length spec.md §3 requires
// to be at least 500.
const DefaultMaxKicks = 500

// Cuckoo is a partial-key cuckoo filter: B buckets (a power of two), s
// slots per bucket, f-bit fingerprints.
type Cuckoo struct {
	B        uint64
	Slots    uint32
	FPBits   uint32
	MaxKicks uint32
	table    []uint16 // B*Slots entries, 0 means empty
	rng      *rand.Rand
}

// NewCuckoo sizes a filter for capacity n at false-positive probability p:
// 4 slots per bucket, and the smallest power-of-two bucket count that keeps
// the table at most 90% full with n items. The fingerprint width is
// f ~= ceil(log2(1/p)) + log2(2s), clamped to [4, 16] bits because slots
// are uint16; for p below about 2^-13 the false-positive rate is therefore
// above p.
func NewCuckoo(capacity uint64, falsePositiveProb float64) *Cuckoo {
	if capacity == 0 {
		capacity = 1
	}
	const slotsPerBucket = 4
	const maxLoad = 0.9
	bucketCount := nextPow2(uint64(math.Ceil(float64(capacity) / (slotsPerBucket * maxLoad))))
	if bucketCount < 1 {
		bucketCount = 1
	}
	fpBits := uint32(math.Ceil(math.Log2(1/falsePositiveProb))) + uint32(math.Ceil(math.Log2(2*slotsPerBucket)))
	if fpBits < 4 {
		fpBits = 4
	}
	if fpBits > 16 {
		fpBits = 16
	}
	return &Cuckoo{
		B:        bucketCount,
		Slots:    slotsPerBucket,
		FPBits:   fpBits,
		MaxKicks: DefaultMaxKicks,
		table:    make([]uint16, bucketCount*slotsPerBucket),
		rng:      rand.New(rand.NewSource(1)),
	}
}

func nextPow2(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	return 1 << uint(64-bits.LeadingZeros64(v-1))
}

func (c *Cuckoo) fingerprint(item []byte) uint16 {
	h := cuckooItemHash(item)
	mask := uint16((1 << c.FPBits) - 1)
	fp := uint16(h>>32) & mask
	if fp == 0 {
		fp = 1
	}
	return fp
}

func (c *Cuckoo) bucketsFor(item []byte, fp uint16) (i1, i2 uint64) {
	i1 = cuckooItemHash(item) % c.B
	i2 = i1 ^ (cuckooFingerprintHash(fp) % c.B)
	return
}

func (c *Cuckoo) altBucket(i uint64, fp uint16) uint64 {
	return i ^ (cuckooFingerprintHash(fp) % c.B)
}

func (c *Cuckoo) slotsOf(bucket uint64) []uint16 {
	start := bucket * uint64(c.Slots)
	return c.table[start : start+uint64(c.Slots)]
}

// Insert places item's fingerprint into one of its two candidate buckets,
// evicting and relocating existing occupants when both are full, per
// spec.md §3/§4.C. It returns false ("failure") if the eviction chain
// exceeds MaxKicks; the PSU sender treats that as a fatal configuration
// error (spec.md §4.E.5), never a retry.
func (c *Cuckoo) Insert(item []byte) bool {
	fp := c.fingerprint(item)
	i1, i2 := c.bucketsFor(item, fp)

	if c.insertIfPresentOrEmpty(i1, fp) {
		return true
	}
	if c.insertIfPresentOrEmpty(i2, fp) {
		return true
	}

	bucket := i1
	if c.rng.Intn(2) == 1 {
		bucket = i2
	}
	for kick := uint32(0); kick < c.MaxKicks; kick++ {
		slots := c.slotsOf(bucket)
		victimIdx := c.rng.Intn(len(slots))
		victim := slots[victimIdx]
		slots[victimIdx] = fp

		fp = victim
		bucket = c.altBucket(bucket, fp)
		slots = c.slotsOf(bucket)
		for i := range slots {
			if slots[i] == 0 {
				slots[i] = fp
				return true
			}
		}
	}
	return false
}

// insertIfPresentOrEmpty treats re-inserting a fingerprint already present
// in bucket as an idempotent success (spec.md §9 open question), and
// otherwise fills the first empty slot if one exists.
func (c *Cuckoo) insertIfPresentOrEmpty(bucket uint64, fp uint16) bool {
	slots := c.slotsOf(bucket)
	empty := -1
	for i, v := range slots {
		if v == fp {
			return true
		}
		if v == 0 && empty == -1 {
			empty = i
		}
	}
	if empty >= 0 {
		slots[empty] = fp
		return true
	}
	return false
}

// Contain checks both of item's candidate buckets for its fingerprint.
func (c *Cuckoo) Contain(item []byte) bool {
	fp := c.fingerprint(item)
	i1, i2 := c.bucketsFor(item, fp)
	for _, v := range c.slotsOf(i1) {
		if v == fp {
			return true
		}
	}
	for _, v := range c.slotsOf(i2) {
		if v == fp {
			return true
		}
	}
	return false
}

// ObjectSize returns the serialised size: a 20-byte little-endian header
// {B (8 bytes), Slots, FPBits, MaxKicks (4 bytes each)} followed by the
// packed slot array (2 bytes per slot).
func (c *Cuckoo) ObjectSize() int {
	return 8 + 4 + 4 + 4 + len(c.table)*2
}

// WriteObject serialises the filter per spec.md §4.C.
func (c *Cuckoo) WriteObject() []byte {
	out := make([]byte, c.ObjectSize())
	binary.LittleEndian.PutUint64(out[0:8], c.B)
	binary.LittleEndian.PutUint32(out[8:12], c.Slots)
	binary.LittleEndian.PutUint32(out[12:16], c.FPBits)
	binary.LittleEndian.PutUint32(out[16:20], c.MaxKicks)
	for i, v := range c.table {
		binary.LittleEndian.PutUint16(out[20+2*i:22+2*i], v)
	}
	return out
}

// ReadCuckooObject reconstructs a Cuckoo filter from its wire form.
func ReadCuckooObject(data []byte) (*Cuckoo, error) {
	if len(data) < 20 {
		return nil, errs.New(errs.ProtocolAbort, "filter.cuckoo.read", "short header")
	}
	b := binary.LittleEndian.Uint64(data[0:8])
	slots := binary.LittleEndian.Uint32(data[8:12])
	fpBits := binary.LittleEndian.Uint32(data[12:16])
	maxKicks := binary.LittleEndian.Uint32(data[16:20])
	want := int(b) * int(slots)
	if len(data) != 20+want*2 {
		return nil, errs.New(errs.ProtocolAbort, "filter.cuckoo.read", "slot array length mismatch")
	}
	table := make([]uint16, want)
	for i := range table {
		table[i] = binary.LittleEndian.Uint16(data[20+2*i : 22+2*i])
	}
	return &Cuckoo{
		B: b, Slots: slots, FPBits: fpBits, MaxKicks: maxKicks,
		table: table, rng: rand.New(rand.NewSource(1)),
	}, nil
}
