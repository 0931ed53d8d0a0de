package filter

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

// The two filters need a keyed hash family that both parties can
// reconstruct without exchanging any extra key material: the filter's
// wire format (spec.md §4.C) carries only {m,k} or {B,s,f,maxKicks} plus
// the table contents, never a hash key. The family is therefore derived
// once, at package init, from a fixed public seed string (one HKDF info
// label per key) via HKDF-BLAKE2b — the
// same primitives the teacher's lib/bloom.go (blake2b) and
// protocol/bloom.go (hkdf) import for exactly this kind of keyed-hash
// derivation.
var (
	bloomKeyA  [32]byte
	bloomKeyB  [32]byte
	cuckooKeyI [32]byte
	cuckooKeyF [32]byte
)

func init() {
	derive := func(info string) [32]byte {
		var out [32]byte
		newHash := func() hash.Hash {
			h, _ := blake2b.New256(nil)
			return h
		}
		r := hkdf.New(newHash, []byte("wcprf-psu/filter/v1"), nil, []byte(info))
		if _, err := readFull(r, out[:]); err != nil {
			panic(err)
		}
		return out
	}
	bloomKeyA = derive("bloom-ha")
	bloomKeyB = derive("bloom-hb")
	cuckooKeyI = derive("cuckoo-bucket")
	cuckooKeyF = derive("cuckoo-fingerprint")
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func keyedHash64(key [32]byte, item []byte) uint64 {
	h, err := blake2b.New256(key[:])
	if err != nil {
		panic(err)
	}
	h.Write(item)
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

// bloomPositions returns h_a and h_b for the double-hashing scheme spec.md
// §4.C names: h_i = h_a + i*h_b mod m.
func bloomPositions(item []byte) (ha, hb uint64) {
	return keyedHash64(bloomKeyA, item), keyedHash64(bloomKeyB, item)
}

// cuckooItemHash returns the item hash used for the first candidate bucket
// (and the fingerprint); cuckooFingerprintHash returns the hash of a
// fingerprint used for the XOR partial-key step.
func cuckooItemHash(item []byte) uint64 {
	return keyedHash64(cuckooKeyI, item)
}

func cuckooFingerprintHash(fp uint16) uint64 {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], fp)
	return keyedHash64(cuckooKeyF, buf[:])
}
