// Package curve wraps the prime-order group the PSU protocol's wcPRF runs
// over. Group arithmetic and big-integer scalar arithmetic are themselves
// out of scope (spec.md §1): this package is a thin, protocol-shaped layer
// on top of go.dedis.ch/kyber/v3, the same group abstraction the teacher
// uses as `SuiTe` / `cothority.Suite` in lib/crypto.go and lib/elgamal.go.
package curve

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/nist"
	"go.dedis.ch/kyber/v3/util/random"
)

// Suite is the group the protocol runs over: NIST P-256, i.e. secp256r1,
// matching the curve named in spec.md §8's end-to-end scenarios. Its point
// marshalling is the uncompressed (x||y) encoding, 65 bytes — spec.md §6's
// POINT_BYTE_LEN.
var Suite = nist.NewBlakeSHA256P256()

// PointByteLen is the fixed wire length of a serialised point.
const PointByteLen = 65

// Point and Scalar are the group's opaque element types.
type Point = kyber.Point
type Scalar = kyber.Scalar

// RandomScalar draws k uniformly from [0, q), the scalar field order.
func RandomScalar() Scalar {
	return Suite.Scalar().Pick(random.New())
}

// Generator returns the group's designated generator g.
func Generator() Point {
	return Suite.Point().Base()
}

// Apply computes the wcPRF step F_k(P) = P^k (additive notation: P·k),
// the primitive spec.md §4.E builds the whole protocol from. Commutativity
// (spec.md §8 property 7) follows directly from scalar multiplication
// commuting in an abelian group: (P·k1)·k2 == (P·k2)·k1.
func Apply(k Scalar, p Point) Point {
	return Suite.Point().Mul(k, p)
}

// Equal reports whether two points encode the same group element.
func Equal(a, b Point) bool {
	return a.Equal(b)
}

// Encode serialises a point to its fixed-length wire form.
func Encode(p Point) ([]byte, error) {
	return p.MarshalBinary()
}

// Decode parses a point from its fixed-length wire form, returning
// errs.CurveError-shaped information to the caller on failure (the caller
// wraps it; this package stays dependency-free of the errs taxonomy to
// avoid an import cycle with packages errs itself may eventually depend on).
func Decode(data []byte) (Point, error) {
	p := Suite.Point()
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p, nil
}
