// Package ot implements the IKNP-style OT extension and its one-sided
// variant spec.md §4.D specifies at the contract level. It is grounded on
// _examples/other_examples/cc19ce54_markkurossi-mpc__ot-iknp.go.go, a
// from-scratch Go IKNP implementation: the extension's correlated-OT core
// (matrix generation, transpose, PRG expansion) follows that file's
// structure, adapted to this module's Block/curve/netio types. The K base
// OTs IKNP amortises over are instantiated here as a Diffie-Hellman
// 1-out-of-2 OT over the same curve.Suite group the PSU protocol's wcPRF
// uses (spec.md §4.D: "base-OT seeds derived via Naor-Pinkas").
package ot

import (
	"github.com/dedis/psu/block"
	"github.com/dedis/psu/curve"
	"github.com/dedis/psu/errs"
	"github.com/dedis/psu/netio"
)

// Label is the 128-bit carrier for OT messages and PRG seeds; spec.md's
// wire Block and the IKNP extension's K-bit-wide label coincide (K=128).
type Label = block.Block

// Wire holds the two messages of one base OT instance.
type Wire struct {
	L0, L1 Label
}

// baseOTSend runs K instances of a Diffie-Hellman 1-out-of-2 OT
// (Chou-Orlandi "simplest OT" shape) as the Sender, transferring wires[i]
// for i in 0..K-1. This is the step IKNP amortises.
func baseOTSend(ch *netio.Channel, wires []Wire) error {
	for i, w := range wires {
		a := curve.RandomScalar()
		A := curve.Apply(a, curve.Generator())
		if err := ch.SendECPoint(A); err != nil {
			return err
		}
		B, err := ch.ReceiveECPoint()
		if err != nil {
			return err
		}
		k0 := curve.Apply(a, B)
		BminusA := curve.Suite.Point().Sub(B, A)
		k1 := curve.Apply(a, BminusA)

		e0 := xorLabel(w.L0, hashPoint(k0, i, 0))
		e1 := xorLabel(w.L1, hashPoint(k1, i, 1))
		if err := ch.SendBytes(e0[:]); err != nil {
			return err
		}
		if err := ch.SendBytes(e1[:]); err != nil {
			return err
		}
	}
	return nil
}

// baseOTReceive runs K instances of the base OT as the Receiver, fetching
// the wire selected by flags[i] for each i.
func baseOTReceive(ch *netio.Channel, flags []bool, out []Label) error {
	for i, choice := range flags {
		A, err := ch.ReceiveECPoint()
		if err != nil {
			return err
		}
		b := curve.RandomScalar()
		var B curve.Point
		if !choice {
			B = curve.Apply(b, curve.Generator())
		} else {
			B = curve.Suite.Point().Add(A, curve.Apply(b, curve.Generator()))
		}
		if err := ch.SendECPoint(B); err != nil {
			return err
		}
		k := curve.Apply(b, A)

		e0b, err := ch.ReceiveBytes(16)
		if err != nil {
			return err
		}
		e1b, err := ch.ReceiveBytes(16)
		if err != nil {
			return err
		}
		var e0, e1 Label
		copy(e0[:], e0b)
		copy(e1[:], e1b)

		var which int
		var e Label
		if !choice {
			which, e = 0, e0
		} else {
			which, e = 1, e1
		}
		out[i] = xorLabel(e, hashPoint(k, i, which))
	}
	return nil
}

// hashPoint derives a 128-bit pad from a DH shared point, the OT index,
// and the branch (0 or 1), so the two branches of one base OT never reuse
// the same pad.
func hashPoint(p curve.Point, index, branch int) block.Block {
	data, err := curve.Encode(p)
	if err != nil {
		panic(errs.Wrap(errs.CurveError, "ot.hashPoint", "encode failed", err))
	}
	data = append(data, byte(index), byte(index>>8), byte(branch))
	return kdf(data)
}

func xorLabel(a, b Label) Label {
	return a.Xor(b)
}
