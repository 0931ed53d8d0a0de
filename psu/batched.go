package psu

import (
	"github.com/dedis/psu/block"
	"github.com/dedis/psu/curve"
	"github.com/dedis/psu/errs"
	"github.com/dedis/psu/netio"
	"github.com/dedis/psu/ot"
	"go.dedis.ch/onet/v3/log"
)

// Union is the Receiver's final output: X ∪ Y, represented as the set of
// blocks' canonical string encodings (spec.md §3).
type Union map[string]struct{}

// Contains reports whether b is in the union.
func (u Union) Contains(b block.Block) bool {
	_, ok := u[b.String()]
	return ok
}

// Len reports the union's cardinality.
func (u Union) Len() int { return len(u) }

// Sender runs the wcPRF-PSU Sender side in batched mode: one vectorised
// exchange per step (spec.md §4.E.2/§4.E.3, symmetric half). workers > 1
// applies the curve operations across the index range in parallel,
// modelling the source's optional OpenMP pragma on this path; it still
// uses the thread-safe hash-to-curve variant regardless; toggling it only
// changes whether bulkApply spreads work across goroutines.
func Sender(ch *netio.Channel, pp PP, X []block.Block, workers int, rnd func() block.Block) error {
	if err := ch.SendInteger(uint64(len(X))); err != nil {
		return errs.Wrap(errs.ProtocolAbort, "Sender.exchange_lenX", "failed to announce |X|", err)
	}
	lenY, err := ch.ReceiveInteger()
	if err != nil {
		return errs.Wrap(errs.ProtocolAbort, "Sender.exchange_lenY", "failed to learn |Y|", err)
	}
	n := len(X)
	m := int(lenY)

	log.Lvl3("psu.Sender: batched mode, |X|=", n, "|Y|=", m)

	FkY, err := ch.ReceiveECPoints(m)
	if err != nil {
		return errs.Wrap(errs.ProtocolAbort, "Sender.receive_Fk2Y", "malformed point vector", err)
	}

	k1Scalar := curve.RandomScalar()

	Fk1X := make([]curve.Point, n)
	bulkApply(n, workers, func(i int) {
		Fk1X[i] = curve.Apply(k1Scalar, curve.ThreadSafeBlockToECPoint(X[i]))
	})
	if err := ch.SendECPoints(Fk1X); err != nil {
		return errs.Wrap(errs.ProtocolAbort, "Sender.send_Fk1X", "failed to send F_k1(x_i)", err)
	}

	Fk1k2Y := make([]curve.Point, m)
	bulkApply(m, workers, func(i int) {
		Fk1k2Y[i] = curve.Apply(k1Scalar, FkY[i])
	})
	if err := buildAndSendMembership(ch, pp, Fk1k2Y, "Sender.send_membership"); err != nil {
		return err
	}

	pp2 := ot.Setup()
	if err := ot.OnesidedSend(ch, pp2, X, n, rnd); err != nil {
		return errs.Wrap(errs.ProtocolAbort, "Sender.onesided_ot", "one-sided OT failed", err)
	}
	return nil
}

// Receiver runs the Receiver side in batched mode and returns X ∪ Y.
func Receiver(ch *netio.Channel, pp PP, Y []block.Block, workers int, rnd func() block.Block) (Union, error) {
	lenX, err := ch.ReceiveInteger()
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "Receiver.exchange_lenX", "failed to learn |X|", err)
	}
	if err := ch.SendInteger(uint64(len(Y))); err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "Receiver.exchange_lenY", "failed to announce |Y|", err)
	}
	n := int(lenX)
	m := len(Y)

	log.Lvl3("psu.Receiver: batched mode, |X|=", n, "|Y|=", m)

	k2Scalar := curve.RandomScalar()

	Fk2Y := make([]curve.Point, m)
	bulkApply(m, workers, func(i int) {
		Fk2Y[i] = curve.Apply(k2Scalar, curve.ThreadSafeBlockToECPoint(Y[i]))
	})
	if err := ch.SendECPoints(Fk2Y); err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "Receiver.send_Fk2Y", "failed to send F_k2(y_i)", err)
	}

	Fk1X, err := ch.ReceiveECPoints(n)
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "Receiver.receive_Fk1X", "malformed point vector", err)
	}

	membership, err := receiveMembership(ch, pp, m, "Receiver.receive_membership")
	if err != nil {
		return nil, err
	}

	selection := make([]bool, n)
	bulkApply(n, workers, func(i int) {
		Fk2k1X := curve.Apply(k2Scalar, Fk1X[i])
		selection[i] = !membership.Contains(Fk2k1X)
	})

	otPP := ot.Setup()
	recovered, err := ot.OnesidedReceive(ch, otPP, selection, n, rnd)
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "Receiver.onesided_ot", "one-sided OT failed", err)
	}

	union := make(Union, m+n)
	for _, y := range Y {
		union[y.String()] = struct{}{}
	}
	for _, x := range recovered {
		if !x.IsZero() {
			union[x.String()] = struct{}{}
		}
	}
	return union, nil
}
