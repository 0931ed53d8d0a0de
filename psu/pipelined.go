package psu

import (
	"github.com/dedis/psu/block"
	"github.com/dedis/psu/config"
	"github.com/dedis/psu/curve"
	"github.com/dedis/psu/errs"
	"github.com/dedis/psu/netio"
	"github.com/dedis/psu/ot"
	"go.dedis.ch/onet/v3/log"
)

// PipelineSender runs the Sender side in pipelined mode: a deterministic,
// single-threaded interleaving of per-element compute and per-element I/O
// (spec.md §4.E.2, §5's "single-threaded cooperative" regime), grounded on
// _examples/original_source/psu/dh-psu.hpp's PipelineSender/
// PipelineReceiver pair. The shuffle-mode membership table still has to be
// accumulated in full before it can be permuted and sent (spec.md §4.E.5:
// shuffling is the Sender's responsibility alone), so only the two
// wcPRF-exponentiation legs are pipelined element-by-element; the filter
// payload itself is still one atomic transfer.
func PipelineSender(ch *netio.Channel, pp PP, X []block.Block, rnd func() block.Block) error {
	if err := ch.SendInteger(uint64(len(X))); err != nil {
		return errs.Wrap(errs.ProtocolAbort, "PipelineSender.exchange_lenX", "failed to announce |X|", err)
	}
	lenY, err := ch.ReceiveInteger()
	if err != nil {
		return errs.Wrap(errs.ProtocolAbort, "PipelineSender.exchange_lenY", "failed to learn |Y|", err)
	}
	n, m := len(X), int(lenY)
	log.Lvl3("psu.PipelineSender: pipelined mode, |X|=", n, "|Y|=", m)

	k1 := curve.RandomScalar()

	Fk1k2Y := make([]curve.Point, m)
	for i := 0; i < m; i++ {
		FkY, err := ch.ReceiveECPoint()
		if err != nil {
			return errs.Wrap(errs.ProtocolAbort, "PipelineSender.receive_Fk2Y", "malformed point", err)
		}
		Fk1k2Y[i] = curve.Apply(k1, FkY)
	}
	if err := buildAndSendMembership(ch, pp, Fk1k2Y, "PipelineSender.send_membership"); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		Fk1Xi := curve.Apply(k1, curve.BlockToECPoint(X[i]))
		if err := ch.SendECPoint(Fk1Xi); err != nil {
			return errs.Wrap(errs.ProtocolAbort, "PipelineSender.send_Fk1X", "failed to send F_k1(x_i)", err)
		}
	}

	otPP := ot.Setup()
	if err := ot.OnesidedSend(ch, otPP, X, n, rnd); err != nil {
		return errs.Wrap(errs.ProtocolAbort, "PipelineSender.onesided_ot", "one-sided OT failed", err)
	}
	return nil
}

// PipelineReceiver runs the Receiver side in pipelined mode.
func PipelineReceiver(ch *netio.Channel, pp PP, Y []block.Block, rnd func() block.Block) (Union, error) {
	lenX, err := ch.ReceiveInteger()
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "PipelineReceiver.exchange_lenX", "failed to learn |X|", err)
	}
	if err := ch.SendInteger(uint64(len(Y))); err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "PipelineReceiver.exchange_lenY", "failed to announce |Y|", err)
	}
	n, m := int(lenX), len(Y)
	log.Lvl3("psu.PipelineReceiver: pipelined mode, |X|=", n, "|Y|=", m)

	k2 := curve.RandomScalar()

	for i := 0; i < m; i++ {
		Fk2Yi := curve.Apply(k2, curve.BlockToECPoint(Y[i]))
		if err := ch.SendECPoint(Fk2Yi); err != nil {
			return nil, errs.Wrap(errs.ProtocolAbort, "PipelineReceiver.send_Fk2Y", "failed to send F_k2(y_i)", err)
		}
	}

	membership, err := pipelineReceiveMembership(ch, pp, m)
	if err != nil {
		return nil, err
	}

	selection := make([]bool, n)
	for i := 0; i < n; i++ {
		Fk1Xi, err := ch.ReceiveECPoint()
		if err != nil {
			return nil, errs.Wrap(errs.ProtocolAbort, "PipelineReceiver.receive_Fk1X", "malformed point", err)
		}
		Fk2k1Xi := curve.Apply(k2, Fk1Xi)
		selection[i] = !membership.Contains(Fk2k1Xi)
	}

	otPP := ot.Setup()
	recovered, err := ot.OnesidedReceive(ch, otPP, selection, n, rnd)
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "PipelineReceiver.onesided_ot", "one-sided OT failed", err)
	}

	union := make(Union, n+m)
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

// pipelineReceiveMembership mirrors receiveMembership but, for shuffle
// mode, accumulates the incoming points one at a time into the hash set —
// the original's `for i: io.ReceiveECPoint(Fk1k2_Y); S.insert(...)` loop —
// instead of one bulk vector receive.
func pipelineReceiveMembership(ch *netio.Channel, pp PP, m int) (membershipSet, error) {
	if pp.FilterType != config.FilterShuffle {
		return receiveMembership(ch, pp, m, "PipelineReceiver.receive_membership")
	}
	set := make(shuffleSet, m)
	for i := 0; i < m; i++ {
		p, err := ch.ReceiveECPoint()
		if err != nil {
			return nil, errs.Wrap(errs.ProtocolAbort, "PipelineReceiver.receive_membership", "malformed point", err)
		}
		set[string(pointKey(p))] = struct{}{}
	}
	return set, nil
}
