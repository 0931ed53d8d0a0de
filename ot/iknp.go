package ot

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/dedis/psu/block"
	"github.com/dedis/psu/errs"
	"github.com/dedis/psu/netio"
)

// K is the IKNP security parameter: the number of base OTs the extension
// amortises over n OTs. It coincides with the Label bit width.
const K = 128

// PP is the OT extension's public parameters. It holds no seed material:
// every Send/Receive/OnesidedSend/OnesidedReceive call runs its own K base
// OTs (baseot.go) to establish the seeds it uses, and PP only records that
// Setup was called.
type PP struct {
	ready bool
}

// Setup produces OT extension parameters. The base-OT seed material itself
// is established lazily, per Send/Receive call, keyed off the channel in
// use; PP only records that a session has been configured.
func Setup() PP {
	return PP{ready: true}
}

func newCTR(seed block.Block) cipher.Stream {
	c, err := aes.NewCipher(seed[:])
	if err != nil {
		panic(err)
	}
	var iv [16]byte
	return cipher.NewCTR(c, iv[:])
}

func prg(s cipher.Stream, n int) []byte {
	buf := make([]byte, n)
	s.XORKeyStream(buf, buf)
	return buf
}

// createLabels transposes a K x byteRows bit matrix (stored row-major, one
// row per base-OT index) into up to byteRows*8 Labels, one per output
// index, following the reference's transpose loop exactly (adapted to
// Block).
func createLabels(out []block.Block, rows [][]byte, byteRows int) {
	n := len(out)
	for e := 0; e < n; e++ {
		row := e / 8
		bit := uint(e % 8)
		var l block.Block
		for j := 0; j < K; j++ {
			v := uint(rows[j][row]>>bit) & 1
			l.SetBit(j, v)
		}
		out[e] = l
	}
}

// randomCorrelatedSend runs the extension Sender's half of the random
// correlated OT core: given the K base-OT seeds g0[] (selected according
// to Delta's bits) it reads the receiver's masked columns and returns n
// random labels b0[i], with the implicit correlation b1[i] = b0[i] XOR
// Delta.
func randomCorrelatedSend(ch *netio.Channel, delta block.Block, g0 [K]cipher.Stream, n int) ([]block.Block, error) {
	byteRows := (n + 7) / 8
	data, err := ch.ReceiveBytes(K * byteRows)
	if err != nil {
		return nil, err
	}
	t := make([][]byte, K)
	for i := 0; i < K; i++ {
		row := prg(g0[i], byteRows)
		if delta.Bit(i) == 1 {
			xorBytes(row, data[i*byteRows:(i+1)*byteRows])
		}
		t[i] = row
	}
	out := make([]block.Block, n)
	createLabels(out, t, byteRows)
	return out, nil
}

// randomCorrelatedReceive runs the extension Receiver's half: given the K
// base-OT wire pairs (g0[],g1[]) and the caller's choice bits, it computes
// and sends the masked columns and returns the n selected labels.
func randomCorrelatedReceive(ch *netio.Channel, g0, g1 [K]cipher.Stream, choices []bool) ([]block.Block, error) {
	n := len(choices)
	byteRows := (n + 7) / 8
	bbuf := make([]byte, byteRows)
	for i, f := range choices {
		if f {
			bbuf[i/8] |= 1 << uint(i%8)
		}
	}

	chunk := make([][]byte, K)
	out := make([]byte, K*byteRows)
	for i := 0; i < K; i++ {
		row0 := prg(g0[i], byteRows)
		row1 := prg(g1[i], byteRows)
		xorBytes(row1, row0)
		xorBytes(row1, bbuf)
		chunk[i] = row0
		copy(out[i*byteRows:(i+1)*byteRows], row1)
	}
	if err := ch.SendBytes(out); err != nil {
		return nil, err
	}

	result := make([]block.Block, n)
	createLabels(result, chunk, byteRows)
	return result, nil
}

// baseSeedsSender runs the K base OTs as their Receiver (choices = Delta's
// bits), establishing the Sender-side PRG seeds g0[].
func baseSeedsSender(ch *netio.Channel, delta block.Block) ([K]cipher.Stream, error) {
	var g0 [K]cipher.Stream
	flags := make([]bool, K)
	for i := range flags {
		flags[i] = delta.Bit(i) == 1
	}
	k0 := make([]block.Block, K)
	if err := baseOTReceive(ch, flags, k0); err != nil {
		return g0, err
	}
	for i := 0; i < K; i++ {
		g0[i] = newCTR(k0[i])
	}
	return g0, nil
}

// baseSeedsReceiver runs the K base OTs as their Sender, with random wire
// pairs, establishing the Receiver-side PRG seeds (g0[],g1[]).
func baseSeedsReceiver(ch *netio.Channel, rnd func() block.Block) ([K]cipher.Stream, [K]cipher.Stream, error) {
	var g0, g1 [K]cipher.Stream
	wires := make([]Wire, K)
	for i := range wires {
		wires[i] = Wire{L0: rnd(), L1: rnd()}
	}
	if err := baseOTSend(ch, wires); err != nil {
		return g0, g1, err
	}
	for i := 0; i < K; i++ {
		g0[i] = newCTR(wires[i].L0)
		g1[i] = newCTR(wires[i].L1)
	}
	return g0, g1, nil
}

// Send is the two-message OT extension contract (spec.md §4.D): the
// Sender inputs two n-length message vectors and the Receiver (running
// Receive concurrently on its end of the channel) learns m_{b_i}[i] for
// its private choice bits.
func Send(ch *netio.Channel, pp PP, m0, m1 []block.Block, n int, rnd func() block.Block) error {
	if len(m0) != n || len(m1) != n {
		return errs.New(errs.ConfigError, "ot.Send", "message vector length mismatch")
	}
	delta := rnd()
	g0, err := baseSeedsSender(ch, delta)
	if err != nil {
		return errs.Wrap(errs.ProtocolAbort, "ot.Send.baseOT", "base OT failed", err)
	}
	b0, err := randomCorrelatedSend(ch, delta, g0, n)
	if err != nil {
		return errs.Wrap(errs.ProtocolAbort, "ot.Send.correlated", "correlated OT failed", err)
	}
	for i := 0; i < n; i++ {
		b1 := b0[i].Xor(delta)
		e0 := m0[i].Xor(kdf(b0[i][:]))
		e1 := m1[i].Xor(kdf(b1[:]))
		if err := ch.SendBytes(e0[:]); err != nil {
			return err
		}
		if err := ch.SendBytes(e1[:]); err != nil {
			return err
		}
	}
	return nil
}

// Receive is the Receiver's half of Send: it supplies choice bits b and
// learns m_{b_i}[i] for each i.
func Receive(ch *netio.Channel, pp PP, choices []bool, n int, rnd func() block.Block) ([]block.Block, error) {
	if len(choices) != n {
		return nil, errs.New(errs.ConfigError, "ot.Receive", "choice vector length mismatch")
	}
	g0, g1, err := baseSeedsReceiver(ch, rnd)
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "ot.Receive.baseOT", "base OT failed", err)
	}
	br, err := randomCorrelatedReceive(ch, g0, g1, choices)
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "ot.Receive.correlated", "correlated OT failed", err)
	}
	result := make([]block.Block, n)
	for i := 0; i < n; i++ {
		e0b, err := ch.ReceiveBytes(16)
		if err != nil {
			return nil, err
		}
		e1b, err := ch.ReceiveBytes(16)
		if err != nil {
			return nil, err
		}
		var e block.Block
		if !choices[i] {
			copy(e[:], e0b)
		} else {
			copy(e[:], e1b)
		}
		result[i] = e.Xor(kdf(br[i][:]))
	}
	return result, nil
}

// sendOneSided is Send specialised to m0 fixed to zero_block (spec.md
// §4.D: "the one-sided variant saves a roughly 2x bandwidth"). Since the
// Receiver already knows m_{b_i}[i] = zero_block whenever its choice bit
// is 0, the Sender need only ever put one ciphertext — e1 — on the wire
// per index, never e0; halving the per-index payload from 32 to 16 bytes
// is the entire saving.
func sendOneSided(ch *netio.Channel, pp PP, m1 []block.Block, n int, rnd func() block.Block) error {
	if len(m1) != n {
		return errs.New(errs.ConfigError, "ot.sendOneSided", "message vector length mismatch")
	}
	delta := rnd()
	g0, err := baseSeedsSender(ch, delta)
	if err != nil {
		return errs.Wrap(errs.ProtocolAbort, "ot.sendOneSided.baseOT", "base OT failed", err)
	}
	b0, err := randomCorrelatedSend(ch, delta, g0, n)
	if err != nil {
		return errs.Wrap(errs.ProtocolAbort, "ot.sendOneSided.correlated", "correlated OT failed", err)
	}
	for i := 0; i < n; i++ {
		b1 := b0[i].Xor(delta)
		e1 := m1[i].Xor(kdf(b1[:]))
		if err := ch.SendBytes(e1[:]); err != nil {
			return err
		}
	}
	return nil
}

// receiveOneSided is Receive's one-sided counterpart: it reads exactly the
// single ciphertext sendOneSided put on the wire per index, decrypting it
// where the choice bit is 1 and substituting zero_block (with no wire
// read beyond the one every index already requires) where it is 0.
func receiveOneSided(ch *netio.Channel, pp PP, choices []bool, n int, rnd func() block.Block) ([]block.Block, error) {
	if len(choices) != n {
		return nil, errs.New(errs.ConfigError, "ot.receiveOneSided", "choice vector length mismatch")
	}
	g0, g1, err := baseSeedsReceiver(ch, rnd)
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "ot.receiveOneSided.baseOT", "base OT failed", err)
	}
	br, err := randomCorrelatedReceive(ch, g0, g1, choices)
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolAbort, "ot.receiveOneSided.correlated", "correlated OT failed", err)
	}
	result := make([]block.Block, n)
	for i := 0; i < n; i++ {
		e1b, err := ch.ReceiveBytes(16)
		if err != nil {
			return nil, err
		}
		if !choices[i] {
			result[i] = block.Zero
			continue
		}
		var e block.Block
		copy(e[:], e1b)
		result[i] = e.Xor(kdf(br[i][:]))
	}
	return result, nil
}
