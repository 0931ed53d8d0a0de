package psu

import (
	"math/rand"

	"github.com/dedis/psu/config"
	"github.com/dedis/psu/curve"
	"github.com/dedis/psu/errs"
	"github.com/dedis/psu/filter"
	"github.com/dedis/psu/netio"
)

// membershipSet is the common capability spec.md §9's design notes call
// for: "a tagged variant {Shuffle, Bloom, Cuckoo} with a common capability
// set {build(points), decode(bytes), contains(point)}". The variant never
// leaks into the wire format — both parties already agree on it via pp.
type membershipSet interface {
	Contains(p curve.Point) bool
}

func pointKey(p curve.Point) []byte {
	b, err := curve.Encode(p)
	if err != nil {
		panic(err)
	}
	return b
}

// shuffleSet is the plain hash-set membership test used in shuffle mode.
type shuffleSet map[string]struct{}

func newShuffleSet(pts []curve.Point) shuffleSet {
	s := make(shuffleSet, len(pts))
	for _, p := range pts {
		s[string(pointKey(p))] = struct{}{}
	}
	return s
}

func (s shuffleSet) Contains(p curve.Point) bool {
	_, ok := s[string(pointKey(p))]
	return ok
}

type bloomSet struct{ f *filter.Bloom }

func (b bloomSet) Contains(p curve.Point) bool { return b.f.Contain(pointKey(p)) }

type cuckooSet struct{ f *filter.Cuckoo }

func (c cuckooSet) Contains(p curve.Point) bool { return c.f.Contain(pointKey(p)) }

// buildAndSendMembership is the Sender's half of spec.md §4.E.3 step 3:
// build the membership table for pts (already raised to Fk1k2_Y) and send
// it in the encoding pp.FilterType selects.
func buildAndSendMembership(ch *netio.Channel, pp PP, pts []curve.Point, step string) error {
	switch pp.FilterType {
	case config.FilterShuffle:
		shuffled := append([]curve.Point(nil), pts...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		return ch.SendECPoints(shuffled)

	case config.FilterBloom:
		b := filter.NewBloom(uint64(len(pts)), pp.P)
		for _, p := range pts {
			b.Insert(pointKey(p))
		}
		return ch.SendSizedBytes(b.WriteObject())

	case config.FilterCuckoo:
		c := filter.NewCuckoo(uint64(len(pts)), pp.P)
		for _, p := range pts {
			if !c.Insert(pointKey(p)) {
				return errs.New(errs.FilterOverflow, step, "cuckoo insertion exhausted maxKicks; raise capacity")
			}
		}
		return ch.SendSizedBytes(c.WriteObject())

	default:
		return errs.New(errs.ConfigError, step, "unknown filter_type")
	}
}

// receiveMembership is the Receiver's half: read the membership table pp
// selects and wrap it as a membershipSet.
func receiveMembership(ch *netio.Channel, pp PP, n int, step string) (membershipSet, error) {
	switch pp.FilterType {
	case config.FilterShuffle:
		pts, err := ch.ReceiveECPoints(n)
		if err != nil {
			return nil, err
		}
		return newShuffleSet(pts), nil

	case config.FilterBloom:
		data, err := ch.ReceiveSizedBytes()
		if err != nil {
			return nil, err
		}
		b, err := filter.ReadBloomObject(data)
		if err != nil {
			return nil, err
		}
		return bloomSet{b}, nil

	case config.FilterCuckoo:
		data, err := ch.ReceiveSizedBytes()
		if err != nil {
			return nil, err
		}
		c, err := filter.ReadCuckooObject(data)
		if err != nil {
			return nil, err
		}
		return cuckooSet{c}, nil

	default:
		return nil, errs.New(errs.ConfigError, step, "unknown filter_type")
	}
}
