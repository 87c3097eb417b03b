// Package random provides the byte sources used by the random instruction.
package random

import (
	"math/rand/v2"
	"time"
)

// Source returns uniformly distributed bytes.
type Source interface {
	Byte() uint8
}

// Random is a seeded pseudo random source. It is not cryptographically
// strong.
type Random struct {
	rnd *rand.Rand
}

// New returns a source seeded with the given value. A zero seed selects a
// time based seed.
func New(seed uint64) *Random {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Random{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
}

// Byte returns the next random byte.
func (r *Random) Byte() uint8 {
	return uint8(r.rnd.UintN(256))
}

// Sequence replays a fixed list of bytes, wrapping around at the end.
// An empty sequence always returns 0.
type Sequence struct {
	values []uint8
	pos    int
}

// NewSequence returns a deterministic source replaying values.
func NewSequence(values ...uint8) *Sequence {
	return &Sequence{values: values}
}

// Byte returns the next byte of the sequence.
func (s *Sequence) Byte() uint8 {
	if len(s.values) == 0 {
		return 0
	}
	b := s.values[s.pos]
	s.pos = (s.pos + 1) % len(s.values)
	return b
}
