// Package timer implements the delay and sound countdown timers.
//
// The timers are decremented once per call to Advance. The caller invokes it
// at the desired real-time cadence, canonically 60 Hz, independent of the
// instruction rate.
package timer

import (
	"github.com/retroenv/chip8vm/internal/machine"
)

// Rate is the canonical timer frequency in Hz.
const Rate = 60

// Advance decrements both timers by one, floored at zero. It returns true
// if the sound timer transitioned from 1 to 0 during this call.
func Advance(s *machine.State) bool {
	if s.DelayTimer > 0 {
		s.DelayTimer--
	}
	if s.SoundTimer == 0 {
		return false
	}
	s.SoundTimer--
	return s.SoundTimer == 0
}

// Sounding returns whether the sound timer is active.
func Sounding(s *machine.State) bool {
	return s.SoundTimer > 0
}
