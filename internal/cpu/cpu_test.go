package cpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/chip8vm/internal/opcode"
	"github.com/retroenv/chip8vm/internal/random"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// newTestCPU returns a CPU with the given words loaded at the program start.
func newTestCPU(t *testing.T, words ...uint16) (*CPU, *machine.State) {
	t.Helper()

	s := machine.New()
	image := make([]byte, 0, len(words)*2)
	for _, w := range words {
		image = append(image, byte(w>>8), byte(w))
	}
	assert.NoError(t, s.Load(image))

	c := New(s, random.NewSequence(0xFF), log.NewTestLogger(t))
	return c, s
}

func step(t *testing.T, c *CPU, n int) {
	t.Helper()
	for range n {
		assert.NoError(t, c.Step())
	}
}

func TestLoadImmediateEndToEnd(t *testing.T) {
	c, s := newTestCPU(t, 0x6005, 0x0005)
	c.SetTrace(true)

	step(t, c, 1)
	assert.Equal(t, uint8(0x05), s.V[0])
	assert.Equal(t, uint16(0x202), s.PC)
}

func TestJumpAndCall(t *testing.T) {
	t.Run("jump", func(t *testing.T) {
		c, s := newTestCPU(t, 0x1ABC)
		step(t, c, 1)
		assert.Equal(t, uint16(0xABC), s.PC)
	})

	t.Run("call and return round trip", func(t *testing.T) {
		// 0x200: CALL 0x206, 0x202: LD V1 1, 0x204: unused, 0x206: RET
		c, s := newTestCPU(t, 0x2206, 0x6101, 0x0000, 0x00EE)

		step(t, c, 1)
		assert.Equal(t, uint16(0x206), s.PC)
		assert.Equal(t, 1, s.Depth())
		assert.Equal(t, []uint16{0x202}, s.Stack())

		step(t, c, 1)
		assert.Equal(t, uint16(0x202), s.PC)
		assert.Equal(t, 0, s.Depth())

		step(t, c, 1)
		assert.Equal(t, uint8(1), s.V[1])
	})

	t.Run("jump plus V0", func(t *testing.T) {
		c, s := newTestCPU(t, 0x6010, 0xB300)
		step(t, c, 2)
		assert.Equal(t, uint16(0x310), s.PC)
	})
}

func TestStackErrors(t *testing.T) {
	t.Run("return with empty stack", func(t *testing.T) {
		c, s := newTestCPU(t, 0x00EE)

		err := c.Step()
		assert.True(t, errors.Is(err, machine.ErrStackUnderflow))
		assert.Equal(t, uint16(0x200), s.PC)

		var stepErr *StepError
		assert.True(t, errors.As(err, &stepErr))
		assert.Equal(t, uint16(0x200), stepErr.PC)
		assert.Equal(t, uint16(0x00EE), stepErr.Word)
	})

	t.Run("call with full stack", func(t *testing.T) {
		// CALL 0x200 recurses until the stack is full.
		c, s := newTestCPU(t, 0x2200)
		step(t, c, machine.StackSize)
		assert.Equal(t, machine.StackSize, s.Depth())

		err := c.Step()
		assert.True(t, errors.Is(err, machine.ErrStackOverflow))
		assert.Equal(t, uint16(0x200), s.PC)
		assert.Equal(t, machine.StackSize, s.Depth())
	})
}

func TestUnknownOpcode(t *testing.T) {
	c, s := newTestCPU(t, 0x5AB1)

	err := c.Step()
	var unknown *opcode.UnknownOpcodeError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, uint16(0x5AB1), unknown.Word)
	assert.Equal(t, uint16(0x200), s.PC)
}

func TestFetchFault(t *testing.T) {
	c, s := newTestCPU(t)
	s.PC = machine.MemorySize - 1

	err := c.Step()
	var fault *machine.MemoryFaultError
	assert.True(t, errors.As(err, &fault))
	assert.Equal(t, machine.MemorySize, fault.Address)
	assert.Equal(t, uint16(machine.MemorySize-1), s.PC)
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(s *machine.State)
		word   uint16
		skipPC uint16
	}{
		{"SkipEqImm taken", func(s *machine.State) { s.V[1] = 0x42 }, 0x3142, 0x204},
		{"SkipEqImm not taken", func(s *machine.State) { s.V[1] = 0x41 }, 0x3142, 0x202},
		{"SkipNeqImm taken", func(s *machine.State) { s.V[1] = 0x41 }, 0x4142, 0x204},
		{"SkipNeqImm not taken", func(s *machine.State) { s.V[1] = 0x42 }, 0x4142, 0x202},
		{"SkipEqReg taken", func(s *machine.State) { s.V[1], s.V[2] = 7, 7 }, 0x5120, 0x204},
		{"SkipEqReg not taken", func(s *machine.State) { s.V[1], s.V[2] = 7, 8 }, 0x5120, 0x202},
		{"SkipNeqReg taken", func(s *machine.State) { s.V[1], s.V[2] = 7, 8 }, 0x9120, 0x204},
		{"SkipNeqReg not taken", func(s *machine.State) { s.V[1], s.V[2] = 7, 7 }, 0x9120, 0x202},
		{"SkipIfKeyDown taken", func(s *machine.State) { s.V[3] = 0xA; s.SetKey(0xA, true) }, 0xE39E, 0x204},
		{"SkipIfKeyDown not taken", func(s *machine.State) { s.V[3] = 0xA }, 0xE39E, 0x202},
		{"SkipIfKeyUp taken", func(s *machine.State) { s.V[3] = 0xA }, 0xE3A1, 0x204},
		{"SkipIfKeyUp not taken", func(s *machine.State) { s.V[3] = 0xA; s.SetKey(0xA, true) }, 0xE3A1, 0x202},
		{"SkipIfKeyDown out of range key", func(s *machine.State) { s.V[3] = 0x10 }, 0xE39E, 0x202},
		{"SkipIfKeyUp out of range key", func(s *machine.State) { s.V[3] = 0xFF }, 0xE3A1, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, s := newTestCPU(t, tt.word)
			tt.setup(s)
			step(t, c, 1)
			assert.Equal(t, tt.skipPC, s.PC)
		})
	}
}

func TestLogic(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		want uint8
	}{
		{name: "move", word: 0x8120, want: 0x0F},
		{name: "or", word: 0x8121, want: 0xFF},
		{name: "and", word: 0x8122, want: 0x00},
		{name: "xor", word: 0x8123, want: 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, s := newTestCPU(t, tt.word)
			s.V[1], s.V[2] = 0xF0, 0x0F
			s.V[0xF] = 0x55
			step(t, c, 1)
			assert.Equal(t, tt.want, s.V[1])
			assert.Equal(t, uint8(0x55), s.V[0xF])
		})
	}
}

func TestAddImmWraps(t *testing.T) {
	c, s := newTestCPU(t, 0x71FF)
	s.V[1] = 2
	s.V[0xF] = 9
	step(t, c, 1)
	assert.Equal(t, uint8(1), s.V[1])
	assert.Equal(t, uint8(9), s.V[0xF])
}

func TestAddReg(t *testing.T) {
	s := machine.New()
	c := New(s, random.NewSequence(), log.NewTestLogger(t))
	add := opcode.Instruction{Kind: opcode.AddReg, X: 1, Y: 2}

	for a := range 256 {
		for b := range 256 {
			s.V[1], s.V[2] = uint8(a), uint8(b)
			assert.NoError(t, c.Execute(add))

			assert.Equal(t, uint8((a+b)%256), s.V[1])
			var carry uint8
			if a+b > 255 {
				carry = 1
			}
			assert.Equal(t, carry, s.V[0xF])
		}
	}
}

func TestSubReg(t *testing.T) {
	s := machine.New()
	c := New(s, random.NewSequence(), log.NewTestLogger(t))
	sub := opcode.Instruction{Kind: opcode.SubReg, X: 1, Y: 2}
	subn := opcode.Instruction{Kind: opcode.SubnReg, X: 3, Y: 4}

	for a := range 256 {
		for b := range 256 {
			s.V[1], s.V[2] = uint8(a), uint8(b)
			s.V[3], s.V[4] = uint8(a), uint8(b)

			assert.NoError(t, c.Execute(sub))
			assert.Equal(t, uint8(a-b), s.V[1])
			var notBorrow uint8
			if a >= b {
				notBorrow = 1
			}
			assert.Equal(t, notBorrow, s.V[0xF])

			assert.NoError(t, c.Execute(subn))
			assert.Equal(t, uint8(b-a), s.V[3])
			notBorrow = 0
			if b >= a {
				notBorrow = 1
			}
			assert.Equal(t, notBorrow, s.V[0xF])
		}
	}
}

func TestShifts(t *testing.T) {
	c, s := newTestCPU(t, 0x8126, 0x832E)

	for v := range 256 {
		s.PC = machine.ProgramStart
		s.V[1], s.V[3] = uint8(v), uint8(v)
		s.V[2] = 0xAA

		step(t, c, 1)
		assert.Equal(t, uint8(v)>>1, s.V[1])
		assert.Equal(t, uint8(v)&1, s.V[0xF])

		step(t, c, 1)
		assert.Equal(t, uint8(v)<<1, s.V[3])
		assert.Equal(t, uint8(v)>>7, s.V[0xF])
		assert.Equal(t, uint8(0xAA), s.V[2])
	}
}

func TestFlagRegisterAsDestination(t *testing.T) {
	c, s := newTestCPU(t, 0x8F14)
	s.V[0xF], s.V[1] = 0xFF, 0x02
	step(t, c, 1)
	assert.Equal(t, uint8(1), s.V[0xF])
}

func TestIndex(t *testing.T) {
	t.Run("set index", func(t *testing.T) {
		c, s := newTestCPU(t, 0xA123)
		step(t, c, 1)
		assert.Equal(t, uint16(0x123), s.I)
	})

	t.Run("add index wraps at 16 bits", func(t *testing.T) {
		c, s := newTestCPU(t, 0xF31E, 0xF31E)
		s.I = 0xFFFF
		s.V[3] = 2
		s.V[0xF] = 7

		step(t, c, 1)
		assert.Equal(t, uint16(1), s.I)
		assert.Equal(t, uint8(7), s.V[0xF])

		step(t, c, 1)
		assert.Equal(t, uint16(3), s.I)
	})

	t.Run("glyph address", func(t *testing.T) {
		c, s := newTestCPU(t, 0xF329)
		s.V[3] = 0xA
		step(t, c, 1)
		assert.Equal(t, uint16(0xA*machine.GlyphSize), s.I)

		glyph, err := s.ReadBlock(int(s.I), machine.GlyphSize)
		assert.NoError(t, err)
		font := machine.Font()
		assert.Equal(t, font[50:55], glyph)
	})
}

func TestRandom(t *testing.T) {
	s := machine.New()
	assert.NoError(t, s.Load([]byte{0xC1, 0x0F, 0xC2, 0xFF}))
	c := New(s, random.NewSequence(0xAB, 0x5C), log.NewTestLogger(t))

	step(t, c, 2)
	assert.Equal(t, uint8(0x0B), s.V[1])
	assert.Equal(t, uint8(0x5C), s.V[2])
}

func TestTimerRegisters(t *testing.T) {
	c, s := newTestCPU(t, 0xF115, 0xF218, 0xF307)
	s.V[1], s.V[2] = 30, 40

	step(t, c, 2)
	assert.Equal(t, uint8(30), s.DelayTimer)
	assert.Equal(t, uint8(40), s.SoundTimer)

	s.DelayTimer = 12
	step(t, c, 1)
	assert.Equal(t, uint8(12), s.V[3])
}

func TestWaitKey(t *testing.T) {
	c, s := newTestCPU(t, 0xF50A, 0x6101)

	for range 10 {
		step(t, c, 1)
		assert.Equal(t, uint16(0x200), s.PC)
		assert.Equal(t, uint8(0), s.V[5])
	}

	s.SetKey(0xB, true)
	s.SetKey(0x3, true)
	step(t, c, 1)
	assert.Equal(t, uint16(0x202), s.PC)
	assert.Equal(t, uint8(0x3), s.V[5])

	step(t, c, 1)
	assert.Equal(t, uint8(1), s.V[1])
}

func TestStoreBCD(t *testing.T) {
	tests := []struct {
		value uint8
		want  []byte
	}{
		{0, []byte{0, 0, 0}},
		{34, []byte{0, 3, 4}},
		{137, []byte{1, 3, 7}},
		{255, []byte{2, 5, 5}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.value), func(t *testing.T) {
			c, s := newTestCPU(t, 0xF333)
			s.V[3] = tt.value
			s.I = 0x539
			step(t, c, 1)

			got, err := s.ReadBlock(0x539, 3)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, uint16(0x539), s.I)
		})
	}
}

func TestStoreAndLoadRegs(t *testing.T) {
	c, s := newTestCPU(t, 0xF355, 0xF265)
	for i := range machine.NumRegisters {
		s.V[i] = uint8(0x10 + i)
	}
	s.I = 0x400

	step(t, c, 1)
	stored, err := s.ReadBlock(0x400, 5)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x11, 0x12, 0x13, 0x00}, stored)
	assert.Equal(t, uint16(0x400), s.I)

	assert.NoError(t, s.WriteBlock(0x400, []byte{0xA0, 0xA1, 0xA2, 0xA3}))
	step(t, c, 1)
	assert.Equal(t, uint8(0xA0), s.V[0])
	assert.Equal(t, uint8(0xA1), s.V[1])
	assert.Equal(t, uint8(0xA2), s.V[2])
	assert.Equal(t, uint8(0x13), s.V[3])
}

func TestMemoryFaultsAreAtomic(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		i    uint16
	}{
		{"store BCD", 0xF333, machine.MemorySize - 2},
		{"store registers", 0xF355, machine.MemorySize - 3},
		{"load registers", 0xF565, machine.MemorySize - 1},
		{"draw", 0xD125, machine.MemorySize - 4},
		{"index beyond RAM", 0xF065, 0xF000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, s := newTestCPU(t, tt.word)
			s.I = tt.i
			for i := range machine.NumRegisters {
				s.V[i] = 0x22
			}
			before := *s

			err := c.Step()
			var fault *machine.MemoryFaultError
			assert.True(t, errors.As(err, &fault))
			assert.Equal(t, before, *s)
		})
	}
}

func TestClearScreen(t *testing.T) {
	c, s := newTestCPU(t, 0x00E0)
	s.TogglePixel(5, 5)
	s.TogglePixel(60, 30)
	step(t, c, 1)
	assert.Equal(t, 0, s.Framebuffer().Lit())
}
