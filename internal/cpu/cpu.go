// Package cpu implements the fetch-decode-execute engine.
package cpu

import (
	"fmt"

	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/chip8vm/internal/opcode"
	"github.com/retroenv/chip8vm/internal/random"
	"github.com/retroenv/retrogolib/log"
)

// StepError is returned by Step for any failed instruction. It records the
// address and word of the instruction and wraps the cause, one of
// *opcode.UnknownOpcodeError, *machine.MemoryFaultError,
// machine.ErrStackOverflow or machine.ErrStackUnderflow.
type StepError struct {
	PC   uint16
	Word uint16
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("executing instruction at 0x%04X: %v", e.PC, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// CPU executes instructions against a machine state. It has no loop or
// timing of its own, the caller drives it one step at a time.
type CPU struct {
	state  *machine.State
	rnd    random.Source
	logger *log.Logger
	trace  bool
}

// New returns a CPU operating on state, using rnd for the random
// instruction.
func New(state *machine.State, rnd random.Source, logger *log.Logger) *CPU {
	return &CPU{
		state:  state,
		rnd:    rnd,
		logger: logger,
	}
}

// SetTrace enables debug logging of every executed instruction.
func (c *CPU) SetTrace(enabled bool) {
	c.trace = enabled
}

// Step executes exactly one instruction. On error the state is left as it
// was before the step, including the program counter.
func (c *CPU) Step() error {
	s := c.state
	pc := s.PC

	word, err := s.ReadWord(int(pc))
	if err != nil {
		return &StepError{PC: pc, Err: err}
	}
	s.PC += opcode.Size

	ins, err := opcode.Decode(word)
	if err != nil {
		s.PC = pc
		return &StepError{PC: pc, Word: word, Err: err}
	}

	if c.trace {
		c.logger.Debug("Step",
			log.Hex("pc", pc),
			log.Hex("opcode", word),
			log.String("instruction", ins.String()))
	}

	if err := c.Execute(ins); err != nil {
		s.PC = pc
		return &StepError{PC: pc, Word: word, Err: err}
	}
	return nil
}

// Execute applies a decoded instruction. The program counter is expected to
// already point past the instruction. Execute does not modify the state if
// it returns an error.
func (c *CPU) Execute(ins opcode.Instruction) error {
	s := c.state
	x, y := ins.X&0xF, ins.Y&0xF

	switch ins.Kind {
	case opcode.ClearScreen:
		s.ClearScreen()

	case opcode.Return:
		address, err := s.Pop()
		if err != nil {
			return err
		}
		s.PC = address

	case opcode.Jump:
		s.PC = ins.Addr

	case opcode.Call:
		if err := s.Push(s.PC); err != nil {
			return err
		}
		s.PC = ins.Addr

	case opcode.SkipEqImm:
		c.skipIf(s.V[x] == ins.Byte)

	case opcode.SkipNeqImm:
		c.skipIf(s.V[x] != ins.Byte)

	case opcode.SkipEqReg:
		c.skipIf(s.V[x] == s.V[y])

	case opcode.SkipNeqReg:
		c.skipIf(s.V[x] != s.V[y])

	case opcode.LoadImm:
		s.V[x] = ins.Byte

	case opcode.AddImm:
		s.V[x] += ins.Byte

	case opcode.Move:
		s.V[x] = s.V[y]

	case opcode.Or:
		s.V[x] |= s.V[y]

	case opcode.And:
		s.V[x] &= s.V[y]

	case opcode.Xor:
		s.V[x] ^= s.V[y]

	case opcode.AddReg:
		sum := uint16(s.V[x]) + uint16(s.V[y])
		c.setWithFlag(x, uint8(sum), sum > 0xFF)

	case opcode.SubReg:
		c.setWithFlag(x, s.V[x]-s.V[y], s.V[x] >= s.V[y])

	case opcode.SubnReg:
		c.setWithFlag(x, s.V[y]-s.V[x], s.V[y] >= s.V[x])

	case opcode.Shr:
		c.setWithFlag(x, s.V[x]>>1, s.V[x]&0x01 != 0)

	case opcode.Shl:
		c.setWithFlag(x, s.V[x]<<1, s.V[x]&0x80 != 0)

	case opcode.SetIndex:
		s.I = ins.Addr

	case opcode.JumpPlusV0:
		s.PC = ins.Addr + uint16(s.V[0])

	case opcode.Random:
		s.V[x] = c.rnd.Byte() & ins.Byte

	case opcode.Draw:
		return c.draw(x, y, ins.N)

	case opcode.SkipIfKeyDown:
		c.skipIf(s.Key(int(s.V[x])))

	case opcode.SkipIfKeyUp:
		c.skipIf(!s.Key(int(s.V[x])))

	case opcode.WaitKey:
		key, ok := s.FirstPressedKey()
		if !ok {
			s.PC -= opcode.Size
			return nil
		}
		s.V[x] = uint8(key)

	case opcode.ReadDelay:
		s.V[x] = s.DelayTimer

	case opcode.WriteDelay:
		s.DelayTimer = s.V[x]

	case opcode.WriteSound:
		s.SoundTimer = s.V[x]

	case opcode.AddIndex:
		s.I += uint16(s.V[x])

	case opcode.IndexToGlyph:
		s.I = uint16(s.V[x]) * machine.GlyphSize

	case opcode.StoreBCD:
		v := s.V[x]
		return s.WriteBlock(int(s.I), []byte{v / 100, v / 10 % 10, v % 10})

	case opcode.StoreRegs:
		return s.WriteBlock(int(s.I), s.V[:x+1])

	case opcode.LoadRegs:
		data, err := s.ReadBlock(int(s.I), int(x)+1)
		if err != nil {
			return err
		}
		copy(s.V[:], data)

	default:
		return &opcode.UnknownOpcodeError{Word: ins.Word()}
	}

	return nil
}

func (c *CPU) skipIf(condition bool) {
	if condition {
		c.state.PC += opcode.Size
	}
}

// setWithFlag writes the result before the flag, so that VF holds the flag
// when VF itself is the destination register.
func (c *CPU) setWithFlag(x, result uint8, flag bool) {
	c.state.V[x] = result
	if flag {
		c.state.V[machine.FlagRegister] = 1
	} else {
		c.state.V[machine.FlagRegister] = 0
	}
}

// draw XORs an 8 pixel wide sprite of height rows read from I onto the
// framebuffer at VX,VY, wrapping both axes. VF is set if any lit pixel is
// turned off.
func (c *CPU) draw(x, y, height uint8) error {
	s := c.state

	var sprite []byte
	if height > 0 {
		var err error
		sprite, err = s.ReadBlock(int(s.I), int(height))
		if err != nil {
			return err
		}
	}

	s.V[machine.FlagRegister] = 0
	originX, originY := int(s.V[x]), int(s.V[y])
	for row, bits := range sprite {
		for col := range 8 {
			if bits&(0x80>>col) == 0 {
				continue
			}
			px := (originX + col) % machine.ScreenWidth
			py := (originY + row) % machine.ScreenHeight
			if s.TogglePixel(px, py) {
				s.V[machine.FlagRegister] = 1
			}
		}
	}
	return nil
}
