// Package opcode decodes 16 bit instruction words into instructions.
//
// Decoding is a pure function: every word maps either to exactly one
// Instruction or to an UnknownOpcodeError carrying the word.
package opcode

import (
	"fmt"
)

// Size is the size of an instruction word in bytes.
const Size = 2

// UnknownOpcodeError is returned for words that match no instruction shape.
type UnknownOpcodeError struct {
	Word uint16
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%04X", e.Word)
}

// Instruction is a decoded instruction word. Only the operands used by the
// Kind are set, all others are zero.
type Instruction struct {
	Kind Kind
	X    uint8  // register index from the second nibble
	Y    uint8  // register index from the third nibble
	N    uint8  // sprite height, low nibble
	Byte uint8  // immediate, low 8 bits
	Addr uint16 // address, low 12 bits
}

// Decode decodes an instruction word.
func Decode(word uint16) (Instruction, error) {
	n1 := word >> 12
	x := uint8(word>>8) & 0xF
	y := uint8(word>>4) & 0xF
	n := uint8(word) & 0xF
	b := uint8(word)
	addr := word & 0x0FFF

	xy := func(k Kind) Instruction { return Instruction{Kind: k, X: x, Y: y} }
	xb := func(k Kind) Instruction { return Instruction{Kind: k, X: x, Byte: b} }
	xo := func(k Kind) Instruction { return Instruction{Kind: k, X: x} }
	ad := func(k Kind) Instruction { return Instruction{Kind: k, Addr: addr} }

	switch n1 {
	case 0x0:
		switch word {
		case 0x00E0:
			return Instruction{Kind: ClearScreen}, nil
		case 0x00EE:
			return Instruction{Kind: Return}, nil
		}
	case 0x1:
		return ad(Jump), nil
	case 0x2:
		return ad(Call), nil
	case 0x3:
		return xb(SkipEqImm), nil
	case 0x4:
		return xb(SkipNeqImm), nil
	case 0x5:
		if n == 0 {
			return xy(SkipEqReg), nil
		}
	case 0x6:
		return xb(LoadImm), nil
	case 0x7:
		return xb(AddImm), nil
	case 0x8:
		switch n {
		case 0x0:
			return xy(Move), nil
		case 0x1:
			return xy(Or), nil
		case 0x2:
			return xy(And), nil
		case 0x3:
			return xy(Xor), nil
		case 0x4:
			return xy(AddReg), nil
		case 0x5:
			return xy(SubReg), nil
		case 0x6:
			return xo(Shr), nil
		case 0x7:
			return xy(SubnReg), nil
		case 0xE:
			return xo(Shl), nil
		}
	case 0x9:
		if n == 0 {
			return xy(SkipNeqReg), nil
		}
	case 0xA:
		return ad(SetIndex), nil
	case 0xB:
		return ad(JumpPlusV0), nil
	case 0xC:
		return xb(Random), nil
	case 0xD:
		return Instruction{Kind: Draw, X: x, Y: y, N: n}, nil
	case 0xE:
		switch b {
		case 0x9E:
			return xo(SkipIfKeyDown), nil
		case 0xA1:
			return xo(SkipIfKeyUp), nil
		}
	case 0xF:
		switch b {
		case 0x07:
			return xo(ReadDelay), nil
		case 0x0A:
			return xo(WaitKey), nil
		case 0x15:
			return xo(WriteDelay), nil
		case 0x18:
			return xo(WriteSound), nil
		case 0x1E:
			return xo(AddIndex), nil
		case 0x29:
			return xo(IndexToGlyph), nil
		case 0x33:
			return xo(StoreBCD), nil
		case 0x55:
			return xo(StoreRegs), nil
		case 0x65:
			return xo(LoadRegs), nil
		}
	}

	return Instruction{}, &UnknownOpcodeError{Word: word}
}

// Word encodes the instruction back into its canonical instruction word.
// Shr and Shl encode a zero Y nibble. Invalid instructions encode as 0.
func (i Instruction) Word() uint16 {
	x := uint16(i.X&0xF) << 8
	y := uint16(i.Y&0xF) << 4
	xb := x | uint16(i.Byte)

	switch i.Kind {
	case ClearScreen:
		return 0x00E0
	case Return:
		return 0x00EE
	case Jump:
		return 0x1000 | i.Addr&0x0FFF
	case Call:
		return 0x2000 | i.Addr&0x0FFF
	case SkipEqImm:
		return 0x3000 | xb
	case SkipNeqImm:
		return 0x4000 | xb
	case SkipEqReg:
		return 0x5000 | x | y
	case LoadImm:
		return 0x6000 | xb
	case AddImm:
		return 0x7000 | xb
	case Move:
		return 0x8000 | x | y
	case Or:
		return 0x8001 | x | y
	case And:
		return 0x8002 | x | y
	case Xor:
		return 0x8003 | x | y
	case AddReg:
		return 0x8004 | x | y
	case SubReg:
		return 0x8005 | x | y
	case Shr:
		return 0x8006 | x
	case SubnReg:
		return 0x8007 | x | y
	case Shl:
		return 0x800E | x
	case SkipNeqReg:
		return 0x9000 | x | y
	case SetIndex:
		return 0xA000 | i.Addr&0x0FFF
	case JumpPlusV0:
		return 0xB000 | i.Addr&0x0FFF
	case Random:
		return 0xC000 | xb
	case Draw:
		return 0xD000 | x | y | uint16(i.N&0xF)
	case SkipIfKeyDown:
		return 0xE09E | x
	case SkipIfKeyUp:
		return 0xE0A1 | x
	case ReadDelay:
		return 0xF007 | x
	case WaitKey:
		return 0xF00A | x
	case WriteDelay:
		return 0xF015 | x
	case WriteSound:
		return 0xF018 | x
	case AddIndex:
		return 0xF01E | x
	case IndexToGlyph:
		return 0xF029 | x
	case StoreBCD:
		return 0xF033 | x
	case StoreRegs:
		return 0xF055 | x
	case LoadRegs:
		return 0xF065 | x
	default:
		return 0
	}
}

// String renders the instruction in assembler syntax using the mnemonic
// names of the chip8 instruction set, for example "LD V0, $05".
func (i Instruction) String() string {
	mnemonic := i.Kind.Mnemonic()
	if mnemonic == nil {
		return "invalid"
	}
	if params := i.params(); params != "" {
		return fmt.Sprintf("%s %s", mnemonic.Name, params)
	}
	return mnemonic.Name
}

func (i Instruction) params() string {
	switch i.Kind {
	case ClearScreen, Return:
		return ""
	case Jump, Call, SetIndex, JumpPlusV0:
		target := fmt.Sprintf("$%03X", i.Addr)
		switch i.Kind {
		case SetIndex:
			return "I, " + target
		case JumpPlusV0:
			return "V0, " + target
		default:
			return target
		}
	case SkipEqImm, SkipNeqImm, LoadImm, AddImm, Random:
		return fmt.Sprintf("V%X, $%02X", i.X, i.Byte)
	case SkipEqReg, SkipNeqReg, Move, Or, And, Xor, AddReg, SubReg, SubnReg:
		return fmt.Sprintf("V%X, V%X", i.X, i.Y)
	case Shr, Shl, SkipIfKeyDown, SkipIfKeyUp:
		return fmt.Sprintf("V%X", i.X)
	case Draw:
		return fmt.Sprintf("V%X, V%X, $%X", i.X, i.Y, i.N)
	case ReadDelay:
		return fmt.Sprintf("V%X, DT", i.X)
	case WaitKey:
		return fmt.Sprintf("V%X, K", i.X)
	case WriteDelay:
		return fmt.Sprintf("DT, V%X", i.X)
	case WriteSound:
		return fmt.Sprintf("ST, V%X", i.X)
	case AddIndex:
		return fmt.Sprintf("I, V%X", i.X)
	case IndexToGlyph:
		return fmt.Sprintf("F, V%X", i.X)
	case StoreBCD:
		return fmt.Sprintf("B, V%X", i.X)
	case StoreRegs:
		return fmt.Sprintf("[I], V%X", i.X)
	case LoadRegs:
		return fmt.Sprintf("V%X, [I]", i.X)
	default:
		return ""
	}
}
