package opcode

import (
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Kind identifies one of the instruction shapes of the machine.
type Kind uint8

// Instruction kinds. The zero value is not a valid kind.
const (
	Invalid Kind = iota
	ClearScreen
	Return
	Jump
	Call
	SkipEqImm
	SkipNeqImm
	SkipEqReg
	LoadImm
	AddImm
	Move
	Or
	And
	Xor
	AddReg
	SubReg
	Shr
	SubnReg
	Shl
	SkipNeqReg
	SetIndex
	JumpPlusV0
	Random
	Draw
	SkipIfKeyDown
	SkipIfKeyUp
	ReadDelay
	WaitKey
	WriteDelay
	WriteSound
	AddIndex
	IndexToGlyph
	StoreBCD
	StoreRegs
	LoadRegs

	kindCount
)

var kindNames = [kindCount]string{
	Invalid:       "Invalid",
	ClearScreen:   "ClearScreen",
	Return:        "Return",
	Jump:          "Jump",
	Call:          "Call",
	SkipEqImm:     "SkipEqImm",
	SkipNeqImm:    "SkipNeqImm",
	SkipEqReg:     "SkipEqReg",
	LoadImm:       "LoadImm",
	AddImm:        "AddImm",
	Move:          "Move",
	Or:            "Or",
	And:           "And",
	Xor:           "Xor",
	AddReg:        "AddReg",
	SubReg:        "SubReg",
	Shr:           "Shr",
	SubnReg:       "SubnReg",
	Shl:           "Shl",
	SkipNeqReg:    "SkipNeqReg",
	SetIndex:      "SetIndex",
	JumpPlusV0:    "JumpPlusV0",
	Random:        "Random",
	Draw:          "Draw",
	SkipIfKeyDown: "SkipIfKeyDown",
	SkipIfKeyUp:   "SkipIfKeyUp",
	ReadDelay:     "ReadDelay",
	WaitKey:       "WaitKey",
	WriteDelay:    "WriteDelay",
	WriteSound:    "WriteSound",
	AddIndex:      "AddIndex",
	IndexToGlyph:  "IndexToGlyph",
	StoreBCD:      "StoreBCD",
	StoreRegs:     "StoreRegs",
	LoadRegs:      "LoadRegs",
}

// String returns the Go name of the kind.
func (k Kind) String() string {
	if k >= kindCount {
		return "Invalid"
	}
	return kindNames[k]
}

// Mnemonic returns the assembler instruction descriptor of the kind, nil for
// Invalid. Several kinds share one mnemonic, for example all loads map to LD.
func (k Kind) Mnemonic() *chip8.Instruction {
	switch k {
	case ClearScreen:
		return chip8.ClsInst
	case Return:
		return chip8.RetInst
	case Jump, JumpPlusV0:
		return chip8.JpInst
	case Call:
		return chip8.CallInst
	case SkipEqImm, SkipEqReg:
		return chip8.SeInst
	case SkipNeqImm, SkipNeqReg:
		return chip8.SneInst
	case LoadImm, Move, SetIndex, ReadDelay, WaitKey, WriteDelay, WriteSound,
		IndexToGlyph, StoreBCD, StoreRegs, LoadRegs:
		return chip8.LdInst
	case AddImm, AddReg, AddIndex:
		return chip8.AddInst
	case Or:
		return chip8.OrInst
	case And:
		return chip8.AndInst
	case Xor:
		return chip8.XorInst
	case SubReg:
		return chip8.SubInst
	case SubnReg:
		return chip8.SubnInst
	case Shr:
		return chip8.ShrInst
	case Shl:
		return chip8.ShlInst
	case Random:
		return chip8.RndInst
	case Draw:
		return chip8.DrwInst
	case SkipIfKeyDown:
		return chip8.SkpInst
	case SkipIfKeyUp:
		return chip8.SknpInst
	default:
		return nil
	}
}

// IsSkip returns true for the conditional skip instructions.
func (k Kind) IsSkip() bool {
	switch k {
	case SkipEqImm, SkipNeqImm, SkipEqReg, SkipNeqReg, SkipIfKeyDown, SkipIfKeyUp:
		return true
	default:
		return false
	}
}
