// Package machine contains the memory and register file of the virtual machine.
//
// The State holds all mutable machine state: RAM, general registers, the index
// register, the call stack, both timers, the keypad and the framebuffer. It has
// no behavior beyond storage and bounds checks, instruction semantics live in
// the cpu package.
package machine

import (
	"fmt"
)

// Memory layout and hardware dimensions.
const (
	// MemorySize is the size of the addressable RAM in bytes.
	MemorySize = 4096

	// ProgramStart is the address where program images are installed and
	// where execution starts after power-on or reset.
	ProgramStart = 0x200

	// MaxImageSize is the largest program image that fits into RAM.
	MaxImageSize = MemorySize - ProgramStart

	// NumRegisters is the number of general purpose registers V0-VF.
	NumRegisters = 16

	// FlagRegister is the index of VF that arithmetic, shift and draw
	// instructions overwrite with their flag result.
	FlagRegister = 0xF

	// StackSize is the capacity of the return address stack.
	StackSize = 16

	// NumKeys is the number of keys on the input pad.
	NumKeys = 16
)

// State is the complete machine state. A State is owned by exactly one
// caller and is not safe for concurrent use.
type State struct {
	PC uint16              // program counter
	I  uint16              // index register, not masked to 12 bits
	V  [NumRegisters]uint8 // general registers, VF doubles as flag register

	DelayTimer uint8
	SoundTimer uint8

	sp          uint8 // number of entries on the stack
	stack       [StackSize]uint16
	ram         [MemorySize]byte
	keys        [NumKeys]bool
	framebuffer Framebuffer
}

// New returns a machine in its power-on state.
func New() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset restores the power-on state: the fontset is reloaded, RAM, registers,
// stack, timers, keypad and framebuffer are cleared and PC points to the
// program start.
func (s *State) Reset() {
	*s = State{
		PC: ProgramStart,
	}
	copy(s.ram[:], fontset[:])
}

// Load installs a program image at ProgramStart. An image larger than
// MaxImageSize is rejected and nothing is written.
func (s *State) Load(image []byte) error {
	if len(image) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes, maximum is %d", ErrOversizeImage, len(image), MaxImageSize)
	}
	copy(s.ram[ProgramStart:], image)
	return nil
}

// Read returns the byte at the given address.
func (s *State) Read(address int) (byte, error) {
	if err := checkRange(address, 1); err != nil {
		return 0, err
	}
	return s.ram[address], nil
}

// ReadWord returns the big-endian 16 bit word stored at address and address+1.
func (s *State) ReadWord(address int) (uint16, error) {
	if err := checkRange(address, 2); err != nil {
		return 0, err
	}
	return uint16(s.ram[address])<<8 | uint16(s.ram[address+1]), nil
}

// Write stores a byte at the given address.
func (s *State) Write(address int, value byte) error {
	if err := checkRange(address, 1); err != nil {
		return err
	}
	s.ram[address] = value
	return nil
}

// ReadBlock returns a copy of length bytes starting at address. The whole
// range is validated before anything is read.
func (s *State) ReadBlock(address, length int) ([]byte, error) {
	if err := checkRange(address, length); err != nil {
		return nil, err
	}
	data := make([]byte, length)
	copy(data, s.ram[address:])
	return data, nil
}

// WriteBlock stores data starting at address. Nothing is written if any
// byte of the range is outside of RAM.
func (s *State) WriteBlock(address int, data []byte) error {
	if err := checkRange(address, len(data)); err != nil {
		return err
	}
	copy(s.ram[address:], data)
	return nil
}

// CheckRange verifies that length bytes starting at address are all inside
// RAM. Instructions that touch several bytes use it to validate the whole
// range before mutating anything.
func (s *State) CheckRange(address, length int) error {
	return checkRange(address, length)
}

func checkRange(address, length int) error {
	if address < 0 || address >= MemorySize {
		return &MemoryFaultError{Address: address}
	}
	if length > 0 && address+length-1 >= MemorySize {
		return &MemoryFaultError{Address: address + length - 1}
	}
	return nil
}

// Push stores a return address on the stack.
func (s *State) Push(address uint16) error {
	if int(s.sp) >= StackSize {
		return ErrStackOverflow
	}
	s.stack[s.sp] = address
	s.sp++
	return nil
}

// Pop removes and returns the most recently pushed return address.
func (s *State) Pop() (uint16, error) {
	if s.sp == 0 {
		return 0, ErrStackUnderflow
	}
	if int(s.sp) > StackSize {
		return 0, ErrStackOverflow
	}
	s.sp--
	return s.stack[s.sp], nil
}

// Depth returns the number of entries on the stack.
func (s *State) Depth() int {
	return int(s.sp)
}

// Stack returns a copy of the active stack entries, oldest first.
func (s *State) Stack() []uint16 {
	entries := make([]uint16, s.sp)
	copy(entries, s.stack[:s.sp])
	return entries
}

// SetKey updates the pressed state of a pad key. Indices outside the pad
// are ignored.
func (s *State) SetKey(index int, pressed bool) {
	if index < 0 || index >= NumKeys {
		return
	}
	s.keys[index] = pressed
}

// Key returns whether the pad key is pressed. Indices outside the pad are
// reported as not pressed.
func (s *State) Key(index int) bool {
	if index < 0 || index >= NumKeys {
		return false
	}
	return s.keys[index]
}

// FirstPressedKey returns the lowest index of a pressed key.
func (s *State) FirstPressedKey() (int, bool) {
	for i, pressed := range s.keys {
		if pressed {
			return i, true
		}
	}
	return 0, false
}

// TogglePixel XORs the pixel at x,y and returns true if a lit pixel was
// turned off. Coordinates wrap around both axes.
func (s *State) TogglePixel(x, y int) bool {
	return s.framebuffer.toggle(x, y)
}

// ClearScreen turns all pixels off.
func (s *State) ClearScreen() {
	s.framebuffer = Framebuffer{}
}

// Framebuffer returns a snapshot of the display.
func (s *State) Framebuffer() Framebuffer {
	return s.framebuffer
}
