// Package emulator bundles the machine state, the execution engine and the
// timers behind the operations exposed to host collaborators.
package emulator

import (
	"fmt"

	"github.com/retroenv/chip8vm/internal/cpu"
	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/chip8vm/internal/random"
	"github.com/retroenv/chip8vm/internal/timer"
	"github.com/retroenv/retrogolib/log"
)

// Emulator is a single virtual machine instance. It is not safe for
// concurrent use, callers that share it across goroutines must serialize
// access.
type Emulator struct {
	logger *log.Logger
	state  *machine.State
	cpu    *cpu.CPU
}

// New returns a powered-on emulator using rnd as random byte source.
func New(logger *log.Logger, rnd random.Source) *Emulator {
	state := machine.New()
	return &Emulator{
		logger: logger,
		state:  state,
		cpu:    cpu.New(state, rnd, logger),
	}
}

// SetTrace enables debug logging of every executed instruction.
func (e *Emulator) SetTrace(enabled bool) {
	e.cpu.SetTrace(enabled)
}

// Load installs a program image at the program start address.
func (e *Emulator) Load(image []byte) error {
	if err := e.state.Load(image); err != nil {
		return fmt.Errorf("loading program image: %w", err)
	}
	e.logger.Debug("Program loaded", log.Int("size", len(image)))
	return nil
}

// Step executes one fetch-decode-execute cycle.
func (e *Emulator) Step() error {
	return e.cpu.Step()
}

// AdvanceTimers decrements both timers once. It returns true when the sound
// timer reached zero in this call.
func (e *Emulator) AdvanceTimers() bool {
	return timer.Advance(e.state)
}

// Sounding returns whether the sound timer is running.
func (e *Emulator) Sounding() bool {
	return timer.Sounding(e.state)
}

// SetKey updates the state of a pad key, out of range indices are ignored.
func (e *Emulator) SetKey(index int, pressed bool) {
	e.state.SetKey(index, pressed)
}

// Framebuffer returns a snapshot of the display.
func (e *Emulator) Framebuffer() machine.Framebuffer {
	return e.state.Framebuffer()
}

// Reset restores the power-on state. A loaded program is cleared as well.
func (e *Emulator) Reset() {
	e.state.Reset()
}

// PC returns the program counter.
func (e *Emulator) PC() uint16 {
	return e.state.PC
}

// SetPC moves the program counter.
func (e *Emulator) SetPC(pc uint16) {
	e.state.PC = pc
}

// Register returns the value of register VX, x is masked to 0-F.
func (e *Emulator) Register(x int) uint8 {
	return e.state.V[x&0xF]
}

// State gives direct access to the machine state for debugging and tests.
func (e *Emulator) State() *machine.State {
	return e.state
}
