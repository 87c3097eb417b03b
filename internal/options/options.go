// Package options contains the program options.
package options

import (
	"github.com/retroenv/retrogolib/set"
)

// Parameters contains file path options.
type Parameters struct {
	Input  string `flag:"i" usage:"input ROM file"`
	Batch  string `flag:"batch" usage:"run all files matching pattern (e.g. *.ch8)"`
	Script string `flag:"script" usage:"Lua input script"`
}

// Flags contains behavior options.
type Flags struct {
	Break  string `flag:"break" usage:"comma separated breakpoint addresses"`
	Disasm bool   `flag:"disasm" usage:"print a listing of the ROM and exit"`
	Expect string `flag:"expect" usage:"expected SHA-256 digest of the final framebuffer"`
	Debug  bool   `flag:"debug" usage:"enable debug logging"`
	Quiet  bool   `flag:"q" usage:"quiet mode"`
}

// OutputFlags contains output options.
type OutputFlags struct {
	Screenshot string `flag:"screenshot" usage:"write the final framebuffer as BMP file"`
	Scale      int    `flag:"scale" usage:"pixel scale of the screenshot" default:"8"`
	Wav        string `flag:"wav" usage:"record the sound output to a WAV file"`
	Display    bool   `flag:"display" usage:"print the final framebuffer on the console"`
}

// Program options of the emulator.
type Program struct {
	Parameters
	Flags
	OutputFlags
}

// Emulation defines options to control the emulation run.
type Emulation struct {
	Frames               int             // frames to run
	InstructionsPerFrame int             // instructions executed per 60 Hz frame
	Seed                 uint64          // random seed, 0 selects a time based seed
	Breakpoints          set.Set[uint16] // addresses to stop at
	SkipUnknown          bool            // skip undecodable words instead of stopping
	Trace                bool            // log every executed instruction
}

// NewEmulation returns a new options instance with default options.
func NewEmulation(frames, instructionsPerFrame int) Emulation {
	return Emulation{
		Frames:               frames,
		InstructionsPerFrame: instructionsPerFrame,
		Breakpoints:          set.New[uint16](),
	}
}
