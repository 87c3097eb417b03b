// Package cli handles command line interface logic
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/retroenv/chip8vm/internal/config"
	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/chip8vm/internal/options"
	"github.com/retroenv/chip8vm/internal/pipeline"
	"github.com/retroenv/chip8vm/internal/screenshot"
	"github.com/retroenv/retrogolib/set"
)

// ParseFlags parses command line flags and returns program and emulation options
func ParseFlags() (options.Program, options.Emulation, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	emulation := options.NewEmulation(config.DefaultFrames, config.DefaultInstructionsPerFrame)
	readOptionFlags(flags, &opts)
	readEmulationFlags(flags, &emulation)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "" && opts.Batch == "") {
		return opts, options.Emulation{}, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, options.Emulation{}, withFlags(err, flags)
	}

	if err := validateOptions(opts, emulation); err != nil {
		return opts, options.Emulation{}, withFlags(err, flags)
	}

	if opts.Input == "" && opts.Batch == "" {
		opts.Input = args[0]
	}

	breakpoints, err := ParseBreakpoints(opts.Break)
	if err != nil {
		return opts, options.Emulation{}, err
	}
	emulation.Breakpoints = breakpoints

	return opts, emulation, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the error message, if any, followed by the usage text.
func (e *UsageError) ShowUsage() {
	e.writeUsage(os.Stdout)
}

func (e *UsageError) writeUsage(w io.Writer) {
	if e.msg != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", e.msg)
	}
	_, _ = fmt.Fprintf(w, "usage: chip8vm [options] <ROM file to run>\n\n")
	if e.flags != nil {
		e.flags.SetOutput(w)
		e.flags.PrintDefaults()
	}
	_, _ = fmt.Fprintln(w)
}

// withFlags attaches the flag set to a usage error so that its usage text
// lists the options.
func withFlags(err error, flags *flag.FlagSet) error {
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		usageErr.flags = flags
	}
	return err
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && strings.HasPrefix(arg, "-") {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after ROM file, please pass the ROM file as last argument", arg),
			}
		}
	}
	if len(args) > 1 {
		return &UsageError{msg: fmt.Sprintf("only one ROM file can be passed, got %d", len(args))}
	}
	return nil
}

// validateOptions checks the ranges of numeric option values
func validateOptions(opts options.Program, emulation options.Emulation) error {
	if emulation.Frames < 1 {
		return fmt.Errorf("invalid frame count %d, must be at least 1", emulation.Frames)
	}
	if emulation.InstructionsPerFrame < pipeline.MinInstructionsPerFrame ||
		emulation.InstructionsPerFrame > pipeline.MaxInstructionsPerFrame {
		return fmt.Errorf("invalid instructions per frame %d, valid range is %d-%d",
			emulation.InstructionsPerFrame, pipeline.MinInstructionsPerFrame, pipeline.MaxInstructionsPerFrame)
	}
	if opts.Scale < 1 || opts.Scale > screenshot.MaxScale {
		return fmt.Errorf("invalid scale %d, valid range is 1-%d", opts.Scale, screenshot.MaxScale)
	}
	if opts.Disasm && opts.Batch != "" {
		return &UsageError{msg: "listing output can not be combined with batch mode"}
	}
	return nil
}

// ParseBreakpoints parses a comma separated list of addresses. Addresses
// are decimal or hexadecimal with a 0x or $ prefix.
func ParseBreakpoints(s string) (set.Set[uint16], error) {
	breakpoints := set.New[uint16]()
	if strings.TrimSpace(s) == "" {
		return breakpoints, nil
	}

	for field := range strings.SplitSeq(s, ",") {
		field = strings.TrimSpace(field)
		text := field
		base := 0
		if strings.HasPrefix(text, "$") {
			text = text[1:]
			base = 16
		}

		address, err := strconv.ParseUint(text, base, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid breakpoint address '%s': %w", field, err)
		}
		if address >= machine.MemorySize {
			return nil, fmt.Errorf("breakpoint address '%s' exceeds memory size 0x%X", field, machine.MemorySize)
		}
		breakpoints.Add(uint16(address))
	}
	return breakpoints, nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input ROM file")
	flags.StringVar(&opts.Batch, "batch", "", "run a batch of given path and file mask, for example *.ch8")
	flags.StringVar(&opts.Script, "script", "", "name of a Lua script that drives the key pad")
	flags.StringVar(&opts.Break, "break", "", "comma separated list of breakpoint addresses, for example 0x200,$2A4")
	flags.BoolVar(&opts.Disasm, "disasm", false, "print a listing of the ROM instead of running it")
	flags.StringVar(&opts.Expect, "expect", "", "expected SHA-256 digest of the final framebuffer or a reference .bmp screenshot")
	flags.StringVar(&opts.Screenshot, "screenshot", "", "name of the BMP file to write the final framebuffer to")
	flags.IntVar(&opts.Scale, "scale", config.DefaultScale, "pixel scale factor of the screenshot")
	flags.StringVar(&opts.Wav, "wav", "", "name of the WAV file to record the sound output to")
	flags.BoolVar(&opts.Display, "display", false, "print the final framebuffer on the console")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}

func readEmulationFlags(flags *flag.FlagSet, opts *options.Emulation) {
	flags.IntVar(&opts.Frames, "frames", opts.Frames, "number of 60 Hz frames to run")
	flags.IntVar(&opts.InstructionsPerFrame, "ipf", opts.InstructionsPerFrame, "instructions executed per frame")
	flags.Uint64Var(&opts.Seed, "seed", 0, "seed of the random number generator, 0 uses a time based seed")
	flags.BoolVar(&opts.SkipUnknown, "skip-unknown", false, "skip unknown opcodes instead of stopping")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction, requires -debug")
}
