// Package fileprocessor handles file loading and processing operations
package fileprocessor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/chip8vm/internal/audio"
	"github.com/retroenv/chip8vm/internal/disasm"
	"github.com/retroenv/chip8vm/internal/display"
	"github.com/retroenv/chip8vm/internal/emulator"
	"github.com/retroenv/chip8vm/internal/loader"
	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/chip8vm/internal/options"
	"github.com/retroenv/chip8vm/internal/pipeline"
	"github.com/retroenv/chip8vm/internal/random"
	"github.com/retroenv/chip8vm/internal/screenshot"
	"github.com/retroenv/chip8vm/internal/script"
	"github.com/retroenv/chip8vm/internal/verification"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

// ErrNoFiles is returned when a batch pattern does not match any file.
var ErrNoFiles = errors.New("no files to process")

// ProcessFile handles the complete file processing workflow, console output
// is written to stdout.
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program, emulation options.Emulation) error {
	return Process(ctx, logger, opts, emulation, os.Stdout)
}

// Process loads the input file and either writes its listing or runs it,
// writing all requested outputs afterwards. The outputs are also written
// when the run fails, reflecting the state at the failure.
func Process(ctx context.Context, logger *log.Logger, opts options.Program,
	emulation options.Emulation, out io.Writer) error {

	image, err := loader.New().Load(opts.Input)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	if opts.Disasm {
		if err := disasm.Write(out, image); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		return nil
	}

	emu := emulator.New(logger, random.New(emulation.Seed))
	emu.SetTrace(emulation.Trace)
	if err := emu.Load(image); err != nil {
		return err
	}

	runner := pipeline.New(logger)

	if opts.Script != "" {
		s, err := script.Load(opts.Script, emu)
		if err != nil {
			return fmt.Errorf("loading script: %w", err)
		}
		defer s.Close()
		runner.AddHook(s)
	}

	var recorder *audio.Recorder
	if opts.Wav != "" {
		recorder = audio.New()
		runner.SetRecorder(recorder)
	}

	logger.Info("Running program",
		log.String("file", opts.Input),
		log.Int("size", len(image)))

	cfg := pipeline.Config{
		Frames:               emulation.Frames,
		InstructionsPerFrame: emulation.InstructionsPerFrame,
		Breakpoints:          emulation.Breakpoints,
		SkipUnknown:          emulation.SkipUnknown,
	}
	result, runErr := runner.Run(ctx, emu, cfg)
	if errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if err := writeOutputs(logger, opts, result, recorder, out); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return fmt.Errorf("running program: %w", runErr)
	}

	if opts.Expect != "" {
		if err := verifyFramebuffer(logger, result.Framebuffer, opts.Expect); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		logger.Info("Verification successful")
	}
	return nil
}

// verifyFramebuffer compares against a reference BMP screenshot if expected
// names one, otherwise expected is a hex digest.
func verifyFramebuffer(logger *log.Logger, fb machine.Framebuffer, expected string) error {
	if !strings.EqualFold(filepath.Ext(expected), ".bmp") {
		return verification.VerifyFramebuffer(logger, fb, expected)
	}

	reference, err := screenshot.ReadFile(expected)
	if err != nil {
		return fmt.Errorf("loading reference screenshot: %w", err)
	}
	return verification.CompareFramebuffers(logger, reference, fb)
}

func writeOutputs(logger *log.Logger, opts options.Program, result pipeline.Result,
	recorder *audio.Recorder, out io.Writer) error {

	logger.Info("Framebuffer", log.String("digest", verification.Digest(result.Framebuffer)))

	if opts.Screenshot != "" {
		if err := screenshot.WriteFile(opts.Screenshot, result.Framebuffer, opts.Scale); err != nil {
			return fmt.Errorf("writing screenshot: %w", err)
		}
		logger.Info("Screenshot written", log.String("file", opts.Screenshot))
	}

	if recorder != nil {
		if err := recorder.WriteFile(opts.Wav); err != nil {
			return fmt.Errorf("writing sound recording: %w", err)
		}
		logger.Info("Sound recording written", log.String("file", opts.Wav))
	}

	if opts.Display {
		var err error
		if f, ok := out.(*os.File); ok {
			err = display.Print(f, result.Framebuffer)
		} else {
			err = display.Render(out, result.Framebuffer, false)
		}
		if err != nil {
			return fmt.Errorf("displaying framebuffer: %w", err)
		}
	}
	return nil
}

// GetFilesToProcess returns list of files to process based on options
func GetFilesToProcess(opts *options.Program) ([]string, error) {
	if opts.Batch != "" {
		matches, err := filepath.Glob(opts.Batch)
		if err != nil {
			return nil, fmt.Errorf("globbing batch pattern: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: pattern '%s'", ErrNoFiles, opts.Batch)
		}
		return matches, nil
	}
	return []string{opts.Input}, nil
}

// GenerateOutputFilename returns the name of an output file for the given
// input file in batch mode, replacing the extension with ext.
func GenerateOutputFilename(inputFile, ext string) string {
	current := filepath.Ext(inputFile)
	return inputFile[:len(inputFile)-len(current)] + ext
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	logger.Info("chip8vm", log.String("version", buildinfo.Version(version, commit, date)))
}
