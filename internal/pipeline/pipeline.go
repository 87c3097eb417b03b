// Package pipeline runs a loaded emulator frame by frame.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/retroenv/chip8vm/internal/emulator"
	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/chip8vm/internal/opcode"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// Limits of the instructions per frame setting.
const (
	MinInstructionsPerFrame = 1
	MaxInstructionsPerFrame = 1000
)

// StopReason describes why a run ended.
type StopReason int

// Stop reasons of a run.
const (
	FramesElapsed StopReason = iota
	BreakpointHit
	HookStopped
)

func (r StopReason) String() string {
	switch r {
	case FramesElapsed:
		return "frames elapsed"
	case BreakpointHit:
		return "breakpoint"
	case HookStopped:
		return "stopped by hook"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// FrameHook is called before every frame. Returning true ends the run.
type FrameHook interface {
	Frame(ctx context.Context, frame int) (bool, error)
}

// Recorder receives the sound state of every frame.
type Recorder interface {
	AddFrame(sounding bool)
}

// Config controls a run.
type Config struct {
	Frames               int
	InstructionsPerFrame int
	Breakpoints          set.Set[uint16] // program counter values to stop at
	SkipUnknown          bool            // step over undecodable words instead of failing
}

// Result summarizes a run.
type Result struct {
	Frames      int // completed frames
	Steps       int // executed or skipped instruction words
	Beeps       int // number of times the sound timer expired
	Reason      StopReason
	Framebuffer machine.Framebuffer
}

// Runner executes frames of an emulator.
type Runner struct {
	logger   *log.Logger
	hooks    []FrameHook
	recorder Recorder
}

// New creates a new runner.
func New(logger *log.Logger) *Runner {
	return &Runner{
		logger: logger,
	}
}

// AddHook registers a hook that is called before every frame.
func (r *Runner) AddHook(hook FrameHook) {
	r.hooks = append(r.hooks, hook)
}

// SetRecorder sets the recorder that receives the sound state per frame.
func (r *Runner) SetRecorder(recorder Recorder) {
	r.recorder = recorder
}

// Validate checks the run configuration.
func (c Config) Validate() error {
	if c.Frames < 1 {
		return fmt.Errorf("invalid frame count %d", c.Frames)
	}
	if c.InstructionsPerFrame < MinInstructionsPerFrame || c.InstructionsPerFrame > MaxInstructionsPerFrame {
		return fmt.Errorf("invalid instructions per frame %d, valid range is %d-%d",
			c.InstructionsPerFrame, MinInstructionsPerFrame, MaxInstructionsPerFrame)
	}
	return nil
}

// Run executes up to cfg.Frames frames. A breakpoint at the program counter
// of the first step is ignored so that a stopped run can be resumed. On
// error the partial result is returned alongside.
func (r *Runner) Run(ctx context.Context, emu *emulator.Emulator, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	result, err := r.run(ctx, emu, cfg)
	result.Framebuffer = emu.Framebuffer()
	return result, err
}

func (r *Runner) run(ctx context.Context, emu *emulator.Emulator, cfg Config) (Result, error) {
	var result Result
	r.logger.Debug("Run started",
		log.Int("frames", cfg.Frames),
		log.Int("ipf", cfg.InstructionsPerFrame))

	for result.Frames < cfg.Frames {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("running frame %d: %w", result.Frames, err)
		}

		stop, err := r.runHooks(ctx, result.Frames)
		if err != nil {
			return result, err
		}
		if stop {
			result.Reason = HookStopped
			r.logSummary(result)
			return result, nil
		}

		hit, err := r.runFrame(emu, cfg, &result)
		if err != nil {
			return result, err
		}
		if hit {
			result.Reason = BreakpointHit
			r.logger.Info("Breakpoint hit", log.Hex("pc", emu.PC()), log.Int("frame", result.Frames))
			r.logSummary(result)
			return result, nil
		}

		if r.recorder != nil {
			r.recorder.AddFrame(emu.Sounding())
		}
		if emu.AdvanceTimers() {
			result.Beeps++
			r.logger.Debug("Beep", log.Int("frame", result.Frames))
		}
		result.Frames++
	}

	result.Reason = FramesElapsed
	r.logSummary(result)
	return result, nil
}

func (r *Runner) runHooks(ctx context.Context, frame int) (bool, error) {
	for _, hook := range r.hooks {
		stop, err := hook.Frame(ctx, frame)
		if err != nil {
			return false, fmt.Errorf("running frame hook: %w", err)
		}
		if stop {
			return true, nil
		}
	}
	return false, nil
}

// runFrame executes the instructions of one frame and returns whether a
// breakpoint was hit.
func (r *Runner) runFrame(emu *emulator.Emulator, cfg Config, result *Result) (bool, error) {
	for range cfg.InstructionsPerFrame {
		pc := emu.PC()
		if result.Steps > 0 && cfg.Breakpoints.Contains(pc) {
			return true, nil
		}

		err := emu.Step()
		if err == nil {
			result.Steps++
			continue
		}

		var unknown *opcode.UnknownOpcodeError
		if !cfg.SkipUnknown || !errors.As(err, &unknown) {
			return false, fmt.Errorf("frame %d: %w", result.Frames, err)
		}

		r.logger.Warn("Skipping unknown opcode", log.Hex("pc", pc), log.Hex("opcode", unknown.Word))
		emu.SetPC(pc + opcode.Size)
		result.Steps++
	}
	return false, nil
}

func (r *Runner) logSummary(result Result) {
	r.logger.Info("Run finished",
		log.String("reason", result.Reason.String()),
		log.Int("frames", result.Frames),
		log.Int("steps", result.Steps),
		log.Int("beeps", result.Beeps))
}
