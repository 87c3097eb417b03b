package cli

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/retroenv/chip8vm/internal/config"
	"github.com/retroenv/chip8vm/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"prog"}, args...)
}

func TestParseFlags_Defaults(t *testing.T) {
	setArgs(t, "game.ch8")

	opts, emulation, err := ParseFlags()
	assert.NoError(t, err)
	assert.Equal(t, "game.ch8", opts.Input)
	assert.Equal(t, config.DefaultScale, opts.Scale)
	assert.Equal(t, config.DefaultFrames, emulation.Frames)
	assert.Equal(t, config.DefaultInstructionsPerFrame, emulation.InstructionsPerFrame)
	assert.Equal(t, uint64(0), emulation.Seed)
	assert.False(t, emulation.SkipUnknown)
	assert.False(t, emulation.Breakpoints.Contains(0x200))
}

//nolint:funlen // test functions can be long
func TestParseFlags_EmulationOptions(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, opts options.Program, emulation options.Emulation)
	}{
		{
			name: "run settings",
			args: []string{"-frames", "120", "-ipf", "20", "-seed", "7", "-skip-unknown", "game.ch8"},
			check: func(t *testing.T, _ options.Program, emulation options.Emulation) {
				t.Helper()
				assert.Equal(t, 120, emulation.Frames)
				assert.Equal(t, 20, emulation.InstructionsPerFrame)
				assert.Equal(t, uint64(7), emulation.Seed)
				assert.True(t, emulation.SkipUnknown)
			},
		},
		{
			name: "breakpoints",
			args: []string{"-break", "0x200, $2A4,1000", "game.ch8"},
			check: func(t *testing.T, _ options.Program, emulation options.Emulation) {
				t.Helper()
				assert.True(t, emulation.Breakpoints.Contains(0x200))
				assert.True(t, emulation.Breakpoints.Contains(0x2A4))
				assert.True(t, emulation.Breakpoints.Contains(1000))
				assert.False(t, emulation.Breakpoints.Contains(0x202))
			},
		},
		{
			name: "outputs",
			args: []string{"-screenshot", "out.bmp", "-scale", "4", "-wav", "out.wav", "-display", "game.ch8"},
			check: func(t *testing.T, opts options.Program, _ options.Emulation) {
				t.Helper()
				assert.Equal(t, "out.bmp", opts.Screenshot)
				assert.Equal(t, 4, opts.Scale)
				assert.Equal(t, "out.wav", opts.Wav)
				assert.True(t, opts.Display)
			},
		},
		{
			name: "input flag",
			args: []string{"-i", "other.ch8"},
			check: func(t *testing.T, opts options.Program, _ options.Emulation) {
				t.Helper()
				assert.Equal(t, "other.ch8", opts.Input)
			},
		},
		{
			name: "batch",
			args: []string{"-batch", "roms/*.ch8"},
			check: func(t *testing.T, opts options.Program, _ options.Emulation) {
				t.Helper()
				assert.Equal(t, "roms/*.ch8", opts.Batch)
				assert.Equal(t, "", opts.Input)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setArgs(t, tt.args...)

			opts, emulation, err := ParseFlags()
			assert.NoError(t, err)
			tt.check(t, opts, emulation)
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		usage bool
	}{
		{name: "no input", args: nil, usage: true},
		{name: "argument after file", args: []string{"game.ch8", "-q"}, usage: true},
		{name: "two files", args: []string{"a.ch8", "b.ch8"}, usage: true},
		{name: "empty argument after file", args: []string{"game.ch8", ""}, usage: true},
		{name: "zero frames", args: []string{"-frames", "0", "game.ch8"}},
		{name: "zero ipf", args: []string{"-ipf", "0", "game.ch8"}},
		{name: "ipf too large", args: []string{"-ipf", "1001", "game.ch8"}},
		{name: "scale too large", args: []string{"-scale", "33", "game.ch8"}},
		{name: "invalid breakpoint", args: []string{"-break", "zz", "game.ch8"}},
		{name: "disasm in batch mode", args: []string{"-disasm", "-batch", "*.ch8"}, usage: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setArgs(t, tt.args...)

			_, _, err := ParseFlags()
			assert.Error(t, err)
			var usageErr *UsageError
			assert.Equal(t, tt.usage, errors.As(err, &usageErr))
		})
	}
}

func TestParseBreakpoints(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []uint16
		wantErr bool
	}{
		{name: "empty", input: "", want: nil},
		{name: "blank", input: "  ", want: nil},
		{name: "hex", input: "0x2A4", want: []uint16{0x2A4}},
		{name: "dollar hex", input: "$FFF", want: []uint16{0xFFF}},
		{name: "decimal", input: "512", want: []uint16{512}},
		{name: "list", input: "0x200,$202, 516", want: []uint16{0x200, 0x202, 0x204}},
		{name: "out of memory", input: "0x1000", wantErr: true},
		{name: "garbage", input: "0x20g", wantErr: true},
		{name: "empty entry", input: "0x200,,0x202", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBreakpoints(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			for _, address := range tt.want {
				assert.True(t, got.Contains(address), "missing address 0x%X", address)
			}
		})
	}
}

func TestUsageErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "two files", args: []string{"a.ch8", "b.ch8"}, want: "only one ROM file can be passed, got 2"},
		{name: "disasm in batch mode", args: []string{"-disasm", "-batch", "*.ch8"}, want: "listing output can not be combined with batch mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setArgs(t, tt.args...)

			_, _, err := ParseFlags()
			var usageErr *UsageError
			assert.True(t, errors.As(err, &usageErr))

			var buf bytes.Buffer
			usageErr.writeUsage(&buf)
			output := buf.String()
			assert.True(t, strings.HasPrefix(output, tt.want+"\n"))
			assert.Contains(t, output, "usage: chip8vm")
			assert.Contains(t, output, "-frames")
		})
	}
}

func TestUsageErrorWithoutMessage(t *testing.T) {
	setArgs(t)

	_, _, err := ParseFlags()
	var usageErr *UsageError
	assert.True(t, errors.As(err, &usageErr))

	var buf bytes.Buffer
	usageErr.writeUsage(&buf)
	assert.True(t, strings.HasPrefix(buf.String(), "usage: chip8vm"))
}
