// Package display renders the framebuffer as text.
package display

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/chip8vm/internal/machine"
	"golang.org/x/term"
)

const (
	asciiLit   = '#'
	asciiUnlit = '.'
)

// half block characters indexed by top pixel | bottom pixel<<1
var blocks = [4]rune{' ', '▀', '▄', '█'}

// Render writes the framebuffer to w. In unicode mode two display rows are
// combined into one text line using half block characters, otherwise every
// pixel is written as a single ASCII character.
func Render(w io.Writer, fb machine.Framebuffer, unicode bool) error {
	buf := bufio.NewWriter(w)

	if unicode {
		for y := 0; y < machine.ScreenHeight; y += 2 {
			for x := range machine.ScreenWidth {
				index := 0
				if fb.Pixel(x, y) {
					index |= 1
				}
				if fb.Pixel(x, y+1) {
					index |= 2
				}
				_, _ = buf.WriteRune(blocks[index])
			}
			_ = buf.WriteByte('\n')
		}
	} else {
		for y := range machine.ScreenHeight {
			for x := range machine.ScreenWidth {
				c := byte(asciiUnlit)
				if fb.Pixel(x, y) {
					c = asciiLit
				}
				_ = buf.WriteByte(c)
			}
			_ = buf.WriteByte('\n')
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("writing framebuffer: %w", err)
	}
	return nil
}

// Print renders the framebuffer to f, using unicode output if f is a
// terminal.
func Print(f *os.File, fb machine.Framebuffer) error {
	return Render(f, fb, IsTerminal(f))
}

// IsTerminal returns whether the file is connected to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
