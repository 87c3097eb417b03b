// Package disasm writes a linear listing of a program image.
package disasm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/chip8vm/internal/opcode"
)

// Write outputs one line per instruction word of image, addressed as if the
// image was loaded at the program start address. Words that do not decode
// are written as data.
func Write(w io.Writer, image []byte) error {
	buf := bufio.NewWriter(w)

	for offset := 0; offset < len(image); offset += opcode.Size {
		address := machine.ProgramStart + offset

		if offset+1 >= len(image) {
			if _, err := fmt.Fprintf(buf, "$%04X  %02X     .byte $%02X\n", address, image[offset], image[offset]); err != nil {
				return fmt.Errorf("writing listing: %w", err)
			}
			break
		}

		hi, lo := image[offset], image[offset+1]
		word := uint16(hi)<<8 | uint16(lo)
		if _, err := fmt.Fprintf(buf, "$%04X  %02X %02X  %s\n", address, hi, lo, Line(word)); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	return nil
}

// Line returns the assembly text for a single instruction word.
func Line(word uint16) string {
	ins, err := opcode.Decode(word)
	if err != nil {
		return fmt.Sprintf(".word $%04X", word)
	}
	return ins.String()
}
