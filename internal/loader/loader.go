// Package loader handles program image loading operations.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/chip8vm/internal/machine"
)

// ErrEmptyImage is returned for files without any content.
var ErrEmptyImage = errors.New("empty program image")

// Loader handles loading program images from disk.
type Loader struct{}

// New creates a new program image loader.
func New() *Loader {
	return &Loader{}
}

// Load reads a raw program image. Files that do not fit into the program
// area are rejected before the machine gets touched.
func (l *Loader) Load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return l.Read(file)
}

// Read reads a raw program image from a reader.
func (l *Loader) Read(r io.Reader) ([]byte, error) {
	image, err := io.ReadAll(io.LimitReader(r, machine.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading program image: %w", err)
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if len(image) > machine.MaxImageSize {
		return nil, fmt.Errorf("%w: more than %d bytes", machine.ErrOversizeImage, machine.MaxImageSize)
	}
	return image, nil
}
