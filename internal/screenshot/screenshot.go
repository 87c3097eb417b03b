// Package screenshot converts the framebuffer to an image and saves it as BMP.
package screenshot

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/retroenv/chip8vm/internal/machine"
	"golang.org/x/image/bmp"
)

// MaxScale is the largest supported pixel scale factor.
const MaxScale = 32

var palette = color.Palette{
	color.Gray{Y: 0x00},
	color.Gray{Y: 0xFF},
}

// Image returns a paletted image of the framebuffer where every display
// pixel is scale by scale image pixels large.
func Image(fb machine.Framebuffer, scale int) (*image.Paletted, error) {
	if scale < 1 || scale > MaxScale {
		return nil, fmt.Errorf("invalid scale %d, valid range is 1-%d", scale, MaxScale)
	}

	img := image.NewPaletted(image.Rect(0, 0, machine.ScreenWidth*scale, machine.ScreenHeight*scale), palette)
	for y := range machine.ScreenHeight {
		for x := range machine.ScreenWidth {
			if !fb.Pixel(x, y) {
				continue
			}
			for dy := range scale {
				for dx := range scale {
					img.SetColorIndex(x*scale+dx, y*scale+dy, 1)
				}
			}
		}
	}
	return img, nil
}

// Encode writes the framebuffer as BMP image.
func Encode(w io.Writer, fb machine.Framebuffer, scale int) error {
	img, err := Image(fb, scale)
	if err != nil {
		return err
	}
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("encoding bmp: %w", err)
	}
	return nil
}

// Decode reads a BMP image written by Encode back into a framebuffer. The
// image size has to be an exact multiple of the display size, the scale is
// derived from it.
func Decode(r io.Reader) (machine.Framebuffer, error) {
	var fb machine.Framebuffer

	img, err := bmp.Decode(r)
	if err != nil {
		return fb, fmt.Errorf("decoding bmp: %w", err)
	}

	bounds := img.Bounds()
	scale := bounds.Dx() / machine.ScreenWidth
	if scale < 1 || bounds.Dx() != machine.ScreenWidth*scale || bounds.Dy() != machine.ScreenHeight*scale {
		return fb, fmt.Errorf("invalid image size %dx%d, expected a multiple of %dx%d",
			bounds.Dx(), bounds.Dy(), machine.ScreenWidth, machine.ScreenHeight)
	}

	for y := range machine.ScreenHeight {
		for x := range machine.ScreenWidth {
			gray := color.GrayModel.Convert(img.At(bounds.Min.X+x*scale, bounds.Min.Y+y*scale)).(color.Gray)
			fb.Set(x, y, gray.Y >= 0x80)
		}
	}
	return fb, nil
}

// ReadFile loads a framebuffer from the named BMP file.
func ReadFile(path string) (machine.Framebuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return machine.Framebuffer{}, fmt.Errorf("opening file '%s': %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// WriteFile saves the framebuffer as BMP image to the named file.
func WriteFile(path string, fb machine.Framebuffer, scale int) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file '%s': %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("closing file '%s': %w", path, err)
		}
	}()

	return Encode(f, fb, scale)
}
