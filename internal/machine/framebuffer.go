package machine

// Display dimensions in pixels.
const (
	ScreenWidth  = 64
	ScreenHeight = 32
)

// Framebuffer is a row-major monochrome pixel grid. It is a value type,
// copies are independent snapshots.
type Framebuffer [ScreenWidth * ScreenHeight]bool

// Pixel returns whether the pixel at x,y is lit. Coordinates wrap around.
func (f Framebuffer) Pixel(x, y int) bool {
	return f[index(x, y)]
}

// Lit returns the number of lit pixels.
func (f Framebuffer) Lit() int {
	var n int
	for _, on := range f {
		if on {
			n++
		}
	}
	return n
}

// Bytes returns one byte per pixel in row-major order, 1 for lit pixels
// and 0 otherwise.
func (f Framebuffer) Bytes() []byte {
	b := make([]byte, len(f))
	for i, on := range f {
		if on {
			b[i] = 1
		}
	}
	return b
}

// Set changes the pixel at x,y. Coordinates wrap around.
func (f *Framebuffer) Set(x, y int, lit bool) {
	f[index(x, y)] = lit
}

func (f *Framebuffer) toggle(x, y int) bool {
	i := index(x, y)
	wasSet := f[i]
	f[i] = !wasSet
	return wasSet
}

func index(x, y int) int {
	x %= ScreenWidth
	if x < 0 {
		x += ScreenWidth
	}
	y %= ScreenHeight
	if y < 0 {
		y += ScreenHeight
	}
	return y*ScreenWidth + x
}
