// Package render scan converts flat-shaded scenes into a color and depth
// buffer, and presents that buffer as a PNG or in the terminal.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/taigrr/flatshade/pkg/scene"
)

// Framebuffer is a grid of colors with a parallel depth buffer. Smaller depth
// is nearer; every cell starts at +Inf.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []color.RGBA // Row-major pixel data
	Depth  []float64    // Row-major depth data
}

// NewFramebuffer creates a framebuffer filled with background and with every
// depth at +Inf.
func NewFramebuffer(width, height int, background color.RGBA) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(width, height)
	fb.Reset(background)
	return fb
}

// Resize changes the dimensions, reusing the backing arrays when they are
// large enough. Contents are undefined until the next Reset.
func (fb *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	n := width * height
	if cap(fb.Pixels) < n {
		fb.Pixels = make([]color.RGBA, n)
		fb.Depth = make([]float64, n)
	}
	fb.Pixels = fb.Pixels[:n]
	fb.Depth = fb.Depth[:n]
	fb.Width, fb.Height = width, height
}

// Reset clears both color and depth.
func (fb *Framebuffer) Reset(background color.RGBA) {
	fb.Clear(background)
	fb.ClearDepth()
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	fill(fb.Pixels, c)
}

// ClearDepth sets every depth to +Inf.
func (fb *Framebuffer) ClearDepth() {
	fill(fb.Depth, math.Inf(1))
}

// fill uses copy-doubling, which is faster than a plain loop on large
// buffers.
func fill[T any](s []T, v T) {
	if len(s) == 0 {
		return
	}
	s[0] = v
	for i := 1; i < len(s); i *= 2 {
		copy(s[i:], s[:i])
	}
}

// SetPixel sets a pixel at (x, y) to the given color without touching depth.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DepthAt returns the depth at (x, y), or +Inf if out of bounds.
func (fb *Framebuffer) DepthAt(x, y int) float64 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return math.Inf(1)
	}
	return fb.Depth[y*fb.Width+x]
}

// Composite writes the spans of el with color c using the depth test: a
// pixel is written only when the interpolated depth is strictly less than
// the stored one. Rows and columns outside the buffer are skipped. It
// returns the number of pixels written.
func (fb *Framebuffer) Composite(el *EdgeList, c scene.Color) int {
	return fb.compositeRows(el, c, 0, fb.Height)
}

// compositeRows is Composite restricted to rows [y0, y1). Calls on disjoint
// row ranges touch disjoint cells and may run concurrently.
func (fb *Framebuffer) compositeRows(el *EdgeList, c scene.Color, y0, y1 int) int {
	y0 = max(y0, el.StartY, 0)
	y1 = min(y1, el.EndY, fb.Height)

	written := 0
	for y := y0; y < y1; y++ {
		span, ok := el.Row(y)
		if !ok {
			continue
		}
		written += fb.compositeSpan(y, span, c)
	}
	return written
}

// compositeSpan covers the columns whose centers x+0.5 lie in
// [XLeft, XRight).
func (fb *Framebuffer) compositeSpan(y int, s Span, c scene.Color) int {
	first := math.Max(math.Ceil(s.XLeft-0.5), 0)
	last := math.Min(math.Ceil(s.XRight-0.5), float64(fb.Width))
	if !(last > first) {
		return 0
	}

	dzdx := 0.0
	if w := s.Width(); w > 0 {
		dzdx = (s.ZRight - s.ZLeft) / w
	}

	written := 0
	row := y * fb.Width
	for x := int(first); x < int(last); x++ {
		z := s.ZLeft + (float64(x)+0.5-s.XLeft)*dzdx
		i := row + x
		if z < fb.Depth[i] {
			fb.Depth[i] = z
			fb.Pixels[i] = c
			written++
		}
	}
	return written
}

// drawLine walks the line from (x0, y0) to (x1, y1) with Bresenham's
// algorithm, calling plot for every point.
func (fb *Framebuffer) drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	return SavePNG(path, fb.ToImage())
}

// SavePNG encodes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
