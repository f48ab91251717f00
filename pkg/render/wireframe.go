package render

import (
	"math"

	"github.com/taigrr/flatshade/pkg/scene"
)

// outlineBias lets an edge win against the face it borders, whose depth
// along the edge equals the edge's own.
const outlineBias = 0.5

// maxOutlineCoord bounds the screen coordinates an edge may have before it is
// skipped instead of walked.
const maxOutlineCoord = 1 << 20

// DrawOutline draws the three edges of a screen-space polygon on top of the
// composited image. An edge pixel is drawn only where it is not behind the
// stored depth, so edges of hidden faces stay hidden. Depth is not written.
func (fb *Framebuffer) DrawOutline(p scene.Polygon, c scene.Color) {
	for i := range 3 {
		a, b := p.Vertices[i], p.Vertices[(i+1)%3]
		if !drawable(a.X, a.Y) || !drawable(b.X, b.Y) {
			continue
		}

		x0, y0 := int(math.Floor(a.X)), int(math.Floor(a.Y))
		x1, y1 := int(math.Floor(b.X)), int(math.Floor(b.Y))
		steps := max(abs(x1-x0), abs(y1-y0))

		n := 0
		fb.drawLine(x0, y0, x1, y1, func(x, y int) {
			t := 0.0
			if steps > 0 {
				t = float64(n) / float64(steps)
			}
			n++
			z := a.Z + (b.Z-a.Z)*t
			if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
				return
			}
			if z <= fb.Depth[y*fb.Width+x]+outlineBias {
				fb.Pixels[y*fb.Width+x] = c
			}
		})
	}
}

func drawable(x, y float64) bool {
	return math.Abs(x) <= maxOutlineCoord && math.Abs(y) <= maxOutlineCoord
}
