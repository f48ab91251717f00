package render

import (
	"math"

	"github.com/taigrr/flatshade/pkg/scene"
)

// Span is the horizontal extent of a polygon on one scanline, with the depth
// at each end.
type Span struct {
	XLeft, ZLeft   float64
	XRight, ZRight float64
	writes         int
}

// Width returns XRight - XLeft.
func (s Span) Width() float64 {
	return s.XRight - s.XLeft
}

// record adds one edge crossing. The smaller x always ends up on the left
// regardless of the order edges are walked in.
func (s *Span) record(x, z float64) {
	switch {
	case s.writes == 0:
		s.XLeft, s.ZLeft = x, z
		s.XRight, s.ZRight = x, z
	case x < s.XLeft:
		s.XLeft, s.ZLeft = x, z
	case x > s.XRight:
		s.XRight, s.ZRight = x, z
	}
	s.writes++
}

// EdgeList holds the left and right edge crossings of one polygon for each
// scanline in [StartY, EndY).
//
// Scanline y is sampled at y+0.5. An edge from up to down (up.Y < down.Y)
// crosses every scanline with up.Y <= y+0.5 < down.Y. The half-open range
// keeps a vertex shared by two edges from being counted twice.
type EdgeList struct {
	StartY int
	EndY   int
	rows   []Span
}

// MaxScanline bounds the rows of any EdgeList to [-MaxScanline, MaxScanline).
const MaxScanline = 1 << 16

// NewEdgeList scan converts a screen-space polygon. StartY is the floor of
// the smallest vertex y and EndY the ceiling of the largest, clamped to
// [-MaxScanline, MaxScanline).
//
// The list allocates one row per scanline, so callers rendering into a
// bounded buffer should prefer NewEdgeListWithin.
func NewEdgeList(p scene.Polygon) *EdgeList {
	return newEdgeList(p, -MaxScanline, MaxScanline)
}

// NewEdgeListWithin is NewEdgeList with the rows restricted to [0, height).
// A polygon entirely above or below the buffer yields an empty list.
func NewEdgeListWithin(p scene.Polygon, height int) *EdgeList {
	return newEdgeList(p, 0, float64(min(height, MaxScanline)))
}

func newEdgeList(p scene.Polygon, lo, hi float64) *EdgeList {
	v := p.Vertices
	minY := math.Min(v[0].Y, math.Min(v[1].Y, v[2].Y))
	maxY := math.Max(v[0].Y, math.Max(v[1].Y, v[2].Y))

	start := math.Max(math.Floor(minY), lo)
	end := math.Min(math.Ceil(maxY), hi)
	if !(end > start) {
		return &EdgeList{}
	}

	el := &EdgeList{
		StartY: int(start),
		EndY:   int(end),
	}
	el.rows = make([]Span, el.EndY-el.StartY)

	for i := range 3 {
		el.addEdge(v[i].X, v[i].Y, v[i].Z, v[(i+1)%3].X, v[(i+1)%3].Y, v[(i+1)%3].Z)
	}
	return el
}

// addEdge records the crossings of one polygon edge.
func (el *EdgeList) addEdge(x0, y0, z0, x1, y1, z1 float64) {
	if y0 == y1 {
		// Horizontal edges never cross a sample line.
		return
	}
	if y0 > y1 {
		x0, y0, z0, x1, y1, z1 = x1, y1, z1, x0, y0, z0
	}

	dy := y1 - y0
	dxdy := (x1 - x0) / dy
	dzdy := (z1 - z0) / dy

	// First and one-past-last scanlines whose sample line y+0.5 lies in
	// [y0, y1).
	first := math.Max(math.Ceil(y0-0.5), float64(el.StartY))
	last := math.Min(math.Ceil(y1-0.5), float64(el.EndY))
	if !(last > first) {
		return
	}

	for y := int(first); y < int(last); y++ {
		t := float64(y) + 0.5 - y0
		el.rows[y-el.StartY].record(x0+t*dxdy, z0+t*dzdy)
	}
}

// Empty reports whether the list covers no scanline.
func (el *EdgeList) Empty() bool {
	return el.EndY <= el.StartY
}

// Rows returns the number of scanlines in [StartY, EndY).
func (el *EdgeList) Rows() int {
	if el.Empty() {
		return 0
	}
	return el.EndY - el.StartY
}

// Row returns the span at scanline y. It reports false for scanlines outside
// [StartY, EndY) and for scanlines the polygon does not reach, which only
// happens at its extreme rows or for degenerate polygons.
func (el *EdgeList) Row(y int) (Span, bool) {
	if y < el.StartY || y >= el.EndY {
		return Span{}, false
	}
	s := el.rows[y-el.StartY]
	if s.writes < 2 {
		return Span{}, false
	}
	return s, true
}
