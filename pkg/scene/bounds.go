package scene

import (
	"github.com/taigrr/flatshade/pkg/math3d"
)

// Bounds is an axis-aligned bounding box. In screen terms Min.X/Max.X are
// left/right, Min.Y/Max.Y are up/down and Min.Z/Max.Z are near/far.
type Bounds struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewBounds creates a Bounds from min and max points.
func NewBounds(min, max math3d.Vec3) Bounds {
	return Bounds{Min: min, Max: max}
}

// BoundsOf computes the bounding box of every vertex in the scene.
// It reports false for a scene without polygons.
func BoundsOf(s Scene) (Bounds, bool) {
	if len(s.polygons) == 0 {
		return Bounds{}, false
	}

	first := s.polygons[0].Vertices[0]
	b := Bounds{Min: first, Max: first}
	for _, p := range s.polygons {
		for _, v := range p.Vertices {
			b.Min = b.Min.Min(v)
			b.Max = b.Max.Max(v)
		}
	}
	return b, true
}

// Center returns the center of the box.
func (b Bounds) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the box.
func (b Bounds) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Width returns the X extent.
func (b Bounds) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the Y extent.
func (b Bounds) Height() float64 { return b.Max.Y - b.Min.Y }

// Depth returns the Z extent.
func (b Bounds) Depth() float64 { return b.Max.Z - b.Min.Z }

// ContainsPoint returns true if the point is inside the box.
func (b Bounds) ContainsPoint(p math3d.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Transform returns the box bounding all eight corners of b after t.
func (b Bounds) Transform(t math3d.Transform) Bounds {
	corners := [8]math3d.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}

	first := t.Apply(corners[0])
	out := Bounds{Min: first, Max: first}
	for _, c := range corners[1:] {
		p := t.Apply(c)
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}
